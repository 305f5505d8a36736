package elgamal

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/arvid220u/powm/fpowm"
	"github.com/arvid220u/powm/spowm"
)

var (
	errInvalidCiphertext = errors.New("elgamal: ciphertext component out of range")
	errInvalidMessage    = errors.New("elgamal: message out of range")
)

// PrepareMsg prepares a []byte message for encryption
// plen = PublicKey.P.BitLen()
func PrepareMsg(msg []byte, plen int) (*big.Int, error) {
	maxsize := (plen-1)/8 - 1 // padded message has strictly fewer bits than P
	if len(msg) > maxsize-2 {
		return nil, fmt.Errorf("message size %d too long for %d bit key", len(msg), plen)
	}
	padded := make([]byte, maxsize)
	for i := 0; i < maxsize-1-len(msg); i++ {
		padded[i] = 1
	}
	copy(padded[maxsize-len(msg):], msg)
	return new(big.Int).SetBytes(padded), nil
}

// ExtractMsg extracts the message from a fully decrypted D
func ExtractMsg(D *big.Int) ([]byte, error) {
	msg := D.Bytes()
	for i := 0; i < len(msg); i++ {
		if msg[i] == 0 {
			return msg[i+1:], nil
		}
	}
	return nil, errors.New("elgamal: no 0 in message")
}

// Encrypt encrypts m once under pubkey. It returns (K, C) = (G^r, m*Y^r).
// Use an Encrypter to encrypt many messages under the same key.
func Encrypt(random io.Reader, pubkey *PublicKey, m *big.Int) (*big.Int, *big.Int, error) {
	if !inGroupRange(m, pubkey.P) {
		return nil, nil, errInvalidMessage
	}
	r, err := randHelp(random, pubkey.Q)
	if err != nil {
		return nil, nil, err
	}
	K := new(big.Int).Exp(pubkey.G, r, pubkey.P)
	C, err := spowm.Spowm([]*big.Int{m, pubkey.Y}, []*big.Int{bigOne, r}, pubkey.P)
	if err != nil {
		return nil, nil, err
	}
	return K, C, nil
}

// Decrypt recovers m = C / K^X as C * K^(Q-X), which holds since K lies in
// the subgroup of order Q.
func Decrypt(privkey *PrivateKey, K, C *big.Int) (*big.Int, error) {
	if !inGroupRange(K, privkey.P) || !inGroupRange(C, privkey.P) {
		return nil, errInvalidCiphertext
	}
	if privkey.X.Sign() <= 0 || privkey.X.Cmp(privkey.Q) >= 0 {
		return nil, errors.New("elgamal: Decrypt received invalid private key")
	}
	e := new(big.Int).Sub(privkey.Q, privkey.X)
	return spowm.Spowm([]*big.Int{C, K}, []*big.Int{bigOne, e}, privkey.P)
}

func inGroupRange(v, p *big.Int) bool {
	return v != nil && v.Sign() > 0 && v.Cmp(p) < 0
}

// Encrypter encrypts and re-encrypts under one public key using
// fixed-base tables for G and Y. It is safe for concurrent use.
type Encrypter struct {
	pub  PublicKey
	g, y *fpowm.Table
}

// NewEncrypter precomputes tables for G and Y with windows of blockWidth
// bits. Each table holds 2^blockWidth * ceil(|Q|/blockWidth) integers.
func NewEncrypter(pubkey *PublicKey, blockWidth uint64) (*Encrypter, error) {
	l := uint64(pubkey.Q.BitLen())
	g, err := fpowm.InitPrecomp(pubkey.G, pubkey.P, blockWidth, l)
	if err != nil {
		return nil, err
	}
	y, err := fpowm.InitPrecomp(pubkey.Y, pubkey.P, blockWidth, l)
	if err != nil {
		return nil, err
	}
	return &Encrypter{pub: *pubkey, g: g, y: y}, nil
}

// PublicKey returns the key the Encrypter encrypts under.
func (enc *Encrypter) PublicKey() *PublicKey {
	pub := enc.pub
	return &pub
}

// pow returns (G^r, Y^r).
func (enc *Encrypter) pow(r *big.Int) (*big.Int, *big.Int, error) {
	gr, err := enc.g.Fpowm(r)
	if err != nil {
		return nil, nil, err
	}
	yr, err := enc.y.Fpowm(r)
	if err != nil {
		return nil, nil, err
	}
	return gr, yr, nil
}

// Encrypt returns (K, C) = (G^r, m*Y^r) for a fresh r.
func (enc *Encrypter) Encrypt(random io.Reader, m *big.Int) (*big.Int, *big.Int, error) {
	if !inGroupRange(m, enc.pub.P) {
		return nil, nil, errInvalidMessage
	}
	r, err := randHelp(random, enc.pub.Q)
	if err != nil {
		return nil, nil, err
	}
	K, yr, err := enc.pow(r)
	if err != nil {
		return nil, nil, err
	}
	C := yr.Mul(yr, m)
	C.Mod(C, enc.pub.P)
	return K, C, nil
}

// ReEncrypt re-randomizes (K, C) into (K*G^s, C*Y^s) for a fresh s. The
// result decrypts to the same message and is unlinkable to the input
// without the private key.
func (enc *Encrypter) ReEncrypt(random io.Reader, K, C *big.Int) (*big.Int, *big.Int, error) {
	if !inGroupRange(K, enc.pub.P) || !inGroupRange(C, enc.pub.P) {
		return nil, nil, errInvalidCiphertext
	}
	s, err := randHelp(random, enc.pub.Q)
	if err != nil {
		return nil, nil, err
	}
	gs, ys, err := enc.pow(s)
	if err != nil {
		return nil, nil, err
	}
	K2 := gs.Mul(gs, K)
	K2.Mod(K2, enc.pub.P)
	C2 := ys.Mul(ys, C)
	C2.Mod(C2, enc.pub.P)
	return K2, C2, nil
}
