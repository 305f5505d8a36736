package commutencrypt

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/arvid220u/powm/fpowm"
	"github.com/arvid220u/powm/spowm"
)

// PrepareMsg prepares a []byte message for encryption
// plen = PublicKey.P.BitLen()
func PrepareMsg(msg []byte, plen int) (*big.Int, error) {
	maxsize := (plen+7)/8 - 2
	if len(msg) > maxsize-3 {
		return nil, fmt.Errorf("message size %d too long for %d bit key", len(msg), plen)
	}
	padded, err := pad(msg, maxsize)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(padded), nil
}

// powG returns g^r mod p, from the process-wide table when it holds this
// system's generator.
func powG(pubkey *PublicKey, r *big.Int) *big.Int {
	if g, p, ok := fpowm.CacheBaseModulus(); ok && g.Cmp(pubkey.G) == 0 && p.Cmp(pubkey.P) == 0 {
		if K, err := fpowm.CacheFpowm(r); err == nil {
			return K
		}
	}
	return new(big.Int).Exp(pubkey.G, r, pubkey.P)
}

// Encrypt adds one layer of encryption. The user saves K (for decrypt) and
// forwards C to the next encrypter.
// return: (K, C, error) with K = g^r and C = prevC * y^r (mod p)
func Encrypt(random io.Reader, pubkey *PublicKey, prevC *big.Int) (*big.Int, *big.Int, error) {
	r, err := randHelp(random, pubkey.Q)
	if err != nil {
		return nil, nil, err
	}
	K := powG(pubkey, r)
	C, err := spowm.Spowm([]*big.Int{prevC, pubkey.Y}, []*big.Int{bigOne, r}, pubkey.P)
	if err != nil {
		return nil, nil, err
	}
	return K, C, nil
}

// Decrypt removes the layer added with K. The user forwards D to the next
// decrypter.
// return: (D, error) with D = prevD / K^x = prevD * K^(q-x) (mod p)
func Decrypt(privkey *PrivateKey, K *big.Int, prevD *big.Int) (*big.Int, error) {
	if privkey.X.Sign() <= 0 || privkey.X.Cmp(privkey.Q) >= 0 {
		return nil, errors.New("Decrypt received invalid private key")
	}
	e := new(big.Int).Sub(privkey.Q, privkey.X)
	return spowm.Spowm([]*big.Int{prevD, K}, []*big.Int{bigOne, e}, privkey.P)
}

// DecryptAll removes several layers at once when one party holds all the
// keys, e.g. after collecting them at the end of a round.
// keys[i] must be the key that produced Ks[i].
func DecryptAll(keys []*PrivateKey, Ks []*big.Int, C *big.Int) (*big.Int, error) {
	if len(keys) != len(Ks) {
		return nil, fmt.Errorf("%d keys for %d layers", len(keys), len(Ks))
	}
	if len(keys) == 0 {
		return new(big.Int).Set(C), nil
	}
	bases := append([]*big.Int{C}, Ks...)
	exponents := []*big.Int{bigOne}
	for _, k := range keys {
		if k.P.Cmp(keys[0].P) != 0 {
			return nil, errors.New("DecryptAll received keys of different systems")
		}
		if k.X.Sign() <= 0 || k.X.Cmp(k.Q) >= 0 {
			return nil, errors.New("DecryptAll received invalid private key")
		}
		exponents = append(exponents, new(big.Int).Sub(k.Q, k.X))
	}
	return spowm.Spowm(bases, exponents, keys[0].P)
}

// ExtractMsg extracts the message from a fully decrypted D
func ExtractMsg(D *big.Int) ([]byte, error) {
	return unpad(D.Bytes())
}

// pad pads msg to targetlen-1 bytes: at least one 1, a zero separator, then msg
func pad(msg []byte, targetlen int) ([]byte, error) {
	if len(msg) > targetlen-3 {
		return nil, errors.New("message too long to encrypt")
	}
	padded := make([]byte, targetlen-1)
	for i := 0; i < targetlen-2-len(msg); i++ {
		padded[i] = 1
	}
	padded[targetlen-2-len(msg)] = 0
	copy(padded[targetlen-len(msg)-1:], msg)
	return padded, nil
}

// unpad undoes pad
func unpad(msg []byte) ([]byte, error) {
	for i := 0; i < len(msg); i++ {
		if msg[i] == 0 {
			return msg[i+1:], nil
		}
	}
	return nil, errors.New("no 0 in message")
}
