package masseyomura

import (
	"errors"
	"fmt"
	"math/big"
)

func bytesMaxSize(bits int) int {
	// message has strictly fewer bits than p
	return (bits-1)/8 - 1
}

// BitsMaxSize reverses bytesMaxSize
func BitsMaxSize(bytes int) int {
	return 8*(bytes+1) + 1
}

// PrepareMsg prepares a []byte message for encryption
// plen = SystemKey.P.BitLen()
func PrepareMsg(msg []byte, plen int) (*big.Int, error) {
	maxsize := bytesMaxSize(plen)
	if len(msg) > maxsize {
		return nil, fmt.Errorf("message size %d too long for %d bit key", len(msg), plen)
	}
	padded, err := pad(msg, maxsize+1)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(padded), nil
}

// Encrypt encrypts using privkey.E: result = message ^ privkey.E (mod p)
func Encrypt(privkey *PrivateKey, prevC *big.Int) *big.Int {
	return new(big.Int).Exp(prevC, privkey.E, privkey.P)
}

// Decrypt decrypts using privkey.D: result = ciphertext ^ privkey.D (mod p)
func Decrypt(privkey *PrivateKey, prevD *big.Int) *big.Int {
	return new(big.Int).Exp(prevD, privkey.D, privkey.P)
}

// ExtractMsg extracts a message from fully decrypted
func ExtractMsg(D *big.Int) ([]byte, error) {
	return unPad(D.Bytes())
}

// pad pads to reach targetlen: ones, a zero separator, then msg
func pad(msg []byte, targetlen int) ([]byte, error) {
	if len(msg) >= targetlen {
		return nil, fmt.Errorf("message of %d bytes does not fit in %d padded bytes", len(msg), targetlen)
	}
	padded := make([]byte, targetlen)
	for i := 0; i < targetlen-1-len(msg); i++ {
		padded[i] = 1
	}
	padded[targetlen-1-len(msg)] = 0
	copy(padded[targetlen-len(msg):], msg)
	return padded, nil
}

// unPad undoes pad
func unPad(msg []byte) ([]byte, error) {
	for i := 0; i < len(msg); i++ {
		if msg[i] == 0 {
			return msg[i+1:], nil
		}
	}
	return nil, errors.New("no 0 in message")
}
