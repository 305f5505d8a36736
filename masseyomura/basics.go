package masseyomura

import (
	"crypto/rand"
	"io"
	"math/big"
)

var bigOne = big.NewInt(1)

type SystemKey struct { // systemwide value
	P *big.Int
}

type PrivateKey struct { // user's private encryption/decryption keys
	SystemKey
	E, D *big.Int
}

// randHelp returns a number from 1 to q - 1, inclusive
func randHelp(random io.Reader, q *big.Int) (*big.Int, error) {
	r, err := rand.Int(random, new(big.Int).Sub(q, bigOne))
	if err != nil {
		return nil, err
	}
	return r.Add(r, bigOne), nil
}
