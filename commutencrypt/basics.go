package commutencrypt

import (
	"crypto/rand"
	"io"
	"math/big"
)

var bigOne = big.NewInt(1)

type SystemKey struct { // systemwide values
	P, Q, G *big.Int
}

type PublicKey struct { // user's public key
	P, Q, G, Y *big.Int
}

type PrivateKey struct { // user's private key
	PublicKey
	X *big.Int // Y = G^X mod P. 1 <= X < Q
}

// randHelp returns a number from 1 to q - 1, inclusive
func randHelp(random io.Reader, q *big.Int) (*big.Int, error) {
	r, err := rand.Int(random, new(big.Int).Sub(q, bigOne))
	if err != nil {
		return nil, err
	}
	return r.Add(r, bigOne), nil
}
