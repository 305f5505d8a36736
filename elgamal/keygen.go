// Package elgamal implements ElGamal over the quadratic residues of a safe
// prime group, with re-encryption for mix-nets.
//
// A message m is encrypted under public key Y = G^X as (K, C) = (G^r, m*Y^r).
// Anyone holding the public key can re-randomize a ciphertext without
// learning m, which is what each mix server does before shuffling.
package elgamal

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/arvid220u/powm/millerrabin"
)

// PrimeReps is the number of Miller-Rabin rounds used when generating P.
const PrimeReps = 40

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

type SystemKey struct { // systemwide values
	P, Q, G *big.Int // P = 2Q + 1, G generates the subgroup of order Q
}

type PublicKey struct { // user's public key
	SystemKey
	Y *big.Int // Y = G^X mod P
}

type PrivateKey struct { // user's private key
	PublicKey
	X *big.Int // 1 <= X < Q
}

// randHelp returns a number from 1 to q - 1, inclusive
func randHelp(random io.Reader, q *big.Int) (*big.Int, error) {
	r, err := rand.Int(random, new(big.Int).Sub(q, bigOne))
	if err != nil {
		return nil, err
	}
	return r.Add(r, bigOne), nil
}

// GenSysKey generates a safe prime P of bits bits and a generator G of the
// quadratic residues mod P, a group of prime order Q = (P-1)/2.
func GenSysKey(random io.Reader, bits int) (*SystemKey, error) {
	p, err := millerrabin.GenerateSafePrime(random, bits, PrimeReps)
	if err != nil {
		return nil, err
	}
	q := new(big.Int).Rsh(p, 1)
	g := new(big.Int)
	for {
		// h in [2, P-2]; h^2 is a residue other than 1
		h, err := randHelp(random, new(big.Int).Sub(p, bigTwo))
		if err != nil {
			return nil, err
		}
		h.Add(h, bigOne)
		g.Exp(h, bigTwo, p)
		if g.Cmp(bigOne) != 0 {
			break
		}
	}
	return &SystemKey{P: p, Q: q, G: g}, nil
}

// GenUserKey generates a user's keypair in the group of syskey.
func GenUserKey(random io.Reader, syskey *SystemKey) (*PrivateKey, error) {
	x, err := randHelp(random, syskey.Q)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{
		PublicKey: PublicKey{
			SystemKey: *syskey,
			Y:         new(big.Int).Exp(syskey.G, x, syskey.P),
		},
		X: x,
	}, nil
}
