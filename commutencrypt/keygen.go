package commutencrypt

import (
	"io"
	"math/big"

	"github.com/arvid220u/powm/fpowm"
	"github.com/arvid220u/powm/millerrabin"
)

// PrimeReps is the number of Miller-Rabin rounds used for p and q.
const PrimeReps = 40

// maxCofactor bounds the random even cofactor 2r in p = 2rq + 1.
var maxCofactor = big.NewInt(10)

// GenSysKey generates p, q, g to base the system off of:
// g generates a group of order q (mod p), a schnorr group.
// bitsq is a strict lower bound on the number of bits in p, and the number
// of bits in p limits the max size of a message.
func GenSysKey(random io.Reader, bitsq int) (*SystemKey, error) {
	var p, q, r *big.Int
	for {
		var err error
		q, err = millerrabin.GeneratePrime(random, bitsq, PrimeReps)
		if err != nil {
			return nil, err
		}
		r, err = randHelp(random, maxCofactor) // 1 <= r < 10
		if err != nil {
			return nil, err
		}
		r.Lsh(r, 1)
		p = new(big.Int).Mul(r, q)
		p.Add(p, bigOne) // p = 2r * q + 1
		isprime, err := millerrabin.MillerRabin(random, p, PrimeReps)
		if err != nil {
			return nil, err
		}
		if isprime {
			break
		}
	}
	g := new(big.Int)
	for {
		h, err := randHelp(random, p) // 1 <= h < p
		if err != nil {
			return nil, err
		}
		g.Exp(h, r, p) // g = h^((p-1)/q) mod p
		if g.Cmp(bigOne) != 0 {
			break
		}
	}
	return &SystemKey{P: p, Q: q, G: g}, nil
}

// GenUserKey generates a user's public/private keypair for syskey.
func GenUserKey(random io.Reader, syskey *SystemKey) (*PrivateKey, error) {
	x, err := randHelp(random, syskey.Q) // random 1 <= x < Q
	if err != nil {
		return nil, err
	}
	return &PrivateKey{
		PublicKey: PublicKey{
			P: syskey.P, Q: syskey.Q, G: syskey.G, // save for convenience
			Y: new(big.Int).Exp(syskey.G, x, syskey.P), // y = g^x mod p
		},
		X: x,
	}, nil
}

// ShareGenerator installs a fixed-base table for the system generator in the
// process-wide cache, so that every Encrypt in this process computes g^r from
// the table. It reports false if the cache was already initialized, possibly
// for another system.
func ShareGenerator(syskey *SystemKey, blockWidth uint64) (bool, error) {
	return fpowm.CacheInitPrecomp(syskey.G, syskey.P, blockWidth, uint64(syskey.Q.BitLen()))
}
