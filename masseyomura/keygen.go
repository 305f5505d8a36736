package masseyomura

import (
	"errors"
	"io"
	"math/big"

	"github.com/arvid220u/powm/millerrabin"
)

// PrimeReps is the number of Miller-Rabin rounds used when generating p.
const PrimeReps = 40

// GenSysKey generates the prime p to base the system off of.
// p is a safe prime of bitsp bits, so p-1 = 2q with q prime. Note that the
// size of p limits the message size.
func GenSysKey(random io.Reader, bitsp int) (*SystemKey, error) {
	p, err := millerrabin.GenerateSafePrime(random, bitsp, PrimeReps)
	if err != nil {
		return nil, err
	}
	return &SystemKey{P: p}, nil
}

// GenUserKey generates a user's encryption/decryption keypair for syskey:
// random 0 < e < p-1 with gcd(e, p-1) = 1, and d with e*d = 1 (mod p-1).
func GenUserKey(random io.Reader, syskey *SystemKey) (*PrivateKey, error) {
	p1 := new(big.Int).Sub(syskey.P, bigOne) // p - 1
	gcd := new(big.Int)
	var e *big.Int
	for {
		var err error
		e, err = randHelp(random, p1) // random 1 <= e < p - 1
		if err != nil {
			return nil, err
		}
		// p-1 = 2q, so odd e are coprime unless e = q
		e.SetBit(e, 0, 1)
		if gcd.GCD(nil, nil, e, p1).Cmp(bigOne) == 0 {
			break
		}
	}
	d := new(big.Int).ModInverse(e, p1)
	if d == nil {
		return nil, errors.New("masseyomura: e has no inverse mod p-1")
	}
	return &PrivateKey{
		SystemKey: *syskey,
		E:         e,
		D:         d,
	}, nil
}
