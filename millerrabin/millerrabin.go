// Package millerrabin tests and searches for probable primes and safe primes.
//
// A safe prime is a prime p such that (p-1)/2 is prime too. Witnesses are
// drawn from the io.Reader passed to each call; pass crypto/rand.Reader
// unless reproducibility is wanted. Nothing here runs in constant time.
package millerrabin

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/arvid220u/powm/powmerr"
)

var (
	bigOne   = big.NewInt(1)
	bigTwo   = big.NewInt(2)
	bigThree = big.NewInt(3)
	bigFour  = big.NewInt(4)
	bigFive  = big.NewInt(5)
)

// sieve groups small odd primes whose product fits a uint64, so one
// big.Int reduction covers all of them.
type sieve struct {
	product *big.Int
	primes  []uint64
}

// The odd primes below 64.
var sieves = []sieve{
	newSieve(3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53),
	newSieve(59, 61),
}

func newSieve(primes ...uint64) sieve {
	product := uint64(1)
	for _, p := range primes {
		product *= p
	}
	return sieve{product: new(big.Int).SetUint64(product), primes: primes}
}

// smallFactor returns an odd prime below 64 dividing n, if there is one.
func smallFactor(n *big.Int) (uint64, bool) {
	r := new(big.Int)
	for _, s := range sieves {
		m := r.Mod(n, s.product).Uint64()
		for _, p := range s.primes {
			if m%p == 0 {
				return p, true
			}
		}
	}
	return 0, false
}

// sieved reports whether n survives trial division, that is n has no odd
// prime factor below 64 other than itself.
func sieved(n *big.Int) bool {
	p, ok := smallFactor(n)
	return !ok || (n.IsUint64() && n.Uint64() == p)
}

func checkArgs(op string, n *big.Int, reps int) error {
	if n == nil {
		return powmerr.Parameterf(op, "n is nil")
	}
	if reps < 1 {
		return powmerr.Parameterf(op, "reps must be positive, got %d", reps)
	}
	return nil
}

// MillerRabin reports whether n is a probable prime after reps rounds of
// the Miller-Rabin test with witnesses drawn uniformly from [2, n-2].
// A composite passes with probability at most 4^-reps.
//
// Numbers below 2, even numbers and numbers with an odd prime factor below
// 64 are decided without reading from random.
func MillerRabin(random io.Reader, n *big.Int, reps int) (bool, error) {
	if err := checkArgs("MillerRabin", n, reps); err != nil {
		return false, err
	}
	return millerRabin(random, n, reps)
}

func millerRabin(random io.Reader, n *big.Int, reps int) (bool, error) {
	if n.Cmp(bigTwo) < 0 {
		return false, nil
	}
	if n.Cmp(bigThree) <= 0 {
		return true, nil
	}
	if n.Bit(0) == 0 {
		return false, nil
	}
	if p, ok := smallFactor(n); ok {
		return n.IsUint64() && n.Uint64() == p, nil
	}

	// n-1 = d * 2^s with d odd
	nm1 := new(big.Int).Sub(n, bigOne)
	s := nm1.TrailingZeroBits()
	d := new(big.Int).Rsh(nm1, s)

	// rand.Int draws from [0, n-4], shifted to [2, n-2]
	span := new(big.Int).Sub(n, bigThree)
	x := new(big.Int)
rounds:
	for i := 0; i < reps; i++ {
		a, err := rand.Int(random, span)
		if err != nil {
			return false, fmt.Errorf("millerrabin: drawing witness: %w", err)
		}
		a.Add(a, bigTwo)

		x.Exp(a, d, n)
		if x.Cmp(bigOne) == 0 || x.Cmp(nm1) == 0 {
			continue
		}
		for j := uint(1); j < s; j++ {
			x.Mul(x, x)
			x.Mod(x, n)
			if x.Cmp(nm1) == 0 {
				continue rounds
			}
			if x.Cmp(bigOne) == 0 {
				return false, nil
			}
		}
		return false, nil
	}
	return true, nil
}

// MillerRabinSafe reports whether both n and (n-1)/2 pass MillerRabin with
// reps rounds each.
func MillerRabinSafe(random io.Reader, n *big.Int, reps int) (bool, error) {
	if err := checkArgs("MillerRabinSafe", n, reps); err != nil {
		return false, err
	}
	q := new(big.Int).Sub(n, bigOne)
	q.Rsh(q, 1)
	// reject on the cheap checks of both halves before any exponentiation
	if n.Cmp(bigFive) >= 0 && (!sieved(n) || !sieved(q)) {
		return false, nil
	}
	ok, err := millerRabin(random, n, reps)
	if !ok || err != nil {
		return false, err
	}
	return millerRabin(random, q, reps)
}

// NextPrime returns the smallest probable prime strictly greater than n.
func NextPrime(random io.Reader, n *big.Int, reps int) (*big.Int, error) {
	if err := checkArgs("NextPrime", n, reps); err != nil {
		return nil, err
	}
	if n.Cmp(bigTwo) < 0 {
		return big.NewInt(2), nil
	}
	p := new(big.Int).Add(n, bigOne)
	if p.Bit(0) == 0 {
		p.Add(p, bigOne)
	}
	for ; ; p.Add(p, bigTwo) {
		if !sieved(p) {
			continue
		}
		ok, err := millerRabin(random, p, reps)
		if err != nil {
			return nil, err
		}
		if ok {
			return p, nil
		}
	}
}

// NextSafePrime returns the smallest probable safe prime strictly greater
// than n. Every safe prime above 5 is 3 mod 4, so only those candidates are
// visited, and both p and (p-1)/2 are sieved before Miller-Rabin runs.
func NextSafePrime(random io.Reader, n *big.Int, reps int) (*big.Int, error) {
	if err := checkArgs("NextSafePrime", n, reps); err != nil {
		return nil, err
	}
	if n.Cmp(bigFive) < 0 {
		return big.NewInt(5), nil
	}
	p := new(big.Int).Add(n, bigOne)
	// round p up to 3 mod 4
	r := new(big.Int).And(p, bigThree).Int64()
	p.Add(p, big.NewInt((7-r)%4))

	q := new(big.Int)
	for ; ; p.Add(p, bigFour) {
		q.Rsh(p, 1)
		if !sieved(p) || !sieved(q) {
			continue
		}
		ok, err := millerRabin(random, q, reps)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		ok, err = millerRabin(random, p, reps)
		if err != nil {
			return nil, err
		}
		if ok {
			return p, nil
		}
	}
}

// GeneratePrime returns a probable prime of exactly bits bits.
func GeneratePrime(random io.Reader, bits, reps int) (*big.Int, error) {
	return generate("GeneratePrime", random, bits, reps, NextPrime)
}

// GenerateSafePrime returns a probable safe prime of exactly bits bits.
func GenerateSafePrime(random io.Reader, bits, reps int) (*big.Int, error) {
	return generate("GenerateSafePrime", random, bits, reps, NextSafePrime)
}

func generate(op string, random io.Reader, bits, reps int, next func(io.Reader, *big.Int, int) (*big.Int, error)) (*big.Int, error) {
	if bits < 3 {
		return nil, powmerr.Parameterf(op, "bits must be at least 3, got %d", bits)
	}
	if reps < 1 {
		return nil, powmerr.Parameterf(op, "reps must be positive, got %d", reps)
	}
	buf := make([]byte, (bits+7)/8)
	// bits of the leading byte above the requested length
	excess := uint(len(buf)*8 - bits)
	for {
		if _, err := io.ReadFull(random, buf); err != nil {
			return nil, fmt.Errorf("millerrabin: drawing starting point: %w", err)
		}
		buf[0] &= byte(0xff >> excess)
		buf[0] |= byte(0x80 >> excess)
		start := new(big.Int).SetBytes(buf)
		// start itself is a candidate
		start.Sub(start, bigOne)
		p, err := next(random, start, reps)
		if err != nil {
			return nil, err
		}
		if p.BitLen() == bits {
			return p, nil
		}
	}
}
