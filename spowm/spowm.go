// Package spowm computes products of modular powers,
//
//	bases[0]^exponents[0] * ... * bases[n-1]^exponents[n-1] mod modulus,
//
// with the simultaneous (Straus/Shamir) method: one squaring per exponent bit
// is shared by every base, and each bit position costs one multiplication per
// group of bases, picked from a precomputed table of subset products.
//
// Bases are split into groups of at most GroupSize so the subset tables stay
// at 2^GroupSize entries no matter how many bases are passed.
//
// The modulus must be larger than one. It does not need to be odd or prime.
// Nothing here runs in constant time.
package spowm

import (
	"math/big"
	"math/bits"

	"github.com/arvid220u/powm/powmerr"
)

// GroupSize is the largest number of bases that share one subset table.
const GroupSize = 8

var bigOne = big.NewInt(1)

// Table holds the subset products of a fixed list of bases, so that many
// exponent vectors can be evaluated against the same bases.
// A Table is read-only after NewTable and safe for concurrent use.
type Table struct {
	modulus *big.Int
	n       int
	groups  []group
}

// group covers bases [offset, offset+size) of the table.
type group struct {
	offset int
	size   int
	// products[mask] is the product of the bases selected by the bits of
	// mask, reduced modulo the table's modulus. products[0] is 1.
	products []*big.Int
}

// Spowm returns the product of bases[i]^exponents[i] modulo modulus, as a
// value in [0, modulus). Empty inputs give 1.
func Spowm(bases, exponents []*big.Int, modulus *big.Int) (*big.Int, error) {
	if len(bases) != len(exponents) {
		return nil, powmerr.Parameterf("Spowm", "len of bases %d is not the same as len of exponents %d", len(bases), len(exponents))
	}
	t, err := NewTable(bases, modulus)
	if err != nil {
		return nil, err
	}
	return t.Spowm(exponents)
}

// NewTable precomputes the subset products of bases modulo modulus.
func NewTable(bases []*big.Int, modulus *big.Int) (*Table, error) {
	if err := checkModulus("NewTable", modulus); err != nil {
		return nil, err
	}
	for i, b := range bases {
		if b == nil {
			return nil, powmerr.Parameterf("NewTable", "base %d is nil", i)
		}
	}
	t := &Table{
		modulus: new(big.Int).Set(modulus),
		n:       len(bases),
	}
	for start := 0; start < len(bases); start += GroupSize {
		end := start + GroupSize
		if end > len(bases) {
			end = len(bases)
		}
		t.groups = append(t.groups, group{
			offset:   start,
			size:     end - start,
			products: subsetProducts(bases[start:end], t.modulus),
		})
	}
	return t, nil
}

// subsetProducts returns the 2^len(bases) products of every subset of bases.
func subsetProducts(bases []*big.Int, modulus *big.Int) []*big.Int {
	reduced := make([]*big.Int, len(bases))
	for i, b := range bases {
		reduced[i] = new(big.Int).Mod(b, modulus)
	}
	products := make([]*big.Int, 1<<len(bases))
	products[0] = big.NewInt(1)
	for mask := 1; mask < len(products); mask++ {
		j := bits.TrailingZeros(uint(mask))
		p := new(big.Int).Mul(products[mask&(mask-1)], reduced[j])
		products[mask] = p.Mod(p, modulus)
	}
	return products
}

// Len returns the number of bases in the table.
func (t *Table) Len() int {
	return t.n
}

// Modulus returns a copy of the modulus the table reduces by.
func (t *Table) Modulus() *big.Int {
	return new(big.Int).Set(t.modulus)
}

// Spowm evaluates the product of the table's bases raised to exponents.
// Exponents must be non-negative and there must be exactly Len of them.
func (t *Table) Spowm(exponents []*big.Int) (*big.Int, error) {
	if len(exponents) != t.n {
		return nil, powmerr.Parameterf("Spowm", "len of bases %d is not the same as len of exponents %d", t.n, len(exponents))
	}
	maxBits := 0
	for i, e := range exponents {
		if e == nil {
			return nil, powmerr.Parameterf("Spowm", "exponent %d is nil", i)
		}
		if e.Sign() < 0 {
			return nil, powmerr.Parameterf("Spowm", "exponent %d is negative", i)
		}
		if l := e.BitLen(); l > maxBits {
			maxBits = l
		}
	}

	acc := big.NewInt(1)
	tmp := new(big.Int)
	for bit := maxBits - 1; bit >= 0; bit-- {
		tmp.Mul(acc, acc)
		acc.Mod(tmp, t.modulus)
		for _, g := range t.groups {
			mask := 0
			for j, e := range exponents[g.offset : g.offset+g.size] {
				mask |= int(e.Bit(bit)) << j
			}
			if mask != 0 {
				tmp.Mul(acc, g.products[mask])
				acc.Mod(tmp, t.modulus)
			}
		}
	}
	return acc, nil
}

func checkModulus(op string, modulus *big.Int) error {
	if modulus == nil {
		return powmerr.Parameterf(op, "modulus is nil")
	}
	if modulus.Cmp(bigOne) <= 0 {
		return powmerr.Parameterf(op, "modulus %s must be greater than 1", modulus)
	}
	return nil
}
