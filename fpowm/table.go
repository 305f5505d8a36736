// Package fpowm implements fixed-base modular exponentiation with a
// precomputed table (the windowed comb / BGMW method).
//
// A Table for base g, modulus m, block width w and exponent bit length L
// stores, for every block b < ceil(L/w) and every w-bit digit d,
//
//	g^(d * 2^(b*w)) mod m
//
// so that g^e mod m is the product of one entry per block, picked by the
// corresponding w-bit window of e. All squarings are paid when the table is
// built. Each Fpowm call then costs at most ceil(L/w) multiplications, and the
// table holds 2^w * ceil(L/w) integers.
//
// The modulus must be larger than one; it does not need to be odd or prime.
package fpowm

import (
	"math/big"
	"math/bits"

	"github.com/arvid220u/powm/powmerr"
)

const maxInt = int(^uint(0) >> 1)

var bigOne = big.NewInt(1)

// Table is a fixed-base exponentiation table. Fpowm only reads the table and
// may be called concurrently; Precomp rewrites it in place and must not run
// concurrently with anything else on the same Table.
type Table struct {
	blockWidth     int
	exponentBitLen int
	blocks         int

	modulus *big.Int
	// base is nil until the first Precomp.
	base *big.Int
	// entries[block<<blockWidth + digit] = base^(digit * 2^(block*blockWidth)) mod modulus
	entries []*big.Int
}

// Init allocates the geometry of a table for modulus without choosing a base.
// Call Precomp before Fpowm.
func Init(modulus *big.Int, blockWidth, exponentBitLen uint64) (*Table, error) {
	return newTable("Init", modulus, blockWidth, exponentBitLen)
}

// InitPrecomp allocates a table and fills it for base.
func InitPrecomp(base, modulus *big.Int, blockWidth, exponentBitLen uint64) (*Table, error) {
	t, err := newTable("InitPrecomp", modulus, blockWidth, exponentBitLen)
	if err != nil {
		return nil, err
	}
	if err := t.Precomp(base); err != nil {
		return nil, err
	}
	return t, nil
}

func newTable(method string, modulus *big.Int, blockWidth, exponentBitLen uint64) (*Table, error) {
	if modulus == nil {
		return nil, powmerr.Parameterf(method, "modulus is nil")
	}
	if modulus.Cmp(bigOne) <= 0 {
		return nil, powmerr.Parameterf(method, "modulus %s must be greater than 1", modulus)
	}
	w, l, blocks, err := geometry(method, blockWidth, exponentBitLen)
	if err != nil {
		return nil, err
	}
	return &Table{
		blockWidth:     w,
		exponentBitLen: l,
		blocks:         blocks,
		modulus:        new(big.Int).Set(modulus),
		entries:        make([]*big.Int, blocks<<uint(w)),
	}, nil
}

// geometry converts the size parameters and checks that a table of
// blocks * 2^w entries can be indexed with an int.
func geometry(method string, blockWidth, exponentBitLen uint64) (w, l, blocks int, err error) {
	if blockWidth > uint64(maxInt) {
		return 0, 0, 0, &powmerr.CastOverflowError{Method: method, Variable: "block_width", Value: blockWidth}
	}
	if exponentBitLen > uint64(maxInt) {
		return 0, 0, 0, &powmerr.CastOverflowError{Method: method, Variable: "exponent_bitlen", Value: exponentBitLen}
	}
	if blockWidth == 0 {
		return 0, 0, 0, powmerr.Parameterf(method, "block_width must be positive")
	}
	if exponentBitLen == 0 {
		return 0, 0, 0, powmerr.Parameterf(method, "exponent_bitlen must be positive")
	}
	w, l = int(blockWidth), int(exponentBitLen)
	if w >= bits.UintSize-1 {
		return 0, 0, 0, &powmerr.CastOverflowError{Method: method, Variable: "block_width", Value: blockWidth}
	}
	blocks = l / w
	if l%w != 0 {
		blocks++
	}
	if blocks > maxInt>>uint(w) {
		return 0, 0, 0, &powmerr.CastOverflowError{Method: method, Variable: "exponent_bitlen", Value: exponentBitLen}
	}
	return w, l, blocks, nil
}

// Precomp recomputes every entry for a new base. The geometry and the
// entry storage of the table are kept.
func (t *Table) Precomp(base *big.Int) error {
	if base == nil {
		return powmerr.Parameterf("Precomp", "base is nil")
	}
	rowLen := 1 << uint(t.blockWidth)
	g := new(big.Int).Mod(base, t.modulus)
	for block := 0; block < t.blocks; block++ {
		row := t.entries[block*rowLen : (block+1)*rowLen]
		row[0] = setEntry(row[0], bigOne)
		row[1] = setEntry(row[1], g)
		for d := 2; d < rowLen; d++ {
			if row[d] == nil {
				row[d] = new(big.Int)
			}
			row[d].Mul(row[d-1], g)
			row[d].Mod(row[d], t.modulus)
		}
		if block+1 < t.blocks {
			// g <- g^(2^w), the generator of the next block
			for i := 0; i < t.blockWidth; i++ {
				g.Mul(g, g)
				g.Mod(g, t.modulus)
			}
		}
	}
	t.base = new(big.Int).Set(base)
	return nil
}

func setEntry(e, v *big.Int) *big.Int {
	if e == nil {
		return new(big.Int).Set(v)
	}
	return e.Set(v)
}

// Fpowm returns base^exponent mod modulus, in [0, modulus).
// The exponent must be non-negative and at most ExponentBitLen bits long.
func (t *Table) Fpowm(exponent *big.Int) (*big.Int, error) {
	if t.base == nil {
		return nil, powmerr.ErrNoBase
	}
	if exponent == nil {
		return nil, powmerr.Parameterf("Fpowm", "exponent is nil")
	}
	if exponent.Sign() < 0 {
		return nil, powmerr.Parameterf("Fpowm", "exponent %s is negative", exponent)
	}
	n := exponent.BitLen()
	if n > t.exponentBitLen {
		return nil, &powmerr.ExponentOverflowError{BitLen: n, Max: t.exponentBitLen}
	}

	w := t.blockWidth
	acc := big.NewInt(1)
	for block, start := 0, 0; start < n; block, start = block+1, start+w {
		digit := 0
		for j := 0; j < w; j++ {
			digit |= int(exponent.Bit(start+j)) << uint(j)
		}
		if digit == 0 {
			continue
		}
		acc.Mul(acc, t.entries[block<<uint(w)+digit])
		acc.Mod(acc, t.modulus)
	}
	return acc, nil
}

// BlockWidth returns the number of exponent bits per window.
func (t *Table) BlockWidth() int {
	return t.blockWidth
}

// ExponentBitLen returns the largest exponent bit length the table accepts.
func (t *Table) ExponentBitLen() int {
	return t.exponentBitLen
}

// Blocks returns ceil(ExponentBitLen / BlockWidth).
func (t *Table) Blocks() int {
	return t.blocks
}

// Base returns a copy of the current base, or nil if Precomp was never called.
func (t *Table) Base() *big.Int {
	if t.base == nil {
		return nil
	}
	return new(big.Int).Set(t.base)
}

// Modulus returns a copy of the modulus.
func (t *Table) Modulus() *big.Int {
	return new(big.Int).Set(t.modulus)
}
