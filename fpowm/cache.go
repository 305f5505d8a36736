package fpowm

import (
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/arvid220u/powm/powmerr"
)

// Cache holds at most one fixed-base table for its whole lifetime. The first
// successful InitPrecomp wins; later calls leave the cache untouched and
// report false. There is no way to reset or replace the table.
//
// Reads never take a lock: the table is published only once it is fully
// built. The zero value is an empty cache ready for use. A Cache must not be
// copied after first use.
type Cache struct {
	mu    sync.Mutex // serializes initialization
	entry atomic.Value
}

type cacheEntry struct {
	table   *Table
	base    *big.Int
	modulus *big.Int
}

func (c *Cache) load() *cacheEntry {
	e, _ := c.entry.Load().(*cacheEntry)
	return e
}

// InitPrecomp builds the table on the first call and returns true. Once the
// cache holds a table, every call returns false, whatever its arguments.
// A call that fails leaves the cache empty.
func (c *Cache) InitPrecomp(base, modulus *big.Int, blockWidth, exponentBitLen uint64) (bool, error) {
	if c.load() != nil {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.load() != nil {
		return false, nil
	}
	t, err := InitPrecomp(base, modulus, blockWidth, exponentBitLen)
	if err != nil {
		return false, err
	}
	c.entry.Store(&cacheEntry{
		table:   t,
		base:    new(big.Int).Set(base),
		modulus: new(big.Int).Set(modulus),
	})
	return true, nil
}

// Initialized reports whether the cache holds a table.
func (c *Cache) Initialized() bool {
	return c.load() != nil
}

// Fpowm raises the cached base to exponent modulo the cached modulus.
// It returns powmerr.ErrCacheUninitialized before the cache is initialized.
func (c *Cache) Fpowm(exponent *big.Int) (*big.Int, error) {
	e := c.load()
	if e == nil {
		return nil, powmerr.ErrCacheUninitialized
	}
	return e.table.Fpowm(exponent)
}

// BaseModulus returns copies of the base and modulus the cache was built
// with. ok is false before initialization.
func (c *Cache) BaseModulus() (base, modulus *big.Int, ok bool) {
	e := c.load()
	if e == nil {
		return nil, nil, false
	}
	return new(big.Int).Set(e.base), new(big.Int).Set(e.modulus), true
}

// Geometry returns the block width and exponent bit length of the cached
// table. ok is false before initialization.
func (c *Cache) Geometry() (blockWidth, exponentBitLen int, ok bool) {
	e := c.load()
	if e == nil {
		return 0, 0, false
	}
	return e.table.BlockWidth(), e.table.ExponentBitLen(), true
}

// processCache lives as long as the process. Services are expected to
// initialize it once at startup, before spawning workers.
var processCache Cache

// CacheInitPrecomp initializes the process-wide cache. See Cache.InitPrecomp.
func CacheInitPrecomp(base, modulus *big.Int, blockWidth, exponentBitLen uint64) (bool, error) {
	return processCache.InitPrecomp(base, modulus, blockWidth, exponentBitLen)
}

// CacheFpowm exponentiates with the process-wide cache. See Cache.Fpowm.
func CacheFpowm(exponent *big.Int) (*big.Int, error) {
	return processCache.Fpowm(exponent)
}

// CacheBaseModulus returns the base and modulus of the process-wide cache.
func CacheBaseModulus() (base, modulus *big.Int, ok bool) {
	return processCache.BaseModulus()
}

// ProcessCache returns the process-wide cache, for callers that take a
// *Cache as a dependency.
func ProcessCache() *Cache {
	return &processCache
}
