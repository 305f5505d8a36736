// Package powmerr holds the error types shared by the exponentiation and
// primality packages.
package powmerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBase is returned by a fixed-base table that was allocated with
	// Init and never given a base.
	ErrNoBase = errors.New("fixed-base table has no base")

	// ErrCacheUninitialized is returned by reads of a fixed-base cache that
	// has not been initialized yet.
	ErrCacheUninitialized = errors.New("fixed-base cache is not initialized")
)

// ParameterError reports inputs that can never produce a result, such as
// bases and exponents of different lengths.
type ParameterError struct {
	Op  string
	Msg string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: invalid parameters: %s", e.Op, e.Msg)
}

// Parameterf builds a *ParameterError for op.
func Parameterf(op string, format string, a ...interface{}) error {
	return &ParameterError{Op: op, Msg: fmt.Sprintf(format, a...)}
}

// CastOverflowError reports a size parameter that does not fit the integer
// width the algorithms index with.
type CastOverflowError struct {
	Method   string
	Variable string
	Value    uint64
}

func (e *CastOverflowError) Error() string {
	return fmt.Sprintf("%s cannot be casted to int (in %s): value %d out of range", e.Variable, e.Method, e.Value)
}

// ExponentOverflowError is returned when an exponent is longer than the
// bit length a fixed-base table was built for.
type ExponentOverflowError struct {
	BitLen int
	Max    int
}

func (e *ExponentOverflowError) Error() string {
	return fmt.Sprintf("exponent has %d bits, table supports at most %d", e.BitLen, e.Max)
}
