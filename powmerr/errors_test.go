package powmerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("building table: %w", &CastOverflowError{Method: "Init", Variable: "block_width", Value: 1 << 40})
	var co *CastOverflowError
	require.True(t, errors.As(wrapped, &co))
	require.Equal(t, "block_width", co.Variable)
	require.Contains(t, wrapped.Error(), "block_width cannot be casted to int (in Init)")

	perr := Parameterf("Spowm", "len of bases %d is not the same as len of exponents %d", 2, 3)
	var pe *ParameterError
	require.True(t, errors.As(perr, &pe))
	require.Equal(t, "Spowm", pe.Op)
	require.Equal(t, "Spowm: invalid parameters: len of bases 2 is not the same as len of exponents 3", perr.Error())

	require.True(t, errors.Is(fmt.Errorf("x: %w", ErrNoBase), ErrNoBase))
	require.EqualError(t, &ExponentOverflowError{BitLen: 17, Max: 16}, "exponent has 17 bits, table supports at most 16")
}
