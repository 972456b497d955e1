package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntArithWraps(t *testing.T) {
	require.Equal(t, int64(math.MinInt64), IntAdd(math.MaxInt64, 1))
}

func TestIntDivByZero(t *testing.T) {
	_, err := IntDiv(1, 0)
	require.ErrorIs(t, err, ErrDivByZero)

	_, err = IntMod(1, 0)
	require.ErrorIs(t, err, ErrDivByZero)
}

func TestIntDivMod(t *testing.T) {
	q, err := IntDiv(7, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), q)

	r, err := IntMod(7, 2)
	require.NoError(t, err)
	require.Equal(t, int64(1), r)
}

// TestFloatCompareNaN verifies spec.md §4.1's unordered-false convention:
// NaN compares false for <,<=,>,>=,== and true for !=.
func TestFloatCompareNaN(t *testing.T) {
	nan := math.NaN()
	require.False(t, FloatLess(nan, 1))
	require.False(t, FloatLessEqual(nan, 1))
	require.False(t, FloatGreater(nan, 1))
	require.False(t, FloatGreaterEqual(nan, 1))
	require.False(t, FloatEqual(nan, nan))
	require.True(t, FloatNotEqual(nan, nan))
}

func TestFloorCeilNegative(t *testing.T) {
	require.Equal(t, -2.0, Floor(-1.5))
	require.Equal(t, -1.0, Ceil(-1.5))
}

func TestIntToFloatAndBack(t *testing.T) {
	require.Equal(t, 5.0, IntToFloat(5))
	require.Equal(t, int64(5), FloatToInt(5.9))
	require.Equal(t, int64(-5), FloatToInt(-5.9))
}
