package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIntBases(t *testing.T) {
	require.Equal(t, int64(10), ParseInt("10"))
	require.Equal(t, int64(5), ParseInt("0b101"))
	require.Equal(t, int64(8), ParseInt("0o10"))
	require.Equal(t, int64(255), ParseInt("0xff"))
	require.Equal(t, int64(-255), ParseInt("-0xff"))
}

func TestParseIntUnparseableYieldsZero(t *testing.T) {
	require.Equal(t, int64(0), ParseInt("not a number"))
	require.Equal(t, int64(0), ParseInt(""))
}

func TestParseFloatUnparseableYieldsZero(t *testing.T) {
	require.Equal(t, 0.0, ParseFloat("nope"))
	require.Equal(t, 3.5, ParseFloat("3.5"))
}

func TestFormatIntTruncatesAt16Chars(t *testing.T) {
	s := FormatInt(-123456789012345678)
	require.LessOrEqual(t, len(s), MaxStringDigits)
}

// TestIntStringRoundTrip verifies spec.md §8's round-trip law:
// int->string->int is the identity for every int fitting in 16 decimal
// characters.
func TestIntStringRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 12345, -12345, 999999999999999} {
		require.Equal(t, v, ParseInt(FormatInt(v)))
	}
}

// TestFloatStringRoundTrip verifies the float analogue of the same law.
func TestFloatStringRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, -1, 3.25, -0.125, 100000.5} {
		require.InDelta(t, v, ParseFloat(FormatFloat(v)), 1e-9)
	}
}
