package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntSlotRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
		require.Equal(t, v, IntSlot(v).Int())
	}
}

func TestFloatSlotRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1.5, -1.5, math.Inf(1), math.Inf(-1)} {
		require.Equal(t, v, FloatSlot(v).Float())
	}
	nan := FloatSlot(math.NaN()).Float()
	require.True(t, math.IsNaN(nan))
}

func TestSlotIsNil(t *testing.T) {
	require.True(t, Slot(0).IsNil())
	require.False(t, RefSlot(1).IsNil())
}

func TestFuncPackedRoundTrip(t *testing.T) {
	f := Func{ClassID: 7, MethodID: -3}
	require.Equal(t, f, UnpackFunc(f.Packed()))
}

func TestFuncSlotsRoundTrip(t *testing.T) {
	f := Func{ClassID: 42, MethodID: 9}
	cs, ms := FuncSlots(f)
	require.Equal(t, f, SplitFunc(cs, ms))
}
