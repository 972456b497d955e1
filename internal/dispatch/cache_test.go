package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
)

func TestLookupMiss(t *testing.T) {
	c := New()
	_, ok := c.Lookup("D", "m:i:i")
	require.False(t, ok)
}

func TestInsertThenLookupHits(t *testing.T) {
	c := New()
	m := &program.Method{Name: "m"}
	c.Insert("D", "m:i:i", m)

	got, ok := c.Lookup("D", "m:i:i")
	require.True(t, ok)
	require.Same(t, m, got)
}

// TestStatsOneWalkNMinusOneHits verifies spec.md §8 scenario 3:
// "instrumentation confirms one hierarchy walk and N-1 cache hits for N
// calls."
func TestStatsOneWalkNMinusOneHits(t *testing.T) {
	c := New()
	m := &program.Method{Name: "m"}

	const n = 5
	for i := 0; i < n; i++ {
		if _, ok := c.Lookup("D", "m:i:i"); !ok {
			c.Insert("D", "m:i:i", m) // simulates one hierarchy walk
		}
	}

	hits, walks := c.Stats()
	require.Equal(t, int64(n-1), hits)
	require.Equal(t, int64(1), walks)
}

func TestCacheIsPerClassAndSignature(t *testing.T) {
	c := New()
	mD := &program.Method{Name: "D.m"}
	mE := &program.Method{Name: "E.m"}
	c.Insert("D", "m:i:i", mD)
	c.Insert("E", "m:i:i", mE)

	got, ok := c.Lookup("D", "m:i:i")
	require.True(t, ok)
	require.Same(t, mD, got)

	got, ok = c.Lookup("E", "m:i:i")
	require.True(t, ok)
	require.Same(t, mE, got)
}
