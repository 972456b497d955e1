package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func heap() Allocator {
	return NewHeap(map[int32]ClassInfo{
		0: {ParentID: -1},                    // Object (root)
		1: {ParentID: 0},                     // Base, extends Object
		2: {ParentID: 1, Interfaces: []int32{9}}, // Derived, extends Base, implements 9
	})
}

func TestAllocateObjectSetsClassID(t *testing.T) {
	h := heap()
	o := h.AllocateObject(2)
	classID, ok := h.ClassIDOf(o)
	require.True(t, ok)
	require.Equal(t, int32(2), classID)
}

func TestAllocateArrayReservesNullTerminator(t *testing.T) {
	h := heap()
	arr := h.AllocateArray(ElemSizeByte, true, []int64{4})
	require.Equal(t, int64(5), arr.TotalElementCount)
	require.Len(t, arr.Payload, 5)
}

func TestAllocateArrayMultiDimNoTerminator(t *testing.T) {
	h := heap()
	arr := h.AllocateArray(ElemSizeInt, false, []int64{3, 4})
	require.Equal(t, int64(12), arr.TotalElementCount)
	require.Equal(t, int64(2), arr.DimensionCount)
}

func TestArrayPayloadBase(t *testing.T) {
	arr := &Array{ArrayHeader: ArrayHeader{DimensionCount: 2}}
	require.Equal(t, 5, arr.PayloadBase()) // 3 + dimension_count
}

func TestConformsWalksHierarchyAndInterfaces(t *testing.T) {
	h := heap()
	require.True(t, h.Conforms(2, 2))  // self
	require.True(t, h.Conforms(2, 1))  // parent
	require.True(t, h.Conforms(2, 0))  // grandparent
	require.True(t, h.Conforms(2, 9))  // interface
	require.False(t, h.Conforms(1, 9)) // Base does not implement 9
	require.False(t, h.Conforms(2, 42))
}

func TestRegisterUnregisterRoot(t *testing.T) {
	h := heap().(*heapAllocator)
	rs := &RootSet{ThreadID: 1}
	h.RegisterRoot(rs)
	require.Contains(t, h.roots, rs)
	h.UnregisterRoot(rs)
	require.NotContains(t, h.roots, rs)
}

func TestClassIDOfArrayIsUnsupported(t *testing.T) {
	h := heap()
	arr := h.AllocateArray(ElemSizeInt, false, []int64{1})
	_, ok := h.ClassIDOf(arr)
	require.False(t, ok)
}
