// Package memory defines the contract the garbage collector provides to the
// execution core (spec.md §1: "Garbage collector internals ... provides
// AllocateObject, AllocateArray, root registration/unregistration,
// object→class lookup, cast validity") and the bit-exact object/array/string
// layouts every allocation must produce (spec.md §3, §6).
//
// GC internals themselves are out of scope; this package is the in-scope
// contract plus a reference implementation good enough to run and test the
// interpreter and JIT against, grounded on how the teacher's
// wasm.MemoryInstance separates the allocation contract from the detail of
// backing storage.
package memory

import (
	"sync"
	"sync/atomic"
)

// Header is the fixed prefix the GC subsystem places before every heap
// object's declared instance slots (spec.md §3 "Object header"). Its layout
// beyond ClassID is GC-owned and out of scope; ClassID is what the core
// needs for OBJ_TYPE_OF / OBJ_INST_CAST and virtual dispatch.
type Header struct {
	ClassID int32
	_       int32 // padding to keep instance slots 8-byte aligned
}

// ArrayElemSize in words, per element kind. Byte and char arrays pack
// multiple elements per word in a real VM; this reference implementation
// keeps one machine word per element for simplicity and reserves the
// trailing null-terminator slot spec.md §3 requires for byte/char arrays.
type ArrayElemSize int

const (
	ElemSizeByte  ArrayElemSize = 1
	ElemSizeChar  ArrayElemSize = 1
	ElemSizeInt   ArrayElemSize = 1
	ElemSizeFloat ArrayElemSize = 1 // 2 on a 32-bit target; see DESIGN.md.
)

// ArrayHeader mirrors spec.md §3/§6's bit-exact array header: total element
// count (including the byte/char sentinel), dimension count, then that many
// dimension sizes.
type ArrayHeader struct {
	TotalElementCount int64
	DimensionCount    int64
	Dimensions        []int64
	HasNullTerminator bool
	ElemKind          ArrayElemSize
}

// Array is a reference-implementation heap array: a header plus its
// element payload, addressable the same way JIT-emitted code and the
// interpreter address it — linear index into Payload.
type Array struct {
	ArrayHeader
	Payload []uint64
}

// PayloadBase is "header_base + 3 + dimension_count words" per spec.md §3;
// callers that compute raw offsets against a flattened memory image (as the
// JIT compiler does) use this to find where the payload starts.
func (a *Array) PayloadBase() int {
	return 3 + int(a.DimensionCount)
}

// Object is a reference-implementation heap object: a Header plus its
// declared instance slots in class-declared order.
type Object struct {
	Header
	Slots []uint64
}

// String mirrors spec.md §3/§6's bit-exact string object: a pointer to a
// char-array, logical length, and capacity as its first three instance
// slots.
type String struct {
	CharArray *Array
	Length    int64
	Capacity  int64
}

// Allocator is the in-scope contract the interpreter and JIT depend on.
// Concrete GC behavior (compaction, generational collection, write
// barriers) is out of scope; this interface is the whole surface the core
// touches.
type Allocator interface {
	// AllocateObject allocates a zeroed object of the given class.
	AllocateObject(classID int32) *Object
	// AllocateArray allocates a zeroed array with the given dimension
	// sizes and element kind, reserving one trailing element for byte/char
	// arrays' null terminator.
	AllocateArray(kind ArrayElemSize, nullTerminated bool, dims []int64) *Array
	// ClassIDOf returns the class id of the object an opaque reference
	// denotes; used by OBJ_TYPE_OF/OBJ_INST_CAST. Arrays report ok=false.
	ClassIDOf(ref any) (classID int32, ok bool)
	// Conforms reports whether classID is, or derives from/implements,
	// targetClassID — the hierarchy table lookup behind OBJ_TYPE_OF and
	// OBJ_INST_CAST.
	Conforms(classID, targetClassID int32) bool
	// RegisterRoot and UnregisterRoot add/remove a frame monitor (spec.md
	// §3 "Frame monitor") for one interpreter thread.
	RegisterRoot(m *RootSet)
	UnregisterRoot(m *RootSet)
}

// RootSet is what a frame monitor registers with the memory subsystem: the
// GC-visible description of one interpreter thread's live roots (spec.md
// §3). It holds only the registering thread's id, no call-stack or frame
// pointers; the reference allocator below does no root walking of its own
// and relies on Go's GC to keep reachable values alive.
type RootSet struct {
	ThreadID int64
}

// heapAllocator is a reference Allocator good enough to exercise every
// opcode and trap that touches memory. It does not implement hierarchy
// tables beyond a simple parent/interfaces map — that table is populated by
// the class loader, out of scope here, and handed to NewHeap.
type heapAllocator struct {
	mu        sync.Mutex
	classes   map[int32]classInfo
	roots     map[*RootSet]struct{}
	nextAlloc int64
}

type classInfo struct {
	parentID   int32
	interfaces map[int32]struct{}
}

// ClassInfo is the hierarchy-table input the class loader supplies to
// NewHeap: for each class id, its parent id (-1 if none) and the set of
// interface ids it implements.
type ClassInfo struct {
	ParentID   int32
	Interfaces []int32
}

// NewHeap builds a reference Allocator over the given hierarchy table.
func NewHeap(hierarchy map[int32]ClassInfo) Allocator {
	classes := make(map[int32]classInfo, len(hierarchy))
	for id, ci := range hierarchy {
		ifaces := make(map[int32]struct{}, len(ci.Interfaces))
		for _, i := range ci.Interfaces {
			ifaces[i] = struct{}{}
		}
		classes[id] = classInfo{parentID: ci.ParentID, interfaces: ifaces}
	}
	return &heapAllocator{classes: classes, roots: map[*RootSet]struct{}{}}
}

func (h *heapAllocator) AllocateObject(classID int32) *Object {
	atomic.AddInt64(&h.nextAlloc, 1)
	return &Object{Header: Header{ClassID: classID}}
}

func (h *heapAllocator) AllocateArray(kind ArrayElemSize, nullTerminated bool, dims []int64) *Array {
	atomic.AddInt64(&h.nextAlloc, 1)
	total := int64(1)
	for _, d := range dims {
		total *= d
	}
	if nullTerminated {
		total++
	}
	dimsCopy := append([]int64(nil), dims...)
	return &Array{
		ArrayHeader: ArrayHeader{
			TotalElementCount: total,
			DimensionCount:    int64(len(dims)),
			Dimensions:        dimsCopy,
			HasNullTerminator: nullTerminated,
			ElemKind:          kind,
		},
		Payload: make([]uint64, total),
	}
}

func (h *heapAllocator) ClassIDOf(ref any) (int32, bool) {
	switch v := ref.(type) {
	case *Object:
		if v == nil {
			return 0, false
		}
		return v.ClassID, true
	case *Array:
		return 0, false
	default:
		return 0, false
	}
}

func (h *heapAllocator) Conforms(classID, targetClassID int32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := classID; ; {
		if id == targetClassID {
			return true
		}
		ci, ok := h.classes[id]
		if !ok {
			return false
		}
		if _, ok := ci.interfaces[targetClassID]; ok {
			return true
		}
		if ci.parentID < 0 {
			return false
		}
		id = ci.parentID
	}
}

func (h *heapAllocator) RegisterRoot(m *RootSet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roots[m] = struct{}{}
}

func (h *heapAllocator) UnregisterRoot(m *RootSet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.roots, m)
}
