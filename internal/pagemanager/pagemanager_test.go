package pagemanager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
)

func TestPutThenGetReturnsMappedCode(t *testing.T) {
	m := NewManager()
	method := &program.Method{Name: "m"}

	native := []byte{0xC3} // RET
	mem, err := m.Put(method, native)
	require.NoError(t, err)
	require.Equal(t, native, mem)

	got, ok := m.Get(method)
	require.True(t, ok)
	require.Equal(t, mem, got)
}

func TestGetMissReturnsFalse(t *testing.T) {
	m := NewManager()
	_, ok := m.Get(&program.Method{Name: "missing"})
	require.False(t, ok)
}

// TestPutPacksOntoSamePageWhileSpaceRemains exercises spec.md §4.6's
// page-packing rule: "New methods are appended to the first page with
// sufficient remaining space" — two small methods must land in the same
// mapping rather than each getting a fresh page.
func TestPutPacksOntoSamePageWhileSpaceRemains(t *testing.T) {
	m := NewManager()
	a := &program.Method{Name: "a"}
	b := &program.Method{Name: "b"}

	codeA, err := m.Put(a, []byte{0xC3})
	require.NoError(t, err)
	codeB, err := m.Put(b, []byte{0x90, 0xC3})
	require.NoError(t, err)

	require.Len(t, m.pages, 1)
	require.Same(t, &m.pages[0].mem[0], &codeA[0])
	require.Same(t, &m.pages[0].mem[len(codeA)], &codeB[0])
}

// TestPutAllocatesNewPageWhenCurrentIsFull exercises spec.md §4.6's
// fallback: "if none exists a new page is allocated."
func TestPutAllocatesNewPageWhenCurrentIsFull(t *testing.T) {
	m := NewManager()
	first := &program.Method{Name: "first"}
	_, err := m.Put(first, make([]byte, PageSize))
	require.NoError(t, err)
	require.Len(t, m.pages, 1)

	second := &program.Method{Name: "second"}
	_, err = m.Put(second, []byte{0xC3})
	require.NoError(t, err)
	require.Len(t, m.pages, 2)
}

// TestPutRecompileKeepsPriorCodeMapped documents spec.md §4.6's "pages are
// never freed for the life of the process" invariant: recompiling a method
// appends a second copy instead of unmapping the first, so a thread still
// executing inside the old native code is never pulled out from under.
func TestPutRecompileKeepsPriorCodeMapped(t *testing.T) {
	m := NewManager()
	method := &program.Method{Name: "m"}

	first, err := m.Put(method, []byte{0xC3})
	require.NoError(t, err)

	second, err := m.Put(method, []byte{0x90, 0xC3})
	require.NoError(t, err)

	// The lookup now favors the fresh compile...
	got, ok := m.Get(method)
	require.True(t, ok)
	require.Equal(t, second, got)

	// ...but the old bytes are still live and readable, not unmapped.
	require.Equal(t, byte(0xC3), first[0])
}

func TestForgetMakesGetMiss(t *testing.T) {
	m := NewManager()
	method := &program.Method{Name: "m"}
	_, err := m.Put(method, []byte{0xC3})
	require.NoError(t, err)

	m.Forget(method)
	_, ok := m.Get(method)
	require.False(t, ok)
}

func TestForgetUnknownMethodIsNoOp(t *testing.T) {
	m := NewManager()
	m.Forget(&program.Method{Name: "never-compiled"})
}
