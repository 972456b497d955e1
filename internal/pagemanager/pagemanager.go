// Package pagemanager owns the executable memory the JIT compiler emits
// native code into: a process-wide cache of fixed-size pages that packs
// compiled method bodies (spec.md §2 "page manager", §4.6).
//
// New methods are appended to the first page with enough remaining space;
// if none exists, a new page is mapped read/write/execute (spec.md §4.6:
// "a new page is allocated with read/write/execute protection") and the
// method is appended to it. Pages are never unmapped for the life of the
// process (spec.md §4.6: "Pages are never freed for the life of the
// process") — a method recompiled while another thread is still executing
// inside its old native code must never have that code unmapped under it,
// so replacing a method's compiled code simply bumps a new copy into a page
// and forgets the old bytes; the mapping backing them stays live and
// reachable from no Go value, but mapped memory, unlike Go memory, is never
// reclaimed here regardless.
//
// The mmap call (pages are mapped RWX directly, with no mprotect) is grounded on the teacher's own
// internal/platform mmap_linux.go (present in the pack only as
// mmap_test.go/mmap_linux_test.go; the implementation file was filtered out
// of the retrieval pack, so it is authored here from the test's documented
// contract). The teacher reaches for the standard library's syscall package
// directly for this rather than a third-party mmap wrapper (its own go.mod
// carries no golang.org/x/sys dependency), so doing likewise here is
// grounded, not a fallback — see DESIGN.md.
package pagemanager

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
)

// PageSize is the platform-native page size new pages are sized to (spec.md
// §4.6: "platform native size, commonly 4096 bytes"). A method larger than
// one page gets a page sized to fit it instead.
const PageSize = 4096

// mmapPage maps length bytes of anonymous, zero-filled memory with
// read/write/execute protection (spec.md §4.6).
func mmapPage(length int) ([]byte, error) {
	if length <= 0 {
		panic("BUG: mmapPage with non-positive length")
	}
	mem, err := syscall.Mmap(-1, 0, length,
		syscall.PROT_READ|syscall.PROT_WRITE|syscall.PROT_EXEC, syscall.MAP_PRIVATE|syscall.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("pagemanager: mmap: %w", err)
	}
	return mem, nil
}

// page is one executable mapping methods are bump-allocated into.
type page struct {
	mem  []byte
	used int
}

func newPage(size int) (*page, error) {
	if size < PageSize {
		size = PageSize
	}
	mem, err := mmapPage(size)
	if err != nil {
		return nil, err
	}
	return &page{mem: mem}, nil
}

// remaining reports how many free bytes are left at the end of p.
func (p *page) remaining() int { return len(p.mem) - p.used }

// append copies native to the page's current bump offset and returns the
// live, executable slice view of the copied bytes.
func (p *page) append(native []byte) []byte {
	dst := p.mem[p.used : p.used+len(native) : p.used+len(native)]
	copy(dst, native)
	p.used += len(native)
	return dst
}

// Manager is the process-wide JIT code cache (spec.md §5's shared
// structures), keyed by method so dynamic/virtual dispatch and repeat calls
// reuse one compiled page instead of recompiling. Grounded on
// internal/engine/compiler/engine_cache.go's addCodesToMemory/
// getCodesFromMemory in-process half; the external persistent-cache half of
// that file (Cache.Add/Get, cross-run serialization) has no SPEC_FULL.md
// component to bind to — compiled code never outlives a process here — so
// it is dropped rather than adapted; see DESIGN.md.
type Manager struct {
	mu    sync.Mutex
	pages []*page
	code  map[*program.Method][]byte
}

func NewManager() *Manager {
	return &Manager{code: map[*program.Method][]byte{}}
}

// Get returns the cached executable code for m, if any.
func (p *Manager) Get(m *program.Method) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	code, ok := p.code[m]
	return code, ok
}

// Put packs native into the first page with enough remaining space,
// allocating a fresh page if none exists (spec.md §4.6), and installs it as
// m's current compiled code. A method recompiled after already having
// native code simply gets a second, independent copy appended somewhere in
// the page set; the first copy's bytes are never unmapped, so any thread
// still executing inside it keeps running safely to completion.
func (p *Manager) Put(m *program.Method, native []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pg := range p.pages {
		if pg.remaining() >= len(native) {
			code := pg.append(native)
			p.code[m] = code
			return code, nil
		}
	}

	pg, err := newPage(len(native))
	if err != nil {
		return nil, err
	}
	p.pages = append(p.pages, pg)
	code := pg.append(native)
	p.code[m] = code
	return code, nil
}

// Forget removes m's entry from the cache so a subsequent Get reports a
// miss. The underlying page bytes are not reclaimed (spec.md §4.6: pages
// live for the process's lifetime) — only the method→code lookup is
// forgotten, which is enough to make the compiler attempt recompilation on
// the method's next call.
func (p *Manager) Forget(m *program.Method) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.code, m)
}
