// Package dispatch implements the process-wide virtual-dispatch cache from
// spec.md §4.2/§5/§9: a monotonic additive mapping from
// (receiver_class_name, method_signature_suffix) to a resolved method,
// shared by every interpreter thread and never invalidated because method
// definitions are immutable for the program's lifetime.
package dispatch

import (
	"sync"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
)

type key struct {
	className string
	signature string
}

// Cache is the virtual-dispatch memoization table. Per spec.md §5, readers
// may observe either the pre- or post-insert state without hazard, so a
// plain RWMutex-guarded map is sufficient — there is no need for the
// insert to be linearized against concurrent lookups beyond what the mutex
// already gives us.
type Cache struct {
	mu    sync.RWMutex
	table map[key]*program.Method

	// hits/walks are instrumentation for the scenario in spec.md §8
	// ("instrumentation confirms one hierarchy walk and N-1 cache hits").
	hits  int64
	walks int64
}

// New builds an empty virtual-dispatch cache.
func New() *Cache {
	return &Cache{table: map[key]*program.Method{}}
}

// Lookup returns the cached resolution for (className, signature), if any.
func (c *Cache) Lookup(className, signature string) (*program.Method, bool) {
	c.mu.RLock()
	m, ok := c.table[key{className, signature}]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
	}
	return m, ok
}

// Insert memoizes a resolution. Insertion never removes or overwrites an
// existing distinct entry for the same key — resolution is deterministic,
// so re-inserting the same method for the same key is a harmless no-op.
func (c *Cache) Insert(className, signature string, m *program.Method) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key{className, signature}
	if _, ok := c.table[k]; !ok {
		c.table[k] = m
	}
	c.walks++
}

// Stats reports (hits, walks) for test instrumentation.
func (c *Cache) Stats() (hits, walks int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.walks
}
