package interpreter

import "sync"

// activeSet is the process-wide set of registered interpreter threads
// (spec.md §5 "Active-interpreter set — protected by its own mutex; used
// only for HaltAll"), and §8 invariant 6: "After HaltAll, every interpreter
// exits its dispatch loop within one instruction dispatch."
var activeSet = struct {
	mu      sync.Mutex
	threads map[*Thread]struct{}
}{threads: map[*Thread]struct{}{}}

func registerActive(t *Thread) {
	activeSet.mu.Lock()
	activeSet.threads[t] = struct{}{}
	activeSet.mu.Unlock()
}

func unregisterActive(t *Thread) {
	activeSet.mu.Lock()
	delete(activeSet.threads, t)
	activeSet.mu.Unlock()
}

// HaltAll sets a halt flag on every registered interpreter thread (spec.md
// §5 "Cancellation"). Each thread checks the flag at the top of its
// dispatch loop and exits after finishing the current instruction; there is
// no forced cancellation.
func HaltAll() {
	activeSet.mu.Lock()
	defer activeSet.mu.Unlock()
	for t := range activeSet.threads {
		t.requestHalt()
	}
}

// ActiveCount reports how many interpreter threads are currently
// registered, for tests.
func ActiveCount() int {
	activeSet.mu.Lock()
	defer activeSet.mu.Unlock()
	return len(activeSet.threads)
}
