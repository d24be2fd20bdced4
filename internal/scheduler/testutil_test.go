package scheduler

import (
	"sync"
	"testing"
	"time"
)

// fakeHandle stands in for a native model or context handle.
type fakeHandle struct {
	mu    sync.Mutex
	freed bool
}

func (h *fakeHandle) Free() {
	h.mu.Lock()
	h.freed = true
	h.mu.Unlock()
}

func (h *fakeHandle) Freed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.freed
}

// newTestQueue returns a Queue with sweep timings tuned for tests and a
// cleanup that tears it down.
func newTestQueue(t *testing.T, idle, interval time.Duration) *Queue {
	t.Helper()
	q := New(Config{IdleTimeout: idle, SweepInterval: interval})
	t.Cleanup(q.Close)
	return q
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
