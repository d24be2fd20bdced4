package runner

import (
	"sync"

	"inferd/internal/scheduler"
)

// Dispatcher bridges scheduler events back to waiting Infer calls. The
// worker drops cancelled tasks silently, so a caller blocked on its task's
// result needs the discard event to stop waiting. Wire one Dispatcher as
// the scheduler's EventPublisher and hand the same instance to New.
type Dispatcher struct {
	mu       sync.Mutex
	discards map[string]chan struct{}
	next     scheduler.EventPublisher
}

// NewDispatcher returns a Dispatcher that forwards every event to next
// after handling it. next may be nil.
func NewDispatcher(next scheduler.EventPublisher) *Dispatcher {
	return &Dispatcher{discards: make(map[string]chan struct{}), next: next}
}

func (d *Dispatcher) Publish(e scheduler.Event) {
	if e.Name == scheduler.EventTaskDiscarded && e.RequestID != "" {
		d.mu.Lock()
		if ch, ok := d.discards[e.RequestID]; ok {
			close(ch)
			delete(d.discards, e.RequestID)
		}
		d.mu.Unlock()
	}
	if d.next != nil {
		d.next.Publish(e)
	}
}

// watchDiscard registers interest in a request id being discarded. The
// returned stop func must be called when the caller no longer waits.
func (d *Dispatcher) watchDiscard(requestID string) (<-chan struct{}, func()) {
	ch := make(chan struct{})
	d.mu.Lock()
	d.discards[requestID] = ch
	d.mu.Unlock()
	stop := func() {
		d.mu.Lock()
		delete(d.discards, requestID)
		d.mu.Unlock()
	}
	return ch, stop
}
