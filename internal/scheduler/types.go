package scheduler

import "time"

// ModelHandle is a loaded native model. The cache owns it and frees it
// exactly once; borrowers must never call Free themselves.
type ModelHandle interface {
	Free()
}

// ContextHandle is a native execution context tied to one ModelHandle.
type ContextHandle interface {
	Free()
}

// task is one queued unit of work. Owned exclusively by the queue until
// dequeued; discarded after execution or after being dropped on cancellation.
type task struct {
	run       func()
	requestID string
}

// modelResource is one cached model+context pair. Exclusively owned by the
// cache; callers only ever see the handles plus a borrow obligation.
type modelResource struct {
	path     string
	model    ModelHandle
	ctx      ContextHandle
	users    int
	lastUsed time.Time
	// detached marks a resource that was force-cleared out of the map while
	// still borrowed. Its handles are freed when users drops to zero.
	detached bool
}

func (r *modelResource) free() {
	if r.ctx != nil {
		r.ctx.Free()
		r.ctx = nil
	}
	if r.model != nil {
		r.model.Free()
		r.model = nil
	}
}
