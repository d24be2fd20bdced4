package scheduler

import "sync"

// Lease is a scoped borrow of a cached model resource. It releases exactly
// once no matter how many times Release is called, which removes the
// forgotten-decrement bug class the raw Increment/Decrement API allows.
// A Lease also survives a forced cache clear: its handles stay valid until
// Release, at which point a detached resource is freed.
type Lease struct {
	q     *Queue
	res   *modelResource
	model ModelHandle
	ctx   ContextHandle
	once  sync.Once
}

// Acquire atomically looks up and borrows the resource for path. The second
// return is false on a cache miss.
func (q *Queue) Acquire(path string) (*Lease, bool) {
	if q.closed.Load() {
		return nil, false
	}
	q.cmu.Lock()
	defer q.cmu.Unlock()
	res, ok := q.models[path]
	if !ok {
		return nil, false
	}
	res.lastUsed = q.now()
	res.users++
	q.log.Debug().Str("model", path).Int("active_users", res.users).Msg("model leased")
	return &Lease{q: q, res: res, model: res.model, ctx: res.ctx}, true
}

// Model returns the borrowed native model handle. Valid until Release.
func (l *Lease) Model() ModelHandle { return l.model }

// Ctx returns the borrowed native execution context. Valid until Release.
func (l *Lease) Ctx() ContextHandle { return l.ctx }

// Release returns the borrow. Safe to call multiple times and to defer.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.q.releaseResource(l.res)
	})
}
