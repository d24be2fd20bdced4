package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"
	"github.com/rs/zerolog"
)

// Queue owns the FIFO task queue, the cancellation registry, the model
// cache, and the two background goroutines that drive them. All state is
// in-memory and scoped to the Queue's lifetime; callers interact only
// through the public operations.
type Queue struct {
	cfg Config
	log *zerolog.Logger
	pub EventPublisher

	// closed flips once in Close. Every public operation is a no-op after.
	closed atomic.Bool

	// qmu guards tasks and cancelled, including the cancellation check the
	// worker performs at dequeue time.
	qmu       sync.Mutex
	wake      *sync.Cond
	tasks     deque.Deque[task]
	cancelled map[string]bool

	// cmu guards models and detached. Never held across a native call.
	cmu      sync.Mutex
	models   map[string]*modelResource
	detached map[*modelResource]struct{}

	sweepCh chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// New constructs a Queue and starts its worker and sweeper goroutines.
func New(cfg Config) *Queue {
	cfg = cfg.withDefaults()
	q := &Queue{
		cfg:       cfg,
		log:       cfg.Logger,
		pub:       cfg.Publisher,
		cancelled: make(map[string]bool),
		models:    make(map[string]*modelResource),
		detached:  make(map[*modelResource]struct{}),
		sweepCh:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	q.wake = sync.NewCond(&q.qmu)
	q.wg.Add(2)
	go q.worker()
	go q.sweeper()
	return q
}

// Close shuts the Queue down: cancellation flags are cleared, queued but
// unexecuted tasks are dropped, both goroutines are joined, and every cached
// resource is released regardless of its active-user count. The latter is
// safe only because no caller can observe the cache afterwards. Close is
// idempotent.
func (q *Queue) Close() {
	if !q.closed.CompareAndSwap(false, true) {
		return
	}
	q.qmu.Lock()
	q.cancelled = make(map[string]bool)
	q.wake.Broadcast()
	q.qmu.Unlock()
	close(q.done)
	q.wg.Wait()

	q.cmu.Lock()
	for path, res := range q.models {
		if res.users > 0 {
			q.log.Warn().Str("model", path).Int("active_users", res.users).
				Msg("releasing model with active users at shutdown")
		}
		res.free()
		delete(q.models, path)
	}
	for res := range q.detached {
		res.free()
		delete(q.detached, res)
	}
	q.cmu.Unlock()
	metricCacheEntries.Set(0)
	metricQueueDepth.Set(0)
	q.pub.Publish(Event{Name: EventShutdown})
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool { return q.closed.Load() }

func (q *Queue) now() time.Time { return time.Now() }
