// Package scheduler serializes inference work onto a single execution slot
// and owns the cache of loaded native model resources. It is structured into
// small files by concern:
//
//   - scheduler.go: core Queue type, constructor, shutdown.
//   - config.go: Config and package defaults.
//   - types.go: internal state types (task, modelResource) and handle interfaces.
//   - queue.go: Enqueue/Cancel/IsCancelled and the FIFO backing store.
//   - worker.go: the single background worker loop.
//   - cache.go: model-resource map operations and forced clearing.
//   - lease.go: scoped borrows that release on every exit path.
//   - sweeper.go: idle-eviction loop and the shared eviction predicate.
//   - status.go: read-only snapshots for /status.
//   - events.go: lightweight lifecycle event publishing.
//   - metrics.go: Prometheus instrumentation.
//
// Concurrency model: arbitrary caller goroutines invoke the public
// operations, one worker goroutine executes at most one task at a time, and
// one sweeper goroutine evicts idle unreferenced resources. Two mutexes guard
// metadata only (queue+cancellation flags, and the resource map); no lock is
// ever held across task execution, so Cancel/Enqueue/cache queries stay
// responsive during a multi-second native inference call.
//
// Callers never receive ownership of a native handle. They borrow through
// GetCachedModel/Acquire and must release through DecrementModelUsers or
// Lease.Release. Freeing is the cache's job alone.
package scheduler
