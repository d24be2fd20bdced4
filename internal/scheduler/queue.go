package scheduler

// Enqueue appends a unit of work to the FIFO queue and wakes the worker.
// The queue is unbounded; Enqueue never blocks beyond the metadata lock and
// never fails. After shutdown it silently drops the task.
func (q *Queue) Enqueue(run func(), requestID string) {
	if run == nil {
		return
	}
	q.qmu.Lock()
	if q.closed.Load() {
		q.qmu.Unlock()
		q.log.Debug().Str("request_id", requestID).Msg("enqueue after shutdown dropped")
		return
	}
	q.tasks.PushBack(task{run: run, requestID: requestID})
	depth := q.tasks.Len()
	q.wake.Signal()
	q.qmu.Unlock()
	metricQueueDepth.Set(float64(depth))
	q.log.Debug().Str("request_id", requestID).Int("queue_depth", depth).Msg("task enqueued")
}

// Cancel marks a request id as cancelled. The task is not removed from the
// queue; the worker drops it lazily at dequeue time, so the queue structure
// is only ever mutated from the worker goroutine. Cancelling an id that is
// already executing has no effect through this path.
func (q *Queue) Cancel(requestID string) {
	q.qmu.Lock()
	if q.closed.Load() {
		q.qmu.Unlock()
		return
	}
	q.cancelled[requestID] = true
	q.wake.Signal()
	q.qmu.Unlock()
	q.log.Debug().Str("request_id", requestID).Msg("cancellation requested")
}

// IsCancelled reports whether a cancellation flag is currently set for the
// request id. The flag only exists between Cancel and the corresponding
// dequeue, so this is a point-in-time query.
func (q *Queue) IsCancelled(requestID string) bool {
	q.qmu.Lock()
	defer q.qmu.Unlock()
	return q.cancelled[requestID]
}

// QueueDepth returns the number of tasks currently waiting.
func (q *Queue) QueueDepth() int {
	q.qmu.Lock()
	defer q.qmu.Unlock()
	return q.tasks.Len()
}
