package scheduler

// worker drains the queue one task at a time in strict FIFO order. It blocks
// until the queue is non-empty or shutdown is requested. The cancellation
// flag is checked and cleared under qmu at dequeue time; execution happens
// with no locks held. After every task, executed or discarded, the sweeper
// is nudged to re-evaluate idle resources.
func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		q.qmu.Lock()
		for q.tasks.Len() == 0 && !q.closed.Load() {
			q.wake.Wait()
		}
		if q.closed.Load() {
			// Queued but unexecuted tasks are dropped at shutdown. Each drop
			// is published so a caller waiting on the task's result stops
			// waiting instead of hanging past Close.
			var dropped []string
			for q.tasks.Len() > 0 {
				dropped = append(dropped, q.tasks.PopFront().requestID)
			}
			q.qmu.Unlock()
			if len(dropped) > 0 {
				q.log.Info().Int("dropped", len(dropped)).Msg("shutdown: dropping queued tasks")
			}
			for _, id := range dropped {
				metricTasksDiscarded.Inc()
				q.pub.Publish(Event{Name: EventTaskDiscarded, RequestID: id})
			}
			return
		}
		t := q.tasks.PopFront()
		depth := q.tasks.Len()
		skip := q.cancelled[t.requestID]
		delete(q.cancelled, t.requestID)
		q.qmu.Unlock()
		metricQueueDepth.Set(float64(depth))

		if skip {
			q.log.Info().Str("request_id", t.requestID).Msg("task discarded: cancelled before execution")
			metricTasksDiscarded.Inc()
			q.pub.Publish(Event{Name: EventTaskDiscarded, RequestID: t.requestID})
			q.notifySweep()
			continue
		}

		q.log.Debug().Str("request_id", t.requestID).Msg("task executing")
		q.runTask(t)
		metricTasksExecuted.Inc()
		q.pub.Publish(Event{Name: EventTaskExecuted, RequestID: t.requestID})
		q.notifySweep()
	}
}

// runTask executes one task, containing any panic at the worker boundary.
// Failures are not reported back through the queue; only the task's own
// callback channel can surface them, and the worker keeps going.
func (q *Queue) runTask(t task) {
	defer func() {
		if r := recover(); r != nil {
			metricTaskPanics.Inc()
			q.log.Error().Str("request_id", t.requestID).Interface("panic", r).
				Msg("panic during task execution")
		}
	}()
	t.run()
}
