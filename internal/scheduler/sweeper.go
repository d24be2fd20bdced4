package scheduler

import "time"

// IdleUnreferenced is the eviction predicate shared with the on-demand
// vocabulary cache: a resource may be freed once it has been idle for at
// least the timeout and nothing is borrowing it.
func IdleUnreferenced(now, lastUsed time.Time, timeout time.Duration, users int) bool {
	return users == 0 && now.Sub(lastUsed) >= timeout
}

// SweepNow asks the sweeper to re-evaluate idle resources immediately
// instead of waiting for the next interval.
func (q *Queue) SweepNow() {
	if q.closed.Load() {
		return
	}
	q.notifySweep()
}

// notifySweep is a non-blocking nudge; a pending notification is enough.
func (q *Queue) notifySweep() {
	select {
	case q.sweepCh <- struct{}{}:
	default:
	}
}

// sweeper merges its two wake reasons, the fixed interval and the explicit
// notification issued after every task, into a single wait. It terminates
// when shutdown is signalled.
func (q *Queue) sweeper() {
	defer q.wg.Done()
	ticker := time.NewTicker(q.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-q.done:
			return
		case <-ticker.C:
		case <-q.sweepCh:
		}
		q.sweep(q.now())
	}
}

// sweep evicts every cached entry that is both idle past the inactivity
// threshold and unreferenced. Entries past the threshold but still borrowed
// are left untouched and logged; the next sweep retries them. Detached
// resources whose borrowers have all gone are freed here as a backstop for
// releases that bypassed the lease path.
func (q *Queue) sweep(now time.Time) int {
	q.cmu.Lock()
	defer q.cmu.Unlock()
	evicted := 0
	for path, res := range q.models {
		idle := now.Sub(res.lastUsed)
		if idle < q.cfg.IdleTimeout {
			continue
		}
		if res.users > 0 {
			q.log.Info().Str("model", path).Dur("idle", idle).Int("active_users", res.users).
				Msg("model idle past threshold but still borrowed")
			continue
		}
		if q.freeModelResourcesLocked(path) {
			metricEvictions.Inc()
			q.pub.Publish(Event{Name: EventModelEvicted, Model: path})
			evicted++
		}
	}
	for res := range q.detached {
		if res.users == 0 {
			res.free()
			delete(q.detached, res)
			q.log.Info().Str("model", res.path).Msg("freed detached model")
		}
	}
	return evicted
}
