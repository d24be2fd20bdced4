package scheduler

// RegisterModel stores already-loaded native handles under the model path.
// The insert is idempotent: if the path is already cached only its last-used
// timestamp is refreshed, so a second registration can never orphan handles
// a concurrent borrower still references. The cache takes exclusive
// ownership of the handles; on a refresh the caller keeps ownership of the
// handles it passed in and should free them itself.
func (q *Queue) RegisterModel(path string, model ModelHandle, ctx ContextHandle) {
	if q.closed.Load() {
		return
	}
	q.cmu.Lock()
	defer q.cmu.Unlock()
	if res, ok := q.models[path]; ok {
		res.lastUsed = q.now()
		q.log.Debug().Str("model", path).Msg("register on cached model: refreshed timestamp")
		return
	}
	q.models[path] = &modelResource{
		path:     path,
		model:    model,
		ctx:      ctx,
		lastUsed: q.now(),
	}
	metricCacheEntries.Set(float64(len(q.models)))
	q.log.Info().Str("model", path).Msg("registered model")
	q.pub.Publish(Event{Name: EventModelRegistered, Model: path})
}

// GetCachedModel atomically looks up and borrows a cached resource: on a hit
// the timestamp is refreshed and the active-user count is incremented as one
// indivisible step, so a concurrent sweep can never evict between lookup and
// borrow. A miss returns nil handles; it is not an error, the caller must
// load and register. Callers owe one DecrementModelUsers per hit.
func (q *Queue) GetCachedModel(path string) (ModelHandle, ContextHandle) {
	if q.closed.Load() {
		return nil, nil
	}
	q.cmu.Lock()
	defer q.cmu.Unlock()
	res, ok := q.models[path]
	if !ok {
		return nil, nil
	}
	res.lastUsed = q.now()
	res.users++
	q.log.Debug().Str("model", path).Int("active_users", res.users).Msg("model borrowed")
	return res.model, res.ctx
}

// MarkModelUsed refreshes the last-used timestamp without starting a new
// active use.
func (q *Queue) MarkModelUsed(path string) {
	if q.closed.Load() {
		return
	}
	q.cmu.Lock()
	defer q.cmu.Unlock()
	if res, ok := q.models[path]; ok {
		res.lastUsed = q.now()
	}
}

// IncrementModelUsers adds one borrower to a cached resource.
func (q *Queue) IncrementModelUsers(path string) {
	if q.closed.Load() {
		return
	}
	q.cmu.Lock()
	defer q.cmu.Unlock()
	if res, ok := q.models[path]; ok {
		res.users++
		q.log.Debug().Str("model", path).Int("active_users", res.users).Msg("model borrowed")
	}
}

// DecrementModelUsers drops one borrower. The count saturates at zero, and
// the timestamp is refreshed so a just-released resource is not immediately
// considered stale.
func (q *Queue) DecrementModelUsers(path string) {
	if q.closed.Load() {
		return
	}
	q.cmu.Lock()
	defer q.cmu.Unlock()
	res, ok := q.models[path]
	if !ok {
		return
	}
	if res.users > 0 {
		res.users--
		q.log.Debug().Str("model", path).Int("active_users", res.users).Msg("model released")
	}
	res.lastUsed = q.now()
}

// releaseResource is the lease release path. It works by pointer so it keeps
// functioning for resources that were force-cleared out of the map while
// borrowed: the last release frees their handles.
func (q *Queue) releaseResource(res *modelResource) {
	q.cmu.Lock()
	defer q.cmu.Unlock()
	if res.users > 0 {
		res.users--
	}
	res.lastUsed = q.now()
	if res.detached && res.users == 0 {
		res.free()
		delete(q.detached, res)
		q.log.Info().Str("model", res.path).Msg("released detached model on last borrow")
		q.pub.Publish(Event{Name: EventModelFreed, Model: res.path})
	} else {
		q.log.Debug().Str("model", res.path).Int("active_users", res.users).Msg("model released")
	}
}

// freeModelResourcesLocked removes and releases the resource for path only
// if nothing is borrowing it; otherwise it is a logged no-op and the next
// sweep retries. Callers must hold cmu.
func (q *Queue) freeModelResourcesLocked(path string) bool {
	res, ok := q.models[path]
	if !ok {
		return false
	}
	if res.users > 0 {
		q.log.Debug().Str("model", path).Int("active_users", res.users).
			Msg("cannot free model: still borrowed")
		return false
	}
	res.free()
	delete(q.models, path)
	metricCacheEntries.Set(float64(len(q.models)))
	q.log.Info().Str("model", path).Msg("freed model resources")
	q.pub.Publish(Event{Name: EventModelFreed, Model: path})
	return true
}

// ClearModelCache evicts cached entries for explicit memory-pressure relief.
// With force=false only unreferenced entries are released. With force=true
// every entry leaves the cache immediately, but entries that still have
// borrowers are detached rather than freed: no new borrows can start, and
// the native handles are released when the last borrower lets go. This keeps
// the escape hatch without invalidating handles mid-use. Returns the number
// of entries removed from the cache.
func (q *Queue) ClearModelCache(force bool) int {
	if q.closed.Load() {
		return 0
	}
	q.cmu.Lock()
	defer q.cmu.Unlock()
	cleared := 0
	for path, res := range q.models {
		switch {
		case res.users == 0:
			res.free()
			delete(q.models, path)
			q.pub.Publish(Event{Name: EventModelFreed, Model: path})
			cleared++
		case force:
			res.detached = true
			delete(q.models, path)
			q.detached[res] = struct{}{}
			metricDeferredFrees.Inc()
			q.log.Warn().Str("model", path).Int("active_users", res.users).
				Msg("force clear: detached borrowed model, free deferred to last release")
			cleared++
		default:
			q.log.Info().Str("model", path).Int("active_users", res.users).
				Msg("clear: model still borrowed, keeping")
		}
	}
	metricCacheEntries.Set(float64(len(q.models)))
	q.log.Info().Int("cleared", cleared).Bool("force", force).Msg("cleared model cache")
	q.pub.Publish(Event{Name: EventCacheCleared, Cleared: cleared})
	return cleared
}
