package scheduler

import (
	"sort"

	"inferd/pkg/types"
)

// Status builds a read-only snapshot of the queue and cache for /status.
func (q *Queue) Status() types.StatusResponse {
	now := q.now()
	resp := types.StatusResponse{
		QueueDepth: q.QueueDepth(),
		Closed:     q.closed.Load(),
	}
	q.cmu.Lock()
	resp.Cache = make([]types.CacheEntryStatus, 0, len(q.models))
	for path, res := range q.models {
		resp.Cache = append(resp.Cache, types.CacheEntryStatus{
			Path:        path,
			ActiveUsers: res.users,
			IdleSeconds: int64(now.Sub(res.lastUsed).Seconds()),
		})
	}
	resp.PendingFrees = len(q.detached)
	q.cmu.Unlock()
	sort.Slice(resp.Cache, func(i, j int) bool { return resp.Cache[i].Path < resp.Cache[j].Path })
	return resp
}

// ActiveUsers reports the current borrow count for path, or -1 if the path
// is not cached. Intended for tests and diagnostics.
func (q *Queue) ActiveUsers(path string) int {
	q.cmu.Lock()
	defer q.cmu.Unlock()
	if res, ok := q.models[path]; ok {
		return res.users
	}
	return -1
}

// CacheLen reports the number of cached entries.
func (q *Queue) CacheLen() int {
	q.cmu.Lock()
	defer q.cmu.Unlock()
	return len(q.models)
}
