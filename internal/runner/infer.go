package runner

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"inferd/internal/llm"
	"inferd/pkg/types"
)

// Infer submits one inference request to the scheduler and streams NDJSON
// token lines to w until the task completes. The call returns early if the
// caller's context is cancelled or the request is cancelled by id before
// the worker reaches it; an inference already executing is never
// interrupted through this path, only its token delivery stops.
func (s *Service) Infer(ctx context.Context, req types.InferRequest, w io.Writer, flush func()) error {
	if s.q.Closed() {
		return shuttingDownError{}
	}
	mdl, err := s.resolveModel(req.Model)
	if err != nil {
		return err
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	// Touch the entry so an already-cached model is not swept while this
	// request sits in the queue.
	s.q.MarkModelUsed(mdl.Path)

	st := newStream(w, flush)
	errCh := make(chan error, 1)
	discarded, stopWatch := s.disp.watchDiscard(requestID)
	defer stopWatch()

	s.q.Enqueue(func() {
		errCh <- s.runInference(ctx, mdl, req, requestID, st)
	}, requestID)

	select {
	case err := <-errCh:
		return err
	case <-discarded:
		if s.q.Closed() {
			s.log.Info().Str("request_id", requestID).Msg("request dropped at shutdown")
			return shuttingDownError{}
		}
		s.log.Info().Str("request_id", requestID).Msg("request cancelled before execution")
		return requestCancelledError{id: requestID}
	case <-ctx.Done():
		// Best-effort: if the task has not been dequeued yet this drops it;
		// if it is already running, abandoning the stream makes the token
		// callback unwind the native call.
		s.q.Cancel(requestID)
		st.abandon()
		return ctx.Err()
	}
}

// maxLoadAttempts bounds the load/register/borrow loop against a forced
// cache clear landing between registration and borrow.
const maxLoadAttempts = 3

// runInference executes on the worker goroutine. It borrows the model
// resource from the cache, loading and registering it first on a miss, and
// holds the lease for the duration of the native call.
func (s *Service) runInference(ctx context.Context, mdl types.Model, req types.InferRequest, requestID string, st *stream) error {
	lease, ok := s.q.Acquire(mdl.Path)
	for attempt := 0; !ok; attempt++ {
		if attempt >= maxLoadAttempts {
			return errors.New("model evicted during load: " + mdl.Path)
		}
		model, ectx, err := s.adapter.Load(mdl.Path, llm.Options{
			ContextSize: s.cfg.ContextSize,
			Threads:     s.cfg.Threads,
		})
		if err != nil {
			if errors.Is(err, llm.ErrNotBuilt) {
				return ErrDependencyUnavailable(err.Error())
			}
			return err
		}
		s.q.RegisterModel(mdl.Path, model, ectx)
		lease, ok = s.q.Acquire(mdl.Path)
	}
	defer lease.Release()

	model, _ := lease.Model().(llm.Model)
	ectx, _ := lease.Ctx().(llm.Context)
	params := llm.Params{
		MaxTokens:     req.MaxTokens,
		Temperature:   float32(req.Temperature),
		TopP:          float32(req.TopP),
		TopK:          req.TopK,
		Stop:          req.Stop,
		Seed:          int(req.Seed),
		RepeatPenalty: float32(req.RepeatPenalty),
	}
	onToken := func(tok string) error {
		return st.writeLine(tokenLine{Token: tok})
	}
	res, err := s.adapter.Generate(ctx, model, ectx, req.Prompt, params, onToken)
	if err != nil {
		if errors.Is(err, llm.ErrNotBuilt) {
			err = ErrDependencyUnavailable(err.Error())
		}
		// Tokens already on the wire mean the status line is gone; the
		// failure has to travel in band. Before the first line the caller
		// can still map the error to a status code.
		if st.committed() {
			_ = st.writeLine(tokenLine{Done: true, RequestID: requestID, Error: err.Error()})
		}
		return err
	}
	return st.writeLine(tokenLine{
		Done:         true,
		RequestID:    requestID,
		Content:      res.Content,
		FinishReason: res.FinishReason,
	})
}
