package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"inferd/internal/llm"
	"inferd/internal/scheduler"
	"inferd/pkg/types"
)

type fakeModel struct{ freed bool }

func (m *fakeModel) Free() { m.freed = true }

// fakeAdapter is a scriptable llm.Adapter. When gate is non-nil, Generate
// blocks until the gate is closed, which lets tests pin the worker while
// more requests queue up behind it.
type fakeAdapter struct {
	mu       sync.Mutex
	loads    int
	loadErr  error
	genErr   error
	countErr error
	tokens   []string
	content  string
	finish   string
	gate     chan struct{}
	started  chan struct{}
}

func (a *fakeAdapter) Load(path string, opts llm.Options) (llm.Model, llm.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loadErr != nil {
		return nil, nil, a.loadErr
	}
	a.loads++
	return &fakeModel{}, &fakeModel{}, nil
}

func (a *fakeAdapter) Generate(ctx context.Context, model llm.Model, ectx llm.Context, prompt string, params llm.Params, onToken func(string) error) (llm.Result, error) {
	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return llm.Result{}, ctx.Err()
		}
	}
	a.mu.Lock()
	genErr, tokens := a.genErr, a.tokens
	content, finish := a.content, a.finish
	a.mu.Unlock()
	// Tokens are delivered before genErr so tests can script a failure
	// after the stream has started.
	for _, tok := range tokens {
		if err := onToken(tok); err != nil {
			return llm.Result{}, err
		}
	}
	if genErr != nil {
		return llm.Result{}, genErr
	}
	return llm.Result{Content: content, FinishReason: finish}, nil
}

func (a *fakeAdapter) TokenCount(model llm.Model, text string) (int, error) {
	if a.countErr != nil {
		return 0, a.countErr
	}
	return len(strings.Fields(text)), nil
}

func (a *fakeAdapter) loadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loads
}

func newTestService(t *testing.T, adapter llm.Adapter) *Service {
	t.Helper()
	disp := NewDispatcher(nil)
	q := scheduler.New(scheduler.Config{
		IdleTimeout:   time.Minute,
		SweepInterval: time.Minute,
		Publisher:     disp,
	})
	s := New(q, adapter, disp, Config{
		Registry: []types.Model{
			{ID: "tiny", Name: "tiny", Path: "/models/tiny.gguf"},
			{ID: "big", Name: "big", Path: "/models/big.gguf"},
		},
		DefaultModel: "tiny",
	})
	t.Cleanup(s.Close)
	return s
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []tokenLine {
	t.Helper()
	var lines []tokenLine
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line tokenLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("bad stream line %q: %v", raw, err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestInferStreamsTokensThenFinalLine(t *testing.T) {
	adapter := &fakeAdapter{tokens: []string{"Hel", "lo"}, content: "Hello", finish: "stop"}
	s := newTestService(t, adapter)

	var buf bytes.Buffer
	flushes := 0
	req := types.InferRequest{Model: "tiny", Prompt: "Say hello", RequestID: "r1"}
	if err := s.Infer(context.Background(), req, &buf, func() { flushes++ }); err != nil {
		t.Fatalf("Infer: %v", err)
	}
	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("got %d stream lines, want 3", len(lines))
	}
	if lines[0].Token != "Hel" || lines[1].Token != "lo" {
		t.Fatalf("token lines = %+v", lines[:2])
	}
	final := lines[2]
	if !final.Done || final.Content != "Hello" || final.FinishReason != "stop" || final.RequestID != "r1" {
		t.Fatalf("final line = %+v", final)
	}
	if flushes < 3 {
		t.Fatalf("flushes = %d, want one per line", flushes)
	}
}

func TestInferUnknownModel(t *testing.T) {
	s := newTestService(t, &fakeAdapter{})
	var buf bytes.Buffer
	err := s.Infer(context.Background(), types.InferRequest{Model: "nope", Prompt: "hi"}, &buf, nil)
	if !IsModelNotFound(err) {
		t.Fatalf("err = %v, want model-not-found", err)
	}
}

func TestInferFallsBackToDefaultModel(t *testing.T) {
	adapter := &fakeAdapter{content: "ok", finish: "stop"}
	s := newTestService(t, adapter)
	var buf bytes.Buffer
	if err := s.Infer(context.Background(), types.InferRequest{Prompt: "hi"}, &buf, nil); err != nil {
		t.Fatalf("Infer with default model: %v", err)
	}
}

func TestInferReusesCachedModel(t *testing.T) {
	adapter := &fakeAdapter{content: "ok"}
	s := newTestService(t, adapter)
	for i := 0; i < 3; i++ {
		var buf bytes.Buffer
		if err := s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi"}, &buf, nil); err != nil {
			t.Fatalf("Infer #%d: %v", i, err)
		}
	}
	if got := adapter.loadCount(); got != 1 {
		t.Fatalf("loads = %d, want 1; cached model not reused", got)
	}
}

func TestInferWithoutNativeSupport(t *testing.T) {
	s := newTestService(t, &fakeAdapter{loadErr: llm.ErrNotBuilt})
	var buf bytes.Buffer
	err := s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi"}, &buf, nil)
	if !IsDependencyUnavailable(err) {
		t.Fatalf("err = %v, want dependency-unavailable", err)
	}
	// A load failure happens before any token; the stream must stay empty
	// so the caller can still send an error status.
	if buf.Len() != 0 {
		t.Fatalf("stream not empty on load failure: %q", buf.String())
	}
}

func TestInferErrorBeforeFirstTokenLeavesStreamEmpty(t *testing.T) {
	s := newTestService(t, &fakeAdapter{genErr: errors.New("boom")})
	var buf bytes.Buffer
	err := s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi"}, &buf, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v, want boom", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("stream not empty: %q", buf.String())
	}
}

func TestInferMidStreamErrorWritesFinalErrorLine(t *testing.T) {
	adapter := &fakeAdapter{tokens: []string{"Hel", "lo"}, genErr: errors.New("boom")}
	s := newTestService(t, adapter)
	var buf bytes.Buffer
	req := types.InferRequest{Model: "tiny", Prompt: "hi", RequestID: "r1"}
	err := s.Infer(context.Background(), req, &buf, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v, want boom", err)
	}
	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("got %d stream lines, want 2 tokens plus the error line", len(lines))
	}
	final := lines[2]
	if !final.Done || final.Error != "boom" || final.RequestID != "r1" {
		t.Fatalf("final line = %+v", final)
	}
}

func TestCancelQueuedRequest(t *testing.T) {
	gate := make(chan struct{})
	adapter := &fakeAdapter{gate: gate, started: make(chan struct{}, 4), content: "ok"}
	s := newTestService(t, adapter)
	t.Cleanup(func() {
		select {
		case <-gate:
		default:
			close(gate)
		}
	})

	firstDone := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		firstDone <- s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi", RequestID: "first"}, &buf, nil)
	}()
	// The worker is pinned inside the first request's Generate before the
	// second request is submitted, so FIFO order is fixed.
	<-adapter.started

	secondDone := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		secondDone <- s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi", RequestID: "second"}, &buf, nil)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for s.q.QueueDepth() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("second request never queued")
		}
		time.Sleep(time.Millisecond)
	}

	s.Cancel("second")
	close(gate)

	if err := <-firstDone; err != nil {
		t.Fatalf("first request: %v", err)
	}
	select {
	case err := <-secondDone:
		if !IsRequestCancelled(err) {
			t.Fatalf("second request err = %v, want request-cancelled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled request still waiting")
	}
}

func TestInferCallerContextCancelledWhileQueued(t *testing.T) {
	gate := make(chan struct{})
	adapter := &fakeAdapter{gate: gate, started: make(chan struct{}, 4), content: "ok"}
	s := newTestService(t, adapter)
	t.Cleanup(func() {
		select {
		case <-gate:
		default:
			close(gate)
		}
	})

	firstDone := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		firstDone <- s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi", RequestID: "first"}, &buf, nil)
	}()
	<-adapter.started

	ctx, cancel := context.WithCancel(context.Background())
	secondDone := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		secondDone <- s.Infer(ctx, types.InferRequest{Model: "tiny", Prompt: "hi", RequestID: "second"}, &buf, nil)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for s.q.QueueDepth() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("second request never queued")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case err := <-secondDone:
		if err != context.Canceled {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Infer did not observe context cancellation")
	}
	close(gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first request: %v", err)
	}
}

func TestInferQueuedRequestUnblockedAtShutdown(t *testing.T) {
	gate := make(chan struct{})
	adapter := &fakeAdapter{gate: gate, started: make(chan struct{}, 4), content: "ok"}
	s := newTestService(t, adapter)

	firstDone := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		firstDone <- s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi", RequestID: "first"}, &buf, nil)
	}()
	<-adapter.started

	// The second caller's context never fires; only the discard event can
	// release it once its queued task is dropped at shutdown.
	secondDone := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		secondDone <- s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi", RequestID: "second"}, &buf, nil)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for s.q.QueueDepth() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("second request never queued")
		}
		time.Sleep(time.Millisecond)
	}

	closeDone := make(chan struct{})
	go func() {
		s.Close()
		close(closeDone)
	}()
	for !s.q.Closed() {
		if time.Now().After(deadline) {
			t.Fatalf("Close never marked the queue closed")
		}
		time.Sleep(time.Millisecond)
	}
	close(gate)

	if err := <-firstDone; err != nil {
		t.Fatalf("first request: %v", err)
	}
	select {
	case err := <-secondDone:
		if !IsShuttingDown(err) {
			t.Fatalf("second request err = %v, want shutting-down", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("queued request still blocked after Close")
	}
	select {
	case <-closeDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("Close did not return")
	}
}

func TestInferAfterClose(t *testing.T) {
	s := newTestService(t, &fakeAdapter{})
	s.Close()
	var buf bytes.Buffer
	err := s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi"}, &buf, nil)
	if !IsShuttingDown(err) {
		t.Fatalf("err = %v, want shutting-down", err)
	}
}

func TestTokenizeCountsTokens(t *testing.T) {
	s := newTestService(t, &fakeAdapter{})
	resp, err := s.Tokenize(context.Background(), types.TokenizeRequest{Model: "tiny", Input: "one two three"})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if resp.Count != 3 {
		t.Fatalf("count = %d, want 3", resp.Count)
	}
}

func TestTokenizeUnknownModel(t *testing.T) {
	s := newTestService(t, &fakeAdapter{})
	_, err := s.Tokenize(context.Background(), types.TokenizeRequest{Model: "nope", Input: "hi"})
	if !IsModelNotFound(err) {
		t.Fatalf("err = %v, want model-not-found", err)
	}
}

func TestTokenizeWithoutNativeSupport(t *testing.T) {
	s := newTestService(t, &fakeAdapter{loadErr: llm.ErrNotBuilt})
	_, err := s.Tokenize(context.Background(), types.TokenizeRequest{Model: "tiny", Input: "hi"})
	if !IsDependencyUnavailable(err) {
		t.Fatalf("err = %v, want dependency-unavailable", err)
	}
}

func TestListModelsReturnsCopy(t *testing.T) {
	s := newTestService(t, &fakeAdapter{})
	models := s.ListModels()
	if len(models) != 2 {
		t.Fatalf("models = %d, want 2", len(models))
	}
	models[0].ID = "mutated"
	if s.ListModels()[0].ID != "tiny" {
		t.Fatalf("ListModels exposed internal slice")
	}
}

func TestClearCacheCoversBothCaches(t *testing.T) {
	adapter := &fakeAdapter{content: "ok"}
	s := newTestService(t, adapter)
	var buf bytes.Buffer
	if err := s.Infer(context.Background(), types.InferRequest{Model: "tiny", Prompt: "hi"}, &buf, nil); err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if _, err := s.Tokenize(context.Background(), types.TokenizeRequest{Model: "big", Input: "hi"}); err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if cleared := s.ClearCache(false); cleared != 2 {
		t.Fatalf("cleared = %d, want 2", cleared)
	}
}

func TestStatusReportsUptime(t *testing.T) {
	s := newTestService(t, &fakeAdapter{})
	st := s.Status()
	if st.Closed {
		t.Fatalf("Closed = true on a fresh service")
	}
	if st.UptimeSeconds < 0 || st.ServerTimeUnix == 0 {
		t.Fatalf("status = %+v", st)
	}
	if !s.Ready() {
		t.Fatalf("Ready = false on a fresh service")
	}
	s.Close()
	if s.Ready() {
		t.Fatalf("Ready = true after Close")
	}
}
