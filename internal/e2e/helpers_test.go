package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inferd/internal/httpapi"
	"inferd/internal/llm"
	"inferd/internal/registry"
	"inferd/internal/runner"
	"inferd/internal/scheduler"
)

// createTempModelsDir creates a temporary directory populated with empty
// .gguf files and returns the directory path and the list of model IDs.
func createTempModelsDir(t *testing.T, names ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte(""), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir, names
}

type nopHandle struct{}

func (nopHandle) Free() {}

// stubAdapter streams a fixed token sequence for every prompt.
type stubAdapter struct {
	tokens  []string
	content string
}

func (a *stubAdapter) Load(path string, opts llm.Options) (llm.Model, llm.Context, error) {
	return nopHandle{}, nopHandle{}, nil
}

func (a *stubAdapter) Generate(ctx context.Context, model llm.Model, ectx llm.Context, prompt string, params llm.Params, onToken func(string) error) (llm.Result, error) {
	for _, tok := range a.tokens {
		if err := onToken(tok); err != nil {
			return llm.Result{}, err
		}
	}
	return llm.Result{Content: a.content, FinishReason: "stop"}, nil
}

func (a *stubAdapter) TokenCount(model llm.Model, text string) (int, error) {
	return len(text), nil
}

// notBuiltAdapter mimics a binary compiled without native llama support.
type notBuiltAdapter struct{}

func (notBuiltAdapter) Load(string, llm.Options) (llm.Model, llm.Context, error) {
	return nil, nil, llm.ErrNotBuilt
}

func (notBuiltAdapter) Generate(context.Context, llm.Model, llm.Context, string, llm.Params, func(string) error) (llm.Result, error) {
	return llm.Result{}, llm.ErrNotBuilt
}

func (notBuiltAdapter) TokenCount(llm.Model, string) (int, error) {
	return 0, llm.ErrNotBuilt
}

// newServerForDir wires the full daemon stack against modelsDir, backed by
// the given adapter instead of the native runtime.
func newServerForDir(t *testing.T, modelsDir, defaultModel string, adapter llm.Adapter) (*httptest.Server, *runner.Service) {
	t.Helper()
	reg, err := registry.NewGGUFScanner().Scan(modelsDir)
	if err != nil {
		t.Fatalf("scan models: %v", err)
	}
	disp := runner.NewDispatcher(nil)
	q := scheduler.New(scheduler.Config{
		IdleTimeout:   time.Minute,
		SweepInterval: time.Minute,
		Publisher:     disp,
	})
	svc := runner.New(q, adapter, disp, runner.Config{
		Registry:     reg,
		DefaultModel: defaultModel,
	})
	t.Cleanup(svc.Close)
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv, svc
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
