//go:build !llama

package llm

// This file provides a no-CGO stub for the llama adapter. It is compiled
// when the 'llama' build tag is NOT set, keeping default builds and CI
// CGO-free. The real adapter lives in llama.go (tagged 'llama').

import "context"

var llamaBuilt = false

// NewAdapter returns a stub that satisfies Adapter but refuses to load or
// run anything without the 'llama' build tag. No mocked behavior in
// production binaries built without CGO support.
func NewAdapter() Adapter { return stubAdapter{} }

type stubAdapter struct{}

func (stubAdapter) Load(path string, opts Options) (Model, Context, error) {
	return nil, nil, ErrNotBuilt
}

func (stubAdapter) Generate(ctx context.Context, model Model, _ Context, prompt string, params Params, onToken func(string) error) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}
	return Result{}, ErrNotBuilt
}

func (stubAdapter) TokenCount(Model, string) (int, error) {
	return 0, ErrNotBuilt
}
