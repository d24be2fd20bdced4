// Package llm wraps the native llama.cpp runtime behind a small adapter
// interface. The real binding is compiled in with `-tags=llama`
// (see llama.go); default builds get a CGO-free stub that fails fast.
// Heavy lifting stays in native code; keep this surface tiny.
package llm

import (
	"context"
	"errors"
)

// ErrNotBuilt is returned by the stub adapter when the binary was compiled
// without the 'llama' build tag.
var ErrNotBuilt = errors.New("llama support not built (missing 'llama' build tag)")

// Built reports whether native llama support is compiled into this binary.
func Built() bool { return llamaBuilt }

// Model is a loaded native model. Free releases it; the model cache decides
// when that happens.
type Model interface {
	Free()
}

// Context is a native execution context bound to one Model.
type Context interface {
	Free()
}

// Options configure model loading.
type Options struct {
	ContextSize int
	Threads     int
}

// Params are per-generation sampling parameters.
type Params struct {
	MaxTokens     int
	Temperature   float32
	TopP          float32
	TopK          int
	Stop          []string
	Seed          int
	RepeatPenalty float32
}

// Result summarizes a generation after streaming.
type Result struct {
	Content      string
	FinishReason string
}

// Adapter loads native model resources and runs generation against them.
// The scheduler core never calls this directly; the runner does, borrowing
// handles from the cache around each call.
type Adapter interface {
	// Load reads the model file and prepares an execution context. The
	// caller (normally the runner) hands both handles straight to the model
	// cache, which owns them from then on.
	Load(path string, opts Options) (Model, Context, error)
	// Generate streams tokens for prompt via onToken until completion, a
	// stop sequence, or context cancellation. onToken returning an error
	// stops generation.
	Generate(ctx context.Context, model Model, ectx Context, prompt string, params Params, onToken func(string) error) (Result, error)
	// TokenCount returns the number of tokens text encodes to under the
	// model's vocabulary.
	TokenCount(model Model, text string) (int, error)
}
