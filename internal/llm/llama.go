//go:build llama

package llm

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// NewAdapter returns the in-process go-llama.cpp adapter.
func NewAdapter() Adapter { return &llamaAdapter{} }

type llamaAdapter struct{}

// llamaModel owns the native model+context pair. go-llama.cpp fuses both
// into one LLama value, so the context handle is a view onto the same state
// and its Free is a no-op; freeing the model releases everything.
type llamaModel struct {
	l       *llama.LLama
	threads int
}

func (m *llamaModel) Free() {
	if m.l != nil {
		m.l.Free()
		m.l = nil
	}
}

type llamaContext struct {
	owner *llamaModel
}

func (c *llamaContext) Free() {}

func (a *llamaAdapter) Load(path string, opts Options) (Model, Context, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{}
	if opts.ContextSize > 0 {
		mo = append(mo, llama.SetContext(opts.ContextSize))
	}
	l, err := llama.New(path, mo...)
	if err != nil {
		return nil, nil, err
	}
	m := &llamaModel{l: l, threads: opts.Threads}
	return m, &llamaContext{owner: m}, nil
}

func (a *llamaAdapter) Generate(ctx context.Context, model Model, _ Context, prompt string, params Params, onToken func(string) error) (Result, error) {
	m, ok := model.(*llamaModel)
	if !ok || m.l == nil {
		return Result{}, errors.New("llama model not initialized")
	}
	m.l.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		return onToken(tok) == nil
	})
	text, err := m.l.Predict(prompt, predictOptions(params, m.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	return Result{Content: text, FinishReason: "stop"}, nil
}

func (a *llamaAdapter) TokenCount(model Model, text string) (int, error) {
	m, ok := model.(*llamaModel)
	if !ok || m.l == nil {
		return 0, errors.New("llama model not initialized")
	}
	n, _, err := m.l.TokenizeString(text, llama.SetTokens(0))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func predictOptions(params Params, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(intOr(params.MaxTokens, 128)),
		llama.SetThreads(intOr(threads, 4)),
		llama.SetTopP(floatOr(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(intOr(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(floatOr(params.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(floatOr(params.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if params.Seed != 0 {
		po = append(po, llama.SetSeed(params.Seed))
	}
	if len(params.Stop) > 0 {
		po = append(po, llama.SetStopWords(params.Stop...))
	}
	return po
}

func intOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func floatOr(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
