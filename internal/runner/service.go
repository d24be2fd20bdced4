package runner

import (
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/llm"
	"inferd/internal/scheduler"
	"inferd/internal/vocab"
	"inferd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultContextSize = 2048
	defaultThreads     = 4
)

// Config encapsulates tunables for Service construction.
type Config struct {
	Registry     []types.Model
	DefaultModel string
	ContextSize  int
	Threads      int
	// VocabIdleTimeout bounds how long tokenize-only models stay cached.
	VocabIdleTimeout time.Duration
	Logger           *zerolog.Logger
}

// Service resolves requests against the registry and drives the scheduler.
// It satisfies the httpapi.Service interface.
type Service struct {
	q       *scheduler.Queue
	adapter llm.Adapter
	disp    *Dispatcher
	vocab   *vocab.Cache
	cfg     Config
	log     *zerolog.Logger
	start   time.Time
}

// New wires a Service to an existing Queue. disp must be the same
// Dispatcher installed as the Queue's EventPublisher, or cancellation of
// queued requests will leave callers waiting.
func New(q *scheduler.Queue, adapter llm.Adapter, disp *Dispatcher, cfg Config) *Service {
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = defaultContextSize
	}
	if cfg.Threads <= 0 {
		cfg.Threads = defaultThreads
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	s := &Service{
		q:       q,
		adapter: adapter,
		disp:    disp,
		cfg:     cfg,
		log:     cfg.Logger,
		start:   time.Now(),
	}
	// Tokenize-only models are loaded with a minimal context; the vocab
	// cache sweeps on demand rather than via the background sweeper.
	s.vocab = vocab.New(vocab.Config{
		Load: func(path string) (llm.Model, llm.Context, error) {
			return adapter.Load(path, llm.Options{ContextSize: 32, Threads: cfg.Threads})
		},
		IdleTimeout: cfg.VocabIdleTimeout,
		Logger:      cfg.Logger,
	})
	return s
}

// ListModels returns a copy of the registry.
func (s *Service) ListModels() []types.Model {
	out := make([]types.Model, len(s.cfg.Registry))
	copy(out, s.cfg.Registry)
	return out
}

// Status reports queue and cache state for /status.
func (s *Service) Status() types.StatusResponse {
	resp := s.q.Status()
	now := time.Now()
	resp.UptimeSeconds = int64(now.Sub(s.start).Seconds())
	resp.ServerTimeUnix = now.Unix()
	return resp
}

// Ready reports whether the service can accept work.
func (s *Service) Ready() bool { return !s.q.Closed() }

// Cancel marks a request id cancelled; best-effort, pre-dequeue only.
func (s *Service) Cancel(requestID string) { s.q.Cancel(requestID) }

// ClearCache evicts cached model resources; see scheduler.ClearModelCache.
func (s *Service) ClearCache(force bool) int {
	cleared := s.q.ClearModelCache(force)
	cleared += s.vocab.Clear()
	return cleared
}

// Sweep triggers an immediate idle-eviction pass on both caches.
func (s *Service) Sweep() {
	s.q.SweepNow()
	s.vocab.Sweep()
}

// Close shuts the scheduler down and releases every cached resource,
// including tokenize-only models.
func (s *Service) Close() {
	s.q.Close()
	s.vocab.CloseAll()
}

// resolveModel maps a request model id (or the configured default) to a
// registry entry.
func (s *Service) resolveModel(id string) (types.Model, error) {
	if id == "" {
		id = s.cfg.DefaultModel
		if id == "" {
			return types.Model{}, modelNotFoundError{id: "(unspecified)"}
		}
	}
	for _, mdl := range s.cfg.Registry {
		if mdl.ID == id {
			return mdl, nil
		}
	}
	return types.Model{}, modelNotFoundError{id: id}
}
