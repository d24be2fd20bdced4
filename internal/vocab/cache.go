// Package vocab caches models loaded for tokenization only. It applies the
// same idle-and-unreferenced eviction rule as the scheduler's model cache
// but is swept on demand inside each lookup instead of by a background
// loop, and uses a much shorter inactivity threshold: tokenize models are
// cheap to reload and not worth keeping warm.
package vocab

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/llm"
	"inferd/internal/scheduler"
)

// DefaultIdleTimeout matches the short tokenizer-cache threshold.
const DefaultIdleTimeout = 30 * time.Second

type entry struct {
	model    llm.Model
	ctx      llm.Context
	users    int
	lastUsed time.Time
}

func (e *entry) free() {
	if e.ctx != nil {
		e.ctx.Free()
		e.ctx = nil
	}
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
}

// Config encapsulates Cache construction.
type Config struct {
	// Load reads a model for tokenize-only use.
	Load func(path string) (llm.Model, llm.Context, error)
	// IdleTimeout defaults to DefaultIdleTimeout.
	IdleTimeout time.Duration
	Logger      *zerolog.Logger
}

// Cache is a keyed model cache with scoped borrows. All access goes through
// With; the cache owns the handles and frees them on eviction.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	load    func(path string) (llm.Model, llm.Context, error)
	timeout time.Duration
	log     *zerolog.Logger
}

func New(cfg Config) *Cache {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	return &Cache{
		entries: make(map[string]*entry),
		load:    cfg.Load,
		timeout: cfg.IdleTimeout,
		log:     cfg.Logger,
	}
}

// With borrows the model for path for the duration of fn, loading it on a
// miss. The borrow count keeps a concurrent sweep from freeing the model
// while fn runs.
func (c *Cache) With(path string, fn func(model llm.Model) error) error {
	c.mu.Lock()
	c.sweepLocked(time.Now())
	e, ok := c.entries[path]
	if !ok {
		model, ctx, err := c.load(path)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		e = &entry{model: model, ctx: ctx}
		c.entries[path] = e
		c.log.Debug().Str("model", path).Msg("vocab model loaded")
	}
	e.lastUsed = time.Now()
	e.users++
	c.mu.Unlock()

	err := fn(e.model)

	c.mu.Lock()
	if e.users > 0 {
		e.users--
	}
	e.lastUsed = time.Now()
	c.mu.Unlock()
	return err
}

// Sweep frees every idle, unreferenced entry now.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(time.Now())
}

// sweepLocked applies the shared eviction predicate. Callers must hold mu.
func (c *Cache) sweepLocked(now time.Time) {
	for path, e := range c.entries {
		if scheduler.IdleUnreferenced(now, e.lastUsed, c.timeout, e.users) {
			e.free()
			delete(c.entries, path)
			c.log.Debug().Str("model", path).Msg("vocab model evicted")
		}
	}
}

// Clear frees every unreferenced entry regardless of idle time and returns
// how many were freed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cleared := 0
	for path, e := range c.entries {
		if e.users > 0 {
			continue
		}
		e.free()
		delete(c.entries, path)
		cleared++
	}
	return cleared
}

// CloseAll frees everything unconditionally. Only for process teardown,
// after no borrower can remain.
func (c *Cache) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, e := range c.entries {
		e.free()
		delete(c.entries, path)
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
