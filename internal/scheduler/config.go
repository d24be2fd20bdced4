package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultIdleTimeout   = 60 * time.Second
	defaultSweepInterval = 5 * time.Second
)

// Config encapsulates all tunables for Queue construction.
type Config struct {
	// IdleTimeout is how long a cached model resource may sit unused before
	// the sweeper considers it for eviction.
	IdleTimeout time.Duration
	// SweepInterval is the sweeper's wake period; it also wakes on explicit
	// notification after every task.
	SweepInterval time.Duration
	// Logger receives structured diagnostics. Defaults to a no-op logger.
	Logger *zerolog.Logger
	// Publisher receives lifecycle events. Defaults to a no-op publisher.
	Publisher EventPublisher
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
