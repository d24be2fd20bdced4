package scheduler

// Event names published by the Queue.
const (
	EventTaskExecuted    = "task_executed"
	EventTaskDiscarded   = "task_discarded"
	EventModelRegistered = "model_registered"
	EventModelEvicted    = "model_evicted"
	EventModelFreed      = "model_freed"
	EventCacheCleared    = "cache_cleared"
	EventShutdown        = "shutdown"
)

// Event is a lifecycle notification. Minimal and stable: a name plus the
// fields that apply.
type Event struct {
	Name      string
	RequestID string
	Model     string
	Cleared   int
}

// EventPublisher receives events from the Queue. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
