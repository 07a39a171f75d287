package runtime

import (
	"sync"

	"github.com/google/uuid"
)

// Event is a runtime lifecycle event. Minimal and stable: name + alias and
// optional fields via key/values. CorrelationID ties together the events of
// a single load attempt (load_started/load_failed/load_succeeded) so a
// structured-logging sink can join them without alias+timestamp heuristics.
type Event struct {
	Name          string
	Alias         string
	CorrelationID string
	Fields        map[string]any
}

// newCorrelationID returns a fresh correlation ID for one load attempt.
func newCorrelationID() string { return uuid.NewString() }

// EventPublisher receives events from the runtime. Implementations must be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher stores events in-memory, primarily for tests and for
// hosts that want to poll background-warmup outcomes without wiring a real
// sink.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher constructs an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

// Events returns a snapshot copy of every event published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
