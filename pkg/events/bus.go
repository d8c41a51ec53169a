package events

import (
	"sync"
	"time"

	"github.com/chaoslab/control-plane/pkg/types"
)

// Event types published by the orchestrator over a run's lifetime
const (
	RunScheduled      = "RunScheduled"
	StateChanged      = "StateChanged"
	ViolationRecorded = "ViolationRecorded"
	RunAborted        = "RunAborted"
	ReportGenerated   = "ReportGenerated"
)

// Event is a lifecycle notification for a run
type Event struct {
	Type      string
	RunID     string
	State     types.RunState
	Message   string
	Timestamp time.Time
}

// Handler consumes published events
type Handler func(event Event)

// Bus is an explicit publish/subscribe channel for run lifecycle events.
// Subscribers for an event type are invoked synchronously in registration
// order; there is no ordering guarantee across independent event types.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for one event type
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish delivers the event to the type's subscribers, then to the
// all-event subscribers, each group in registration order
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	typed := make([]Handler, len(b.handlers[event.Type]))
	copy(typed, b.handlers[event.Type])
	all := make([]Handler, len(b.all))
	copy(all, b.all)
	b.mu.RUnlock()

	for _, handler := range typed {
		handler(event)
	}
	for _, handler := range all {
		handler(event)
	}
}
