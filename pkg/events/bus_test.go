package events

import (
	"testing"

	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestPublish_TypedSubscribersInRegistrationOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(StateChanged, func(Event) { order = append(order, "first") })
	bus.Subscribe(StateChanged, func(Event) { order = append(order, "second") })
	bus.Subscribe(RunAborted, func(Event) { order = append(order, "other-type") })

	bus.Publish(Event{Type: StateChanged, RunID: "run-1"})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublish_AllSubscribersAfterTyped(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe(ReportGenerated, func(Event) { order = append(order, "typed") })

	bus.Publish(Event{Type: ReportGenerated, RunID: "run-1"})

	assert.Equal(t, []string{"typed", "all"}, order)
}

func TestPublish_StampsTimestamp(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(RunScheduled, func(event Event) { received = event })

	bus.Publish(Event{Type: RunScheduled, RunID: "run-1", State: types.RunStatePending})

	assert.False(t, received.Timestamp.IsZero())
	assert.Equal(t, types.RunStatePending, received.State)
}

func TestPublish_NoSubscribers(t *testing.T) {
	bus := NewBus()
	// must not panic
	bus.Publish(Event{Type: ViolationRecorded, RunID: "run-1"})
}
