package notifications

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *memorySink) Deliver(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestChannelBusDeliversToSink(t *testing.T) {
	sink := &memorySink{}
	bus := NewChannelBus(sink, 16)
	bus.Start()

	for i := 0; i < 5; i++ {
		bus.Publish(NewEvent(EventOrderPlaced, "buyer@example.com", OrderPlacedPayload{
			Email:   "buyer@example.com",
			OrderID: "order-1",
		}))
	}

	bus.Close()

	events := sink.Events()
	require.Len(t, events, 5)
	assert.Equal(t, EventOrderPlaced, events[0].Type)
	assert.Equal(t, "buyer@example.com", events[0].Recipient)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].OccurredAt.IsZero())
}

func TestChannelBusOverflowNeverBlocks(t *testing.T) {
	// never started: the buffer fills and stays full
	bus := NewChannelBus(&memorySink{}, 2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			bus.Publish(NewEvent(EventOrderPlaced, "buyer@example.com", OrderPlacedPayload{OrderID: "x"}))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestChannelBusFlushesOnShutdown(t *testing.T) {
	sink := &memorySink{}
	bus := NewChannelBus(sink, 16)

	// queue before the worker runs
	for i := 0; i < 4; i++ {
		bus.Publish(NewEvent(EventCatalogImported, "seller@example.com", CatalogImportedPayload{Listings: i}))
	}

	bus.Start()
	bus.Close()

	assert.Len(t, sink.Events(), 4)
}

func TestChannelBusPublishAfterCloseDoesNotPanic(t *testing.T) {
	sink := &memorySink{}
	bus := NewChannelBus(sink, 16)
	bus.Start()

	bus.Publish(NewEvent(EventOrderPlaced, "buyer@example.com", OrderPlacedPayload{OrderID: "o1"}))
	bus.Close()

	// A handler still draining after shutdown may publish; the event is
	// dropped, never a fault.
	assert.NotPanics(t, func() {
		bus.Publish(NewEvent(EventOrderPlaced, "buyer@example.com", OrderPlacedPayload{OrderID: "o2"}))
	})
	assert.Len(t, sink.Events(), 1)

	// Close is idempotent.
	assert.NotPanics(t, bus.Close)
}

func TestRenderMailCoversEveryEventType(t *testing.T) {
	events := []Event{
		NewEvent(EventEmailConfirmationRequested, "a@example.com", EmailConfirmationPayload{Token: "tok"}),
		NewEvent(EventPasswordResetIssued, "a@example.com", PasswordResetPayload{NewPassword: "pw"}),
		NewEvent(EventAccountDeleted, "a@example.com", AccountDeletedPayload{Email: "a@example.com", Username: "a"}),
		NewEvent(EventOrderPlaced, "a@example.com", OrderPlacedPayload{OrderID: "o1"}),
		NewEvent(EventOrderStateChanged, "a@example.com", OrderStateChangedPayload{OrderID: "o1", NewState: "confirmed"}),
		NewEvent(EventCatalogImported, "a@example.com", CatalogImportedPayload{Listings: 2}),
	}

	for _, event := range events {
		subject, body, err := renderMail(event)
		require.NoError(t, err, event.Type)
		assert.NotEmpty(t, subject, event.Type)
		assert.NotEmpty(t, body, event.Type)
	}

	_, _, err := renderMail(Event{Type: "SomethingElse"})
	assert.Error(t, err)
}
