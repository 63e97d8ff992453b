package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeChan(t *testing.T) {
	t.Run("DeliversMatchingEvents", func(t *testing.T) {
		bus := NewEventBus()
		ch, unsubscribe := bus.SubscribeChan(EventBookingCreated, 4)
		defer unsubscribe()

		bus.Publish(Event{Type: EventBookingCreated, Payload: []byte(`{"booking_id":"b-1"}`)})
		bus.Publish(Event{Type: "other.event", Payload: []byte(`{}`)})

		require.Len(t, ch, 1)
		event := <-ch
		assert.Equal(t, EventBookingCreated, event.Type)
		assert.False(t, event.CreatedAt.IsZero())
	})

	t.Run("UnsubscribeStopsDelivery", func(t *testing.T) {
		bus := NewEventBus()
		ch, unsubscribe := bus.SubscribeChan(EventBookingCreated, 4)

		unsubscribe()
		bus.Publish(Event{Type: EventBookingCreated})

		assert.Empty(t, ch)
	})

	t.Run("DropsWhenConsumerFallsBehind", func(t *testing.T) {
		bus := NewEventBus()
		ch, unsubscribe := bus.SubscribeChan(EventBookingCreated, 1)
		defer unsubscribe()

		bus.Publish(Event{Type: EventBookingCreated, Payload: []byte(`1`)})
		bus.Publish(Event{Type: EventBookingCreated, Payload: []byte(`2`)})

		require.Len(t, ch, 1)
		assert.Equal(t, []byte(`1`), (<-ch).Payload)
	})
}

func TestPublishJSON(t *testing.T) {
	bus := NewEventBus()

	var got Event
	bus.Subscribe(EventBookingCreated, func(event Event) { got = event })

	require.NoError(t, bus.PublishJSON(EventBookingCreated, BookingCreatedPayload{
		BookingID:  "b-1",
		FacilityID: "studio",
	}))
	assert.Contains(t, string(got.Payload), "b-1")
}
