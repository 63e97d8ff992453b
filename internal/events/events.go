package events

import (
	"encoding/json"
	"sync"
	"time"
)

// EventBookingCreated is published after a booking commits.
const EventBookingCreated = "booking.created"

// BookingCreatedPayload is the payload carried by booking.created events.
// Consumers treat it as a refresh signal and re-fetch; delivery is
// at-least-once, so they must tolerate duplicates.
type BookingCreatedPayload struct {
	BookingID  string    `json:"booking_id"`
	FacilityID string    `json:"facility_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event Event)

// EventBus provides in-process pub/sub for events. Delivery is best
// effort and at least once; consumers fall back to re-fetching state.
type EventBus struct {
	subscribers map[string]map[int]EventHandler
	nextID      int
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string]map[int]EventHandler)}
}

// Subscribe registers a handler for a given event type for the lifetime
// of the bus.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(eventType, handler)
}

// SubscribeChan registers a buffered channel subscription and returns it
// with an unsubscribe func. Events are dropped rather than blocking when
// the consumer falls behind; consumers must re-fetch, not patch.
func (b *EventBus) SubscribeChan(eventType string, buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.add(eventType, func(event Event) {
		select {
		case ch <- event:
		default:
		}
	})
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subscribers[eventType], id)
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

func (b *EventBus) add(eventType string, handler EventHandler) int {
	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[int]EventHandler)
	}
	id := b.nextID
	b.nextID++
	b.subscribers[eventType][id] = handler
	return id
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.subscribers[event.Type]))
	for _, handler := range b.subscribers[event.Type] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(event)
	}
}

// PublishJSON marshals payload and publishes it under eventType.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(Event{Type: eventType, Payload: data})
	return nil
}
