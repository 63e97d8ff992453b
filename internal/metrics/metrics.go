package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubdesk",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by intake channel.",
		},
		[]string{"channel"},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hubdesk",
			Name:      "slot_conflict_total",
			Help:      "Count of booking attempts rejected by the interval constraint.",
		},
	)

	validationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubdesk",
			Name:      "validation_rejected_total",
			Help:      "Count of booking requests rejected by validation, by reason.",
		},
		[]string{"reason"},
	)

	webhookCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubdesk",
			Name:      "webhook_command_total",
			Help:      "Count of WhatsApp commands received, by verb.",
		},
		[]string{"verb"},
	)

	notifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hubdesk",
			Name:      "notify_failure_total",
			Help:      "Count of confirmation messages that could not be delivered.",
		},
	)

	aiSuggestions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubdesk",
			Name:      "ai_suggestion_total",
			Help:      "Count of AI booking suggestions, by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubdesk",
			Name:      "http_request_total",
			Help:      "Count of HTTP requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated, slotConflicts, validationRejected,
			webhookCommands, notifyFailures, aiSuggestions, httpRequests,
		)
	})
}

func IncBookingCreated(channel string) {
	bookingCreated.WithLabelValues(channel).Inc()
}

func IncSlotConflict() {
	slotConflicts.Inc()
}

func IncValidationRejected(reason string) {
	validationRejected.WithLabelValues(reason).Inc()
}

func IncWebhookCommand(verb string) {
	webhookCommands.WithLabelValues(verb).Inc()
}

func IncNotifyFailure() {
	notifyFailures.Inc()
}

func IncAISuggestion(outcome string) {
	aiSuggestions.WithLabelValues(outcome).Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
