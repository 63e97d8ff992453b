package models

import "errors"

var (
	// ErrInvalidRequest means required fields are missing; the client must
	// correct and resubmit.
	ErrInvalidRequest = errors.New("invalid request: missing required fields")

	// ErrUnknownFacility means the facility_id references no configured facility.
	ErrUnknownFacility = errors.New("unknown facility")

	// ErrInvalidInterval means end_time <= start_time.
	ErrInvalidInterval = errors.New("invalid interval: end must be after start")

	// ErrSlotConflict means the interval overlaps an already committed booking.
	// This is a routine outcome of losing a race, not a system fault.
	ErrSlotConflict = errors.New("time slot already booked")

	// ErrUpstreamUnavailable means an external collaborator (inference,
	// notification channel) failed. Booking commits are unaffected.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrCodeInvalid means a link code is unknown or expired.
	ErrCodeInvalid = errors.New("link code invalid or expired")
)
