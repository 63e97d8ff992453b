package service

import (
	"context"
	"errors"

	"hubdesk/internal/config"
	"hubdesk/internal/metrics"
	"hubdesk/internal/models"
	"hubdesk/internal/slot"

	"github.com/rs/zerolog"
)

// BookingStore is the conflict-safe persistence the service commits through.
type BookingStore interface {
	Insert(ctx context.Context, b *models.Booking) error
}

// Notifier delivers best-effort confirmations after a booking commits.
type Notifier interface {
	NotifyBookingCreated(ctx context.Context, b *models.Booking) error
}

// BookingService is the single validated entry point for creating a
// booking. Every intake adapter calls Create; none writes to the store
// directly.
type BookingService struct {
	store      BookingStore
	facilities *config.Facilities
	notifier   Notifier
	logger     *zerolog.Logger
}

func NewBookingService(store BookingStore, facilities *config.Facilities, notifier Notifier, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:      store,
		facilities: facilities,
		notifier:   notifier,
		logger:     logger,
	}
}

// Create validates the request and commits it atomically. On success there
// is exactly one durable write; every failure path leaves zero writes.
// A slot conflict surfaces verbatim; the service never retries on a
// different slot.
func (s *BookingService) Create(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if req.Owner == "" || req.FacilityID == "" || req.StartTime.IsZero() || req.EndTime.IsZero() {
		metrics.IncValidationRejected("missing_fields")
		return nil, models.ErrInvalidRequest
	}

	facility := s.facilities.GetByID(req.FacilityID)
	if facility == nil {
		metrics.IncValidationRejected("unknown_facility")
		return nil, models.ErrUnknownFacility
	}

	if err := slot.Validate(req.StartTime, req.EndTime); err != nil {
		metrics.IncValidationRejected("invalid_interval")
		return nil, err
	}

	// Equipment is meaningful only for facilities that declare the
	// capability; everything else is stored without it no matter what
	// the caller supplied.
	equipment := req.Equipment
	if !facility.HasEquipment {
		equipment = nil
	}

	booking := &models.Booking{
		FacilityID:  req.FacilityID,
		Owner:       req.Owner,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		ProjectName: req.ProjectName,
		Notes:       req.Notes,
		Equipment:   equipment,
	}

	if err := s.store.Insert(ctx, booking); err != nil {
		if errors.Is(err, models.ErrSlotConflict) {
			metrics.IncSlotConflict()
			s.logger.Info().
				Str("facility", req.FacilityID).
				Time("start", req.StartTime).
				Msg("slot conflict")
			return nil, err
		}
		s.logger.Error().Err(err).Str("facility", req.FacilityID).Msg("insert booking failed")
		return nil, err
	}

	channel := req.Channel
	if channel == "" {
		channel = "form"
	}
	metrics.IncBookingCreated(channel)

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("facility", booking.FacilityID).
		Str("channel", channel).
		Time("start", booking.StartTime).
		Msg("booking created")

	// Confirmation delivery is best effort: a downstream failure is
	// logged and swallowed, never rolled back into the commit.
	if s.notifier != nil {
		if err := s.notifier.NotifyBookingCreated(ctx, booking); err != nil {
			metrics.IncNotifyFailure()
			s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("confirmation not delivered")
		}
	}

	return booking, nil
}
