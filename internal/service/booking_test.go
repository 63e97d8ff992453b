package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"hubdesk/internal/config"
	"hubdesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyBookingCreated(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func testFacilities() *config.Facilities {
	f := &config.Facilities{Facilities: []config.Facility{
		{ID: "studio", Name: "Studio Room", HasEquipment: true, Equipment: []string{"Mic - Condenser", "Green Screen"}},
		{ID: "robotics", Name: "Robotics & Coding Lab"},
	}}
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}

func validRequest() models.BookingRequest {
	return models.BookingRequest{
		Owner:      "alice",
		FacilityID: "robotics",
		StartTime:  time.Date(2025, 9, 5, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 9, 5, 10, 0, 0, 0, time.UTC),
	}
}

func TestBookingServiceCreate(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(mockStore)
		notifier := new(mockNotifier)
		svc := NewBookingService(store, testFacilities(), notifier, &logger)

		store.On("Insert", ctx, mock.Anything).Return(nil).Once()
		notifier.On("NotifyBookingCreated", ctx, mock.Anything).Return(nil).Once()

		booking, err := svc.Create(ctx, validRequest())
		assert.NoError(t, err)
		assert.NotNil(t, booking)
		store.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		store := new(mockStore)
		svc := NewBookingService(store, testFacilities(), nil, &logger)

		for _, req := range []models.BookingRequest{
			{},
			{FacilityID: "robotics", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)},
			{Owner: "alice", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)},
			{Owner: "alice", FacilityID: "robotics"},
		} {
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, models.ErrInvalidRequest)
		}
		store.AssertNotCalled(t, "Insert")
	})

	t.Run("UnknownFacility", func(t *testing.T) {
		store := new(mockStore)
		svc := NewBookingService(store, testFacilities(), nil, &logger)

		req := validRequest()
		req.FacilityID = "pool"
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, models.ErrUnknownFacility)
		store.AssertNotCalled(t, "Insert")
	})

	t.Run("InvalidInterval", func(t *testing.T) {
		store := new(mockStore)
		svc := NewBookingService(store, testFacilities(), nil, &logger)

		req := validRequest()
		req.StartTime, req.EndTime = req.EndTime, req.StartTime
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, models.ErrInvalidInterval)

		// end == start is invalid too
		req = validRequest()
		req.EndTime = req.StartTime
		_, err = svc.Create(ctx, req)
		assert.ErrorIs(t, err, models.ErrInvalidInterval)
		store.AssertNotCalled(t, "Insert")
	})

	t.Run("SlotConflictSurfacesVerbatim", func(t *testing.T) {
		store := new(mockStore)
		svc := NewBookingService(store, testFacilities(), nil, &logger)

		store.On("Insert", ctx, mock.Anything).Return(models.ErrSlotConflict).Once()

		_, err := svc.Create(ctx, validRequest())
		assert.ErrorIs(t, err, models.ErrSlotConflict)
		store.AssertExpectations(t)
	})

	t.Run("EquipmentScopedToCapableFacility", func(t *testing.T) {
		store := new(mockStore)
		svc := NewBookingService(store, testFacilities(), nil, &logger)

		var inserted *models.Booking
		store.On("Insert", ctx, mock.Anything).Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*models.Booking)
		}).Return(nil).Twice()

		// robotics has no equipment capability: submitted list is dropped.
		req := validRequest()
		req.Equipment = []string{"Camera - 4K"}
		_, err := svc.Create(ctx, req)
		assert.NoError(t, err)
		assert.Empty(t, inserted.Equipment)

		// studio keeps the list unchanged.
		req = validRequest()
		req.FacilityID = "studio"
		req.Equipment = []string{"Mic - Condenser"}
		_, err = svc.Create(ctx, req)
		assert.NoError(t, err)
		assert.Equal(t, []string{"Mic - Condenser"}, inserted.Equipment)
	})

	t.Run("NotifyFailureSwallowed", func(t *testing.T) {
		store := new(mockStore)
		notifier := new(mockNotifier)
		svc := NewBookingService(store, testFacilities(), notifier, &logger)

		store.On("Insert", ctx, mock.Anything).Return(nil).Once()
		notifier.On("NotifyBookingCreated", ctx, mock.Anything).
			Return(errors.New("whatsapp down")).Once()

		booking, err := svc.Create(ctx, validRequest())
		assert.NoError(t, err, "downstream failure must not fail the booking")
		assert.NotNil(t, booking)
	})
}
