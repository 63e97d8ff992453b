package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hubdesk/internal/events"
	"hubdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"), events.NewEventBus())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func booking(facility, owner string, start, end time.Time) *models.Booking {
	return &models.Booking{
		FacilityID: facility,
		Owner:      owner,
		StartTime:  start,
		EndTime:    end,
	}
}

func at(h, m int) time.Time {
	return time.Date(2025, 9, 5, h, m, 0, 0, time.UTC)
}

func TestInsertConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, booking("studio", "alice", at(9, 0), at(10, 0))))

	t.Run("SameSlot", func(t *testing.T) {
		err := s.Insert(ctx, booking("studio", "bob", at(9, 0), at(10, 0)))
		assert.ErrorIs(t, err, models.ErrSlotConflict)
	})

	t.Run("PartialOverlap", func(t *testing.T) {
		err := s.Insert(ctx, booking("studio", "bob", at(9, 30), at(10, 30)))
		assert.ErrorIs(t, err, models.ErrSlotConflict)
	})

	t.Run("Containing", func(t *testing.T) {
		err := s.Insert(ctx, booking("studio", "bob", at(8, 0), at(12, 0)))
		assert.ErrorIs(t, err, models.ErrSlotConflict)
	})

	t.Run("HalfOpenBoundary", func(t *testing.T) {
		// Touching intervals are not a conflict.
		assert.NoError(t, s.Insert(ctx, booking("studio", "bob", at(10, 0), at(11, 0))))
		assert.NoError(t, s.Insert(ctx, booking("studio", "carol", at(8, 0), at(9, 0))))
	})

	t.Run("OtherFacility", func(t *testing.T) {
		assert.NoError(t, s.Insert(ctx, booking("robotics", "bob", at(9, 0), at(10, 0))))
	})
}

func TestInsertConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Insert(ctx, booking("studio", "racer", at(14, 0), at(15, 0)))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case assert.ErrorIs(t, err, models.ErrSlotConflict):
			lost++
		}
	}
	assert.Equal(t, 1, won, "exactly one racer must win")
	assert.Equal(t, racers-1, lost)

	taken, err := s.ListTaken(ctx, "studio", at(0, 0))
	require.NoError(t, err)
	assert.Len(t, taken, 1)
}

func TestListTaken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, booking("studio", "alice", at(11, 0), at(12, 0))))
	require.NoError(t, s.Insert(ctx, booking("studio", "bob", at(9, 0), at(10, 0))))
	require.NoError(t, s.Insert(ctx, booking("robotics", "carol", at(9, 0), at(10, 0))))
	// Next day, must not appear.
	next := at(9, 0).Add(24 * time.Hour)
	require.NoError(t, s.Insert(ctx, booking("studio", "dave", next, next.Add(time.Hour))))

	taken, err := s.ListTaken(ctx, "studio", at(0, 0))
	require.NoError(t, err)
	require.Len(t, taken, 2)
	assert.Equal(t, at(9, 0), taken[0].StartTime)
	assert.Equal(t, at(11, 0), taken[1].StartTime)
}

func TestListByFacilityAndOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, booking("studio", "alice", at(12, 0), at(13, 0))))
	require.NoError(t, s.Insert(ctx, booking("studio", "bob", at(9, 0), at(10, 0))))
	require.NoError(t, s.Insert(ctx, booking("robotics", "alice", at(9, 0), at(10, 0))))

	byFacility, err := s.ListByFacility(ctx, "studio")
	require.NoError(t, err)
	require.Len(t, byFacility, 2)
	assert.True(t, byFacility[0].StartTime.Before(byFacility[1].StartTime))

	byOwner, err := s.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byOwner, 2)
	assert.Equal(t, "robotics", byOwner[0].FacilityID)
	assert.Equal(t, "studio", byOwner[1].FacilityID)
}

func TestEquipmentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := booking("studio", "alice", at(9, 0), at(10, 0))
	b.Equipment = []string{"Mic - Condenser", "Green Screen"}
	b.ProjectName = "Podcast shoot"
	require.NoError(t, s.Insert(ctx, b))

	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.Equipment, got.Equipment)
	assert.Equal(t, "Podcast shoot", got.ProjectName)

	// Empty equipment stays empty.
	b2 := booking("robotics", "bob", at(9, 0), at(10, 0))
	require.NoError(t, s.Insert(ctx, b2))
	got2, err := s.GetBooking(ctx, b2.ID)
	require.NoError(t, err)
	require.NotNil(t, got2)
	assert.Empty(t, got2.Equipment)
}

func TestInsertPublishesEvent(t *testing.T) {
	bus := events.NewEventBus()
	s, err := New(filepath.Join(t.TempDir(), "test.db"), bus)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	var mu sync.Mutex
	var seen []events.Event
	bus.Subscribe(events.EventBookingCreated, func(e events.Event) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})

	require.NoError(t, s.Insert(ctx, booking("studio", "alice", at(9, 0), at(10, 0))))

	// Losing insert must not publish.
	err = s.Insert(ctx, booking("studio", "bob", at(9, 0), at(10, 0)))
	require.ErrorIs(t, err, models.ErrSlotConflict)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, events.EventBookingCreated, seen[0].Type)
}

func TestIdentityLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	link, err := s.OwnerByMsisdn(ctx, "27123456789")
	require.NoError(t, err)
	assert.Nil(t, link)

	require.NoError(t, s.SaveIdentityLink(ctx, "27123456789", "alice"))

	link, err = s.OwnerByMsisdn(ctx, "27123456789")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, "alice", link.Owner)

	// Re-linking replaces the owner.
	require.NoError(t, s.SaveIdentityLink(ctx, "27123456789", "bob"))
	link, err = s.OwnerByMsisdn(ctx, "27123456789")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, "bob", link.Owner)
}
