package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hubdesk/internal/events"
	"hubdesk/internal/models"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// Insert atomically commits a booking. Of two racing inserts with
// overlapping intervals on the same facility, exactly one succeeds and
// the other receives models.ErrSlotConflict. The overlap check and the
// insert run inside one immediate transaction, so there is no window in
// which both can appear committed.
func (s *Store) Insert(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.CreatedAt = time.Now().UTC()

	equipment, err := marshalEquipment(b.Equipment)
	if err != nil {
		return fmt.Errorf("marshal equipment: %w", err)
	}

	// BEGIN IMMEDIATE takes the write lock up front; the overlap check
	// below is therefore serialized against every other insert.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE facility_id = ?
		AND start_time < ? AND end_time > ?`,
		b.FacilityID, b.EndTime, b.StartTime,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if count > 0 {
		return models.ErrSlotConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, facility_id, owner, start_time, end_time,
			project_name, notes, equipment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.FacilityID, b.Owner, b.StartTime, b.EndTime,
		b.ProjectName, b.Notes, equipment, b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrSlotConflict
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}

	s.publishCreated(b)
	return nil
}

func (s *Store) publishCreated(b *models.Booking) {
	if s.bus == nil {
		return
	}
	_ = s.bus.PublishJSON(events.EventBookingCreated, events.BookingCreatedPayload{
		BookingID:  b.ID,
		FacilityID: b.FacilityID,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
	})
}

// ListTaken returns the occupied intervals on a facility that intersect
// the given calendar day, ordered by start time. Advisory only: another
// booking can commit the moment after this snapshot is taken.
func (s *Store) ListTaken(ctx context.Context, facilityID string, day time.Time) ([]models.Interval, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := s.db.QueryContext(ctx, `
		SELECT start_time, end_time FROM bookings
		WHERE facility_id = ?
		AND start_time < ? AND end_time > ?
		ORDER BY start_time`,
		facilityID, dayEnd, dayStart,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taken []models.Interval
	for rows.Next() {
		var iv models.Interval
		if err := rows.Scan(&iv.StartTime, &iv.EndTime); err != nil {
			return nil, err
		}
		iv.StartTime = iv.StartTime.UTC()
		iv.EndTime = iv.EndTime.UTC()
		taken = append(taken, iv)
	}
	return taken, rows.Err()
}

// ListByFacility returns all bookings for a facility ordered by start time.
func (s *Store) ListByFacility(ctx context.Context, facilityID string) ([]models.Booking, error) {
	return s.list(ctx, "facility_id = ?", facilityID)
}

// ListByOwner returns all bookings owned by an identity ordered by start time.
func (s *Store) ListByOwner(ctx context.Context, owner string) ([]models.Booking, error) {
	return s.list(ctx, "owner = ?", owner)
}

// GetBooking returns a booking by id, or nil when absent.
func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, facility_id, owner, start_time, end_time,
		       project_name, notes, equipment, created_at
		FROM bookings WHERE id = ?`, id)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (s *Store) list(ctx context.Context, where string, arg any) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, facility_id, owner, start_time, end_time,
		       project_name, notes, equipment, created_at
		FROM bookings WHERE `+where+` ORDER BY start_time`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*models.Booking, error) {
	var b models.Booking
	var projectName, notes, equipment sql.NullString
	err := row.Scan(
		&b.ID, &b.FacilityID, &b.Owner, &b.StartTime, &b.EndTime,
		&projectName, &notes, &equipment, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.ProjectName = projectName.String
	b.Notes = notes.String
	if equipment.Valid && equipment.String != "" {
		if err := json.Unmarshal([]byte(equipment.String), &b.Equipment); err != nil {
			return nil, fmt.Errorf("unmarshal equipment: %w", err)
		}
	}
	return &b, nil
}

func marshalEquipment(items []string) (sql.NullString, error) {
	if len(items) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
