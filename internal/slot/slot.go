package slot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hubdesk/internal/models"
)

const (
	// GridFirstHour and GridLastHour bound the fixed hourly menu the web
	// form offers (09:00 .. 18:00 starts, one hour each).
	GridFirstHour = 9
	GridLastHour  = 18

	// GridSlotDuration is the length of a grid slot.
	GridSlotDuration = time.Hour
)

// HourGrid returns the bookable start hours for form intake.
func HourGrid() []int {
	hours := make([]int, 0, GridLastHour-GridFirstHour+1)
	for h := GridFirstHour; h <= GridLastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Normalize produces the canonical UTC interval for a grid slot: a calendar
// date (YYYY-MM-DD) plus a start hour from the fixed menu.
func Normalize(date string, hour int) (time.Time, time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	if hour < GridFirstHour || hour > GridLastHour {
		return time.Time{}, time.Time{}, fmt.Errorf("hour %d outside bookable grid %02d:00-%02d:00", hour, GridFirstHour, GridLastHour)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	return start, start.Add(GridSlotDuration), nil
}

// NormalizeRange produces the canonical UTC interval for an explicit
// start/end pair (HH:MM) on a calendar date. Other intake paths allow
// arbitrary lengths; only end > start is required.
func NormalizeRange(date, startHHMM, endHHMM string) (time.Time, time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	start, err := onDate(day, startHHMM)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := onDate(day, endHHMM)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, models.ErrInvalidInterval
	}
	return start, end, nil
}

// Validate checks an already-constructed interval.
func Validate(start, end time.Time) error {
	if !start.Before(end) {
		return models.ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. A booking ending at 10:00 does not conflict
// with one starting at 10:00.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func onDate(day time.Time, hhmm string) (time.Time, error) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time %q; expected HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), nil
}
