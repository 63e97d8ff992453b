package models

import "time"

// Booking is a committed reservation of a facility time slot.
// Bookings are immutable once created.
type Booking struct {
	ID          string    `json:"id"`
	FacilityID  string    `json:"facility_id"`
	Owner       string    `json:"owner"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ProjectName string    `json:"project_name,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Equipment   []string  `json:"equipment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookingRequest is the canonical input every intake channel produces.
// Owner is an opaque verified identity supplied by the caller; the
// engine never derives it from ambient state.
type BookingRequest struct {
	Owner       string    `json:"owner"`
	FacilityID  string    `json:"facility_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ProjectName string    `json:"project_name,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Equipment   []string  `json:"equipment,omitempty"`
	// Channel identifies the intake adapter for metrics ("form", "whatsapp", "ai").
	Channel string `json:"-"`
}

// Interval is an occupied time range on a facility.
type Interval struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// IdentityLink associates an external contact channel (WhatsApp MSISDN)
// with an internal owner identity.
type IdentityLink struct {
	Msisdn    string    `json:"msisdn"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}
