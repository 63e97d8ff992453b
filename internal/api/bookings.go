package api

import (
	"encoding/json"
	"net/http"
	"time"

	"hubdesk/internal/ai"
	"hubdesk/internal/metrics"
	"hubdesk/internal/models"
	"hubdesk/internal/slot"
)

// CreateBookingRequest accepts either an explicit ISO-8601 interval or
// the form's grid shape (date plus start hour); the grid shape is
// normalized through the slot model before validation.
type CreateBookingRequest struct {
	Owner      string `json:"owner"`
	FacilityID string `json:"facility_id"`

	StartTime string `json:"start_time,omitempty"` // RFC 3339
	EndTime   string `json:"end_time,omitempty"`   // RFC 3339

	Date string `json:"date,omitempty"` // YYYY-MM-DD, grid shape
	Hour *int   `json:"hour,omitempty"` // grid shape

	ProjectName string   `json:"project_name,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Equipment   []string `json:"equipment,omitempty"`
}

// handleCreateBooking commits a booking through the booking service.
// POST /api/bookings
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	start, end, err := resolveInterval(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	booking, err := s.bookings.Create(r.Context(), models.BookingRequest{
		Owner:       req.Owner,
		FacilityID:  req.FacilityID,
		StartTime:   start,
		EndTime:     end,
		ProjectName: req.ProjectName,
		Notes:       req.Notes,
		Equipment:   req.Equipment,
		Channel:     "form",
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

func resolveInterval(req *CreateBookingRequest) (time.Time, time.Time, error) {
	if req.Date != "" && req.Hour != nil {
		return slot.Normalize(req.Date, *req.Hour)
	}

	if req.StartTime == "" || req.EndTime == "" {
		// Leave the zero times for the service's required-field check.
		return time.Time{}, time.Time{}, nil
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start.UTC(), end.UTC(), nil
}

// handleListOwnBookings returns the caller's bookings.
// GET /api/bookings?owner=<id>
func (s *Server) handleListOwnBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "owner is required")
		return
	}

	bookings, err := s.store.ListByOwner(r.Context(), owner)
	if err != nil {
		s.logger.Error().Err(err).Msg("list by owner failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": emptyIfNil(bookings)})
}

// TakenResponse carries the occupied intervals and the remaining free
// grid hours for a facility day. The snapshot is advisory: submission
// still goes through the atomic insert and can lose the race.
type TakenResponse struct {
	FacilityID string            `json:"facility_id"`
	Date       string            `json:"date"`
	Taken      []models.Interval `json:"taken"`
	FreeHours  []int             `json:"free_hours"`
}

// handleListTaken returns occupied intervals for the form's grid refresh.
// GET /api/bookings/taken?facility=<id>&date=YYYY-MM-DD
func (s *Server) handleListTaken(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_taken")

	facilityID := r.URL.Query().Get("facility")
	dateStr := r.URL.Query().Get("date")
	if facilityID == "" || dateStr == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "facility and date are required")
		return
	}
	if !s.facilities.Known(facilityID) {
		writeError(w, http.StatusBadRequest, "unknown_facility", "unknown facility")
		return
	}

	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date format; expected YYYY-MM-DD")
		return
	}

	taken, err := s.store.ListTaken(r.Context(), facilityID, day)
	if err != nil {
		s.logger.Error().Err(err).Msg("list taken failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TakenResponse{
		FacilityID: facilityID,
		Date:       dateStr,
		Taken:      emptyIfNilIntervals(taken),
		FreeHours:  freeHours(day, taken),
	})
}

// freeHours filters the fixed grid down to hours whose slot does not
// overlap any taken interval.
func freeHours(day time.Time, taken []models.Interval) []int {
	free := make([]int, 0)
	for _, h := range slot.HourGrid() {
		start := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, time.UTC)
		end := start.Add(slot.GridSlotDuration)

		occupied := false
		for _, iv := range taken {
			if slot.Overlaps(start, end, iv.StartTime, iv.EndTime) {
				occupied = true
				break
			}
		}
		if !occupied {
			free = append(free, h)
		}
	}
	return free
}

// handleFacilities returns the static catalog.
// GET /api/facilities
func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("facilities")
	writeJSON(w, http.StatusOK, map[string]any{"facilities": s.facilities.Facilities})
}

// handleIssueLinkCode issues a WhatsApp link code for the caller.
// POST /api/link-code
func (s *Server) handleIssueLinkCode(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("link_code")

	var req struct {
		Owner string `json:"owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Owner == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "owner is required")
		return
	}

	code, expires, err := s.codes.Issue(r.Context(), req.Owner)
	if err != nil {
		s.logger.Error().Err(err).Msg("issue link code failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"code": code, "expires": expires})
}

// handleAISuggest runs the prompt through the inference collaborator and
// returns a normalized prefill proposal. It never commits a booking;
// confirmation happens through POST /api/bookings.
func (s *Server) handleAISuggest(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("ai_suggest")

	if s.suggester == nil {
		metrics.IncAISuggestion("disabled")
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", "assistant not configured")
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "prompt is required")
		return
	}

	suggestion, err := s.suggester.Suggest(r.Context(), req.Prompt)
	if err != nil {
		metrics.IncAISuggestion("upstream_error")
		s.logger.Warn().Err(err).Msg("ai suggestion failed")
		writeServiceError(w, err)
		return
	}

	proposal := ai.Normalize(suggestion, s.facilities)
	if proposal.Complete {
		metrics.IncAISuggestion("complete")
	} else {
		metrics.IncAISuggestion("incomplete")
	}

	writeJSON(w, http.StatusOK, proposal)
}

func emptyIfNil(b []models.Booking) []models.Booking {
	if b == nil {
		return []models.Booking{}
	}
	return b
}

func emptyIfNilIntervals(iv []models.Interval) []models.Interval {
	if iv == nil {
		return []models.Interval{}
	}
	return iv
}
