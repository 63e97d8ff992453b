package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hubdesk/internal/events"
	"hubdesk/internal/metrics"

	"github.com/xuri/excelize/v2"
)

// handleAdminBookings lists all bookings for a facility across users.
// GET /api/admin/bookings?facility=<id>
func (s *Server) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_bookings")

	facilityID := r.URL.Query().Get("facility")
	if facilityID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "facility is required")
		return
	}
	if !s.facilities.Known(facilityID) {
		writeError(w, http.StatusBadRequest, "unknown_facility", "unknown facility")
		return
	}

	bookings, err := s.store.ListByFacility(r.Context(), facilityID)
	if err != nil {
		s.logger.Error().Err(err).Msg("admin list failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": emptyIfNil(bookings)})
}

// handleAdminEvents streams booking.created refresh signals over SSE.
// The client re-issues the facility listing on each signal instead of
// patching state; duplicates and gaps are therefore harmless.
// GET /api/admin/events?facility=<id>
func (s *Server) handleAdminEvents(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_events")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	facilityID := r.URL.Query().Get("facility")

	ch, unsubscribe := s.bus.SubscribeChan(events.EventBookingCreated, 16)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Heartbeats keep proxies from closing an idle stream.
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()

		case event := <-ch:
			if facilityID != "" {
				var payload events.BookingCreatedPayload
				if err := json.Unmarshal(event.Payload, &payload); err != nil || payload.FacilityID != facilityID {
					continue
				}
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Payload)
			flusher.Flush()
		}
	}
}

// handleAdminExport writes a facility's bookings as an Excel workbook.
// GET /api/admin/export?facility=<id>
func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_export")

	facilityID := r.URL.Query().Get("facility")
	if facilityID == "" || !s.facilities.Known(facilityID) {
		writeError(w, http.StatusBadRequest, "unknown_facility", "unknown facility")
		return
	}

	bookings, err := s.store.ListByFacility(r.Context(), facilityID)
	if err != nil {
		s.logger.Error().Err(err).Msg("admin export list failed")
		writeServiceError(w, err)
		return
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := facilityID
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"Owner", "Start", "End", "Project", "Notes", "Equipment", "Created"}
	for i, col := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(sheet, cell, col)
	}
	if style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = file.SetCellStyle(sheet, startCell, endCell, style)
	}

	for i, b := range bookings {
		row := []any{
			b.Owner,
			b.StartTime.Format(time.RFC3339),
			b.EndTime.Format(time.RFC3339),
			b.ProjectName,
			b.Notes,
			strings.Join(b.Equipment, ", "),
			b.CreatedAt.Format(time.RFC3339),
		}
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = file.SetCellValue(sheet, cell, val)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-bookings.xlsx", facilityID))
	if err := file.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("write export failed")
	}
}
