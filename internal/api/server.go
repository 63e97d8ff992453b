package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hubdesk/internal/ai"
	"hubdesk/internal/config"
	"hubdesk/internal/events"
	"hubdesk/internal/models"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// BookingCreator is the single validated entry point for new bookings.
type BookingCreator interface {
	Create(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
}

// ReadStore serves advisory read snapshots of the reservation store.
type ReadStore interface {
	ListTaken(ctx context.Context, facilityID string, day time.Time) ([]models.Interval, error)
	ListByFacility(ctx context.Context, facilityID string) ([]models.Booking, error)
	ListByOwner(ctx context.Context, owner string) ([]models.Booking, error)
}

// CodeIssuer hands out link codes for the WhatsApp handshake.
type CodeIssuer interface {
	Issue(ctx context.Context, owner string) (string, time.Time, error)
}

// SuggestionClient calls the external inference collaborator.
type SuggestionClient interface {
	Suggest(ctx context.Context, prompt string) (*ai.Suggestion, error)
}

// Server exposes the booking HTTP API. All intake adapters converge on
// the BookingCreator; the server itself holds no conflict logic.
type Server struct {
	bookings   BookingCreator
	store      ReadStore
	facilities *config.Facilities
	codes      CodeIssuer
	suggester  SuggestionClient
	bus        *events.EventBus
	adminToken string
	logger     *zerolog.Logger
}

func NewServer(
	bookings BookingCreator,
	store ReadStore,
	facilities *config.Facilities,
	codes CodeIssuer,
	suggester SuggestionClient,
	bus *events.EventBus,
	adminToken string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		bookings:   bookings,
		store:      store,
		facilities: facilities,
		codes:      codes,
		suggester:  suggester,
		bus:        bus,
		adminToken: adminToken,
		logger:     logger,
	}
}

// Register mounts all API routes on the router.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/api/facilities", s.handleFacilities).Methods(http.MethodGet)
	r.HandleFunc("/api/bookings", s.handleCreateBooking).Methods(http.MethodPost)
	r.HandleFunc("/api/bookings", s.handleListOwnBookings).Methods(http.MethodGet)
	r.HandleFunc("/api/bookings/taken", s.handleListTaken).Methods(http.MethodGet)
	r.HandleFunc("/api/link-code", s.handleIssueLinkCode).Methods(http.MethodPost)
	r.HandleFunc("/api/ai/suggest", s.handleAISuggest).Methods(http.MethodPost)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/bookings", s.handleAdminBookings).Methods(http.MethodGet)
	admin.HandleFunc("/events", s.handleAdminEvents).Methods(http.MethodGet)
	admin.HandleFunc("/export", s.handleAdminExport).Methods(http.MethodGet)
}

// requireAdmin gates admin routes behind a verified token. Authorization
// itself is an external concern; the token stands in for the caller's
// verified "is authorized" flag.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" || r.Header.Get("X-Admin-Token") != s.adminToken {
			writeError(w, http.StatusForbidden, "forbidden", "admin token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}

// writeServiceError maps the booking error taxonomy onto HTTP so clients
// can tell "fix your input" from "someone took that slot" from "a
// downstream service degraded".
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, models.ErrUnknownFacility):
		writeError(w, http.StatusBadRequest, "unknown_facility", err.Error())
	case errors.Is(err, models.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, models.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, models.ErrCodeInvalid):
		writeError(w, http.StatusBadRequest, "code_invalid", err.Error())
	case errors.Is(err, models.ErrUpstreamUnavailable):
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
