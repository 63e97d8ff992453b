package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hubdesk/internal/metrics"
	"hubdesk/internal/models"
	"hubdesk/internal/slot"

	"github.com/rs/zerolog"
)

const helpText = `Hi! You can use:
- link 123456
- book <facility> <YYYY-MM-DD> <HH:MM> "Project Name"
Example: book studio 2025-09-05 10:00 "Podcast shoot"`

// BookingCreator is the single entry point this adapter funnels into.
type BookingCreator interface {
	Create(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
}

// CodeRedeemer consumes pending link codes.
type CodeRedeemer interface {
	Redeem(ctx context.Context, code, msisdn string) error
}

// OwnerResolver maps a sender phone to a linked owner identity.
type OwnerResolver interface {
	OwnerByMsisdn(ctx context.Context, msisdn string) (*models.IdentityLink, error)
}

// Replier answers the sender on the same channel.
type Replier interface {
	Send(ctx context.Context, to, body string) error
}

// Webhook receives WhatsApp Cloud API callbacks: the GET verification
// handshake and POSTed inbound messages. Inbound messages arrive over an
// authenticated push channel; the handler always acks 200 so the
// platform does not redeliver endlessly.
type Webhook struct {
	verifyToken string
	bookings    BookingCreator
	codes       CodeRedeemer
	owners      OwnerResolver
	replier     Replier
	logger      *zerolog.Logger
}

func NewWebhook(verifyToken string, bookings BookingCreator, codes CodeRedeemer, owners OwnerResolver, replier Replier, logger *zerolog.Logger) *Webhook {
	return &Webhook{
		verifyToken: verifyToken,
		bookings:    bookings,
		codes:       codes,
		owners:      owners,
		replier:     replier,
		logger:      logger,
	}
}

// webhookPayload mirrors the Cloud API message delivery shape, trimmed to
// the fields the command channel needs.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					From string `json:"from"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// HandleVerify answers the Meta webhook verification handshake.
// GET /webhook/whatsapp
func (h *Webhook) HandleVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleMessage processes an inbound message batch.
// POST /webhook/whatsapp
func (h *Webhook) HandleMessage(w http.ResponseWriter, r *http.Request) {
	defer ack(w)

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return
	}

	text, from := firstMessage(&payload)
	if text == "" || from == "" {
		return
	}

	ctx := r.Context()
	msisdn := NormalizeMsisdn(from)
	cmd := ParseCommand(text)
	metrics.IncWebhookCommand(cmd.Verb)

	switch cmd.Verb {
	case VerbHelp:
		h.reply(ctx, from, helpText)

	case VerbLink:
		h.handleLink(ctx, from, msisdn, cmd)

	case VerbBook:
		h.handleBook(ctx, from, msisdn, cmd)

	default:
		h.reply(ctx, from, `Say "help" for commands.`)
	}
}

func (h *Webhook) handleLink(ctx context.Context, from, msisdn string, cmd Command) {
	if err := h.codes.Redeem(ctx, cmd.Code, msisdn); err != nil {
		if errors.Is(err, models.ErrCodeInvalid) {
			h.reply(ctx, from, "That code is invalid or expired. Request a fresh one from your dashboard.")
			return
		}
		h.logger.Error().Err(err).Msg("redeem link code failed")
		h.reply(ctx, from, "Could not link your phone right now. Please try again later.")
		return
	}
	h.reply(ctx, from, "Phone linked. You can now book with: book <facility> <date> <time>.")
}

func (h *Webhook) handleBook(ctx context.Context, from, msisdn string, cmd Command) {
	link, err := h.owners.OwnerByMsisdn(ctx, msisdn)
	if err != nil {
		h.logger.Error().Err(err).Msg("resolve owner failed")
		h.reply(ctx, from, "Booking failed. Please try again later.")
		return
	}
	if link == nil {
		h.reply(ctx, from, "Phone not linked to any profile. Send: link 123456 (from your dashboard).")
		return
	}

	start, err := time.Parse("2006-01-02T15:04", cmd.Date+"T"+cmd.Time)
	if err != nil {
		h.reply(ctx, from, helpText)
		return
	}
	start = start.UTC()

	_, err = h.bookings.Create(ctx, models.BookingRequest{
		Owner:       link.Owner,
		FacilityID:  cmd.Facility,
		StartTime:   start,
		EndTime:     start.Add(slot.GridSlotDuration),
		ProjectName: cmd.Project,
		Channel:     "whatsapp",
	})

	switch {
	case err == nil:
		h.reply(ctx, from, fmt.Sprintf("Booked %s on %s at %s. See your dashboard for details.", cmd.Facility, cmd.Date, cmd.Time))
	case errors.Is(err, models.ErrSlotConflict):
		h.reply(ctx, from, "That slot is already booked. Try another time.")
	case errors.Is(err, models.ErrUnknownFacility):
		h.reply(ctx, from, fmt.Sprintf("Unknown facility %q. Say \"help\" for the command format.", cmd.Facility))
	default:
		h.logger.Error().Err(err).Msg("webhook booking failed")
		h.reply(ctx, from, "Booking failed. Please try again later.")
	}
}

func (h *Webhook) reply(ctx context.Context, to, body string) {
	if h.replier == nil {
		return
	}
	// Reply failure never fails webhook processing.
	if err := h.replier.Send(ctx, to, body); err != nil {
		h.logger.Warn().Err(err).Msg("whatsapp reply failed")
	}
}

func ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func firstMessage(p *webhookPayload) (text, from string) {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return "", ""
	}
	value := &p.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return "", ""
	}
	return value.Messages[0].Text.Body, value.Messages[0].From
}
