package notify

import (
	"context"
	"fmt"
	"time"

	"hubdesk/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// MessageSender delivers a text message to an external contact channel.
type MessageSender interface {
	Send(ctx context.Context, to, body string) error
}

// LinkResolver maps an owner identity to its linked phone number.
type LinkResolver interface {
	MsisdnByOwner(ctx context.Context, owner string) (string, error)
}

// RetryConfig holds retry behavior for transient send failures.
type RetryConfig struct {
	MaxRetries  int
	RetryDelays []time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  2,
		RetryDelays: []time.Duration{1 * time.Second, 5 * time.Second},
	}
}

// Notifier sends booking confirmations over WhatsApp, rate limited and
// with bounded retries. It is strictly best effort: callers treat every
// returned error as log-and-continue.
type Notifier struct {
	sender  MessageSender
	links   LinkResolver
	limiter *rate.Limiter
	retry   RetryConfig
	logger  *zerolog.Logger
}

func New(sender MessageSender, links LinkResolver, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		links:   links,
		limiter: rate.NewLimiter(rate.Limit(20), 30),
		retry:   DefaultRetryConfig(),
		logger:  logger,
	}
}

// NotifyBookingCreated sends a confirmation for a committed booking to the
// owner's linked phone. Owners without a linked phone are skipped silently.
func (n *Notifier) NotifyBookingCreated(ctx context.Context, b *models.Booking) error {
	msisdn, err := n.links.MsisdnByOwner(ctx, b.Owner)
	if err != nil {
		return fmt.Errorf("resolve phone: %w", err)
	}
	if msisdn == "" {
		return nil
	}

	body := fmt.Sprintf("Booked %s on %s at %s. See your dashboard for details.",
		b.FacilityID,
		b.StartTime.Format("2006-01-02"),
		b.StartTime.Format("15:04"),
	)
	return n.sendWithRetry(ctx, msisdn, body)
}

func (n *Notifier) sendWithRetry(ctx context.Context, to, body string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.retry.MaxRetries; attempt++ {
		if err := n.sender.Send(ctx, to, body); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < n.retry.MaxRetries {
			delay := n.retry.RetryDelays[min(attempt, len(n.retry.RetryDelays)-1)]
			n.logger.Info().
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying confirmation send")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, lastErr)
}
