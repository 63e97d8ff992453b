package linkcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"hubdesk/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Expiry is the fixed validity window of a pending link code.
const Expiry = 15 * time.Minute

// LinkStore persists confirmed phone -> owner associations.
type LinkStore interface {
	SaveIdentityLink(ctx context.Context, msisdn, owner string) error
}

// Service issues short numeric codes that let a WhatsApp sender prove
// control of an owner account. Pending codes live in Redis with a TTL;
// confirmed links are durable in the reservation store. Once linked, the
// derived identity is equivalent to a directly authenticated one.
type Service struct {
	redis  *redis.Client
	links  LinkStore
	logger *zerolog.Logger
}

func New(rdb *redis.Client, links LinkStore, logger *zerolog.Logger) *Service {
	return &Service{redis: rdb, links: links, logger: logger}
}

// Issue generates a 6-digit code for the owner, pending for 15 minutes.
// Issuing a new code does not revoke earlier unexpired ones; they simply
// age out.
func (s *Service) Issue(ctx context.Context, owner string) (string, time.Time, error) {
	if owner == "" {
		return "", time.Time{}, models.ErrInvalidRequest
	}

	code, err := sixDigits()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate code: %w", err)
	}

	if err := s.redis.Set(ctx, key(code), owner, Expiry).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("store code: %w", err)
	}

	expires := time.Now().Add(Expiry)
	s.logger.Info().Str("owner", owner).Time("expires", expires).Msg("link code issued")
	return code, expires, nil
}

// Redeem consumes a pending code sent from a phone and persists the
// phone -> owner link. The code is single use: GETDEL removes it
// atomically, so two racing redeems resolve to one winner.
func (s *Service) Redeem(ctx context.Context, code, msisdn string) error {
	if code == "" || msisdn == "" {
		return models.ErrCodeInvalid
	}

	owner, err := s.redis.GetDel(ctx, key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return models.ErrCodeInvalid
	}
	if err != nil {
		return fmt.Errorf("lookup code: %w", err)
	}

	if err := s.links.SaveIdentityLink(ctx, msisdn, owner); err != nil {
		return fmt.Errorf("save link: %w", err)
	}

	s.logger.Info().Str("owner", owner).Str("msisdn", msisdn).Msg("phone linked")
	return nil
}

func key(code string) string {
	return "linkcode:" + code
}

func sixDigits() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
