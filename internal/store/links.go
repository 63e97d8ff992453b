package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hubdesk/internal/models"
)

// SaveIdentityLink persists a confirmed phone -> owner association.
// Re-linking the same phone replaces the previous owner.
func (s *Store) SaveIdentityLink(ctx context.Context, msisdn, owner string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identity_links (msisdn, owner, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(msisdn) DO UPDATE SET
			owner = excluded.owner,
			created_at = excluded.created_at`,
		msisdn, owner, time.Now().UTC(),
	)
	return err
}

// MsisdnByOwner resolves an owner identity to its linked phone number.
// Returns empty string when the owner has no linked phone.
func (s *Store) MsisdnByOwner(ctx context.Context, owner string) (string, error) {
	var msisdn string
	err := s.db.QueryRowContext(ctx,
		"SELECT msisdn FROM identity_links WHERE owner = ? ORDER BY created_at DESC LIMIT 1",
		owner,
	).Scan(&msisdn)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return msisdn, nil
}

// OwnerByMsisdn resolves a phone number to its linked owner identity.
// Returns nil when the phone is not linked.
func (s *Store) OwnerByMsisdn(ctx context.Context, msisdn string) (*models.IdentityLink, error) {
	var link models.IdentityLink
	err := s.db.QueryRowContext(ctx,
		"SELECT msisdn, owner, created_at FROM identity_links WHERE msisdn = ?",
		msisdn,
	).Scan(&link.Msisdn, &link.Owner, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}
