package db

import (
	"context"
	"fmt"
	"time"
)

// TokenStore remembers session tokens that were logged out before they
// expired. Expiry is kept as Unix seconds so every driver compares it the
// same way.
type TokenStore struct {
	db  *DB
	now func() time.Time
}

func NewTokenStore(d *DB) *TokenStore {
	return &TokenStore{db: d, now: time.Now}
}

// Revoke makes tokenID unusable. Entries whose token has expired anyway are
// pruned on the way.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		s.db.Rebind("DELETE FROM revoked_tokens WHERE expires_at < ?"), s.now().Unix(),
	); err != nil {
		return fmt.Errorf("prune revoked tokens: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)"),
		tokenID, expiresAt.Unix())
	if err != nil && !s.db.IsUniqueViolation(err) {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?"), tokenID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
