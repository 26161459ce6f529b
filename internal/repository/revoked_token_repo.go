package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type RevokedTokenRepository struct {
	pool *pgxpool.Pool
}

func NewRevokedTokenRepository(pool *pgxpool.Pool) *RevokedTokenRepository {
	return &RevokedTokenRepository{pool: pool}
}

// Revoke records the raw token until its natural expiry. Re-revoking an
// already revoked token is a no-op.
func (r *RevokedTokenRepository) Revoke(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO revoked_tokens (token, user_id, revoked_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (token) DO NOTHING`,
		token, userID, time.Now().UTC(), expiresAt)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RevokedTokenRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	var revoked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token = $1)`, token).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check token revoked: %w", err)
	}
	return revoked, nil
}

func (r *RevokedTokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("clean expired revocations: %w", err)
	}
	return tag.RowsAffected(), nil
}
