package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo stores refresh tokens by their sha256 hash; the raw token never
// reaches the database. A token is active while it is neither revoked nor
// past expires_at.
type TokenRepo struct {
	DB  Executor
	Now func() time.Time
}

func NewTokenRepo(db Executor) *TokenRepo { return &TokenRepo{DB: db, Now: time.Now} }

func (r *TokenRepo) now() time.Time { return r.Now().UTC() }

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		userID, tokenHash, exp.UTC(), r.now())
	return err
}

func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id FROM refresh_tokens
		WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`,
		tokenHash, r.now()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, err
}

// RevokeByHash is idempotent: revoking an unknown or revoked token is not an error.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`,
		r.now(), tokenHash)
	return err
}

// RevokeAllForUser ends every session of a user, e.g. after a password reset.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		r.now(), userID)
	return err
}
