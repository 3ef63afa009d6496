package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/lodging-booking/internal/model"
)

type UserRepo struct{ DB Executor }

func NewUserRepo(db Executor) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,role,reset_token_hash,reset_token_expires_at,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u         model.User
		resetHash sql.NullString
		resetExp  sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &resetHash, &resetExp, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ResetTokenHash = resetHash.String
	if resetExp.Valid {
		t := resetExp.Time
		u.ResetTokenExpiresAt = &t
	}
	return &u, nil
}

// Create inserts a user.  The email is normalized before storage.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id,username,email,password_hash,role,created_at,updated_at) VALUES (?,?,?,?,?,?,?)",
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.one(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.one(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByResetToken fetches the user holding an unexpired reset token.
func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return r.one(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token_hash=? AND reset_token_expires_at > ? LIMIT 1",
		tokenHash, now.UTC())
}

func (r *UserRepo) one(ctx context.Context, q string, args ...any) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// List returns all users, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Delete removes a user; owned rows cascade.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

// SetResetToken records the hash and expiry of a new reset token,
// replacing any previous one.
func (r *UserRepo) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=?, reset_token_expires_at=?, updated_at=UTC_TIMESTAMP(6) WHERE id=?",
		tokenHash, expiresAt.UTC(), userID)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return requireAffected(res)
}

// ResetPassword stores a new password hash and clears the reset token.
func (r *UserRepo) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_token_hash=NULL, reset_token_expires_at=NULL, updated_at=UTC_TIMESTAMP(6) WHERE id=?",
		passwordHash, userID)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return requireAffected(res)
}
