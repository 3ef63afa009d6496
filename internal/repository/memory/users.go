package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/lodging-booking/internal/model"
	"github.com/iliyamo/lodging-booking/internal/repository"
)

type userStore struct {
	mu       sync.RWMutex
	users    map[string]model.User
	onDelete func(userID string)
}

func (s *userStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.find(func(u model.User) bool { return u.Email == email })
}

func (s *userStore) GetByID(_ context.Context, id string) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.ID == id })
}

func (s *userStore) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return s.find(func(u model.User) bool {
		return tokenHash != "" && u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(now)
	})
}

func (s *userStore) find(match func(model.User) bool) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userStore) List(context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *userStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	if s.onDelete != nil {
		s.onDelete(id)
	}
	return nil
}

func (s *userStore) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return s.update(userID, func(u *model.User) {
		exp := expiresAt.UTC()
		u.ResetTokenHash = tokenHash
		u.ResetTokenExpiresAt = &exp
	})
}

func (s *userStore) ResetPassword(_ context.Context, userID, passwordHash string) error {
	return s.update(userID, func(u *model.User) {
		u.PasswordHash = passwordHash
		u.ResetTokenHash = ""
		u.ResetTokenExpiresAt = nil
	})
}

func (s *userStore) update(id string, fn func(u *model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

type refreshRow struct {
	userID  string
	expires time.Time
	revoked bool
}

type tokenStore struct {
	mu     sync.Mutex
	tokens map[string]refreshRow
}

func (s *tokenStore) StoreRefresh(_ context.Context, userID, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = refreshRow{userID: userID, expires: exp}
	return nil
}

func (s *tokenStore) ValidateRefresh(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.tokens[tokenHash]
	if !ok || row.revoked || time.Now().UTC().After(row.expires) {
		return "", repository.ErrNotFound
	}
	return row.userID, nil
}

func (s *tokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.tokens[tokenHash]; ok {
		row.revoked = true
		s.tokens[tokenHash] = row
	}
	return nil
}

func (s *tokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, row := range s.tokens {
		if row.userID == userID {
			row.revoked = true
			s.tokens[k] = row
		}
	}
	return nil
}
