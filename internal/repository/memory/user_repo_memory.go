// Package memory keeps users in process memory. It backs local development
// (STORE_DRIVER=memory) and the handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/fitcity-auth/internal/domain"
	"github.com/njprem/fitcity-auth/internal/repository/ports"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

func NewUserRepo() *UserRepository {
	return &UserRepository{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return nil, ports.ErrDuplicateEmail
	}
	now := r.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[user.ID] = user
	r.byEmail[email] = user.ID
	return cloneUser(user), nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID uuid.UUID, reset domain.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[userID]
	if !ok {
		return ports.ErrNotFound
	}
	stored.Reset = &reset
	stored.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[userID]
	if !ok || stored.Reset == nil || stored.Reset.TokenHash != tokenHash {
		return nil
	}
	stored.ClearReset()
	stored.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user := r.findByResetLocked(tokenHash, now)
	if user == nil {
		return nil, ports.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.findByResetLocked(tokenHash, now)
	if user == nil {
		return nil, ports.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.Reset = nil
	user.UpdatedAt = r.now().UTC()
	return cloneUser(user), nil
}

func (r *UserRepository) findByResetLocked(tokenHash string, now time.Time) *domain.User {
	if tokenHash == "" {
		return nil
	}
	for _, user := range r.byID {
		if user.HasPendingReset(now) && user.Reset.TokenHash == tokenHash {
			return user
		}
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Reset = cloneReset(u.Reset)
	return &clone
}

func cloneReset(r *domain.ResetToken) *domain.ResetToken {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
