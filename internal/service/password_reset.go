package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/njprem/fitcity-auth/internal/domain"
	"github.com/njprem/fitcity-auth/internal/repository/ports"
	"github.com/njprem/fitcity-auth/internal/util"
)

// DefaultResetTTL is how long a reset token stays usable after it is issued.
const DefaultResetTTL = time.Hour

// PasswordResetManager owns the reset token lifecycle of a user:
//
//	Absent  --Issue-->   Pending
//	Pending --Issue-->   Pending (previous token no longer matches)
//	Pending --Consume--> Absent
//	Pending --Revoke-->  Absent
//
// Expiry is never stored as a state; a Pending token past ExpiresAt simply
// stops matching.
type PasswordResetManager struct {
	users ports.UserRepository
	ttl   time.Duration
	now   func() time.Time
}

func NewPasswordResetManager(users ports.UserRepository, ttl time.Duration) *PasswordResetManager {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &PasswordResetManager{users: users, ttl: ttl, now: time.Now}
}

// Issue stores a fresh token digest on user, replacing any earlier one, and
// returns the plaintext token with its expiry. The plaintext is not kept.
// Only the reset fields are written; the stored password hash is untouched
// even when user is stale.
func (m *PasswordResetManager) Issue(ctx context.Context, user *domain.User) (string, time.Time, error) {
	token, digest, err := util.GenerateResetToken()
	if err != nil {
		return "", time.Time{}, oops.Code("RESET_ISSUE_FAILED").
			With("operation", "GenerateResetToken").
			Wrap(err)
	}

	reset := domain.ResetToken{TokenHash: digest, ExpiresAt: m.now().Add(m.ttl).UTC()}
	if err := m.users.SetResetToken(ctx, user.ID, reset); err != nil {
		return "", time.Time{}, oops.Code("RESET_ISSUE_FAILED").
			With("operation", "SetResetToken").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	user.Reset = &reset
	return token, reset.ExpiresAt, nil
}

// Verify returns the user holding token while it is unexpired. It never
// changes stored state.
func (m *PasswordResetManager) Verify(ctx context.Context, token string) (*domain.User, error) {
	digest, err := digestOf(token)
	if err != nil {
		return nil, err
	}
	user, err := m.users.FindByResetTokenHash(ctx, digest, m.now())
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, oops.Code("RESET_VERIFY_FAILED").
			With("operation", "FindByResetTokenHash").
			Wrap(err)
	}
	return user, nil
}

// Consume swaps in newPasswordHash and clears the token in one update. A
// token can be consumed at most once; later attempts get ErrResetTokenInvalid.
func (m *PasswordResetManager) Consume(ctx context.Context, token, newPasswordHash string) (*domain.User, error) {
	digest, err := digestOf(token)
	if err != nil {
		return nil, err
	}
	user, err := m.users.ConsumeResetToken(ctx, digest, m.now(), newPasswordHash)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, oops.Code("RESET_CONSUME_FAILED").
			With("operation", "ConsumeResetToken").
			Wrap(err)
	}
	return user, nil
}

// Revoke drops the token Issue last stored on user. A token issued since by
// another request is left alone.
func (m *PasswordResetManager) Revoke(ctx context.Context, user *domain.User) error {
	if user.Reset == nil {
		return nil
	}
	if err := m.users.ClearResetToken(ctx, user.ID, user.Reset.TokenHash); err != nil {
		return oops.Code("RESET_REVOKE_FAILED").
			With("operation", "ClearResetToken").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	user.ClearReset()
	return nil
}

func digestOf(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrResetTokenMissing
	}
	return util.HashResetToken(token), nil
}
