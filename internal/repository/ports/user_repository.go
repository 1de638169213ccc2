package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/fitcity-auth/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Create when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	// SetResetToken writes only the reset fields of userID, replacing any
	// earlier token. Returns ErrNotFound for an unknown user.
	SetResetToken(ctx context.Context, userID uuid.UUID, reset domain.ResetToken) error
	// ClearResetToken removes the reset token of userID only while it is still
	// tokenHash, so a newer token is left in place. No match is not an error.
	ClearResetToken(ctx context.Context, userID uuid.UUID, tokenHash string) error
	// FindByResetTokenHash returns the user holding tokenHash only while its
	// expiry is strictly after now.
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	// ConsumeResetToken replaces the password hash and clears the reset token
	// in one conditional update, matching the same way as FindByResetTokenHash.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error)
}
