package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Reset        *ResetToken `db:"-" json:"-"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// HasPendingReset reports whether the user holds a reset token that has not
// expired at the given instant.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.Reset != nil && u.Reset.ActiveAt(now)
}

// ClearReset drops any outstanding reset token.
func (u *User) ClearReset() {
	u.Reset = nil
}
