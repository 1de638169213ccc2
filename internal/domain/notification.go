package domain

import "time"

// PasswordResetNotice is what the user receives after asking for a reset:
// the only place the plaintext token ever leaves the service.
type PasswordResetNotice struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
