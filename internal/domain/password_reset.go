package domain

import "time"

// ResetToken is the persisted half of a password reset: the digest of the
// token mailed to the user and the instant it stops being accepted. The
// plaintext token is never stored.
type ResetToken struct {
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActiveAt reports whether the token is still accepted at now. A token whose
// expiry equals now is already expired.
func (r *ResetToken) ActiveAt(now time.Time) bool {
	if r == nil || r.TokenHash == "" {
		return false
	}
	return r.ExpiresAt.After(now)
}
