package service

import "errors"

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters long")
	ErrEmailAlreadyUsed   = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrResetTokenMissing  = errors.New("reset token is required")
	ErrResetTokenInvalid  = errors.New("reset token is invalid or has expired")
)

// IsClientError reports whether err is caused by the request itself rather
// than by a failing dependency.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrEmailAlreadyUsed),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrResetTokenMissing),
		errors.Is(err, ErrResetTokenInvalid):
		return true
	}
	return false
}
