package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// ResetTokenBytes is the amount of randomness in a reset token (256 bits).
const ResetTokenBytes = 32

// GenerateResetToken returns a random hex token and the digest to store for it.
func GenerateResetToken() (token, digest string, err error) {
	raw := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	return token, HashResetToken(token), nil
}

// HashResetToken returns the SHA-256 hex digest used to look a token up.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
