package core

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	// ResetTokenBytes is the entropy of a reset token; hex encoding doubles its length.
	ResetTokenBytes = 64
	// PasswordSaltBytes is the size of the per-password random salt.
	PasswordSaltBytes = 16
)

// GenerateResetToken returns a 128 character hex token from the system CSPRNG.
func GenerateResetToken() (string, error) {
	return randomHex(ResetTokenBytes)
}

func GeneratePasswordSalt() (string, error) {
	return randomHex(PasswordSaltBytes)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
