package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned when a plaintext password exceeds the
// bcrypt input ceiling. Oversized passwords are rejected outright rather
// than silently truncated by the hashing algorithm.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// maxPasswordBytes is the bcrypt input limit. bcrypt ignores everything
// past byte 72, so any longer input must be refused.
const maxPasswordBytes = 72

// HashPassword returns the bcrypt hash of plain using the given cost.
// It fails with ErrPasswordTooLong when plain exceeds the bcrypt limit.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
