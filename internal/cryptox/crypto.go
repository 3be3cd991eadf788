// Package cryptox wraps the credential hashing primitives used by the server:
// bcrypt for stored passwords and SHA-256 for one-time token digests.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives a bcrypt hash from a plaintext password.
// The hash is the only form in which a password is ever persisted.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext candidate against a stored bcrypt hash.
// bcrypt comparison is constant-time with respect to the candidate.
func CheckPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// DigestToken returns the hex-encoded SHA-256 digest of a raw one-time token.
// Only the digest is stored, so a database leak does not yield usable tokens.
func DigestToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
