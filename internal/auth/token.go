// Package auth provides the credentials used by email-link verification:
// token generation and digests, email format checks, the allow-list and
// request-scoped session access.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/blake2b"
)

// TokenBytes is the amount of randomness in a verification token (256 bits).
const TokenBytes = 32

var (
	// ErrInvalidTokenFormat indicates the token is not a well-formed token.
	ErrInvalidTokenFormat = errors.New("invalid verification token format")

	// 32 bytes encode to 43 base64url characters without padding.
	tokenFormatRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)
)

// GenerateVerificationToken returns a URL-safe random token.
func GenerateVerificationToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidateTokenFormat checks the shape of a presented token before lookup.
func ValidateTokenFormat(token string) error {
	if !tokenFormatRegex.MatchString(token) {
		return ErrInvalidTokenFormat
	}
	return nil
}

// DigestToken returns the hex BLAKE2b-256 digest stored in place of the token.
// Tokens carry 256 bits of entropy, so an unsalted fast hash is sufficient
// and keeps the digest usable as a lookup key.
func DigestToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DigestEqual compares two digests in constant time.
func DigestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
