package model

import "time"

// VerificationToken is a time-boxed credential issued for an email.
// Only the digest of the token is persisted. Tokens are immutable once
// stored and several may be live for the same email.
type VerificationToken struct {
	Email     string
	Digest    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsValidAt reports whether the token is still valid at t.
// A token is valid up to and including its expiry instant.
func (t *VerificationToken) IsValidAt(now time.Time) bool {
	return !now.After(t.ExpiresAt)
}
