package model

import (
	"testing"
	"time"
)

func TestVerificationToken_IsValidAt(t *testing.T) {
	t.Parallel()

	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := &VerificationToken{Email: "a@x.com", Digest: "d", ExpiresAt: expires}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before", expires.Add(-time.Hour), true},
		{"exactly at expiry", expires, true},
		{"one microsecond after", expires.Add(time.Microsecond), false},
		{"long after", expires.Add(48 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tok.IsValidAt(tt.now); got != tt.want {
				t.Errorf("IsValidAt(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestSession_Clear(t *testing.T) {
	t.Parallel()

	s := &Session{ID: "s1", Email: "a@x.com", Verified: true, Attempts: 3}
	s.Clear()

	if s.Email != "" || s.Verified || s.Attempts != 0 {
		t.Errorf("Clear left state behind: %+v", s)
	}
	if s.ID != "s1" {
		t.Errorf("Clear must keep the session ID, got %q", s.ID)
	}
}
