package model

import "time"

// Session is the per-visitor interactive state. It replaces framework-held
// globals: the verification flow reads and mutates it explicitly and the
// caller persists it.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Verified  bool      `json:"verified"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clear resets identity, verification and the attempt counter.
func (s *Session) Clear() {
	s.Email = ""
	s.Verified = false
	s.Attempts = 0
}
