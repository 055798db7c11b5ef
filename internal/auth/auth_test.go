package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/penshort/budgetdesk/internal/model"
)

func TestGenerateVerificationToken(t *testing.T) {
	t.Parallel()

	tok, err := GenerateVerificationToken()
	if err != nil {
		t.Fatalf("GenerateVerificationToken failed: %v", err)
	}
	if len(tok) != 43 {
		t.Errorf("token length = %d, want 43", len(tok))
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Errorf("token is not URL-safe: %s", tok)
	}
	if err := ValidateTokenFormat(tok); err != nil {
		t.Errorf("generated token failed format check: %v", err)
	}
}

func TestGenerateVerificationToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := GenerateVerificationToken()
		if err != nil {
			t.Fatalf("GenerateVerificationToken failed: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated: %s", tok)
		}
		seen[tok] = true
	}
}

func TestValidateTokenFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		valid bool
	}{
		{"valid", strings.Repeat("a", 43), true},
		{"too short", "wrong", false},
		{"padding", strings.Repeat("a", 42) + "=", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateTokenFormat(tt.token)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateTokenFormat(%q) = %v, want valid=%v", tt.token, err, tt.valid)
			}
		})
	}
}

func TestDigestToken(t *testing.T) {
	t.Parallel()

	a := DigestToken("token-a")
	if a != DigestToken("token-a") {
		t.Error("digest should be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
	if a == DigestToken("token-b") {
		t.Error("different tokens should produce different digests")
	}
	if !DigestEqual(a, DigestToken("token-a")) {
		t.Error("DigestEqual should match equal digests")
	}
	if DigestEqual(a, DigestToken("token-b")) {
		t.Error("DigestEqual should reject different digests")
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  bool
	}{
		{"test@example.com", true},
		{"first.last+tag@sub.example.org", true},
		{"no-at-sign.example.com", false},
		{"a@b", false},
		{"a@b.c", false},
		{"", false},
		{"spaces in@example.com", false},
	}

	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestAllowList(t *testing.T) {
	t.Parallel()

	list := NewAllowList([]string{" a@x.com ", "", "b@x.com", "a@x.com"})

	if list.Len() != 2 {
		t.Errorf("Len() = %d, want 2", list.Len())
	}
	if !list.Allows("a@x.com") {
		t.Error("expected a@x.com to be allowed")
	}
	if list.Allows("A@x.com") {
		t.Error("allow-list comparison should be exact")
	}
	if list.Allows("c@x.com") {
		t.Error("expected c@x.com to be rejected")
	}
	if got := strings.Join(list.Emails(), ","); got != "a@x.com,b@x.com" {
		t.Errorf("Emails() = %s", got)
	}

	var empty *AllowList
	if empty.Allows("a@x.com") {
		t.Error("nil allow-list should reject everything")
	}
}

func TestSessionContext(t *testing.T) {
	t.Parallel()

	if SessionFromContext(context.Background()) != nil {
		t.Error("expected nil session from empty context")
	}

	sess := &model.Session{ID: "abc"}
	ctx := ContextWithSession(context.Background(), sess)
	if got := SessionFromContext(ctx); got != sess {
		t.Errorf("SessionFromContext returned %v, want %v", got, sess)
	}
}
