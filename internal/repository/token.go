package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/penshort/budgetdesk/internal/model"
)

// StoreToken persists a verification token digest. Earlier tokens for the
// same email are left untouched.
func (r *Repository) StoreToken(ctx context.Context, token *model.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (email, token_digest, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, r.q(query),
			token.Email,
			token.Digest,
			dbTime(token.CreatedAt),
			dbTime(token.ExpiresAt),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	return nil
}

// FindToken looks up the token issued to email with the given digest.
// Expiry is not checked here.
func (r *Repository) FindToken(ctx context.Context, email, digest string) (*model.VerificationToken, error) {
	query := `
		SELECT email, token_digest, created_at, expires_at
		FROM verification_tokens
		WHERE email = ? AND token_digest = ?
	`

	var tok model.VerificationToken
	err := r.db.QueryRowContext(ctx, r.q(query), email, digest).Scan(
		&tok.Email,
		&tok.Digest,
		&tok.CreatedAt,
		&tok.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find verification token: %w", err)
	}

	tok.CreatedAt = tok.CreatedAt.UTC()
	tok.ExpiresAt = tok.ExpiresAt.UTC()
	return &tok, nil
}

// CountTokens returns how many tokens have been issued to email.
func (r *Repository) CountTokens(ctx context.Context, email string) (int, error) {
	query := `SELECT COUNT(*) FROM verification_tokens WHERE email = ?`

	var n int
	if err := r.db.QueryRowContext(ctx, r.q(query), email).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count verification tokens: %w", err)
	}
	return n, nil
}
