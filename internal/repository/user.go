package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/penshort/budgetdesk/internal/model"
)

// CreateUser inserts a user. A user that already exists is not an error:
// created reports false instead.
func (r *Repository) CreateUser(ctx context.Context, email string, createdAt time.Time) (bool, error) {
	query := `
		INSERT INTO users (email, verified, created_at)
		VALUES (?, ?, ?)
	`

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, r.q(query), email, false, dbTime(createdAt))
		return err
	})
	if err != nil {
		if r.dialect.constraint(err) == constraintUnique {
			return false, nil
		}
		return false, fmt.Errorf("failed to create user: %w", err)
	}

	return true, nil
}

// GetUser retrieves a user by email.
func (r *Repository) GetUser(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT email, verified, created_at
		FROM users
		WHERE email = ?
	`

	var user model.User
	err := r.db.QueryRowContext(ctx, r.q(query), email).Scan(
		&user.Email,
		&user.Verified,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

// VerifyUser marks a user as verified. Repeating it is harmless.
// It reports whether a user row matched.
func (r *Repository) VerifyUser(ctx context.Context, email string) (bool, error) {
	query := `
		UPDATE users
		SET verified = ?
		WHERE email = ?
	`

	var matched bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.q(query), true, email)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		matched = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to verify user: %w", err)
	}

	return matched, nil
}

// IsUserVerified reports whether the user exists and is verified.
func (r *Repository) IsUserVerified(ctx context.Context, email string) (bool, error) {
	user, err := r.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Verified, nil
}

// dbTime normalizes timestamps before they are written: UTC at microsecond
// precision, which both backends store losslessly.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
