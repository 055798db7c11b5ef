package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/penshort/budgetdesk/internal/model"
)

const upsertAllocationQuery = `
	INSERT INTO allocations (email, project_id, amount, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (email, project_id)
	DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at
`

// BudgetCheck is the outcome of a guarded allocation write.
type BudgetCheck struct {
	// OtherTotal is the sum of the user's allocations to every other project.
	OtherTotal int64
	// Saved reports whether the allocation was written.
	Saved bool
}

// SaveAllocation upserts an allocation keyed by (email, project_id).
// The last write wins. No budget check is performed.
func (r *Repository) SaveAllocation(ctx context.Context, a *model.Allocation) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		return r.upsertAllocation(ctx, tx, a)
	})
	if err != nil {
		return r.allocationError(err)
	}
	return nil
}

// SaveAllocationWithinBudget checks the budget and upserts in one
// transaction. When the write would push the user's total above budget
// nothing is written and Saved is false.
func (r *Repository) SaveAllocationWithinBudget(ctx context.Context, a *model.Allocation, budget int64) (BudgetCheck, error) {
	var check BudgetCheck

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if r.dialect == DialectPostgres {
			// SQLite transactions are opened IMMEDIATE and already hold the write lock.
			var locked string
			err := tx.QueryRowContext(ctx, r.q(`SELECT email FROM users WHERE email = ? FOR UPDATE`), a.Email).Scan(&locked)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrUserNotFound
				}
				return err
			}
		}

		query := `
			SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT)
			FROM allocations
			WHERE email = ? AND project_id <> ?
		`
		if err := tx.QueryRowContext(ctx, r.q(query), a.Email, a.ProjectID).Scan(&check.OtherTotal); err != nil {
			return err
		}

		if a.Amount > budget-check.OtherTotal {
			return nil
		}

		if err := r.upsertAllocation(ctx, tx, a); err != nil {
			return err
		}
		check.Saved = true
		return nil
	})
	if err != nil {
		return BudgetCheck{}, r.allocationError(err)
	}

	return check, nil
}

func (r *Repository) upsertAllocation(ctx context.Context, tx *sql.Tx, a *model.Allocation) error {
	_, err := tx.ExecContext(ctx, r.q(upsertAllocationQuery),
		a.Email,
		a.ProjectID,
		a.Amount,
		dbTime(a.UpdatedAt),
	)
	return err
}

func (r *Repository) allocationError(err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return err
	}
	switch r.dialect.constraint(err) {
	case constraintForeignKey:
		return ErrUserNotFound
	case constraintCheck:
		return ErrNegativeAmount
	}
	return fmt.Errorf("failed to save allocation: %w", err)
}

// GetUserAllocations returns project_id -> amount for a user.
func (r *Repository) GetUserAllocations(ctx context.Context, email string) (map[string]int64, error) {
	allocations, err := r.ListAllocations(ctx, email)
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(allocations))
	for _, a := range allocations {
		result[a.ProjectID] = a.Amount
	}
	return result, nil
}

// ListAllocations returns a user's allocations ordered by project_id.
func (r *Repository) ListAllocations(ctx context.Context, email string) ([]model.Allocation, error) {
	query := `
		SELECT email, project_id, amount, updated_at
		FROM allocations
		WHERE email = ?
		ORDER BY project_id
	`

	rows, err := r.db.QueryContext(ctx, r.q(query), email)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	allocations := make([]model.Allocation, 0)
	for rows.Next() {
		var a model.Allocation
		if err := rows.Scan(&a.Email, &a.ProjectID, &a.Amount, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		a.UpdatedAt = a.UpdatedAt.UTC()
		allocations = append(allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}

	return allocations, nil
}

// GetTotalAllocated returns the sum of a user's allocations, computed from
// the stored rows on every call.
func (r *Repository) GetTotalAllocated(ctx context.Context, email string) (int64, error) {
	query := `
		SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT)
		FROM allocations
		WHERE email = ?
	`

	var total int64
	if err := r.db.QueryRowContext(ctx, r.q(query), email).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum allocations: %w", err)
	}
	return total, nil
}
