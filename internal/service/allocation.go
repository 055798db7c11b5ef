package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/penshort/budgetdesk/internal/metrics"
	"github.com/penshort/budgetdesk/internal/model"
	"github.com/penshort/budgetdesk/internal/repository"
)

// AllocationStore is the persistence used by AllocationService.
type AllocationStore interface {
	SaveAllocation(ctx context.Context, a *model.Allocation) error
	SaveAllocationWithinBudget(ctx context.Context, a *model.Allocation, budget int64) (repository.BudgetCheck, error)
	GetUserAllocations(ctx context.Context, email string) (map[string]int64, error)
	ListAllocations(ctx context.Context, email string) ([]model.Allocation, error)
	GetTotalAllocated(ctx context.Context, email string) (int64, error)
}

// AllocationSummary are the headline figures for a user's allocations.
type AllocationSummary struct {
	TotalAllocated  int64 `json:"total_allocated"`
	RemainingBudget int64 `json:"remaining_budget"`
	NumProjects     int   `json:"num_projects"`
	MaxProjects     int   `json:"max_projects"`
}

// AllocationService enforces the per-user budget.
type AllocationService struct {
	store       AllocationStore
	budget      int64
	maxProjects int
	locks       sync.Map // email -> *sync.Mutex
	options
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(store AllocationStore, budget int64, maxProjects int, opts ...Option) *AllocationService {
	return &AllocationService{
		store:       store,
		budget:      budget,
		maxProjects: maxProjects,
		options:     newOptions(opts),
	}
}

// Budget returns the per-user budget.
func (s *AllocationService) Budget() int64 {
	return s.budget
}

// ParseAmount parses a whole, non-negative number of pounds.
func ParseAmount(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// ValidateAllocation checks that setting projectID to amount keeps the
// user's total within budget. The existing allocation for projectID is
// replaced, not added to.
func (s *AllocationService) ValidateAllocation(ctx context.Context, email, projectID string, amount int64) error {
	if amount < 0 {
		s.metrics.IncAllocationRejected(metrics.ReasonInvalidAmount)
		return ErrInvalidAmount
	}

	current, err := s.store.GetUserAllocations(ctx, email)
	if err != nil {
		return storageError(err)
	}

	var otherTotal int64
	for id, amt := range current {
		if id != projectID {
			otherTotal += amt
		}
	}
	if amount > s.budget-otherTotal {
		s.metrics.IncAllocationRejected(metrics.ReasonBudgetExceeded)
		return &BudgetExceededError{Remaining: s.budget - otherTotal}
	}
	return nil
}

// SaveAllocation writes an allocation without a budget check. Callers
// validate first; Allocate does both atomically.
func (s *AllocationService) SaveAllocation(ctx context.Context, email, projectID string, amount int64) error {
	err := s.store.SaveAllocation(ctx, &model.Allocation{
		Email:     email,
		ProjectID: projectID,
		Amount:    amount,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return s.saveError(err)
	}

	s.metrics.IncAllocationSaved()
	return nil
}

// Allocate validates and saves in a single transaction, serialised per user.
func (s *AllocationService) Allocate(ctx context.Context, email, projectID string, amount int64) (*AllocationSummary, error) {
	if amount < 0 {
		s.metrics.IncAllocationRejected(metrics.ReasonInvalidAmount)
		return nil, ErrInvalidAmount
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveAllocationDuration(time.Since(start))
	}()

	mu := s.lockFor(email)
	mu.Lock()
	check, err := s.store.SaveAllocationWithinBudget(ctx, &model.Allocation{
		Email:     email,
		ProjectID: projectID,
		Amount:    amount,
		UpdatedAt: s.now().UTC(),
	}, s.budget)
	mu.Unlock()
	if err != nil {
		return nil, s.saveError(err)
	}

	if !check.Saved {
		s.metrics.IncAllocationRejected(metrics.ReasonBudgetExceeded)
		s.logger.Info("allocation_rejected",
			slog.String("email", email),
			slog.String("project_id", projectID),
			slog.Int64("amount", amount),
		)
		return nil, &BudgetExceededError{Remaining: s.budget - check.OtherTotal}
	}

	s.metrics.IncAllocationSaved()
	s.logger.Info("allocation_saved",
		slog.String("email", email),
		slog.String("project_id", projectID),
		slog.Int64("amount", amount),
	)

	return s.Summary(ctx, email)
}

// GetUserAllocations returns project_id -> amount.
func (s *AllocationService) GetUserAllocations(ctx context.Context, email string) (map[string]int64, error) {
	allocations, err := s.store.GetUserAllocations(ctx, email)
	if err != nil {
		return nil, storageError(err)
	}
	return allocations, nil
}

// ListAllocations returns the user's allocations ordered by project_id.
func (s *AllocationService) ListAllocations(ctx context.Context, email string) ([]model.Allocation, error) {
	allocations, err := s.store.ListAllocations(ctx, email)
	if err != nil {
		return nil, storageError(err)
	}
	return allocations, nil
}

// GetTotalAllocated returns the sum of the user's allocations.
func (s *AllocationService) GetTotalAllocated(ctx context.Context, email string) (int64, error) {
	total, err := s.store.GetTotalAllocated(ctx, email)
	if err != nil {
		return 0, storageError(err)
	}
	return total, nil
}

// Summary returns total allocated, remaining budget and project counts.
func (s *AllocationService) Summary(ctx context.Context, email string) (*AllocationSummary, error) {
	allocations, err := s.store.GetUserAllocations(ctx, email)
	if err != nil {
		return nil, storageError(err)
	}

	var total int64
	for _, amount := range allocations {
		total += amount
	}

	return &AllocationSummary{
		TotalAllocated:  total,
		RemainingBudget: s.budget - total,
		NumProjects:     len(allocations),
		MaxProjects:     s.maxProjects,
	}, nil
}

func (s *AllocationService) lockFor(email string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(email, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *AllocationService) saveError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNegativeAmount):
		s.metrics.IncAllocationRejected(metrics.ReasonInvalidAmount)
		return ErrInvalidAmount
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUnknownUser
	default:
		return storageError(err)
	}
}
