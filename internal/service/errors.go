// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"
)

// Service errors.
var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrNotAuthorized    = errors.New("email not authorized")
	ErrRateLimited      = errors.New("too many verification attempts")
	ErrDeliveryFailed   = errors.New("verification delivery failed")
	ErrInvalidLink      = errors.New("invalid verification link")
	ErrInvalidOrExpired = errors.New("invalid or expired verification link")
	ErrInvalidAmount    = errors.New("invalid allocation amount")
	ErrBudgetExceeded   = errors.New("allocation exceeds budget")
	ErrUnknownUser      = errors.New("user not registered")
	ErrNoSession        = errors.New("no session")
	ErrStorageFailure   = errors.New("storage failure")
)

// Messages shown to users.
const (
	MsgInvalidEmail      = "Please enter a valid email address."
	MsgNotAuthorized     = "This email is not authorized to access the system."
	MsgRateLimited       = "Too many verification attempts. Please try again later."
	MsgVerificationSent  = "Verification email sent. Please check your inbox."
	MsgDeliveryFailed    = "Failed to send verification email."
	MsgInvalidLink       = "Invalid verification link."
	MsgInvalidOrExpired  = "Invalid or expired verification link."
	MsgVerified          = "Email verified successfully."
	MsgInvalidAmount     = "Allocation amount must be a whole number of pounds, zero or more."
	MsgUnknownUser       = "This email has not started verification."
	MsgAllocationSaved   = "Allocation saved."
	MsgAllocationValid   = "Allocation is within budget."
	MsgLoggedOut         = "Logged out."
	MsgStorageFailure    = "The allocation store is unavailable. Please try again later."
	MsgNotVerified       = "Please verify your email to continue."
	msgBudgetExceededFmt = "Allocation exceeds budget. Remaining: %s"
)

// BudgetExceededError reports a budget breach and the amount still
// available for the project being allocated.
type BudgetExceededError struct {
	Remaining int64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s: remaining %d", ErrBudgetExceeded, e.Remaining)
}

// Is makes errors.Is(err, ErrBudgetExceeded) match.
func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrBudgetExceeded
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var budget *BudgetExceededError
	switch {
	case errors.As(err, &budget):
		return fmt.Sprintf(msgBudgetExceededFmt, FormatCurrency(budget.Remaining))
	case errors.Is(err, ErrInvalidEmail):
		return MsgInvalidEmail
	case errors.Is(err, ErrNotAuthorized):
		return MsgNotAuthorized
	case errors.Is(err, ErrRateLimited):
		return MsgRateLimited
	case errors.Is(err, ErrDeliveryFailed):
		return MsgDeliveryFailed
	case errors.Is(err, ErrInvalidLink):
		return MsgInvalidLink
	case errors.Is(err, ErrInvalidOrExpired):
		return MsgInvalidOrExpired
	case errors.Is(err, ErrInvalidAmount):
		return MsgInvalidAmount
	case errors.Is(err, ErrUnknownUser):
		return MsgUnknownUser
	case errors.Is(err, ErrNoSession):
		return MsgNotVerified
	default:
		return MsgStorageFailure
	}
}

// Result is the (success, message) pair presented to users.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Outcome converts an operation result into a Result.
func Outcome(msg string, err error) Result {
	if err != nil {
		return Result{Success: false, Message: Message(err)}
	}
	return Result{Success: true, Message: msg}
}

func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}
