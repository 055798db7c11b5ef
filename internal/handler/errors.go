package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/penshort/budgetdesk/internal/handler/dto"
	"github.com/penshort/budgetdesk/internal/service"
)

// Error codes returned in the response envelope.
const (
	CodeInvalidJSON      = "INVALID_JSON"
	CodeInvalidEmail     = "INVALID_EMAIL"
	CodeNotAuthorized    = "NOT_AUTHORIZED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeDeliveryFailed   = "DELIVERY_FAILED"
	CodeInvalidLink      = "INVALID_LINK"
	CodeInvalidOrExpired = "INVALID_OR_EXPIRED"
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeBudgetExceeded   = "BUDGET_EXCEEDED"
	CodeUnknownUser      = "UNKNOWN_USER"
	CodeUnknownProject   = "UNKNOWN_PROJECT"
	CodeNotFound         = "NOT_FOUND"
	CodeNotImplemented   = "COMING_SOON"
	CodeStorageFailure   = "STORAGE_FAILURE"
	CodeInternal         = "INTERNAL_ERROR"
)

// statusFor maps service errors to HTTP status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, CodeInvalidEmail
	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden, CodeNotAuthorized
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, service.ErrDeliveryFailed):
		return http.StatusBadGateway, CodeDeliveryFailed
	case errors.Is(err, service.ErrInvalidLink):
		return http.StatusBadRequest, CodeInvalidLink
	case errors.Is(err, service.ErrInvalidOrExpired):
		return http.StatusBadRequest, CodeInvalidOrExpired
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, CodeInvalidAmount
	case errors.Is(err, service.ErrBudgetExceeded):
		return http.StatusUnprocessableEntity, CodeBudgetExceeded
	case errors.Is(err, service.ErrUnknownUser):
		return http.StatusNotFound, CodeUnknownUser
	case errors.Is(err, service.ErrNoSession):
		return http.StatusUnauthorized, "NOT_VERIFIED"
	case errors.Is(err, service.ErrStorageFailure):
		return http.StatusInternalServerError, CodeStorageFailure
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeServiceError renders err in the response envelope. Server-side
// failures are logged; user errors are not.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request_failed",
			slog.String("path", r.URL.Path),
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}

	resp := dto.Response{
		Success: false,
		Message: service.Outcome("", err).Message,
		Code:    code,
	}

	var budget *service.BudgetExceededError
	if errors.As(err, &budget) {
		remaining := budget.Remaining
		resp.Remaining = &remaining
	}

	writeJSON(w, status, resp)
}

// writeError writes a failure envelope with an explicit message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.Response{Success: false, Message: message, Code: code})
}
