package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/penshort/budgetdesk/internal/auth"
	"github.com/penshort/budgetdesk/internal/handler/dto"
	"github.com/penshort/budgetdesk/internal/middleware"
	"github.com/penshort/budgetdesk/internal/service"
)

// VerificationHandler handles the email verification flow.
type VerificationHandler struct {
	svc      *service.VerificationService
	logger   *slog.Logger
	cooldown time.Duration
}

// NewVerificationHandler creates a new VerificationHandler. cooldown is
// advertised in Retry-After when the attempt limit is reached.
func NewVerificationHandler(svc *service.VerificationService, logger *slog.Logger, cooldown time.Duration) *VerificationHandler {
	return &VerificationHandler{svc: svc, logger: logger, cooldown: cooldown}
}

// Start handles POST /api/v1/verification.
func (h *VerificationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartVerificationRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errInvalidBody) {
			writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid request body.")
			return
		}
		writeServiceError(w, r, h.logger, service.ErrInvalidEmail)
		return
	}

	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		writeServiceError(w, r, h.logger, service.ErrNoSession)
		return
	}

	issued, err := h.svc.StartVerification(r.Context(), sess, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrRateLimited) && h.cooldown > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(h.cooldown.Seconds())))
		}
		writeServiceError(w, r, h.logger, err)
		return
	}

	resp := dto.StartVerificationResponse{
		Response:  dto.OK(issued.Message),
		ReceiptID: issued.ReceiptID,
	}
	if issued.Displayed {
		resp.VerificationLink = issued.Link
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// Verify handles GET /api/v1/verify?token=&email=.
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		writeServiceError(w, r, h.logger, service.ErrNoSession)
		return
	}

	msg, err := h.svc.VerifyEmail(r.Context(), sess, query.Get("email"), query.Get("token"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionResponse{
		Response: dto.OK(msg),
		Verified: true,
		Email:    sess.Email,
	})
}

// Session handles GET /api/v1/session.
func (h *VerificationHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	email, _ := h.svc.CurrentUser(sess)

	resp := dto.SessionResponse{
		Response: dto.OK(""),
		Verified: h.svc.IsVerified(sess),
		Email:    email,
	}
	if sess != nil {
		resp.Attempts = sess.Attempts
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/logout.
func (h *VerificationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Logout(auth.SessionFromContext(r.Context()))
	middleware.EndSession(w, r)
	writeJSON(w, http.StatusOK, dto.OK(service.MsgLoggedOut))
}
