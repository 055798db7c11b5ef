package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/penshort/budgetdesk/internal/auth"
	"github.com/penshort/budgetdesk/internal/metrics"
	"github.com/penshort/budgetdesk/internal/model"
	"github.com/penshort/budgetdesk/internal/notify"
	"github.com/penshort/budgetdesk/internal/repository"
)

// VerificationStore is the persistence used by VerificationService.
type VerificationStore interface {
	CreateUser(ctx context.Context, email string, createdAt time.Time) (bool, error)
	VerifyUser(ctx context.Context, email string) (bool, error)
	StoreToken(ctx context.Context, token *model.VerificationToken) error
	FindToken(ctx context.Context, email, digest string) (*model.VerificationToken, error)
}

// VerificationConfig holds the verification policy.
type VerificationConfig struct {
	AllowList   *auth.AllowList
	MaxAttempts int
	TokenTTL    time.Duration
	VerifyURL   string
	Envelope    notify.Envelope
}

// Issued describes a verification link that was sent.
type Issued struct {
	Message string
	Link    string
	// Displayed is true when the channel did not transmit the link and the
	// caller must show it.
	Displayed bool
	ReceiptID string
}

// VerificationService runs the email-link verification flow. It holds no
// per-user state: callers pass the session and persist it afterwards.
type VerificationService struct {
	store    VerificationStore
	notifier notify.Notifier
	cfg      VerificationConfig
	options
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(store VerificationStore, notifier notify.Notifier, cfg VerificationConfig, opts ...Option) *VerificationService {
	return &VerificationService{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		options:  newOptions(opts),
	}
}

// StartVerification issues a link for email and records the attempt on sess.
// A nil sess skips the attempt limit; the operator CLI has no session.
func (s *VerificationService) StartVerification(ctx context.Context, sess *model.Session, email string) (*Issued, error) {
	email = auth.NormalizeEmail(email)

	if !s.cfg.AllowList.Allows(email) {
		s.metrics.IncVerificationRejected(metrics.ReasonNotAuthorized)
		return nil, ErrNotAuthorized
	}

	if sess != nil && sess.Attempts >= s.cfg.MaxAttempts {
		s.metrics.IncVerificationRejected(metrics.ReasonRateLimited)
		return nil, ErrRateLimited
	}

	now := s.now().UTC()

	if _, err := s.store.CreateUser(ctx, email, now); err != nil {
		return nil, storageError(err)
	}

	token, err := auth.GenerateVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	record := &model.VerificationToken{
		Email:     email,
		Digest:    auth.DigestToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	}
	if err := s.store.StoreToken(ctx, record); err != nil {
		return nil, storageError(err)
	}

	link, err := s.buildLink(email, token)
	if err != nil {
		return nil, err
	}

	receipt, err := s.notifier.Deliver(ctx, notify.Compose(s.cfg.Envelope, email, link, s.cfg.TokenTTL))
	if err != nil {
		s.metrics.IncVerificationRejected(metrics.ReasonDeliveryFailed)
		s.logger.Error("verification_delivery_failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	if sess != nil {
		// A verified session only stays verified for the address it proved.
		if sess.Email != email {
			sess.Verified = false
		}
		sess.Email = email
		sess.Attempts++
		sess.UpdatedAt = now
	}

	s.metrics.IncVerificationStarted()
	s.logger.Info("verification_started",
		slog.String("email", email),
		slog.String("channel", receipt.Channel),
		slog.String("receipt_id", receipt.ID),
	)

	return &Issued{
		Message:   MsgVerificationSent,
		Link:      link,
		Displayed: receipt.Displayed,
		ReceiptID: receipt.ID,
	}, nil
}

// VerifyEmail consumes a link. On success sess becomes verified for email
// and its attempt counter resets. Tokens are not consumed and stay valid
// until they expire.
func (s *VerificationService) VerifyEmail(ctx context.Context, sess *model.Session, email, token string) (string, error) {
	email = auth.NormalizeEmail(email)
	token = strings.TrimSpace(token)

	if email == "" || token == "" {
		s.metrics.IncVerificationFailed(metrics.ReasonInvalidLink)
		return "", ErrInvalidLink
	}

	if err := auth.ValidateTokenFormat(token); err != nil {
		s.metrics.IncVerificationFailed(metrics.ReasonInvalidOrExpired)
		return "", ErrInvalidOrExpired
	}

	digest := auth.DigestToken(token)
	record, err := s.store.FindToken(ctx, email, digest)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			s.metrics.IncVerificationFailed(metrics.ReasonInvalidOrExpired)
			return "", ErrInvalidOrExpired
		}
		return "", storageError(err)
	}

	now := s.now().UTC()
	if !auth.DigestEqual(record.Digest, digest) || !record.IsValidAt(now) {
		s.metrics.IncVerificationFailed(metrics.ReasonInvalidOrExpired)
		return "", ErrInvalidOrExpired
	}

	if _, err := s.store.VerifyUser(ctx, email); err != nil {
		return "", storageError(err)
	}

	if sess != nil {
		sess.Email = email
		sess.Verified = true
		sess.Attempts = 0
		sess.UpdatedAt = now
	}

	s.metrics.IncVerificationSucceeded()
	s.logger.Info("email_verified", slog.String("email", email))

	return MsgVerified, nil
}

// IsVerified reports whether sess belongs to a verified user.
func (s *VerificationService) IsVerified(sess *model.Session) bool {
	return sess != nil && sess.Verified
}

// CurrentUser returns the email bound to sess, if any.
func (s *VerificationService) CurrentUser(sess *model.Session) (string, bool) {
	if sess == nil || sess.Email == "" {
		return "", false
	}
	return sess.Email, true
}

// Logout clears identity, verification and attempts from sess.
func (s *VerificationService) Logout(sess *model.Session) {
	if sess == nil {
		return
	}
	sess.Clear()
	sess.UpdatedAt = s.now().UTC()
}

func (s *VerificationService) buildLink(email, token string) (string, error) {
	u, err := url.Parse(s.cfg.VerifyURL)
	if err != nil {
		return "", fmt.Errorf("invalid verify url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
