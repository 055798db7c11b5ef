package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/penshort/budgetdesk/internal/auth"
	"github.com/penshort/budgetdesk/internal/model"
	"github.com/penshort/budgetdesk/internal/session"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "budgetdesk_session"

const sessionStateKey contextKey = "session_state"

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	Store  session.Store
	Logger *slog.Logger
	TTL    time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// DemoUser, when set, starts every new session verified as that user.
	DemoUser string
	// EnsureUser creates the demo user's record.
	EnsureUser func(ctx context.Context, email string) error
}

type sessionState struct {
	once     sync.Once
	sess     *model.Session
	snapshot model.Session
	isNew    bool
	ended    bool
}

// Session loads the visitor's session, creating one on first contact, and
// persists changes made by the handler before the response is written.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, isNew, err := loadSession(ctx, cfg, r)
			if err != nil {
				cfg.Logger.Error("session_load_failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(ctx)),
				)
				writeError(w, http.StatusServiceUnavailable, "SESSION_UNAVAILABLE", "Session store unavailable. Please try again later.")
				return
			}

			state := &sessionState{sess: sess, snapshot: *sess, isNew: isNew}
			if isNew {
				setSessionCookie(w, cfg, sess.ID)
			}

			ctx = auth.ContextWithSession(ctx, sess)
			ctx = context.WithValue(ctx, sessionStateKey, state)
			r = r.WithContext(ctx)

			commit := func() { state.once.Do(func() { commitSession(r.Context(), cfg, state) }) }
			next.ServeHTTP(&sessionWriter{ResponseWriter: w, commit: commit}, r)
			commit()
		})
	}
}

// RequireVerified rejects requests whose session is not verified.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())
		if sess == nil || !sess.Verified || sess.Email == "" {
			writeError(w, http.StatusUnauthorized, "NOT_VERIFIED", "Please verify your email to continue.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EndSession discards the current session and expires its cookie. It must
// be called before the response is written.
func EndSession(w http.ResponseWriter, r *http.Request) {
	state, ok := r.Context().Value(sessionStateKey).(*sessionState)
	if !ok {
		return
	}
	state.ended = true
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func loadSession(ctx context.Context, cfg SessionConfig, r *http.Request) (*model.Session, bool, error) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		sess, err := cfg.Store.Get(ctx, c.Value)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return nil, false, err
		}
	}

	sess := session.New(time.Now())
	if cfg.DemoUser != "" {
		if cfg.EnsureUser != nil {
			if err := cfg.EnsureUser(ctx, cfg.DemoUser); err != nil {
				return nil, false, err
			}
		}
		sess.Email = cfg.DemoUser
		sess.Verified = true
	}
	return sess, true, nil
}

func commitSession(ctx context.Context, cfg SessionConfig, state *sessionState) {
	var err error
	switch {
	case state.ended:
		err = cfg.Store.Delete(ctx, state.sess.ID)
	case state.isNew || *state.sess != state.snapshot:
		err = cfg.Store.Save(ctx, state.sess)
	default:
		return
	}
	if err != nil {
		cfg.Logger.Error("session_save_failed",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(ctx)),
		)
	}
}

func setSessionCookie(w http.ResponseWriter, cfg SessionConfig, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionWriter persists the session before the first byte of the response.
type sessionWriter struct {
	http.ResponseWriter
	commit func()
}

func (sw *sessionWriter) WriteHeader(code int) {
	sw.commit()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.commit()
	return sw.ResponseWriter.Write(b)
}
