package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/penshort/budgetdesk/internal/auth"
	"github.com/penshort/budgetdesk/internal/model"
	"github.com/penshort/budgetdesk/internal/session"
)

func newSessionConfig(store session.Store) SessionConfig {
	return SessionConfig{
		Store:  store,
		Logger: discardLogger(),
		TTL:    time.Hour,
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSession_CreatesAndPersists(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)

	handler := Session(newSessionConfig(store))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())
		if sess == nil {
			t.Fatal("session missing from context")
		}
		sess.Attempts++
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != "/" {
		t.Errorf("unexpected cookie attributes: %+v", cookie)
	}

	stored, err := store.Get(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if stored.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", stored.Attempts)
	}

	// Second request reuses the session without a new cookie.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if sessionCookie(t, rec) != nil {
		t.Error("existing session should not be re-issued")
	}
	stored, _ = store.Get(context.Background(), cookie.Value)
	if stored.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", stored.Attempts)
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d sessions, want 1", store.Len())
	}
}

func TestSession_UnknownCookieStartsFresh(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)

	var got *model.Session
	handler := Session(newSessionConfig(store))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "expired-id"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got == nil || got.ID == "expired-id" {
		t.Fatalf("expected a new session, got %+v", got)
	}
	if sessionCookie(t, rec) == nil {
		t.Error("expected a new cookie")
	}
}

type brokenStore struct{ session.Store }

func (brokenStore) Get(ctx context.Context, id string) (*model.Session, error) {
	return nil, errors.New("redis: connection refused")
}

func TestSession_StoreFailure(t *testing.T) {
	handler := Session(newSessionConfig(brokenStore{}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "some-id"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestSession_DemoUser(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	var ensured string

	cfg := newSessionConfig(store)
	cfg.DemoUser = "demo@example.com"
	cfg.EnsureUser = func(ctx context.Context, email string) error {
		ensured = email
		return nil
	}

	var got *model.Session
	handler := Session(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.SessionFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !got.Verified || got.Email != "demo@example.com" {
		t.Errorf("demo session not verified: %+v", got)
	}
	if ensured != "demo@example.com" {
		t.Errorf("EnsureUser called with %q", ensured)
	}
}

func TestEndSession(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	cfg := newSessionConfig(store)

	start := Session(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	start.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookie(t, rec)

	logout := Session(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		EndSession(w, r)
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	logout.ServeHTTP(rec, req)

	if _, err := store.Get(context.Background(), cookie.Value); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("session should be deleted, got %v", err)
	}
	expired := sessionCookie(t, rec)
	if expired == nil || expired.MaxAge >= 0 {
		t.Errorf("expected expired cookie, got %+v", expired)
	}
}

func TestRequireVerified(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		sess       *model.Session
		wantStatus int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"unverified", &model.Session{Email: "a@x.com"}, http.StatusUnauthorized},
		{"verified", &model.Session{Email: "a@x.com", Verified: true}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/allocations", nil)
			if tt.sess != nil {
				req = req.WithContext(auth.ContextWithSession(req.Context(), tt.sess))
			}
			rec := httptest.NewRecorder()
			RequireVerified(ok).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
