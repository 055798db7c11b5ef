// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/penshort/budgetdesk/internal/model"
	"github.com/penshort/budgetdesk/internal/repository"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// NewRepository opens a migrated SQLite repository in a temp directory.
func NewRepository(t testing.TB) *repository.Repository {
	t.Helper()

	ctx := context.Background()
	repo, err := repository.Open(ctx, repository.Options{
		Driver:      string(repository.DialectSQLite),
		URL:         filepath.Join(t.TempDir(), "test.sqlite3"),
		PoolSize:    4,
		BusyTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("migrate repository: %v", err)
	}
	return repo
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectsCSV is a small project catalog fixture.
const ProjectsCSV = `project_id,name,description,category,status
P001,Clean Air Initiative,Reduce urban air pollution,Environment,Active
P002,Digital Literacy,Computer skills for adults,Education,Active
P003,River Restoration,Restore river habitats,Environment,Planned
P004,Civic Tech Lab,Open-source tools for councils,Technology,Completed
`

// WebsitesCSV is a small website dataset fixture.
const WebsitesCSV = `url,title,content_summary,screenshot_path,stars,forks,open_issues,created_at,last_update,language,type,status_code,server,creation_date,registrar
https://github.com/civic/tool,Civic Tool,Council data toolkit,,120.0,14,3,2019-04-01T08:00:00Z,2024-02-10T12:00:00Z,Python,,,,,
https://parliament.example.org,Parliament Watch,Tracks votes and debates,,,,,,,,Government,200,nginx,2001-06-30,Example Registrar
`

// WriteFile writes content to name inside a temp directory and returns the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// NewTestSession returns an empty session with a fixed id.
func NewTestSession(t testing.TB) *model.Session {
	t.Helper()
	now := time.Now().UTC()
	return &model.Session{ID: "test-session", CreatedAt: now, UpdatedAt: now}
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
