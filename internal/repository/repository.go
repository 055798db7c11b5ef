// Package repository provides the persistent store for users, verification
// tokens and allocations on top of database/sql. SQLite is the default
// embedded backend; PostgreSQL is supported through the pgx stdlib driver.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Common errors for repository operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrTokenNotFound  = errors.New("verification token not found")
	ErrNegativeAmount = errors.New("allocation amount must not be negative")
	ErrInMemoryDB     = errors.New("in-memory sqlite databases are not supported")
)

// Options configures how the store is opened.
type Options struct {
	// Driver is "sqlite" or "postgres".
	Driver string
	// URL is a file path for sqlite and a connection URL for postgres.
	URL string
	// PoolSize caps open connections. Each request acquires one for the
	// duration of a single operation.
	PoolSize int
	// BusyTimeout bounds how long an operation waits on lock contention.
	BusyTimeout time.Duration
}

// Repository provides database access methods.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens the store and verifies connectivity.
func Open(ctx context.Context, opts Options) (*Repository, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 5
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 30 * time.Second
	}

	dialect, err := ParseDialect(opts.Driver)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch dialect {
	case DialectSQLite:
		dsn, err := sqliteDSN(opts.URL, opts.BusyTimeout)
		if err != nil {
			return nil, err
		}
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
	case DialectPostgres:
		db, err = sql.Open("pgx", opts.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
	}

	// Connection pool settings
	db.SetMaxOpenConns(opts.PoolSize)
	db.SetMaxIdleConns(opts.PoolSize)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, opts.BusyTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db, dialect: dialect}, nil
}

// sqliteDSN builds a modernc.org/sqlite DSN with foreign keys on, a busy
// timeout, WAL journaling and immediate transactions so read-then-write
// operations serialize instead of failing on lock upgrade.
func sqliteDSN(path string, busyTimeout time.Duration) (string, error) {
	if path == "" || path == ":memory:" {
		return "", ErrInMemoryDB
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Set("_txlock", "immediate")
	params.Set("_time_format", "sqlite")

	return path + "?" + params.Encode(), nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Dialect returns the active SQL dialect.
func (r *Repository) Dialect() Dialect {
	return r.dialect
}

// q rewrites a query written with ? placeholders for the active dialect.
func (r *Repository) q(query string) string {
	return r.dialect.Rebind(query)
}

// withTx runs fn inside one transaction. The transaction is rolled back on
// any error or panic and the connection is always returned to the pool.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
