package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(http.NotFoundHandler(), 0, time.Second, time.Second, 5*time.Second, logger)
}

func TestRun_ShutsDownComponentsInReverseOrder(t *testing.T) {
	srv := newTestServer()

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"store", "redis"} {
		srv.OnShutdown(name, func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Equal(t, []string{"redis", "store"}, order)
}

func TestRun_ReportsComponentErrors(t *testing.T) {
	srv := newTestServer()

	errClose := errors.New("close failed")
	srv.OnShutdown("store", func(ctx context.Context) error { return errClose })
	srv.OnShutdown("redis", func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Run(ctx)
	assert.ErrorIs(t, err, errClose)
}

func TestAddr(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(http.NotFoundHandler(), 8080, time.Second, time.Second, time.Second, logger)
	assert.Equal(t, ":8080", srv.Addr())
}
