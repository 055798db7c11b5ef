package service

import (
	"log/slog"
	"time"

	"github.com/penshort/budgetdesk/internal/metrics"
)

// Option configures a service.
type Option func(*options)

type options struct {
	now     func() time.Time
	logger  *slog.Logger
	metrics metrics.Recorder
}

func newOptions(opts []Option) options {
	o := options{
		now:     time.Now,
		logger:  slog.Default(),
		metrics: metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}
