package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

// DefaultCommandTimeout bounds a full update run, GitHub lookups included.
const DefaultCommandTimeout = 10 * time.Minute

// EnsureContext returns a non-nil context.
func EnsureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithCommandTimeout applies timeout unless it is zero or negative.
func WithCommandTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger returns a usable logger, defaulting to a no-op logger when nil.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
