// Package logging configures the structured zerolog logger used across
// all three roles. Each role constructs its own logger at startup and
// threads it through its immutable parameter struct; handlers derive a
// request-scoped child logger carrying a correlation id rather than
// reaching for a package-level global.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New builds the process-wide base logger. component names the role
// ("coordinator", "node", "client") for every emitted record.
func New(component string, w io.Writer, debug bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

type ctxKey struct{}

// WithRequestLogger derives a child logger carrying a fresh request id
// and attaches it to ctx.
func WithRequestLogger(ctx context.Context, base zerolog.Logger) (context.Context, zerolog.Logger) {
	reqLogger := base.With().Str("request_id", uuid.New().String()).Logger()
	return context.WithValue(ctx, ctxKey{}, reqLogger), reqLogger
}

// FromContext retrieves the request-scoped logger, falling back to a
// disabled logger if none was attached.
func FromContext(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

// Elapsed logs the duration since start under the given message, used at
// the end of handlers to record request latency.
func Elapsed(l zerolog.Logger, msg string, start time.Time) {
	l.Debug().Dur("elapsed", time.Since(start)).Msg(msg)
}
