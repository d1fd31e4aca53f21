// Package logger provides structured logging using Go 1.21's log/slog.
// It sets up a JSON handler with service-level context and propagates a
// per-run identifier through context.Context so every log line from one
// backtest run can be correlated.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

// Init creates and returns a structured logger for the given service.
// The logger outputs JSON to stdout with the service name embedded.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)

	// Set as default so log/slog.Info() etc. also use structured output
	slog.SetDefault(logger)

	return logger
}

// WithRunID stores a run ID in the context for downstream propagation.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID extracts the run ID from context. Returns "" if not set.
func RunID(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateRunID creates a run ID from a strategy name and timestamp.
// Format: "{strategy}-{unixNano}" — lightweight, no UUID dependency.
func GenerateRunID(strategy string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", strategy, ts.UnixNano())
}

// FromContext returns the default logger with the context's run ID
// attached, or the bare default logger when none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if rid := RunID(ctx); rid != "" {
		return slog.Default().With(slog.String("run_id", rid))
	}
	return slog.Default()
}
