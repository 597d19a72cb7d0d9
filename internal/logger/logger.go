// Package logger sets up structured JSON logging with log/slog and
// carries an order ID through context.Context so every log line of one
// order's lifecycle (submit, poll, fill, journal) can be correlated.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type ctxKey string

const orderIDKey ctxKey = "order_id"

// Init creates a JSON logger tagged with the service name and installs
// it as the slog default.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)

	slog.SetDefault(logger)

	return logger
}

// ParseLevel maps a config string to a slog level. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewOrderID generates a fresh correlation ID for an order lifecycle.
func NewOrderID() string {
	return uuid.NewString()
}

// WithOrderID stores an order correlation ID in the context.
func WithOrderID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, orderIDKey, id)
}

// OrderID extracts the order correlation ID. Returns "" if not set.
func OrderID(ctx context.Context) string {
	if v, ok := ctx.Value(orderIDKey).(string); ok {
		return v
	}
	return ""
}

// WithOrder returns slog attributes carrying the order ID from context.
// Usage: log.Info("order filled", logger.WithOrder(ctx)...)
func WithOrder(ctx context.Context) []any {
	id := OrderID(ctx)
	if id == "" {
		return nil
	}
	return []any{slog.String("order_id", id)}
}
