package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestInit(t *testing.T) {
	logger := Init("trader", slog.LevelInfo)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOrderID_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if id := OrderID(ctx); id != "" {
		t.Errorf("expected empty order id, got %q", id)
	}

	ctx = WithOrderID(ctx, "ord-123")
	if id := OrderID(ctx); id != "ord-123" {
		t.Errorf("expected 'ord-123', got %q", id)
	}
}

func TestNewOrderID_Unique(t *testing.T) {
	a, b := NewOrderID(), NewOrderID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty order ids")
	}
	if a == b {
		t.Errorf("expected distinct order ids, both were %s", a)
	}
}

func TestWithOrder(t *testing.T) {
	ctx := context.Background()

	if attrs := WithOrder(ctx); attrs != nil {
		t.Errorf("expected nil attrs without order id, got %v", attrs)
	}

	ctx = WithOrderID(ctx, "abc-123")
	if attrs := WithOrder(ctx); len(attrs) == 0 {
		t.Fatal("expected non-empty attrs with order id set")
	}
}
