package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithOptions(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOptions(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered: %q", out)
	}
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"k":1`) {
		t.Fatalf("expected JSON record, got %q", out)
	}
}

func TestNewWithOptionsErrors(t *testing.T) {
	if _, err := NewWithOptions(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := NewWithOptions(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger")
	}
	l := New()
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatalf("logger not stored in context")
	}
}
