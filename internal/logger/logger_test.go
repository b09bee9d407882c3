package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"Error": slog.LevelError,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStartSpan_TracingDisabled(t *testing.T) {
	if err := Init(LogConfig{Level: "ERROR", Format: "text"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx := context.Background()
	got, span := StartSpan(ctx, "noop")
	defer span.End()
	if got != ctx {
		t.Fatal("expected the same context when tracing is off")
	}
	if IsTracingEnabled() {
		t.Fatal("tracing should be disabled")
	}
	// must not panic without a valid span
	ErrorWithErr(ctx, "failure", errors.New("boom"))
	Verdict(ctx, "s1", "EURUSD", "approved")
}
