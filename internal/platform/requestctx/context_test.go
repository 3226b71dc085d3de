package requestctx

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerDefaultsToNoop(t *testing.T) {
	if got := Logger(context.Background()); got != NoopLogger() {
		t.Fatalf("expected noop logger, got %v", got)
	}
	ctx := WithLogger(context.Background(), nil)
	if got := Logger(ctx); got != NoopLogger() {
		t.Fatalf("expected nil logger to be replaced with noop")
	}
}

func TestLoggerRoundTrip(t *testing.T) {
	logger := zap.NewExample()
	ctx := WithLogger(context.Background(), logger)
	if got := Logger(ctx); got != logger {
		t.Fatalf("expected stored logger")
	}
}

func TestTraceRoundTrip(t *testing.T) {
	if _, ok := Trace(context.Background()); ok {
		t.Fatalf("expected no trace on empty context")
	}
	if id := TraceID(context.Background()); id != "" {
		t.Fatalf("expected empty trace id, got %q", id)
	}

	info := TraceInfo{TraceID: "abc", SpanID: "def", Sampled: true, ProjectID: "hf-prod"}
	ctx := WithTrace(context.Background(), info)
	got, ok := Trace(ctx)
	if !ok || got != info {
		t.Fatalf("unexpected trace info: %+v %v", got, ok)
	}
	if TraceID(ctx) != "abc" {
		t.Fatalf("unexpected trace id %q", TraceID(ctx))
	}
}
