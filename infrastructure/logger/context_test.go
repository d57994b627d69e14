package logger_test

import (
	"context"
	"testing"

	"github.com/jonesrussell/engagement-advisor/infrastructure/logger"
)

func TestWithContext_FromContext_RoundTrip(t *testing.T) {
	t.Parallel()

	nop := logger.NewNop()
	ctx := logger.WithContext(context.Background(), nop)

	if got := logger.FromContext(ctx); got != nop {
		t.Errorf("FromContext returned %v, want the stored logger %v", got, nop)
	}
}

func TestFromContext_FallbackIsSharedAndUsable(t *testing.T) {
	t.Parallel()

	a := logger.FromContext(context.Background())
	b := logger.FromContext(context.Background())
	if a == nil || b == nil {
		t.Fatal("FromContext on empty context returned nil, want fallback logger")
	}
	if a != b {
		t.Error("FromContext returned different fallback instances, want one shared logger")
	}

	// Warn-level fallback filters debug/info but every call must be safe.
	a.Debug("debug message")
	a.Info("info message")
	a.Warn("warn message", logger.String("key", "value"))
}

func TestWithContext_EnrichedLoggerPreserved(t *testing.T) {
	t.Parallel()

	base, err := logger.New(logger.Config{Level: "warn", OutputPaths: []string{"stderr"}, Service: "engagement"})
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}
	enriched := base.With(logger.String("prediction_id", "abc-123"))

	got := logger.FromContext(logger.WithContext(context.Background(), enriched))
	if got != enriched {
		t.Error("FromContext did not return the enriched logger")
	}
	if got == base {
		t.Error("With() returned the base logger, want a new instance")
	}
}

func TestFromContextOr(t *testing.T) {
	t.Parallel()

	def := logger.NewNop()
	stored, err := logger.New(logger.Config{Level: "error", OutputPaths: []string{"stderr"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := logger.FromContextOr(context.Background(), def); got != def {
		t.Errorf("FromContextOr on empty context = %v, want default", got)
	}
	if got := logger.FromContextOr(logger.WithContext(context.Background(), stored), def); got != stored {
		t.Errorf("FromContextOr = %v, want stored logger", got)
	}
}
