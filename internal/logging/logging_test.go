package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", "bogus"} {
		logger := New(lvl, "text")
		assert.NotNil(t, logger, "level %s", lvl)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "req_abc123")
	assert.Equal(t, "req_abc123", RequestID(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestLAnnotatesRequestID(t *testing.T) {
	logger := New("info", "json")
	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req_1")

	// Annotated logger is derived from the context logger, not the default.
	assert.NotNil(t, L(ctx))
	assert.NotEqual(t, slog.Default(), FromContext(ctx))
}
