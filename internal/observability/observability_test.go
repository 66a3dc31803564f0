package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-insights/internal/config"
)

func TestStartSpan_InheritsTrace(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "http POST /analyze")
	_, child := StartSpan(ctx, "analytics.analyze")

	assert.Len(t, parent.TraceID, 16)
	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
	assert.Same(t, parent, GetSpan(ctx))
}

func TestSpan_FinishAndLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, span := StartSpan(context.Background(), "analytics.analyze")
	span.SetTag("rows", "3")
	span.SetError(errors.New("boom"))
	span.FinishAndLog(logger)

	require.NotNil(t, span.Duration)
	assert.Equal(t, SpanStatusError, span.Status)
	out := buf.String()
	assert.Contains(t, out, "operation=analytics.analyze")
	assert.Contains(t, out, "rows=3")
	assert.Contains(t, out, "error=boom")
}

func TestNewLoggerTo_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "sku", "A-1")

	out := strings.TrimSpace(buf.String())
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"sku":"A-1"`)
}

func TestLoggerFrom_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithRequestID(context.Background(), "req-42")
	LoggerFrom(ctx, logger).Info("hello")

	assert.Equal(t, "req-42", GetRequestID(ctx))
	assert.Contains(t, buf.String(), "request_id=req-42")
}
