package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any

	err := json.Unmarshal(buf.Bytes(), &record)
	require.NoError(t, err)

	return record
}

func TestLogHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewLogHandler(inner, "test-svc", "test", observability.ModeLSP))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.InfoContext(ctx, "document opened")

	record := decodeRecord(t, &buf)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["trace_id"])
	assert.Equal(t, "0102030405060708", record["span_id"])
	assert.Equal(t, "test-svc", record["service"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "lsp", record["mode"])
}

func TestLogHandler_NoTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewLogHandler(inner, "rotalsp", "", observability.ModeMCP))

	logger.Info("no span")

	record := decodeRecord(t, &buf)
	assert.NotContains(t, record, "trace_id")
	assert.NotContains(t, record, "span_id")
	assert.NotContains(t, record, "env")
	assert.Equal(t, "mcp", record["mode"])
}

func TestLogHandler_GroupKeepsServiceAtTopLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewLogHandler(inner, "rotalsp", "", observability.ModeCLI)).
		WithGroup("names").
		With("records", 3)

	logger.Info("loaded")

	record := decodeRecord(t, &buf)
	assert.Equal(t, "rotalsp", record["service"])

	group, ok := record["names"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3, group["records"], 0)
}

func TestLogHandler_EnabledDelegates(t *testing.T) {
	t.Parallel()

	inner := slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := observability.NewLogHandler(inner, "rotalsp", "", observability.ModeCLI)

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
}

func TestLogHandler_ClipsLongStrings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, nil)
	profile := strings.Repeat("é", 400)
	logger := slog.New(observability.NewLogHandler(inner, "rotalsp", "", observability.ModeLSP)).
		With("preset", profile)

	logger.Info("didOpen", "text", profile, slog.Group("doc", "body", profile), "lines", 800)

	record := decodeRecord(t, &buf)

	for _, value := range []any{record["preset"], record["text"], record["doc"].(map[string]any)["body"]} {
		text, ok := value.(string)
		require.True(t, ok)
		assert.LessOrEqual(t, len(text), 256+len("…"))
		assert.True(t, strings.HasSuffix(text, "…"))
		assert.True(t, utf8.ValidString(text))
	}

	assert.InDelta(t, 800, record["lines"], 0)
}
