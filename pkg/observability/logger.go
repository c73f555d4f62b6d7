package observability

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"

	// maxLogValueLen bounds string attribute values in bytes. Editors send
	// whole profiles as request parameters.
	maxLogValueLen = 256
	clipMarker     = "…"
)

// LogHandler is an [slog.Handler] that stamps records with the active span
// and the service identity, and clips oversized string values.
// Service attributes are attached before any WithGroup call so they stay at
// the top level.
type LogHandler struct {
	inner slog.Handler
}

// NewLogHandler wraps inner with span stamping, service metadata and
// value clipping.
func NewLogHandler(inner slog.Handler, service, env string, mode AppMode) *LogHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(mode)),
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &LogHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle clips the record's attributes, adds the span context and delegates.
func (h *LogHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(clipAttr(attr))

		return true
	})

	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		out.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	err := h.inner.Handle(ctx, out)
	if err != nil {
		return fmt.Errorf("log handler: %w", err)
	}

	return nil
}

// WithAttrs clips attrs and attaches them to the inner handler.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clipped := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		clipped[i] = clipAttr(attr)
	}

	return &LogHandler{inner: h.inner.WithAttrs(clipped)}
}

// WithGroup opens a group on the inner handler.
func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{inner: h.inner.WithGroup(name)}
}

func clipAttr(attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()

	switch value.Kind() {
	case slog.KindString:
		return slog.String(attr.Key, clipString(value.String()))
	case slog.KindGroup:
		group := value.Group()

		clipped := make([]any, len(group))
		for i, member := range group {
			clipped[i] = clipAttr(member)
		}

		return slog.Group(attr.Key, clipped...)
	default:
		return slog.Attr{Key: attr.Key, Value: value}
	}
}

// clipString cuts s to maxLogValueLen bytes on a rune boundary.
func clipString(s string) string {
	if len(s) <= maxLogValueLen {
		return s
	}

	cut := maxLogValueLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + clipMarker
}
