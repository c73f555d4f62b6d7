package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
)

// ServeMetricsOn exposes serveMetrics for tests that need an ephemeral listener.
func ServeMetricsOn(ctx context.Context, listener net.Listener, handler http.Handler, logger *slog.Logger, checks ...ReadyCheck) error {
	return serveMetrics(ctx, listener, handler, logger, checks)
}

// ParseRatio exposes parseRatio for tests.
var ParseRatio = parseRatio
