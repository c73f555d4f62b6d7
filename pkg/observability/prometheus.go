package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	metricsPath       = "/metrics"
	readHeaderTimeout = 5 * time.Second
	serverStopTimeout = 2 * time.Second
)

// newPrometheusReader creates an OTel metric reader backed by a private
// Prometheus registry and the handler that serves it.
func newPrometheusReader() (sdkmetric.Reader, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// ServeMetrics serves handler under /metrics, plus /healthz and /readyz
// probes, on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger, checks ...ReadyCheck) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	return serveMetrics(ctx, listener, handler, logger, checks)
}

func serveMetrics(ctx context.Context, listener net.Listener, handler http.Handler, logger *slog.Logger, checks []ReadyCheck) error {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, handler)
	mux.Handle(healthzPath, healthHandler())
	mux.Handle(readyzPath, readyHandler(checks))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), serverStopTimeout)
		defer cancel()

		shutdownErr := srv.Shutdown(stopCtx)
		if shutdownErr != nil {
			logger.Warn("metrics server shutdown", "error", shutdownErr)
		}
	}()

	logger.Info("serving metrics", "addr", listener.Addr().String(), "path", metricsPath)

	err := srv.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	return nil
}
