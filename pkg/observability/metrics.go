package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "rotalsp.requests.total"
	metricRequestDuration  = "rotalsp.request.duration.seconds"
	metricErrorsTotal      = "rotalsp.errors.total"
	metricInflightRequests = "rotalsp.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK marks a request that completed normally.
	StatusOK = "ok"
	// StatusError marks a request that failed.
	StatusError = "error"
)

// durationBucketBoundaries covers 100µs to 5s: editor requests are
// sub-millisecond while dictionary reloads can take seconds.
var durationBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5}

// REDMetrics records rate, errors and duration per operation.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates the request instruments shared by every mode.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	builder := newMetricBuilder(mt)

	red := &REDMetrics{
		requestsTotal:    builder.counter(metricRequestsTotal, "Editor and tool requests handled", "{request}"),
		requestDuration:  builder.histogram(metricRequestDuration, "Request latency", "s", durationBucketBoundaries),
		errorsTotal:      builder.counter(metricErrorsTotal, "Requests that failed", "{error}"),
		inflightRequests: builder.upDownCounter(metricInflightRequests, "Requests in progress", "{request}"),
	}

	if builder.err != nil {
		return nil, builder.err
	}

	return red, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOp, op),
		))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// Observe tracks op as in flight and returns a function that records its
// outcome once the caller knows the error.
func (rm *REDMetrics) Observe(ctx context.Context, op string) func(err error) {
	start := time.Now()
	done := rm.TrackInflight(ctx, op)

	return func(err error) {
		done()

		status := StatusOK
		if err != nil {
			status = StatusError
		}

		rm.RecordRequest(ctx, op, status, time.Since(start))
	}
}
