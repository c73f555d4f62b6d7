package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.REDMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	red, err := observability.NewREDMetrics(meter)
	require.NoError(t, err)

	return red, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64] data")

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	red.RecordRequest(ctx, "hover", observability.StatusOK, time.Millisecond)

	rm := collectMetrics(t, reader)

	reqTotal := findMetric(rm, "rotalsp.requests.total")
	require.NotNil(t, reqTotal, "rotalsp.requests.total metric not found")
	assert.Equal(t, int64(1), sumValue(t, reqTotal))

	reqDuration := findMetric(rm, "rotalsp.request.duration.seconds")
	require.NotNil(t, reqDuration, "rotalsp.request.duration.seconds metric not found")

	assert.Nil(t, findMetric(rm, "rotalsp.errors.total"))
}

func TestREDMetrics_RecordRequestError(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	red.RecordRequest(ctx, "reload", observability.StatusError, time.Second)

	rm := collectMetrics(t, reader)

	errTotal := findMetric(rm, "rotalsp.errors.total")
	require.NotNil(t, errTotal, "rotalsp.errors.total metric not found")
	assert.Equal(t, int64(1), sumValue(t, errTotal))
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	done := red.TrackInflight(ctx, "validate")

	rm := collectMetrics(t, reader)

	inflight := findMetric(rm, "rotalsp.inflight.requests")
	require.NotNil(t, inflight, "rotalsp.inflight.requests metric not found")
	assert.Equal(t, int64(1), sumValue(t, inflight))

	done()

	rm = collectMetrics(t, reader)
	inflight = findMetric(rm, "rotalsp.inflight.requests")
	require.NotNil(t, inflight)
	assert.Equal(t, int64(0), sumValue(t, inflight))
}

func TestREDMetrics_Observe(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	red.Observe(ctx, "complete")(nil)
	red.Observe(ctx, "complete")(errors.New("boom"))

	rm := collectMetrics(t, reader)

	reqTotal := findMetric(rm, "rotalsp.requests.total")
	require.NotNil(t, reqTotal)
	assert.Equal(t, int64(2), sumValue(t, reqTotal))

	errTotal := findMetric(rm, "rotalsp.errors.total")
	require.NotNil(t, errTotal)
	assert.Equal(t, int64(1), sumValue(t, errTotal))

	inflight := findMetric(rm, "rotalsp.inflight.requests")
	require.NotNil(t, inflight)
	assert.Equal(t, int64(0), sumValue(t, inflight))
}

func TestNewREDMetrics_WithNoopMeter(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	red, err := observability.NewREDMetrics(providers.Meter)
	require.NoError(t, err)
	assert.NotNil(t, red)

	red.RecordRequest(context.Background(), "test", observability.StatusOK, time.Millisecond)
}
