package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricDictionaryRecords = "rotalsp.names.records"
	metricDictionaryLoaded  = "rotalsp.names.loaded"
	metricSimilarHits       = "rotalsp.names.similar.cache.hits.total"
	metricSimilarMisses     = "rotalsp.names.similar.cache.misses.total"
	metricReloadsTotal      = "rotalsp.names.reloads.total"
)

// DictionaryStats is a point-in-time view of the name dictionary.
type DictionaryStats struct {
	Records       int
	Loaded        bool
	SimilarHits   int64
	SimilarMisses int64
}

// DictionaryMetrics exposes name dictionary size and similarity-cache
// efficiency as observable instruments.
type DictionaryMetrics struct {
	reloads metric.Int64Counter
	reg     metric.Registration
}

// NewDictionaryMetrics registers observable instruments that call stats on
// every collection.
func NewDictionaryMetrics(mt metric.Meter, stats func() DictionaryStats) (*DictionaryMetrics, error) {
	b := newMetricBuilder(mt)

	records := b.gauge(metricDictionaryRecords, "Records in the name dictionary", "{record}")
	loaded := b.gauge(metricDictionaryLoaded, "1 when a name source is loaded", "1")
	hits := b.observableCounter(metricSimilarHits, "Similarity lookups served from cache", "{lookup}")
	misses := b.observableCounter(metricSimilarMisses, "Similarity lookups computed", "{lookup}")
	reloads := b.counter(metricReloadsTotal, "Name dictionary reloads", "{reload}")

	if b.err != nil {
		return nil, b.err
	}

	reg, err := mt.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		st := stats()

		obs.ObserveInt64(records, int64(st.Records))
		obs.ObserveInt64(loaded, boolToInt64(st.Loaded))
		obs.ObserveInt64(hits, st.SimilarHits)
		obs.ObserveInt64(misses, st.SimilarMisses)

		return nil
	}, records, loaded, hits, misses)
	if err != nil {
		return nil, fmt.Errorf("register dictionary callback: %w", err)
	}

	return &DictionaryMetrics{reloads: reloads, reg: reg}, nil
}

// RecordReload counts a reload attempt with its outcome.
func (dm *DictionaryMetrics) RecordReload(ctx context.Context, err error) {
	if dm == nil {
		return
	}

	status := StatusOK
	if err != nil {
		status = StatusError
	}

	dm.reloads.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// Close unregisters the collection callback.
func (dm *DictionaryMetrics) Close() error {
	if dm == nil || dm.reg == nil {
		return nil
	}

	err := dm.reg.Unregister()
	if err != nil {
		return fmt.Errorf("unregister dictionary callback: %w", err)
	}

	return nil
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}

	return 0
}
