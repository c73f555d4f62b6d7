// Package engine wires the catalog, name dictionary, resolver, validator and
// assistant together from configuration. It is the one entry point shared by
// the CLI, the language server and the MCP server.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/rotalsp/pkg/assist"
	"github.com/Sumatoshi-tech/rotalsp/pkg/catalog"
	"github.com/Sumatoshi-tech/rotalsp/pkg/config"
	"github.com/Sumatoshi-tech/rotalsp/pkg/expr"
	"github.com/Sumatoshi-tech/rotalsp/pkg/names"
	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
	"github.com/Sumatoshi-tech/rotalsp/pkg/validate"
)

// ErrNoNameSources is returned by ReloadNames when no source is configured.
var ErrNoNameSources = errors.New("no name sources configured")

const (
	opValidate    = "validate"
	opHover       = "hover"
	opComplete    = "complete"
	opDescribe    = "describe"
	opReloadNames = "reload_names"
)

// Deps carries the optional telemetry used by an Engine.
type Deps struct {
	Logger *slog.Logger
	Meter  metric.Meter
	Tracer trace.Tracer
}

// Engine answers validation, hover and completion requests for rotation
// profiles. It is safe for concurrent use.
type Engine struct {
	cfg       config.Config
	catalog   *catalog.Catalog
	names     *names.Dictionary
	resolver  *expr.Resolver
	validator *validate.Validator
	assistant *assist.Assistant

	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *observability.REDMetrics
	dictMetrics *observability.DictionaryMetrics

	mu     sync.Mutex
	notice string
}

// New builds an Engine from cfg. A catalog overlay that fails to load is an
// error; name sources that fail to load are logged and remembered as the
// load notice, leaving name checks fail-open.
func New(ctx context.Context, cfg config.Config, deps Deps) (*Engine, error) {
	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		cfg:     cfg,
		catalog: cat,
		names:   names.New(names.WithCacheSize(cfg.Names.CacheSize)),
		logger:  deps.Logger,
		tracer:  deps.Tracer,
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if eng.tracer == nil {
		eng.tracer = nooptrace.NewTracerProvider().Tracer("rotalsp")
	}

	eng.resolver = expr.NewResolver(cat, nil)
	eng.validator = validate.New(cat, eng.resolver, eng.names, validate.Options{
		MaxSuggestions:  cfg.Validation.MaxSuggestions,
		SimilarDistance: cfg.Names.SimilarDistance,
		MaxKnownHint:    cfg.Validation.MaxKnownHint,
	})
	eng.assistant = assist.New(cat, eng.resolver, eng.names, cfg.Names.SearchLimit)

	if deps.Meter != nil {
		err = eng.initMetrics(deps.Meter)
		if err != nil {
			return nil, err
		}
	}

	eng.logger.DebugContext(ctx, "catalog ready",
		"version", cat.Version(), "entries", len(cat.Entries()), "overlay", cfg.Catalog.Path != "")

	eng.loadNames(ctx)

	return eng, nil
}

func loadCatalog(overlay string) (*catalog.Catalog, error) {
	base, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load built-in catalog: %w", err)
	}

	if overlay == "" {
		return base, nil
	}

	extra, err := catalog.Load(overlay)
	if err != nil {
		return nil, fmt.Errorf("load catalog overlay: %w", err)
	}

	return catalog.Merge(base, extra), nil
}

func (e *Engine) initMetrics(meter metric.Meter) error {
	red, err := observability.NewREDMetrics(meter)
	if err != nil {
		return fmt.Errorf("create request metrics: %w", err)
	}

	dm, err := observability.NewDictionaryMetrics(meter, e.dictionaryStats)
	if err != nil {
		return fmt.Errorf("create dictionary metrics: %w", err)
	}

	e.metrics = red
	e.dictMetrics = dm

	return nil
}

func (e *Engine) dictionaryStats() observability.DictionaryStats {
	stats := e.names.CacheStats()

	return observability.DictionaryStats{
		Records:       e.names.Len(),
		Loaded:        e.names.Loaded(),
		SimilarHits:   stats.Hits,
		SimilarMisses: stats.Misses,
	}
}

// loadNames performs the initial load of the configured sources.
func (e *Engine) loadNames(ctx context.Context) {
	sources := e.cfg.Names.Sources
	if len(sources) == 0 {
		e.setNotice("No spell name source is configured; spell names are not checked.")
		e.logger.InfoContext(ctx, "no name sources configured")

		return
	}

	count, err := e.names.Load(ctx, sources...)
	e.afterLoad(ctx, count, err)
}

func (e *Engine) afterLoad(ctx context.Context, count int, err error) {
	e.dictMetrics.RecordReload(ctx, err)

	switch {
	case err == nil:
		e.setNotice("")
		e.logger.InfoContext(ctx, "names loaded", "records", count, "sources", len(e.cfg.Names.Sources))
	case e.names.Loaded():
		e.setNotice(fmt.Sprintf("Some spell name sources could not be loaded: %v", err))
		e.logger.WarnContext(ctx, "some name sources failed", "records", count, "error", err)
	default:
		e.setNotice(fmt.Sprintf("Spell names could not be loaded; spell names are not checked: %v", err))
		e.logger.WarnContext(ctx, "name sources failed", "error", err)
	}
}

func (e *Engine) setNotice(msg string) {
	e.mu.Lock()
	e.notice = msg
	e.mu.Unlock()
}

// LoadNotice returns a message describing the last name load problem, or ""
// when the configured sources loaded cleanly.
func (e *Engine) LoadNotice() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.notice
}

// ReloadNames replaces the name dictionary with the configured sources.
func (e *Engine) ReloadNames(ctx context.Context) (int, error) {
	ctx, finish := e.start(ctx, opReloadNames)

	sources := e.cfg.Names.Sources
	if len(sources) == 0 {
		finish(ErrNoNameSources)

		return 0, ErrNoNameSources
	}

	count, err := e.names.Reload(ctx, sources...)
	e.afterLoad(ctx, count, err)
	finish(err)

	if err != nil {
		return count, fmt.Errorf("reload names: %w", err)
	}

	return count, nil
}

// WatchNames reloads the dictionary whenever a configured source changes.
// It blocks until ctx is done and returns immediately when watching is
// disabled or no source is configured.
func (e *Engine) WatchNames(ctx context.Context) error {
	if !e.cfg.Names.Watch || len(e.cfg.Names.Sources) == 0 {
		return nil
	}

	reload := func(rctx context.Context) error {
		_, err := e.ReloadNames(rctx)

		return err
	}

	return names.Watch(ctx, e.cfg.Names.Sources, reload, e.logger)
}

// Validate returns the findings for doc.
func (e *Engine) Validate(ctx context.Context, doc *Document) []validate.Finding {
	ctx, finish := e.start(ctx, opValidate)

	findings := e.validator.ValidateTable(doc.Lines, doc.Table)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("rotalsp.lines", len(doc.Lines)),
		attribute.Int("rotalsp.findings", len(findings)),
	)
	finish(nil)

	return findings
}

// Hover documents the token under the cursor.
func (e *Engine) Hover(ctx context.Context, doc *Document, line, col int) (assist.Doc, bool) {
	_, finish := e.start(ctx, opHover)
	defer finish(nil)

	text, ok := doc.Line(line)
	if !ok {
		return assist.Doc{}, false
	}

	return e.assistant.Hover(text, col, doc.Table)
}

// Complete returns completion items for the cursor position.
func (e *Engine) Complete(ctx context.Context, doc *Document, line, col int) []assist.Item {
	_, finish := e.start(ctx, opComplete)
	defer finish(nil)

	text, ok := doc.Line(line)
	if !ok {
		return nil
	}

	return e.assistant.Complete(text, line, col, doc.Table)
}

// Describe documents a single token outside of any document.
func (e *Engine) Describe(ctx context.Context, token string) (assist.Doc, bool) {
	_, finish := e.start(ctx, opDescribe)
	defer finish(nil)

	return e.assistant.Describe(token)
}

// SearchNames returns up to limit names whose key starts with prefix or whose
// display name contains it.
func (e *Engine) SearchNames(prefix string, limit int) []names.Record {
	return e.names.Search(prefix, limit)
}

// SimilarNames returns names within distance edits of name. A non-positive
// distance uses the configured one.
func (e *Engine) SimilarNames(name string, distance int) []names.Record {
	if distance <= 0 {
		distance = e.cfg.Names.SimilarDistance
	}

	return e.names.FindSimilar(name, distance)
}

// Names exposes the name dictionary.
func (e *Engine) Names() *names.Dictionary { return e.names }

// Catalog exposes the expression catalog in use.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Close releases metric registrations.
func (e *Engine) Close() error {
	stats := e.names.CacheStats()
	e.logger.Debug("engine closed",
		"similar_lookups", stats.Hits+stats.Misses, "similar_hit_rate", stats.HitRate())

	return e.dictMetrics.Close()
}

// start opens a span for op and returns a function that ends it and records
// RED metrics.
func (e *Engine) start(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := e.tracer.Start(ctx, "rotalsp."+op)

	var observe func(error)
	if e.metrics != nil {
		observe = e.metrics.Observe(ctx, op)
	}

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()

		if observe != nil {
			observe(err)
		}
	}
}
