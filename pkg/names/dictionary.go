package names

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/rotalsp/pkg/levenshtein"
	"github.com/Sumatoshi-tech/rotalsp/pkg/lru"
)

const (
	// DefaultSimilarDistance is the edit distance used for suggestions.
	DefaultSimilarDistance = 2
	// MaxSimilar caps the number of records FindSimilar returns.
	MaxSimilar = 5
	// DefaultCacheSize is the number of memoised FindSimilar queries per table.
	DefaultCacheSize = 1024

	maxParallelSources = 4
)

type similarKey struct {
	key      string
	distance int
}

// table is an immutable snapshot of the dictionary. Only the memo cache
// mutates, and it is internally synchronized.
type table struct {
	records []Record
	index   map[string]int
	similar *lru.Cache[similarKey, []Record]
}

func newTable(capacity, cacheSize int) *table {
	return &table{
		records: make([]Record, 0, capacity),
		index:   make(map[string]int, capacity),
		similar: lru.New[similarKey, []Record](cacheSize),
	}
}

// merge adds recs in order. A record whose key already exists replaces the
// earlier one in its original position.
func (t *table) merge(recs []Record) {
	for _, rec := range recs {
		if rec.Key == "" {
			continue
		}

		if idx, ok := t.index[rec.Key]; ok {
			t.records[idx] = rec

			continue
		}

		t.index[rec.Key] = len(t.records)
		t.records = append(t.records, rec)
	}
}

// Dictionary holds the current name table. Readers never block: the table is
// swapped atomically by Load and Reload, which are serialized among
// themselves.
type Dictionary struct {
	mu        sync.Mutex
	current   atomic.Pointer[table]
	loaded    atomic.Bool
	cacheSize int
}

// Option configures a Dictionary.
type Option func(*Dictionary)

// WithCacheSize sets how many FindSimilar results are memoised per table.
func WithCacheSize(size int) Option {
	return func(d *Dictionary) {
		if size > 0 {
			d.cacheSize = size
		}
	}
}

// New creates an empty dictionary. Until a source loads successfully every
// name is considered valid.
func New(opts ...Option) *Dictionary {
	dict := &Dictionary{cacheSize: DefaultCacheSize}

	for _, opt := range opts {
		opt(dict)
	}

	dict.current.Store(newTable(0, dict.cacheSize))

	return dict
}

// Load parses the given sources and merges them into the current table.
// Sources are read concurrently and merged in argument order. It returns the
// number of records read from the sources that loaded; failures of
// individual sources are joined into the returned error.
func (d *Dictionary) Load(ctx context.Context, paths ...string) (int, error) {
	return d.load(ctx, false, paths)
}

// Reload clears the dictionary and rebuilds it from the given sources. When
// no source loads, the dictionary is left empty and fail-open.
func (d *Dictionary) Reload(ctx context.Context, paths ...string) (int, error) {
	return d.load(ctx, true, paths)
}

// LoadReader merges the records of one source read from r.
func (d *Dictionary) LoadReader(r io.Reader, format Format) (int, error) {
	recs, err := Parse(r, format)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.extend(d.current.Load(), false)
	next.merge(recs)
	d.current.Store(next)
	d.loaded.Store(true)

	return len(recs), nil
}

func (d *Dictionary) load(ctx context.Context, replace bool, paths []string) (int, error) {
	results := make([][]Record, len(paths))
	errs := make([]error, len(paths))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallelSources)

	for idx, path := range paths {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[idx], errs[idx] = ReadFile(path)

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return 0, fmt.Errorf("load names: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.extend(d.current.Load(), replace)
	count := 0
	ok := false

	for idx, recs := range results {
		if errs[idx] != nil {
			continue
		}

		next.merge(recs)

		count += len(recs)
		ok = true
	}

	d.current.Store(next)

	switch {
	case ok:
		d.loaded.Store(true)
	case replace:
		d.loaded.Store(false)
	}

	return count, errors.Join(errs...)
}

// extend returns a fresh table, seeded with base unless replace is set.
func (d *Dictionary) extend(base *table, replace bool) *table {
	if replace {
		return newTable(0, d.cacheSize)
	}

	next := newTable(len(base.records), d.cacheSize)
	next.records = append(next.records, base.records...)

	for key, idx := range base.index {
		next.index[key] = idx
	}

	return next
}

// Loaded reports whether a source has been loaded successfully.
func (d *Dictionary) Loaded() bool { return d.loaded.Load() }

// Len returns the number of records in the current table.
func (d *Dictionary) Len() int { return len(d.current.Load().records) }

// Records returns a copy of the current records in insertion order.
func (d *Dictionary) Records() []Record { return slices.Clone(d.current.Load().records) }

// CacheStats reports the FindSimilar memo statistics of the current table.
func (d *Dictionary) CacheStats() lru.Stats { return d.current.Load().similar.Stats() }

// IsValid reports whether name is known. Before any successful load every
// name is valid.
func (d *Dictionary) IsValid(name string) bool {
	if !d.loaded.Load() {
		return true
	}

	_, ok := d.Lookup(name)

	return ok
}

// Lookup returns the record whose key equals the normalized name.
func (d *Dictionary) Lookup(name string) (Record, bool) {
	key := Normalize(name)
	if key == "" {
		return Record{}, false
	}

	tbl := d.current.Load()

	idx, ok := tbl.index[key]
	if !ok {
		return Record{}, false
	}

	return tbl.records[idx], true
}

// Search returns records whose key starts with the normalized prefix or whose
// display name contains prefix case-insensitively, in insertion order. It
// stops after limit records; limit <= 0 means no limit.
func (d *Dictionary) Search(prefix string, limit int) []Record {
	keyPrefix := Normalize(prefix)
	lowered := strings.ToLower(prefix)

	var out []Record

	for _, rec := range d.current.Load().records {
		if !strings.HasPrefix(rec.Key, keyPrefix) &&
			(lowered == "" || !strings.Contains(strings.ToLower(rec.Name), lowered)) {
			continue
		}

		out = append(out, rec)

		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out
}

// FindSimilar returns up to MaxSimilar records within maxDistance edits of
// the normalized name, excluding exact matches, in table order.
func (d *Dictionary) FindSimilar(name string, maxDistance int) []Record {
	key := Normalize(name)
	if key == "" || maxDistance <= 0 {
		return nil
	}

	tbl := d.current.Load()
	memo := similarKey{key: key, distance: maxDistance}

	if cached, ok := tbl.similar.Get(memo); ok {
		return slices.Clone(cached)
	}

	var (
		dist levenshtein.Context
		out  []Record
	)

	for _, rec := range tbl.records {
		edits := dist.DistanceAtMost(key, rec.Key, maxDistance)
		if edits == 0 || edits > maxDistance {
			continue
		}

		out = append(out, rec)

		if len(out) == MaxSimilar {
			break
		}
	}

	tbl.similar.Put(memo, out)

	return slices.Clone(out)
}
