package names_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rotalsp/pkg/names"
)

const spellsCSV = `id,name
122,Frost Nova
133,Fireball
116,Frostbolt
2139,Counterspell
`

func writeSource(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func loadedDictionary(t *testing.T) *names.Dictionary {
	t.Helper()

	dict := names.New()

	count, err := dict.LoadReader(strings.NewReader(spellsCSV), names.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, 4, count)

	return dict
}

func TestIsValid_FailOpenBeforeLoad(t *testing.T) {
	t.Parallel()

	dict := names.New()

	assert.False(t, dict.Loaded())
	assert.True(t, dict.IsValid("anything"))
	assert.True(t, dict.IsValid(""))
}

func TestIsValid_NormalizesQueries(t *testing.T) {
	t.Parallel()

	dict := loadedDictionary(t)

	assert.True(t, dict.Loaded())
	assert.True(t, dict.IsValid("frost_nova"))
	assert.True(t, dict.IsValid("frost nova"))
	assert.True(t, dict.IsValid("Frost Nova"))
	assert.False(t, dict.IsValid("frost_novas"))
	assert.False(t, dict.IsValid(""))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	dict := loadedDictionary(t)

	rec, ok := dict.Lookup("fireball")
	require.True(t, ok)
	assert.Equal(t, int64(133), rec.ID)
	assert.Equal(t, "Fireball", rec.Name)

	_, ok = dict.Lookup("pyroblast")
	assert.False(t, ok)
}

func TestSearch_InsertionOrderAndLimit(t *testing.T) {
	t.Parallel()

	dict := loadedDictionary(t)

	found := dict.Search("fro", 0)
	require.Len(t, found, 2)
	assert.Equal(t, "Frost Nova", found[0].Name)
	assert.Equal(t, "Frostbolt", found[1].Name)

	assert.Len(t, dict.Search("fro", 1), 1)

	// Display-name substring match.
	found = dict.Search("SPELL", 10)
	require.Len(t, found, 1)
	assert.Equal(t, "Counterspell", found[0].Name)

	assert.Len(t, dict.Search("", 0), 4)
	assert.Empty(t, dict.Search("zzz", 5))
}

func TestFindSimilar(t *testing.T) {
	t.Parallel()

	dict := loadedDictionary(t)

	similar := dict.FindSimilar("frost_nov", names.DefaultSimilarDistance)
	require.NotEmpty(t, similar)
	assert.Equal(t, "frost_nova", similar[0].Key)

	assert.Empty(t, dict.FindSimilar("completely_unrelated_xyz", names.DefaultSimilarDistance))
	assert.Empty(t, dict.FindSimilar("fireball", names.DefaultSimilarDistance), "exact matches are excluded")
	assert.Empty(t, dict.FindSimilar("frost_nov", 0))
}

func TestFindSimilar_CapsAtFive(t *testing.T) {
	t.Parallel()

	var sb strings.Builder

	sb.WriteString("id,name\n")

	for _, suffix := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		sb.WriteString("1,Bolt" + suffix + "\n")
	}

	dict := names.New()
	_, err := dict.LoadReader(strings.NewReader(sb.String()), names.FormatCSV)
	require.NoError(t, err)

	similar := dict.FindSimilar("bolt", 1)
	require.Len(t, similar, names.MaxSimilar)
	assert.Equal(t, "bolta", similar[0].Key)
	assert.Equal(t, "bolte", similar[4].Key)
}

func TestFindSimilar_Memoised(t *testing.T) {
	t.Parallel()

	dict := loadedDictionary(t)

	first := dict.FindSimilar("firebal", 2)
	second := dict.FindSimilar("Firebal", 2)

	assert.Equal(t, first, second)

	stats := dict.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestLoad_MergesCumulatively(t *testing.T) {
	t.Parallel()

	first := writeSource(t, "first.csv", "id,name\n1,Fireball\n2,Frostbolt\n")
	second := writeSource(t, "second.csv", "id,name\n3,Pyroblast\n20,fireball\n")

	dict := names.New()

	count, err := dict.Load(context.Background(), first, second)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 3, dict.Len())

	rec, ok := dict.Lookup("Fireball")
	require.True(t, ok)
	assert.Equal(t, int64(20), rec.ID, "last loaded wins")
	assert.Equal(t, "fireball", dict.Records()[0].Key, "replacement keeps its position")

	third := writeSource(t, "third.csv", "id,name\n4,Scorch\n")

	_, err = dict.Load(context.Background(), third)
	require.NoError(t, err)
	assert.Equal(t, 4, dict.Len())
}

func TestReload_ReplacesTable(t *testing.T) {
	t.Parallel()

	first := writeSource(t, "first.csv", "id,name\n1,Fireball\n")
	second := writeSource(t, "second.csv", "id,name\n2,Frostbolt\n")

	dict := names.New()

	_, err := dict.Load(context.Background(), first)
	require.NoError(t, err)

	count, err := dict.Reload(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, dict.IsValid("fireball"))
	assert.True(t, dict.IsValid("frostbolt"))
}

func TestReload_FailureLeavesDictionaryFailOpen(t *testing.T) {
	t.Parallel()

	dict := loadedDictionary(t)

	count, err := dict.Reload(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, names.ErrSourceNotFound)
	assert.Zero(t, count)
	assert.Zero(t, dict.Len())
	assert.False(t, dict.Loaded())
	assert.True(t, dict.IsValid("anything"))
}

func TestLoad_PartialFailure(t *testing.T) {
	t.Parallel()

	good := writeSource(t, "good.csv", spellsCSV)
	bad := writeSource(t, "bad.csv", "spell,label\n1,x\n")
	missing := filepath.Join(t.TempDir(), "missing.csv")

	dict := names.New()

	count, err := dict.Load(context.Background(), good, bad, missing)
	require.ErrorIs(t, err, names.ErrMissingColumns)
	require.ErrorIs(t, err, names.ErrSourceNotFound)
	assert.Equal(t, 4, count)
	assert.True(t, dict.Loaded())
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dict := names.New()

	_, err := dict.Load(ctx, writeSource(t, "s.csv", spellsCSV))
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, dict.Loaded())
}

func TestDictionary_ConcurrentReadsDuringReload(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "s.csv", spellsCSV)
	dict := names.New(names.WithCacheSize(8))

	_, err := dict.Load(context.Background(), path)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 50 {
				dict.IsValid("fireball")
				dict.FindSimilar("firebal", 2)
				dict.Search("f", 3)
			}
		}()
	}

	for range 10 {
		_, reloadErr := dict.Reload(context.Background(), path)
		assert.NoError(t, reloadErr)
	}

	wg.Wait()

	assert.True(t, dict.IsValid("fireball"))
}
