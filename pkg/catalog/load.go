package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultData []byte

//go:embed schema.json
var schemaData []byte

// ErrInvalidCatalog indicates a catalog file that does not satisfy the schema.
var ErrInvalidCatalog = errors.New("invalid catalog")

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) { //nolint:gochecknoglobals // immutable, built once
	return Parse(defaultData)
})

// Default returns the built-in catalog. The value is shared and immutable.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// Parse decodes a YAML catalog document without schema validation.
func Parse(data []byte) (*Catalog, error) {
	var doc Document

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return New(doc), nil
}

// Validate checks a YAML catalog document against the catalog JSON schema.
func Validate(data []byte) error {
	var raw any

	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	if raw == nil {
		raw = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
}

// Load reads, validates and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	err = Validate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return Parse(data)
}

// Merge returns a catalog holding every entry of base, with entries of
// overlay replacing base entries of the same key and appending new ones.
// The overlay version wins when set.
func Merge(base, overlay *Catalog) *Catalog {
	doc := base.Document()
	extra := overlay.Document()

	if extra.Version != "" {
		doc.Version = extra.Version
	}

	doc.SharedLists = append(doc.SharedLists, extra.SharedLists...)
	doc.SharedConfig = append(doc.SharedConfig, extra.SharedConfig...)
	doc.SpecialActions = append(doc.SpecialActions, extra.SpecialActions...)
	doc.StepOptions = append(doc.StepOptions, extra.StepOptions...)
	doc.Expressions = append(doc.Expressions, extra.Expressions...)

	return New(doc)
}
