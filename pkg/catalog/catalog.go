// Package catalog holds the static expression dictionary of the rotation DSL:
// the canonical expression patterns with their documentation, the step-option
// catalog (action-line modifiers) and the special-action catalog (non-spell
// action keywords).
//
// A Catalog is immutable once built and is passed explicitly to the resolver,
// validator and assistant, so tests can substitute small fixture catalogs.
package catalog

import "slices"

// Placeholder segments used in expression patterns.
const (
	PlaceholderSpell  = "SPELL"
	PlaceholderTalent = "TALENT"
	PlaceholderVar    = "VARNAME"
	PlaceholderIndex  = "N"
)

// Entry documents one canonical expression pattern.
type Entry struct {
	Pattern     string `json:"pattern"           yaml:"pattern"`
	Category    string `json:"category"          yaml:"category"`
	Description string `json:"description"       yaml:"description"`
	Example     string `json:"example,omitempty" yaml:"example,omitempty"`
}

// StepOption documents one action-line modifier (`key=value`).
type StepOption struct {
	Name        string   `json:"name"               yaml:"name"`
	Description string   `json:"description"        yaml:"description"`
	Values      []string `json:"values,omitempty"   yaml:"values,omitempty"`
	Template    string   `json:"template,omitempty" yaml:"template,omitempty"`

	// Condition marks options whose value is a boolean condition.
	Condition bool `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// SpecialAction documents an action keyword that is not a spell name.
type SpecialAction struct {
	Name        string `json:"name"        yaml:"name"`
	Description string `json:"description" yaml:"description"`

	// RequiresList marks actions that take a mandatory name= action list.
	RequiresList bool `json:"requires_list,omitempty" yaml:"requires_list,omitempty"`
}

// Document is the serialized form of a catalog.
type Document struct {
	Version        string          `json:"version"         yaml:"version"`
	SharedLists    []string        `json:"shared_lists"    yaml:"shared_lists"`
	SharedConfig   []string        `json:"shared_config"   yaml:"shared_config"`
	SpecialActions []SpecialAction `json:"special_actions" yaml:"special_actions"`
	StepOptions    []StepOption    `json:"step_options"    yaml:"step_options"`
	Expressions    []Entry         `json:"expressions"     yaml:"expressions"`
}

// Catalog is the immutable, indexed form of a Document.
type Catalog struct {
	version string

	entries      []Entry
	entryIndex   map[string]int
	options      []StepOption
	optionIndex  map[string]int
	actions      []SpecialAction
	actionIndex  map[string]int
	sharedLists  []string
	sharedConfig []string
}

// New indexes doc. Later duplicates of a pattern, option or action replace
// earlier ones in place.
func New(doc Document) *Catalog {
	cat := &Catalog{
		version:     doc.Version,
		entryIndex:  make(map[string]int, len(doc.Expressions)),
		optionIndex: make(map[string]int, len(doc.StepOptions)),
		actionIndex: make(map[string]int, len(doc.SpecialActions)),
	}

	for _, entry := range doc.Expressions {
		if idx, ok := cat.entryIndex[entry.Pattern]; ok {
			cat.entries[idx] = entry

			continue
		}

		cat.entryIndex[entry.Pattern] = len(cat.entries)
		cat.entries = append(cat.entries, entry)
	}

	for _, opt := range doc.StepOptions {
		if idx, ok := cat.optionIndex[opt.Name]; ok {
			cat.options[idx] = opt

			continue
		}

		cat.optionIndex[opt.Name] = len(cat.options)
		cat.options = append(cat.options, opt)
	}

	for _, action := range doc.SpecialActions {
		if idx, ok := cat.actionIndex[action.Name]; ok {
			cat.actions[idx] = action

			continue
		}

		cat.actionIndex[action.Name] = len(cat.actions)
		cat.actions = append(cat.actions, action)
	}

	cat.sharedLists = dedupe(doc.SharedLists)
	cat.sharedConfig = dedupe(doc.SharedConfig)

	return cat
}

// Version returns the catalog data version.
func (c *Catalog) Version() string { return c.version }

// Lookup returns the entry whose pattern equals pattern verbatim.
func (c *Catalog) Lookup(pattern string) (Entry, bool) {
	idx, ok := c.entryIndex[pattern]
	if !ok {
		return Entry{}, false
	}

	return c.entries[idx], true
}

// Entries returns all expression entries in catalog order.
func (c *Catalog) Entries() []Entry { return slices.Clone(c.entries) }

// StepOption returns the step option named name.
func (c *Catalog) StepOption(name string) (StepOption, bool) {
	idx, ok := c.optionIndex[name]
	if !ok {
		return StepOption{}, false
	}

	return c.options[idx], true
}

// StepOptions returns all step options in catalog order.
func (c *Catalog) StepOptions() []StepOption { return slices.Clone(c.options) }

// SpecialAction returns the special action named name.
func (c *Catalog) SpecialAction(name string) (SpecialAction, bool) {
	idx, ok := c.actionIndex[name]
	if !ok {
		return SpecialAction{}, false
	}

	return c.actions[idx], true
}

// SpecialActions returns all special actions in catalog order.
func (c *Catalog) SpecialActions() []SpecialAction { return slices.Clone(c.actions) }

// SharedLists returns the action-list names available to every document.
func (c *Catalog) SharedLists() []string { return slices.Clone(c.sharedLists) }

// HasSharedList reports whether name is a shared action list.
func (c *Catalog) HasSharedList(name string) bool { return slices.Contains(c.sharedLists, name) }

// SharedConfigKeys returns the config keys available to every document.
func (c *Catalog) SharedConfigKeys() []string { return slices.Clone(c.sharedConfig) }

// HasSharedConfig reports whether key is a shared config key.
func (c *Catalog) HasSharedConfig(key string) bool { return slices.Contains(c.sharedConfig, key) }

// Document returns the serializable form of the catalog.
func (c *Catalog) Document() Document {
	return Document{
		Version:        c.version,
		SharedLists:    c.SharedLists(),
		SharedConfig:   c.SharedConfigKeys(),
		SpecialActions: c.SpecialActions(),
		StepOptions:    c.StepOptions(),
		Expressions:    c.Entries(),
	}
}

// IsPlaceholder reports whether s is a name placeholder (SPELL, TALENT or
// VARNAME). Such literals mark unfilled template slots, not references.
func IsPlaceholder(s string) bool {
	switch s {
	case PlaceholderSpell, PlaceholderTalent, PlaceholderVar:
		return true
	default:
		return false
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}

		seen[value] = struct{}{}
		out = append(out, value)
	}

	return out
}
