// Package symbols builds the document-local symbol table of a rotation
// profile: the lists, config keys and variables it declares. The scan is
// purely positional (column 0 sections, two-space entries) so it works on
// documents that are not valid YAML.
package symbols

import (
	"regexp"
	"slices"
	"strings"
)

// Section identifies the root-level section a line belongs to.
type Section uint8

const (
	// SectionNone is any line outside the tracked sections.
	SectionNone Section = iota
	// SectionLists holds action list declarations.
	SectionLists
	// SectionConfig holds config key declarations.
	SectionConfig
	// SectionVariables holds variable definitions.
	SectionVariables
)

// String returns the section's root key.
func (s Section) String() string {
	switch s {
	case SectionLists:
		return "lists"
	case SectionConfig:
		return "config"
	case SectionVariables:
		return "variables"
	case SectionNone:
	}

	return ""
}

// Set is a set of identifiers.
type Set map[string]struct{}

// Has reports whether name is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]

	return ok
}

// Add inserts name.
func (s Set) Add(name string) { s[name] = struct{}{} }

// Len returns the number of identifiers.
func (s Set) Len() int { return len(s) }

// Sorted returns the identifiers in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}

	slices.Sort(out)

	return out
}

// Definition is the position of one declared identifier.
type Definition struct {
	Line int
	// ValueStart is the column of a variable's value expression, -1 otherwise.
	ValueStart int
}

// Table is the symbol table of one document snapshot.
type Table struct {
	Lists     Set
	Config    Set
	Variables Set

	sections    []Section
	definitions map[Section]map[string]Definition
	values      map[int]int
}

var (
	rootKey       = regexp.MustCompile(`^[a-z_]+:`)                                 //nolint:gochecknoglobals // compiled once
	blockEntry    = regexp.MustCompile(`^  ([A-Za-z_][A-Za-z0-9_]*):\s*$`)          //nolint:gochecknoglobals // compiled once
	variableEntry = regexp.MustCompile(`^  ([A-Za-z_][A-Za-z0-9_]*):[ \t]*(\S.*)$`) //nolint:gochecknoglobals // compiled once
)

// Build scans lines once and collects the declared symbols.
func Build(lines []string) *Table {
	tbl := &Table{
		Lists:     Set{},
		Config:    Set{},
		Variables: Set{},
		sections:  make([]Section, len(lines)),
		definitions: map[Section]map[string]Definition{
			SectionLists:     {},
			SectionConfig:    {},
			SectionVariables: {},
		},
		values: map[int]int{},
	}

	current := SectionNone

	for idx, raw := range lines {
		line := strings.TrimRight(raw, "\r")

		switch line {
		case "lists:":
			current = SectionLists
		case "config:":
			current = SectionConfig
		case "variables:":
			current = SectionVariables
		default:
			if rootKey.MatchString(line) {
				current = SectionNone
			}
		}

		tbl.sections[idx] = current

		switch current {
		case SectionLists:
			tbl.addBlockEntry(tbl.Lists, current, idx, line)
		case SectionConfig:
			tbl.addBlockEntry(tbl.Config, current, idx, line)
		case SectionVariables:
			loc := variableEntry.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}

			name := line[loc[2]:loc[3]]
			tbl.Variables.Add(name)
			tbl.definitions[current][name] = Definition{Line: idx, ValueStart: loc[4]}
			tbl.values[idx] = loc[4]
		case SectionNone:
		}
	}

	return tbl
}

func (t *Table) addBlockEntry(set Set, section Section, idx int, line string) {
	match := blockEntry.FindStringSubmatch(line)
	if match == nil {
		return
	}

	set.Add(match[1])
	t.definitions[section][match[1]] = Definition{Line: idx, ValueStart: -1}
}

// SectionAt returns the section containing line.
func (t *Table) SectionAt(line int) Section {
	if line < 0 || line >= len(t.sections) {
		return SectionNone
	}

	return t.sections[line]
}

// VariableValue returns the column where the variable defined on line starts
// its value expression.
func (t *Table) VariableValue(line int) (int, bool) {
	col, ok := t.values[line]

	return col, ok
}

// DefinitionOf returns where name is declared in section.
func (t *Table) DefinitionOf(section Section, name string) (Definition, bool) {
	def, ok := t.definitions[section][name]

	return def, ok
}
