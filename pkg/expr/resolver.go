package expr

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/rotalsp/pkg/catalog"
)

// Capture is one name extracted from a templated token.
type Capture struct {
	Slot  string // Placeholder the name was bound to (SPELL, TALENT, VARNAME or N).
	Name  string
	Start int // Byte offset of Name within the token.
	End   int

	// Placeholder is set when the captured text is itself a placeholder literal.
	Placeholder bool
	// Numeric is set when the captured text is a number, such as a raw spell ID.
	Numeric bool
}

// NeedsNameCheck reports whether the capture is a concrete spell or talent
// name that should be validated against the name dictionary.
func (c Capture) NeedsNameCheck() bool {
	if c.Placeholder || c.Numeric {
		return false
	}

	return c.Slot == catalog.PlaceholderSpell || c.Slot == catalog.PlaceholderTalent
}

// Match is the result of resolving a token.
type Match struct {
	Token       string
	Pattern     string // Generalized catalog key.
	Entry       catalog.Entry
	Shape       string // Empty for exact matches.
	Captures    []Capture
	Modifiers   Modifier
	Allowed     Modifier // Modifiers the matched shape accepts.
	Unit        string   // Unit of a call-form token.
	Description string   // Entry description with the captures substituted.
}

// Exact reports whether the token equals a catalog key verbatim.
func (m Match) Exact() bool { return m.Shape == "" }

// Resolver matches tokens against a catalog: exact keys first, then the
// templated shapes in order.
type Resolver struct {
	catalog *catalog.Catalog
	shapes  []Shape
}

// NewResolver creates a resolver. A nil shapes slice selects DefaultShapes.
func NewResolver(cat *catalog.Catalog, shapes []Shape) *Resolver {
	if shapes == nil {
		shapes = DefaultShapes()
	}

	return &Resolver{catalog: cat, shapes: shapes}
}

// Catalog returns the catalog the resolver reads documentation from.
func (r *Resolver) Catalog() *catalog.Catalog { return r.catalog }

// Resolve returns the best dictionary match for token. A false result only
// means the token is not a recognized expression.
func (r *Resolver) Resolve(token string) (Match, bool) {
	if entry, ok := r.catalog.Lookup(token); ok {
		return Match{Token: token, Pattern: token, Entry: entry, Description: entry.Description}, true
	}

	parsed, ok := parseToken(token)
	if !ok {
		return Match{}, false
	}

	for idx := range r.shapes {
		match, found := r.matchShape(&r.shapes[idx], token, parsed)
		if found {
			return match, true
		}
	}

	return Match{}, false
}

type part struct {
	text  string
	start int
}

type parsedToken struct {
	parts []part
	arg   part
	call  bool
	cycle bool
}

func parseToken(token string) (parsedToken, bool) {
	var parsed parsedToken

	head := token

	if open := strings.IndexByte(token, '('); open >= 0 {
		if open == 0 || !strings.HasSuffix(token, ")") {
			return parsed, false
		}

		arg := token[open+1 : len(token)-1]
		if !isName(arg) {
			return parsed, false
		}

		parsed.call = true
		parsed.arg = part{text: arg, start: open + 1}
		head = token[:open]
	}

	offset := 0

	for text := range strings.SplitSeq(head, ".") {
		if !isName(text) {
			return parsed, false
		}

		parsed.parts = append(parsed.parts, part{text: text, start: offset})
		offset += len(text) + 1
	}

	if len(parsed.parts) > 1 && parsed.parts[0].text == "cycle" {
		parsed.cycle = true
		parsed.parts = parsed.parts[1:]
	}

	return parsed, true
}

var suffixModifiers = []struct { //nolint:gochecknoglobals // static table
	text string
	mod  Modifier
}{
	{"any", ModAny},
	{"mine", ModMine},
}

func (r *Resolver) matchShape(shape *Shape, token string, parsed parsedToken) (Match, bool) {
	var applied Modifier

	if parsed.cycle {
		if !shape.Modifiers.Has(ModCycle) {
			return Match{}, false
		}

		applied |= ModCycle
	}

	if parsed.call {
		if !shape.Modifiers.Has(ModCall) {
			return Match{}, false
		}

		parts, unit, ok := canonicalCall(shape, parsed)
		if !ok {
			return Match{}, false
		}

		return r.bind(shape, token, parts, applied|ModCall, unit)
	}

	// Suffix variants first, so `.any`/`.mine` never bind as a property or name.
	count := len(parsed.parts)
	last := parsed.parts[count-1].text

	for _, suffix := range suffixModifiers {
		if count < 2 || last != suffix.text || !shape.Modifiers.Has(suffix.mod) {
			continue
		}

		match, ok := r.bind(shape, token, parsed.parts[:count-1], applied|suffix.mod, "")
		if ok {
			return match, true
		}
	}

	return r.bind(shape, token, parsed.parts, applied, "")
}

// canonicalCall rewrites `unit.family.property(name)` into the parts of
// `family.name.property`.
func canonicalCall(shape *Shape, parsed parsedToken) ([]part, string, bool) {
	if len(parsed.parts) < 2 {
		return nil, "", false
	}

	unit := parsed.parts[0].text
	if !slices.Contains(shape.CallUnits, unit) {
		return nil, "", false
	}

	rest := parsed.parts[1:]
	parts := make([]part, 0, len(shape.Segments))

	for _, seg := range shape.Segments {
		if seg.Kind == SegmentCapture {
			parts = append(parts, parsed.arg)

			continue
		}

		if len(rest) == 0 {
			return nil, "", false
		}

		parts = append(parts, rest[0])
		rest = rest[1:]
	}

	if len(rest) != 0 {
		return nil, "", false
	}

	return parts, unit, true
}

func (r *Resolver) bind(shape *Shape, token string, parts []part, mods Modifier, unit string) (Match, bool) {
	if len(parts) != len(shape.Segments) {
		return Match{}, false
	}

	generalized := make([]string, len(parts))

	var captures []Capture

	for idx, seg := range shape.Segments {
		current := parts[idx]

		switch seg.Kind {
		case SegmentLiteral:
			if current.text != seg.Text {
				return Match{}, false
			}

			generalized[idx] = current.text
		case SegmentProperty:
			generalized[idx] = current.text
		case SegmentCapture:
			numeric := isDigits(current.text)
			if seg.Text == catalog.PlaceholderIndex && !numeric {
				return Match{}, false
			}

			generalized[idx] = seg.Text
			captures = append(captures, Capture{
				Slot:        seg.Text,
				Name:        current.text,
				Start:       current.start,
				End:         current.start + len(current.text),
				Placeholder: catalog.IsPlaceholder(current.text),
				Numeric:     numeric,
			})
		}
	}

	pattern := strings.Join(generalized, ".")

	entry, ok := r.catalog.Lookup(pattern)
	if !ok {
		return Match{}, false
	}

	return Match{
		Token:       token,
		Pattern:     pattern,
		Entry:       entry,
		Shape:       shape.Name,
		Captures:    captures,
		Modifiers:   mods,
		Allowed:     shape.Modifiers,
		Unit:        unit,
		Description: describe(entry.Description, captures, mods, unit),
	}, true
}

var slotWords = map[string]*regexp.Regexp{ //nolint:gochecknoglobals // compiled once
	catalog.PlaceholderSpell:  regexp.MustCompile(`\bSPELL\b`),
	catalog.PlaceholderTalent: regexp.MustCompile(`\bTALENT\b`),
	catalog.PlaceholderVar:    regexp.MustCompile(`\bVARNAME\b`),
	catalog.PlaceholderIndex:  regexp.MustCompile(`\bN\b`),
}

func describe(text string, captures []Capture, mods Modifier, unit string) string {
	for _, capture := range captures {
		if word, ok := slotWords[capture.Slot]; ok {
			text = word.ReplaceAllLiteralString(text, capture.Name)
		}
	}

	if mods.Has(ModCycle) {
		text += " Evaluated on the current cycle target."
	}

	if mods.Has(ModAny) {
		text += " Counts applications from any source."
	}

	if mods.Has(ModMine) {
		text += " Counts only your own applications."
	}

	if mods.Has(ModCall) && unit != "" {
		text += fmt.Sprintf(" Checked on %s.", unit)
	}

	return text
}

func isName(s string) bool {
	if s == "" {
		return false
	}

	for idx := range len(s) {
		if !isNameByte(s[idx]) {
			return false
		}
	}

	return true
}

func isNameByte(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for idx := range len(s) {
		if s[idx] < '0' || s[idx] > '9' {
			return false
		}
	}

	return true
}
