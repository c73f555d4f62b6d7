// Package assist renders documentation and completion items for positions in
// a rotation profile. It shares the expression resolver with the validator,
// so hover, completion and diagnostics agree on what a token means.
package assist

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/rotalsp/pkg/catalog"
	"github.com/Sumatoshi-tech/rotalsp/pkg/expr"
	"github.com/Sumatoshi-tech/rotalsp/pkg/names"
	"github.com/Sumatoshi-tech/rotalsp/pkg/symbols"
	"github.com/Sumatoshi-tech/rotalsp/pkg/syntax"
)

// DefaultSearchLimit caps spell name completions.
const DefaultSearchLimit = 50

// NameLookup finds spell names.
type NameLookup interface {
	Lookup(name string) (names.Record, bool)
	Search(prefix string, limit int) []names.Record
}

// Doc is the documentation shown for a token.
type Doc struct {
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// Markdown renders the doc for hover popups.
func (d Doc) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "**%s** `%s`\n\n%s", d.Title, d.Kind, d.Description)

	if d.Example != "" {
		fmt.Fprintf(&sb, "\n\nExample: `%s`", d.Example)
	}

	return sb.String()
}

// Assistant answers hover and completion requests.
type Assistant struct {
	catalog     *catalog.Catalog
	resolver    *expr.Resolver
	names       NameLookup
	searchLimit int

	roots    []string
	patterns [][]string
	entries  []catalog.Entry
}

// New creates an assistant. A non-positive searchLimit selects
// DefaultSearchLimit.
func New(cat *catalog.Catalog, resolver *expr.Resolver, lookup NameLookup, searchLimit int) *Assistant {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}

	asst := &Assistant{
		catalog:     cat,
		resolver:    resolver,
		names:       lookup,
		searchLimit: searchLimit,
		entries:     cat.Entries(),
	}

	seen := map[string]bool{}

	for _, entry := range asst.entries {
		segments := strings.Split(entry.Pattern, ".")
		asst.patterns = append(asst.patterns, segments)

		if !seen[segments[0]] {
			seen[segments[0]] = true
			asst.roots = append(asst.roots, segments[0])
		}
	}

	slices.Sort(asst.roots)

	return asst
}

// Describe documents a bare token: a special action, a step option, an
// expression or a spell name.
func (a *Assistant) Describe(token string) (Doc, bool) {
	token = strings.TrimSpace(token)

	if action, ok := a.catalog.SpecialAction(token); ok {
		return Doc{Title: action.Name, Kind: "action", Description: action.Description}, true
	}

	if doc, ok := a.describeExpression(token, nil); ok {
		return doc, true
	}

	if opt, ok := a.catalog.StepOption(strings.TrimSuffix(token, "=")); ok {
		return optionDoc(opt), true
	}

	return a.describeName(token)
}

// Hover documents the token under byte column col of line.
func (a *Assistant) Hover(line string, col int, table *symbols.Table) (Doc, bool) {
	line = syntax.StripComment(line)

	tok, ok := tokenAt(line, col)
	if !ok {
		return Doc{}, false
	}

	if tok.End < len(line) && line[tok.End] == '=' {
		if opt, known := a.catalog.StepOption(tok.Text); known {
			return optionDoc(opt), true
		}
	}

	if doc, listed := a.describeList(line, tok, table); listed {
		return doc, true
	}

	if action, special := a.catalog.SpecialAction(tok.Text); special {
		return Doc{Title: action.Name, Kind: "action", Description: action.Description}, true
	}

	if doc, resolved := a.describeExpression(tok.Text, table); resolved {
		return a.withCapturedName(doc, tok, col), true
	}

	return a.describeName(tok.Text)
}

func (a *Assistant) describeExpression(token string, table *symbols.Table) (Doc, bool) {
	match, ok := a.resolver.Resolve(token)
	if !ok {
		return Doc{}, false
	}

	doc := Doc{
		Title:       token,
		Kind:        match.Entry.Category,
		Description: match.Description,
		Example:     match.Entry.Example,
	}

	if table == nil || len(match.Captures) != 1 || match.Captures[0].Slot != catalog.PlaceholderVar {
		return doc, true
	}

	name := match.Captures[0].Name

	switch match.Pattern {
	case "variable.VARNAME":
		doc.Description += declaredNote(table, symbols.SectionVariables, name, table.Variables.Has(name), false)
	case "config.VARNAME":
		doc.Description += declaredNote(table, symbols.SectionConfig, name, table.Config.Has(name),
			a.catalog.HasSharedConfig(name))
	}

	return doc, true
}

func declaredNote(table *symbols.Table, section symbols.Section, name string, local, shared bool) string {
	if def, ok := table.DefinitionOf(section, name); ok && local {
		return fmt.Sprintf("\n\nDeclared on line %d.", def.Line+1)
	}

	if shared {
		return "\n\nShared key, always available."
	}

	return fmt.Sprintf("\n\nNot declared in this profile's %s section.", section)
}

// withCapturedName appends the spell record when col is on a captured name.
func (a *Assistant) withCapturedName(doc Doc, tok expr.Token, col int) Doc {
	match, ok := a.resolver.Resolve(tok.Text)
	if !ok {
		return doc
	}

	for _, capture := range match.Captures {
		if !capture.NeedsNameCheck() || col < tok.Start+capture.Start || col > tok.Start+capture.End {
			continue
		}

		if rec, found := a.names.Lookup(capture.Name); found {
			doc.Description += fmt.Sprintf("\n\n%s: spell ID %d.", rec.Name, rec.ID)
		}
	}

	return doc
}

func (a *Assistant) describeName(token string) (Doc, bool) {
	rec, ok := a.names.Lookup(token)
	if !ok {
		return Doc{}, false
	}

	return Doc{
		Title:       rec.Name,
		Kind:        "spell",
		Description: fmt.Sprintf("Spell ID %d. Referenced as `%s`.", rec.ID, rec.Key),
	}, true
}

// describeList documents the value of name= on a list-calling action.
func (a *Assistant) describeList(line string, tok expr.Token, table *symbols.Table) (Doc, bool) {
	body, col, ok := syntax.ActionBody(line)
	if !ok || !a.callsList(body) {
		return Doc{}, false
	}

	field, ok := syntax.FieldByKey(syntax.SplitFields(body, col), "name")
	if !ok || tok.Start != field.ValueStart {
		return Doc{}, false
	}

	doc := Doc{Title: tok.Text, Kind: "list"}

	switch {
	case table != nil && table.Lists.Has(tok.Text):
		def, _ := table.DefinitionOf(symbols.SectionLists, tok.Text)
		doc.Description = fmt.Sprintf("Action list declared on line %d.", def.Line+1)
	case a.catalog.HasSharedList(tok.Text):
		doc.Description = "Shared action list, always available."
	default:
		doc.Description = "Action list not declared in this profile."
	}

	return doc, true
}

func (a *Assistant) callsList(body string) bool {
	first := syntax.SplitFields(body, 0)[0]

	action, ok := a.catalog.SpecialAction(strings.TrimSpace(first.Text))

	return ok && action.RequiresList
}

func optionDoc(opt catalog.StepOption) Doc {
	doc := Doc{Title: opt.Name + "=", Kind: "option", Description: opt.Description}

	if len(opt.Values) > 0 {
		doc.Description += "\n\nValues: " + strings.Join(opt.Values, ", ")
	}

	return doc
}

// tokenAt returns the expression token containing col, a cursor just past
// its end included.
func tokenAt(line string, col int) (expr.Token, bool) {
	for _, tok := range expr.Tokens(line) {
		if col >= tok.Start && col <= tok.End {
			return tok, true
		}
	}

	return expr.Token{}, false
}
