package assist

import (
	"regexp"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/rotalsp/pkg/catalog"
	"github.com/Sumatoshi-tech/rotalsp/pkg/expr"
	"github.com/Sumatoshi-tech/rotalsp/pkg/symbols"
	"github.com/Sumatoshi-tech/rotalsp/pkg/syntax"
)

// ItemKind classifies a completion item.
type ItemKind uint8

// Completion item kinds.
const (
	KindKeyword ItemKind = iota + 1
	KindOption
	KindValue
	KindProperty
	KindSpell
	KindList
	KindVariable
)

// Item is one completion candidate.
type Item struct {
	Label         string
	Detail        string
	Documentation string
	InsertText    string
	Kind          ItemKind
	Snippet       bool // InsertText is a snippet with tab stops.
}

var trailingFragment = regexp.MustCompile(`[A-Za-z0-9_.]*$`) //nolint:gochecknoglobals // compiled once

// Complete returns the candidates for the cursor at byte column col of line,
// which is line number lineNo of the document table was built from.
func (a *Assistant) Complete(line string, lineNo, col int, table *symbols.Table) []Item {
	if col > len(line) {
		col = len(line)
	}

	if col < 0 {
		col = 0
	}

	prefix := line[:col]

	if body, bodyCol, ok := actionPrefix(prefix); ok {
		return a.completeAction(body, bodyCol, table)
	}

	if start, ok := table.VariableValue(lineNo); ok && start <= col {
		return a.completeExpression(prefix[start:], table)
	}

	return nil
}

// actionPrefix finds the action body of a line cut at the cursor. Unlike
// syntax.ActionBody it accepts an empty body.
func actionPrefix(prefix string) (string, int, bool) {
	trimmed := strings.TrimLeft(prefix, " \t")
	if !strings.HasPrefix(trimmed, "- ") {
		return "", 0, false
	}

	col := len(prefix) - len(trimmed) + 1
	for col < len(prefix) && (prefix[col] == ' ' || prefix[col] == '\t') {
		col++
	}

	if col < len(prefix) && (prefix[col] == '"' || prefix[col] == '\'') {
		col++
	}

	return prefix[col:], col, true
}

func (a *Assistant) completeAction(body string, bodyCol int, table *symbols.Table) []Item {
	fields := syntax.SplitFields(body, bodyCol)
	current := fields[len(fields)-1]

	if len(fields) == 1 && !current.HasKey() {
		return a.completeActionName(strings.TrimSpace(current.Text))
	}

	if !current.HasKey() {
		if strings.Contains(current.Text, "=") {
			return nil
		}

		return a.completeOptionKeys(current.Text)
	}

	if current.Key == "name" && a.callsList(body) {
		return completeLists(a.listNames(table), current.Value)
	}

	opt, known := a.catalog.StepOption(current.Key)
	if known && len(opt.Values) > 0 {
		return completeValues(opt, current.Value)
	}

	if !known || opt.Condition || current.Key == "value" || current.Key == "value_else" {
		value := current.Value
		if current.Key == "target_if" {
			if idx := strings.IndexByte(value, ':'); idx >= 0 {
				value = value[idx+1:]
			}
		}

		return a.completeExpression(value, table)
	}

	return nil
}

func (a *Assistant) completeActionName(partial string) []Item {
	var items []Item

	for _, action := range a.catalog.SpecialActions() {
		if strings.HasPrefix(action.Name, partial) {
			items = append(items, Item{
				Label:         action.Name,
				Detail:        "action",
				Documentation: action.Description,
				InsertText:    action.Name,
				Kind:          KindKeyword,
			})
		}
	}

	return append(items, a.completeSpells(partial)...)
}

func (a *Assistant) completeSpells(partial string) []Item {
	recs := a.names.Search(partial, a.searchLimit)
	items := make([]Item, 0, len(recs))

	for _, rec := range recs {
		items = append(items, Item{
			Label:      rec.Key,
			Detail:     rec.Name,
			InsertText: rec.Key,
			Kind:       KindSpell,
		})
	}

	return items
}

func (a *Assistant) completeOptionKeys(partial string) []Item {
	var items []Item

	for _, opt := range a.catalog.StepOptions() {
		if !strings.HasPrefix(opt.Name, partial) {
			continue
		}

		item := Item{
			Label:         opt.Name,
			Detail:        "option",
			Documentation: opt.Description,
			InsertText:    opt.Name + "=",
			Kind:          KindOption,
		}

		if opt.Template != "" {
			item.InsertText = opt.Template
			item.Snippet = true
		}

		items = append(items, item)
	}

	return items
}

func completeValues(opt catalog.StepOption, partial string) []Item {
	var items []Item

	for _, value := range opt.Values {
		if strings.HasPrefix(value, partial) {
			items = append(items, Item{Label: value, Detail: opt.Name, InsertText: value, Kind: KindValue})
		}
	}

	return items
}

func completeLists(lists []string, partial string) []Item {
	var items []Item

	for _, list := range lists {
		if strings.HasPrefix(list, partial) {
			items = append(items, Item{Label: list, Detail: "action list", InsertText: list, Kind: KindList})
		}
	}

	return items
}

func (a *Assistant) listNames(table *symbols.Table) []string {
	lists := table.Lists.Sorted()

	for _, shared := range a.catalog.SharedLists() {
		if !table.Lists.Has(shared) {
			lists = append(lists, shared)
		}
	}

	return lists
}

// completeExpression completes the dotted fragment at the end of text.
func (a *Assistant) completeExpression(text string, table *symbols.Table) []Item {
	fragment := trailingFragment.FindString(text)

	dot := strings.LastIndexByte(fragment, '.')
	if dot < 0 {
		return a.completeRoots(fragment)
	}

	parent, partial := fragment[:dot], fragment[dot+1:]

	switch parent {
	case "config":
		return completeNames(a.configKeys(table), partial, "config", KindVariable)
	case "variable":
		return completeNames(table.Variables.Sorted(), partial, "variable", KindVariable)
	}

	return a.completeSegment(parent, partial)
}

func (a *Assistant) completeRoots(partial string) []Item {
	var items []Item

	for _, root := range append(slices.Clone(a.roots), "cycle") {
		if !strings.HasPrefix(root, partial) {
			continue
		}

		item := Item{Label: root, Detail: "expression", InsertText: root, Kind: KindProperty}
		if entry, ok := a.catalog.Lookup(root); ok {
			item.Documentation = entry.Description
		}

		items = append(items, item)
	}

	return items
}

func (a *Assistant) configKeys(table *symbols.Table) []string {
	keys := table.Config.Sorted()

	for _, shared := range a.catalog.SharedConfigKeys() {
		if !table.Config.Has(shared) {
			keys = append(keys, shared)
		}
	}

	return keys
}

func completeNames(candidates []string, partial, detail string, kind ItemKind) []Item {
	var items []Item

	for _, name := range candidates {
		if strings.HasPrefix(name, partial) {
			items = append(items, Item{Label: name, Detail: detail, InsertText: name, Kind: kind})
		}
	}

	return items
}

// completeSegment proposes the segment following parent, derived from the
// catalog patterns parent is a prefix of.
func (a *Assistant) completeSegment(parent, partial string) []Item {
	segments := strings.Split(parent, ".")
	if segments[0] == "cycle" {
		segments = segments[1:]
	}

	if len(segments) == 0 {
		return a.completeRoots(partial)
	}

	var items []Item

	seen := map[string]bool{}
	spellSlot := false

	for idx, pattern := range a.patterns {
		if len(pattern) <= len(segments) || !prefixMatches(pattern, segments) {
			continue
		}

		next := pattern[len(segments)]

		if next == catalog.PlaceholderSpell || next == catalog.PlaceholderTalent {
			spellSlot = true

			continue
		}

		if next == catalog.PlaceholderIndex || next == catalog.PlaceholderVar || seen[next] || !strings.HasPrefix(next, partial) {
			continue
		}

		seen[next] = true

		item := Item{Label: next, Detail: "property", InsertText: next, Kind: KindProperty}
		if len(pattern) == len(segments)+1 {
			item.Detail = a.entries[idx].Category
			item.Documentation = a.entries[idx].Description
		}

		items = append(items, item)
	}

	items = append(items, a.completeModifiers(parent, partial, seen)...)

	if spellSlot {
		items = append(items, a.completeSpells(partial)...)
	}

	return items
}

// completeModifiers offers the .any and .mine suffixes after a complete
// templated expression.
func (a *Assistant) completeModifiers(parent, partial string, seen map[string]bool) []Item {
	match, ok := a.resolver.Resolve(parent)
	if !ok || match.Modifiers.Has(expr.ModAny) || match.Modifiers.Has(expr.ModMine) {
		return nil
	}

	var items []Item

	for _, suffix := range []struct {
		mod  expr.Modifier
		name string
		doc  string
	}{
		{expr.ModAny, "any", "Counts applications from any source."},
		{expr.ModMine, "mine", "Counts only your own applications."},
	} {
		if match.Allowed.Has(suffix.mod) && !seen[suffix.name] && strings.HasPrefix(suffix.name, partial) {
			items = append(items, Item{
				Label:         suffix.name,
				Detail:        "modifier",
				Documentation: suffix.doc,
				InsertText:    suffix.name,
				Kind:          KindKeyword,
			})
		}
	}

	return items
}

func prefixMatches(pattern, segments []string) bool {
	for idx, seg := range segments {
		switch pattern[idx] {
		case catalog.PlaceholderSpell, catalog.PlaceholderTalent, catalog.PlaceholderVar:
			if seg == "" {
				return false
			}
		case catalog.PlaceholderIndex:
			if seg == "" || strings.Trim(seg, "0123456789") != "" {
				return false
			}
		default:
			if pattern[idx] != seg {
				return false
			}
		}
	}

	return true
}
