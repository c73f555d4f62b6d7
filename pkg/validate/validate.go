// Package validate walks a rotation profile line by line and reports
// findings: malformed action lines, unknown spells, undefined list, config
// and variable references, and common typos. Every check runs independently,
// so one malformed line never hides findings elsewhere.
package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/rotalsp/pkg/catalog"
	"github.com/Sumatoshi-tech/rotalsp/pkg/expr"
	"github.com/Sumatoshi-tech/rotalsp/pkg/names"
	"github.com/Sumatoshi-tech/rotalsp/pkg/symbols"
	"github.com/Sumatoshi-tech/rotalsp/pkg/syntax"
	"github.com/Sumatoshi-tech/rotalsp/pkg/textutil"
)

// NameChecker resolves spell and talent names.
type NameChecker interface {
	IsValid(name string) bool
	FindSimilar(name string, maxDistance int) []names.Record
}

// Options tunes the validator messages.
type Options struct {
	// MaxSuggestions caps the "did you mean" names of an unknown spell.
	MaxSuggestions int
	// SimilarDistance is the edit distance used to find suggestions.
	SimilarDistance int
	// MaxKnownHint caps the known names listed for an unknown config key or variable.
	MaxKnownHint int
}

// DefaultOptions returns the standard limits.
func DefaultOptions() Options {
	return Options{
		MaxSuggestions:  3,
		SimilarDistance: names.DefaultSimilarDistance,
		MaxKnownHint:    5,
	}
}

// Validator produces findings for a document.
type Validator struct {
	catalog  *catalog.Catalog
	resolver *expr.Resolver
	names    NameChecker
	opts     Options
}

// New creates a validator. Zero option fields take their defaults.
func New(cat *catalog.Catalog, resolver *expr.Resolver, checker NameChecker, opts Options) *Validator {
	defaults := DefaultOptions()

	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = defaults.MaxSuggestions
	}

	if opts.SimilarDistance <= 0 {
		opts.SimilarDistance = defaults.SimilarDistance
	}

	if opts.MaxKnownHint <= 0 {
		opts.MaxKnownHint = defaults.MaxKnownHint
	}

	return &Validator{catalog: cat, resolver: resolver, names: checker, opts: opts}
}

// Validate checks a whole document.
func (v *Validator) Validate(text string) []Finding {
	return v.ValidateLines(textutil.SplitLines(text))
}

// ValidateLines checks a document given as lines.
func (v *Validator) ValidateLines(lines []string) []Finding {
	return v.ValidateTable(lines, symbols.Build(lines))
}

// ValidateTable checks lines against an already built symbol table.
// Findings are ordered by line, then by start column; findings sharing a
// column keep check order.
func (v *Validator) ValidateTable(lines []string, table *symbols.Table) []Finding {
	var out []Finding

	for idx, raw := range lines {
		if syntax.IsComment(raw) {
			continue
		}

		line := syntax.StripComment(raw)
		check := lineCheck{v: v, line: idx, table: table}

		if body, col, ok := syntax.ActionBody(line); ok {
			check.action(body, col)
			check.leadingSpell(body, col)
			check.expressionNames(body, col)
			check.references(line)
			check.typos(body, col)
		} else {
			col, isVar := table.VariableValue(idx)
			isVar = isVar && col < len(line)

			if isVar {
				check.expressionNames(line[col:], col)
			}

			check.references(line)

			if isVar {
				check.typos(line[col:], col)
			}
		}

		slices.SortStableFunc(check.findings, func(a, b Finding) int { return a.Start - b.Start })
		out = append(out, check.findings...)
	}

	return out
}

type lineCheck struct {
	v        *Validator
	line     int
	table    *symbols.Table
	findings []Finding
}

func (c *lineCheck) add(start, end int, severity Severity, code, msg string) {
	c.findings = append(c.findings, Finding{
		Line:     c.line,
		Start:    start,
		End:      end,
		Severity: severity,
		Code:     code,
		Message:  msg,
	})
}

func (c *lineCheck) action(body string, col int) {
	opening := strings.Count(body, "(")
	closing := strings.Count(body, ")")

	if opening != closing {
		c.add(col, col+len(body), SeverityError, CodeUnbalancedParens,
			fmt.Sprintf("Unbalanced parentheses: %d opening, %d closing", opening, closing))
	}

	fields := syntax.SplitFields(body, col)
	first := fields[0]

	if strings.TrimSpace(first.Text) == "" && len(fields) > 1 {
		c.add(col, col+1, SeverityError, CodeMissingAction, "Missing action name before ','")
	}

	for _, field := range fields[1:] {
		if field.HasKey() {
			c.option(field)
		}
	}

	action := strings.TrimSpace(first.Text)

	special, ok := c.v.catalog.SpecialAction(action)
	if ok && special.RequiresList {
		c.listReference(fields, first, action)
	}
}

func (c *lineCheck) option(field syntax.Field) {
	opt, known := c.v.catalog.StepOption(field.Key)
	if !known {
		c.add(field.Start, field.Start+len(field.Key), SeverityInfo, CodeUnknownOption,
			fmt.Sprintf("Unknown option '%s'", field.Key))

		return
	}

	if opt.Condition {
		c.condition(field)

		return
	}

	value := strings.TrimSpace(field.Value)
	if len(opt.Values) > 0 && value != "" && !slices.Contains(opt.Values, value) {
		c.add(field.ValueStart, field.End, SeverityWarning, CodeInvalidOptionValue,
			fmt.Sprintf("Invalid value '%s' for '%s'. Expected one of: %s", value, field.Key, strings.Join(opt.Values, ", ")))
	}
}

func (c *lineCheck) condition(field syntax.Field) {
	value := field.Value
	start := field.ValueStart

	if field.Key == "target_if" {
		if loc := targetIfPrefix.FindStringIndex(value); loc != nil {
			value = value[loc[1]:]
			start += loc[1]
		}
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		c.add(field.Start, field.End, SeverityError, CodeEmptyCondition,
			fmt.Sprintf("Empty condition after '%s='", field.Key))

		return
	}

	for _, loc := range operatorRun.FindAllStringIndex(value, -1) {
		c.add(start+loc[0], start+loc[1], SeverityError, CodeOperatorRun,
			fmt.Sprintf("Invalid operator sequence '%s'", value[loc[0]:loc[1]]))
	}

	lead := strings.Index(value, trimmed)
	if trimmed[0] == '&' || trimmed[0] == '|' {
		c.add(start+lead, start+lead+1, SeverityWarning, CodeLeadingOperator,
			fmt.Sprintf("Condition starts with '%c'; use '!' to negate", trimmed[0]))
	}

	tail := lead + len(trimmed) - 1
	if strings.IndexByte(danglingOperators, trimmed[len(trimmed)-1]) >= 0 {
		c.add(start+tail, start+tail+1, SeverityWarning, CodeDanglingOperator,
			fmt.Sprintf("Condition ends with operator '%c'", trimmed[len(trimmed)-1]))
	}

	for _, loc := range operatorBeforeRP.FindAllStringIndex(value, -1) {
		c.add(start+loc[0], start+loc[0]+1, SeverityWarning, CodeDanglingOperator,
			fmt.Sprintf("Operator '%c' before ')'", value[loc[0]]))
	}

	for _, loc := range redundantBool.FindAllStringSubmatchIndex(value, -1) {
		property := value[loc[2]:loc[3]]
		c.add(start+loc[4], start+loc[5], SeverityInfo, CodeRedundantComparison,
			fmt.Sprintf("'.%s' is already boolean; '%s' is redundant", property, value[loc[4]:loc[5]]))
	}
}

func (c *lineCheck) listReference(fields []syntax.Field, first syntax.Field, action string) {
	field, ok := syntax.FieldByKey(fields, "name")
	list := strings.TrimSpace(field.Value)

	if !ok || list == "" {
		c.add(first.Start, first.End, SeverityError, CodeMissingListName,
			fmt.Sprintf("'%s' requires name=<list>", action))

		return
	}

	if c.table.Lists.Has(list) || c.v.catalog.HasSharedList(list) {
		return
	}

	msg := fmt.Sprintf("Unknown action list '%s'", list)

	if known := c.knownLists(); len(known) > 0 {
		msg += ". Known lists: " + strings.Join(known, ", ")
	}

	c.add(field.ValueStart, field.End, SeverityError, CodeUnknownList, msg)
}

func (c *lineCheck) knownLists() []string {
	known := c.table.Lists.Sorted()

	for _, shared := range c.v.catalog.SharedLists() {
		if !c.table.Lists.Has(shared) {
			known = append(known, shared)
		}
	}

	return known
}

func (c *lineCheck) leadingSpell(body string, col int) {
	first := syntax.SplitFields(body, col)[0]
	if first.HasKey() {
		return
	}

	text := strings.TrimSpace(first.Text)
	if text == "" || !isIdentifier(text) || isNumeric(text) || catalog.IsPlaceholder(text) {
		return
	}

	if _, special := c.v.catalog.SpecialAction(text); special {
		return
	}

	start := first.Start + strings.Index(first.Text, text)
	c.name(text, "spell", start, start+len(text))
}

func (c *lineCheck) expressionNames(text string, col int) {
	for _, tok := range expr.Tokens(text) {
		match, ok := c.v.resolver.Resolve(tok.Text)
		if !ok {
			continue
		}

		for _, capture := range match.Captures {
			if !capture.NeedsNameCheck() {
				continue
			}

			kind := "spell"
			if capture.Slot == catalog.PlaceholderTalent {
				kind = "talent"
			}

			start := col + tok.Start + capture.Start
			c.name(capture.Name, kind, start, col+tok.Start+capture.End)
		}
	}
}

func (c *lineCheck) name(name, kind string, start, end int) {
	if c.v.names.IsValid(name) {
		return
	}

	msg := fmt.Sprintf("Unknown %s '%s'", kind, name)

	similar := c.v.names.FindSimilar(name, c.v.opts.SimilarDistance)
	if len(similar) > c.v.opts.MaxSuggestions {
		similar = similar[:c.v.opts.MaxSuggestions]
	}

	if len(similar) > 0 {
		suggestions := make([]string, 0, len(similar))
		for _, rec := range similar {
			suggestions = append(suggestions, rec.Key)
		}

		msg += ". Did you mean: " + strings.Join(suggestions, ", ") + "?"
	}

	c.add(start, end, SeverityWarning, CodeUnknownSpell, msg)
}

func (c *lineCheck) references(line string) {
	for _, loc := range reference.FindAllStringSubmatchIndex(line, -1) {
		kind := line[loc[2]:loc[3]]
		name := line[loc[4]:loc[5]]

		if name == catalog.PlaceholderVar {
			continue
		}

		if kind == "config" {
			if c.table.Config.Has(name) || c.v.catalog.HasSharedConfig(name) {
				continue
			}

			c.add(loc[2], loc[5], SeverityWarning, CodeUnknownConfig,
				c.withHint(fmt.Sprintf("Unknown config key '%s'", name), "Known keys", c.knownConfig()))

			continue
		}

		if c.table.Variables.Has(name) {
			continue
		}

		c.add(loc[2], loc[5], SeverityWarning, CodeUnknownVariable,
			c.withHint(fmt.Sprintf("Unknown variable '%s'", name), "Known variables", c.table.Variables.Sorted()))
	}
}

func (c *lineCheck) knownConfig() []string {
	known := c.table.Config.Sorted()

	for _, shared := range c.v.catalog.SharedConfigKeys() {
		if !c.table.Config.Has(shared) {
			known = append(known, shared)
		}
	}

	return known
}

func (c *lineCheck) withHint(msg, label string, known []string) string {
	if len(known) == 0 {
		return msg
	}

	if len(known) > c.v.opts.MaxKnownHint {
		known = known[:c.v.opts.MaxKnownHint]
	}

	return msg + ". " + label + ": " + strings.Join(known, ", ")
}

func (c *lineCheck) typos(text string, col int) {
	for _, rule := range typoRules {
		for _, loc := range rule.pattern.FindAllStringIndex(text, -1) {
			c.add(col+loc[0], col+loc[1], rule.severity, CodeTypo, rule.message)
		}
	}
}

func isIdentifier(s string) bool {
	for idx := range len(s) {
		ch := s[idx]
		if ch != '_' && (ch < 'a' || ch > 'z') && (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') {
			return false
		}
	}

	return true
}

func isNumeric(s string) bool {
	for idx := range len(s) {
		if s[idx] < '0' || s[idx] > '9' {
			return false
		}
	}

	return s != ""
}
