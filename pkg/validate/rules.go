package validate

import "regexp"

type typoRule struct {
	pattern  *regexp.Regexp
	severity Severity
	message  string
}

var typoRules = []typoRule{ //nolint:gochecknoglobals // static rule table
	{regexp.MustCompile(`\band\b`), SeverityWarning, "Use '&' instead of 'and'"},
	{regexp.MustCompile(`\bor\b`), SeverityWarning, "Use '|' instead of 'or'"},
	{regexp.MustCompile(`\bnot\b`), SeverityWarning, "Use '!' instead of 'not'"},
	{regexp.MustCompile(`==`), SeverityWarning, "Use '=' for comparison instead of '=='"},
	{regexp.MustCompile(`&&`), SeverityWarning, "Use a single '&' for logical and"},
	{regexp.MustCompile(`\|\|`), SeverityWarning, "Use a single '|' for logical or"},
	{regexp.MustCompile(`\bbuf\.`), SeverityInfo, "Did you mean 'buff.'?"},
	{regexp.MustCompile(`\bdebuf\.`), SeverityInfo, "Did you mean 'debuff.'?"},
	{regexp.MustCompile(`\b(?:cooldow|coldown|cooldwon)\.`), SeverityInfo, "Did you mean 'cooldown.'?"},
	{regexp.MustCompile(`\btalnet\.`), SeverityInfo, "Did you mean 'talent.'?"},
	{regexp.MustCompile(`\b(?:varible|varaible)\.`), SeverityInfo, "Did you mean 'variable.'?"},
	{regexp.MustCompile(`\.remain\b`), SeverityInfo, "Did you mean '.remains'?"},
	{regexp.MustCompile(`\.stacks\b`), SeverityInfo, "Did you mean '.stack'?"},
	{regexp.MustCompile(`health\.percent\b`), SeverityInfo, "Did you mean 'health.pct'?"},
}

var (
	operatorRun      = regexp.MustCompile(`[&|!]{3,}`)  //nolint:gochecknoglobals // compiled once
	operatorBeforeRP = regexp.MustCompile(`[&|!]\s*\)`) //nolint:gochecknoglobals // compiled once
	redundantBool    = regexp.MustCompile(              //nolint:gochecknoglobals // compiled once
		`\.(up|down|ready|enabled|react|ticking|refreshable|known|usable|in_flight|moving|exists|in_combat|is_boss|active)(=(?:1|true))\b`,
	)
	reference = regexp.MustCompile( //nolint:gochecknoglobals // compiled once
		`(?:^|[^A-Za-z0-9_.])(config|variable)\.([A-Za-z0-9_]+)`,
	)
	targetIfPrefix = regexp.MustCompile(`^(?:min|max|first):`) //nolint:gochecknoglobals // compiled once
)

const danglingOperators = "&|!<>=+-*/%"
