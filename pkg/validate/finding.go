package validate

import (
	"errors"
	"fmt"
)

// Severity of a finding. Values match the LSP DiagnosticSeverity codes.
type Severity int

const (
	// SeverityError marks shape errors in the DSL text.
	SeverityError Severity = 1
	// SeverityWarning marks unresolved references and likely mistakes.
	SeverityWarning Severity = 2
	// SeverityInfo marks style suggestions.
	SeverityInfo Severity = 3
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ErrUnknownSeverity is returned when decoding a severity name that is not
// error, warning or info.
var ErrUnknownSeverity = errors.New("unknown severity")

// MarshalText renders the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name written by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSeverity, text)
	}

	return nil
}

// Rule codes carried by findings.
const (
	CodeUnbalancedParens    = "unbalanced-parens"
	CodeEmptyCondition      = "empty-condition"
	CodeOperatorRun         = "operator-run"
	CodeDanglingOperator    = "dangling-operator"
	CodeLeadingOperator     = "leading-operator"
	CodeRedundantComparison = "redundant-comparison"
	CodeMissingAction       = "missing-action"
	CodeMissingListName     = "missing-list-name"
	CodeUnknownList         = "unknown-list"
	CodeUnknownOption       = "unknown-option"
	CodeInvalidOptionValue  = "invalid-option-value"
	CodeUnknownSpell        = "unknown-spell"
	CodeUnknownConfig       = "unknown-config"
	CodeUnknownVariable     = "unknown-variable"
	CodeTypo                = "typo"
)

// Finding is one issue tied to a line and a byte column range.
type Finding struct {
	Line     int      `json:"line"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// String formats the finding as "line:col: severity: message" with 1-based
// positions.
func (f Finding) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", f.Line+1, f.Start+1, f.Severity, f.Message)
}

// Count returns how many findings have the given severity.
func Count(findings []Finding, severity Severity) int {
	total := 0

	for _, finding := range findings {
		if finding.Severity == severity {
			total++
		}
	}

	return total
}
