package validate_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rotalsp/pkg/catalog"
	"github.com/Sumatoshi-tech/rotalsp/pkg/expr"
	"github.com/Sumatoshi-tech/rotalsp/pkg/names"
	"github.com/Sumatoshi-tech/rotalsp/pkg/validate"
)

const spells = `id,name
133,Fireball
116,Frostbolt
32182,Haste
1943,Rupture
`

func newValidator(t *testing.T, csv string) *validate.Validator {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	dict := names.New()

	if csv != "" {
		_, err = dict.LoadReader(strings.NewReader(csv), names.FormatCSV)
		require.NoError(t, err)
	}

	return validate.New(cat, expr.NewResolver(cat, nil), dict, validate.Options{})
}

func codes(findings []validate.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, finding := range findings {
		out = append(out, finding.Code)
	}

	return out
}

func TestValidate_KnownNamesProduceNoFindings(t *testing.T) {
	t.Parallel()

	v := newValidator(t, spells)

	findings := v.Validate("  - fireball,if=buff.haste.up&target.health.pct<20")
	assert.Empty(t, findings)
}

func TestValidate_UnknownCapturedSpell(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "id,name\n133,Fireball\n")

	line := "  - fireball,if=buff.haste.up&target.health.pct<20"
	findings := v.Validate(line)

	require.Len(t, findings, 1)

	finding := findings[0]
	assert.Equal(t, validate.SeverityWarning, finding.Severity)
	assert.Equal(t, validate.CodeUnknownSpell, finding.Code)
	assert.Contains(t, finding.Message, "haste")
	assert.Equal(t, "haste", line[finding.Start:finding.End])
}

func TestValidate_DanglingOperator(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "")

	findings := v.Validate("  - spell,if=energy>")

	require.Len(t, findings, 1)
	assert.Equal(t, validate.SeverityWarning, findings[0].Severity)
	assert.Equal(t, validate.CodeDanglingOperator, findings[0].Code)
	assert.Equal(t, 19, findings[0].Start)
}

func TestValidate_UnbalancedParentheses(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "")

	findings := v.Validate("  - spell,if=(energy>50")

	require.Len(t, findings, 1)
	assert.Equal(t, validate.SeverityError, findings[0].Severity)
	assert.Equal(t, validate.CodeUnbalancedParens, findings[0].Code)
	assert.Equal(t, "Unbalanced parentheses: 1 opening, 0 closing", findings[0].Message)
}

func TestValidate_UnknownConfigKey(t *testing.T) {
	t.Parallel()

	v := newValidator(t, spells)

	line := "  - fireball,if=config.unknown_key"
	findings := v.Validate(line)

	require.Len(t, findings, 1)
	assert.Equal(t, validate.SeverityWarning, findings[0].Severity)
	assert.Equal(t, validate.CodeUnknownConfig, findings[0].Code)
	assert.Contains(t, findings[0].Message, "unknown_key")
	assert.Contains(t, findings[0].Message, "Known keys: aoe")
	assert.Equal(t, "config.unknown_key", line[findings[0].Start:findings[0].End])
}

func TestValidate_ConfigKeys(t *testing.T) {
	t.Parallel()

	v := newValidator(t, spells)

	doc := strings.Join([]string{
		"config:",
		"  my_toggle:",
		"lists:",
		"  default:",
		"    - fireball,if=config.my_toggle&config.aoe&config.VARNAME",
	}, "\n")

	assert.Empty(t, v.Validate(doc))
}

func TestValidate_ListRoundTrip(t *testing.T) {
	t.Parallel()

	v := newValidator(t, spells)

	doc := strings.Join([]string{
		"lists:",
		"  default:",
		"    - call_action_list,name=my_list",
		"    - call_action_list,name=not_declared",
		"    - run_action_list,name=defensives",
		"  my_list:",
		"    - frostbolt",
	}, "\n")

	findings := v.Validate(doc)

	require.Len(t, findings, 1)
	assert.Equal(t, 3, findings[0].Line)
	assert.Equal(t, validate.SeverityError, findings[0].Severity)
	assert.Equal(t, validate.CodeUnknownList, findings[0].Code)
	assert.Contains(t, findings[0].Message, "not_declared")
	assert.Contains(t, findings[0].Message, "Known lists: default, my_list, precombat")
}

func TestValidate_ListActionsRequireName(t *testing.T) {
	t.Parallel()

	v := newValidator(t, spells)

	for _, line := range []string{"  - run_action_list", "  - cal,name=", "  - call_action_list,if=energy>50"} {
		findings := v.Validate(line)
		assert.Equal(t, []string{validate.CodeMissingListName}, codes(findings), line)
	}
}

func TestValidate_ActionShapeChecks(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "")

	tests := []struct {
		name  string
		line  string
		codes []string
	}{
		{"leading separator", "  - ,if=energy>50", []string{validate.CodeMissingAction}},
		{"empty condition", "  - fireball,if=", []string{validate.CodeEmptyCondition}},
		{"empty target_if", "  - fireball,target_if=min:", []string{validate.CodeEmptyCondition}},
		{"operator run", "  - fireball,if=a&&&b", []string{validate.CodeOperatorRun, validate.CodeTypo}},
		{"leading operator", "  - fireball,if=&buff.haste.up", []string{validate.CodeLeadingOperator}},
		{"operator before paren", "  - fireball,if=(a&)|b", []string{validate.CodeDanglingOperator}},
		{"redundant comparison", "  - fireball,if=buff.haste.up=1", []string{validate.CodeRedundantComparison}},
		{"not redundant", "  - fireball,if=buff.haste.up=10", nil},
		{"unknown option", "  - fireball,frobnicate=1", []string{validate.CodeUnknownOption}},
		{"invalid option value", "  - use_item,slot=trinket3", []string{validate.CodeInvalidOptionValue}},
		{"valid option value", "  - use_item,slot=trinket1,if=cooldown.fireball.ready", nil},
		{"target_if prefix", "  - rupture,target_if=max:debuff.rupture.remains", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			findings := v.Validate(tt.line)
			if tt.codes == nil {
				assert.Empty(t, findings)

				return
			}

			assert.Equal(t, tt.codes, codes(findings))
		})
	}
}

func TestValidate_RedundantComparisonRange(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "")

	line := "  - fireball,if=buff.haste.up=1"
	findings := v.Validate(line)

	require.Len(t, findings, 1)
	assert.Equal(t, validate.SeverityInfo, findings[0].Severity)
	assert.Equal(t, "=1", line[findings[0].Start:findings[0].End])
}

func TestValidate_LeadingSpellSuggestions(t *testing.T) {
	t.Parallel()

	v := newValidator(t, spells)

	line := "  - firebal,if=energy>50"
	findings := v.Validate(line)

	require.Len(t, findings, 1)
	assert.Equal(t, validate.CodeUnknownSpell, findings[0].Code)
	assert.Equal(t, "Unknown spell 'firebal'. Did you mean: fireball?", findings[0].Message)
	assert.Equal(t, "firebal", line[findings[0].Start:findings[0].End])
}

func TestValidate_SuggestionsAreCapped(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "id,name\n1,Bolta\n2,Boltb\n3,Boltc\n4,Boltd\n")

	findings := v.Validate("  - bolt")

	require.Len(t, findings, 1)
	assert.Equal(t, "Unknown spell 'bolt'. Did you mean: bolta, boltb, boltc?", findings[0].Message)
}

func TestValidate_ExemptNames(t *testing.T) {
	t.Parallel()

	v := newValidator(t, spells)

	findings := v.Validate("  - 133,if=buff.SPELL.up&debuff.TALENT.up&buff.12345.up&prev_gcd.1.fireball")
	assert.Empty(t, findings)

	findings = v.Validate("  - wait,sec=0.5,if=cooldown.rupture.remains<1")
	assert.Empty(t, findings, "special actions are not spells")
}

func TestValidate_TalentCapture(t *testing.T) {
	t.Parallel()

	v := newValidator(t, spells)

	findings := v.Validate("  - fireball,if=talent.pyromaniac.enabled")

	require.Len(t, findings, 1)
	assert.Equal(t, "Unknown talent 'pyromaniac'", findings[0].Message)
}

func TestValidate_Variables(t *testing.T) {
	t.Parallel()

	v := newValidator(t, spells)

	doc := strings.Join([]string{
		"variables:",
		"  pooling: energy<50",
		"  burst_ready: variable.pooling&!variable.missing&variable.aoe",
		"  hasted: buff.hastee.up",
		"lists:",
		"  default:",
		"    - fireball,if=variable.burst_ready",
	}, "\n")

	findings := v.Validate(doc)
	require.Len(t, findings, 3)

	assert.Equal(t, 2, findings[0].Line)
	assert.Equal(t, validate.CodeUnknownVariable, findings[0].Code)
	assert.Equal(t, "Unknown variable 'missing'. Known variables: burst_ready, hasted, pooling", findings[0].Message)

	assert.Equal(t, 2, findings[1].Line)
	assert.Contains(t, findings[1].Message, "'aoe'", "shared config keys are not variables")

	assert.Equal(t, 3, findings[2].Line)
	assert.Equal(t, validate.CodeUnknownSpell, findings[2].Code)
	assert.Equal(t, 15, findings[2].Start)
	assert.Equal(t, 21, findings[2].End)
	assert.Contains(t, findings[2].Message, "Did you mean: haste?")
}

func TestValidate_Typos(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "")

	findings := v.Validate("  - fireball,if=buf.haste.up and cooldow.x.ready|debuff.y.remain>1")

	assert.Equal(t, []string{
		validate.CodeTypo, validate.CodeTypo, validate.CodeTypo, validate.CodeTypo,
	}, codes(findings))

	messages := make([]string, 0, len(findings))
	for _, finding := range findings {
		messages = append(messages, finding.Message)
	}

	assert.Contains(t, messages, "Use '&' instead of 'and'")
	assert.Contains(t, messages, "Did you mean 'buff.'?")
	assert.Contains(t, messages, "Did you mean 'cooldown.'?")
	assert.Contains(t, messages, "Did you mean '.remains'?")
}

func TestValidate_CommentsAndBlankLines(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "")

	doc := strings.Join([]string{
		"# - fireball,if=(",
		"",
		"    # - spell,if=energy>",
		"  - fireball # if=(energy>",
	}, "\n")

	assert.Empty(t, v.Validate(doc))
}

func TestValidate_OrderedAndIndependent(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "")

	doc := strings.Join([]string{
		"lists:",
		"  default:",
		"    - spell,if=(energy>50",
		"    - spell,if=energy>",
		"    - fireball,if=config.unknown_key",
	}, "\r\n")

	findings := v.Validate(doc)

	require.Len(t, findings, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{findings[0].Line, findings[1].Line, findings[2].Line})
	assert.Equal(t, []string{
		validate.CodeUnbalancedParens, validate.CodeDanglingOperator, validate.CodeUnknownConfig,
	}, codes(findings))
	assert.Equal(t, 1, validate.Count(findings, validate.SeverityError))
	assert.Equal(t, 2, validate.Count(findings, validate.SeverityWarning))
}

func TestValidate_MultipleFindingsOnOneLine(t *testing.T) {
	t.Parallel()

	v := newValidator(t, "id,name\n1,Fireball\n")

	findings := v.Validate("  - fireball,if=(buff.haste.up&&config.nope")

	assert.Equal(t, []string{
		validate.CodeUnbalancedParens, validate.CodeUnknownSpell, validate.CodeUnknownConfig, validate.CodeTypo,
	}, codes(findings))
}

func TestSeverity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error", validate.SeverityError.String())
	assert.Equal(t, "warning", validate.SeverityWarning.String())
	assert.Equal(t, "info", validate.SeverityInfo.String())
	assert.Equal(t, "severity(9)", validate.Severity(9).String())

	text, err := validate.SeverityInfo.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "info", string(text))

	var parsed validate.Severity

	require.NoError(t, parsed.UnmarshalText([]byte("warning")))
	assert.Equal(t, validate.SeverityWarning, parsed)

	err = parsed.UnmarshalText([]byte("fatal"))
	require.ErrorIs(t, err, validate.ErrUnknownSeverity)
}

func TestValidate_FindingsOrderedByColumnWithinLine(t *testing.T) {
	t.Parallel()

	findings := newValidator(t, spells).Validate("lists:\n  default:\n    - fireboll,if=energy>\n")

	codes := make([]string, 0, len(findings))

	for idx, finding := range findings {
		assert.Equal(t, 2, finding.Line)

		codes = append(codes, finding.Code)

		if idx > 0 {
			assert.LessOrEqual(t, findings[idx-1].Start, finding.Start)
		}
	}

	assert.Equal(t, []string{validate.CodeUnknownSpell, validate.CodeDanglingOperator}, codes)
}

func TestFinding_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	findings := newValidator(t, spells).Validate("lists:\n  default:\n    - fireball,if=(energy>50\n")
	require.NotEmpty(t, findings)

	data, err := json.Marshal(findings)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"error"`)

	var decoded []validate.Finding

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, findings, decoded)

	var bad validate.Finding

	err = json.Unmarshal([]byte(`{"severity":"fatal"}`), &bad)
	require.ErrorIs(t, err, validate.ErrUnknownSeverity)
}

func TestFinding_String(t *testing.T) {
	t.Parallel()

	finding := validate.Finding{Line: 2, Start: 4, Severity: validate.SeverityError, Message: "boom"}
	assert.Equal(t, "3:5: error: boom", finding.String())
}
