package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rotalsp/pkg/syntax"
)

func TestStripComment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  - fireball # opener", "  - fireball"},
		{"# whole line", ""},
		{"  - fireball,if=a#b", "  - fireball,if=a#b"},
		{`  - "fireball # not a comment"`, `  - "fireball # not a comment"`},
		{"  - fireball\r", "  - fireball"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, syntax.StripComment(tt.in), tt.in)
	}
}

func TestIsComment(t *testing.T) {
	t.Parallel()

	assert.True(t, syntax.IsComment(""))
	assert.True(t, syntax.IsComment("   "))
	assert.True(t, syntax.IsComment("    # note"))
	assert.False(t, syntax.IsComment("  - fireball"))
}

func TestActionBody(t *testing.T) {
	t.Parallel()

	body, col, ok := syntax.ActionBody("    - fireball,if=buff.haste.up")
	require.True(t, ok)
	assert.Equal(t, "fireball,if=buff.haste.up", body)
	assert.Equal(t, 6, col)

	body, col, ok = syntax.ActionBody(`  - "fireball,if=energy>50"`)
	require.True(t, ok)
	assert.Equal(t, "fireball,if=energy>50", body)
	assert.Equal(t, 5, col)

	for _, line := range []string{"---", "  -", "  -fireball", "lists:", "  my_list:", "  - # only a comment"} {
		_, _, ok = syntax.ActionBody(line)
		assert.False(t, ok, line)
	}
}

func TestActionBody_DashWithoutSpace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
	}{
		{name: "glued action", line: "    -fireball,if=energy>50"},
		{name: "negative number", line: "  -1"},
		{name: "document marker", line: "---"},
		{name: "double dash", line: "  --fireball"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body, col, ok := syntax.ActionBody(tt.line)
			assert.False(t, ok)
			assert.Empty(t, body)
			assert.Zero(t, col)
		})
	}

	body, _, ok := syntax.ActionBody("    -\tfireball")
	require.True(t, ok, "a tab also separates the dash")
	assert.Equal(t, "fireball", body)
}

func TestSplitFields(t *testing.T) {
	t.Parallel()

	body := "fireball,if=(a,b)&c,target_if=min:x"
	fields := syntax.SplitFields(body, 4)
	require.Len(t, fields, 3)

	assert.Equal(t, "fireball", fields[0].Text)
	assert.False(t, fields[0].HasKey())
	assert.Equal(t, 4, fields[0].Start)

	assert.Equal(t, "if", fields[1].Key)
	assert.Equal(t, "(a,b)&c", fields[1].Value)
	assert.Equal(t, 4+len("fireball,if="), fields[1].ValueStart)

	assert.Equal(t, "target_if", fields[2].Key)
	assert.Equal(t, "min:x", fields[2].Value)
	assert.Equal(t, 4+len(body), fields[2].End)

	field, ok := syntax.FieldByKey(fields, "if")
	require.True(t, ok)
	assert.Equal(t, "(a,b)&c", field.Value)

	_, ok = syntax.FieldByKey(fields, "name")
	assert.False(t, ok)
}

func TestSplitFields_LeadingSeparator(t *testing.T) {
	t.Parallel()

	fields := syntax.SplitFields(",if=x", 0)
	require.Len(t, fields, 2)
	assert.Empty(t, fields[0].Text)
	assert.Equal(t, "if", fields[1].Key)
}
