package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBinary_EmptyData(t *testing.T) {
	t.Parallel()

	assert.False(t, IsBinary(nil))
	assert.False(t, IsBinary([]byte{}))
}

func TestIsBinary_PureText(t *testing.T) {
	t.Parallel()

	assert.False(t, IsBinary([]byte("lists:\n  default:\n")))
}

func TestIsBinary_NullByte(t *testing.T) {
	t.Parallel()

	assert.True(t, IsBinary([]byte("hello\x00world")))
}

func TestIsBinary_NullBeyondSniffBoundary(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat("a", BinarySniffLength+100))
	data[BinarySniffLength+50] = 0x00

	assert.False(t, IsBinary(data))
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello", 1},
		{"hello\n", 1},
		{"a\nb\nc", 3},
		{"\n\n\n", 3},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CountLines([]byte(tc.in)), tc.in)
	}
}

func TestSplitLines_StripsCarriageReturns(t *testing.T) {
	t.Parallel()

	got := SplitLines("lists:\r\n  default:\r\n")

	assert.Equal(t, []string{"lists:", "  default:", ""}, got)
}

func TestSplitLines_SingleLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"- fireball"}, SplitLines("- fireball"))
}

func TestSplitLines_KeepsInnerCarriageReturn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a\rb"}, SplitLines("a\rb"))
}
