package safeconv_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/rotalsp/pkg/safeconv"
)

func TestClampUint32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   int
		want uint32
	}{
		{name: "zero", in: 0, want: 0},
		{name: "negative", in: -7, want: 0},
		{name: "in range", in: 42, want: 42},
		{name: "max", in: math.MaxUint32, want: safeconv.MaxUint32},
		{name: "overflow", in: math.MaxInt, want: safeconv.MaxUint32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, safeconv.ClampUint32(tt.in))
		})
	}
}

func TestClampUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), safeconv.ClampUint64(-1))
	assert.Equal(t, uint64(1024), safeconv.ClampUint64(1024))
	assert.Equal(t, uint64(math.MaxInt64), safeconv.ClampUint64(math.MaxInt64))
}
