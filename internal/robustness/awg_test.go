package robustness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAWGToSqmm(t *testing.T) {
	tests := []struct {
		awg  int
		want float64
	}{
		{0, 53.5},
		{10, 5.26},
		{18, 0.823},
		{24, 0.205},
		{40, 0.0050},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AWGToSqmm(tt.awg), "AWG %d", tt.awg)
	}
}

func TestAWGToSqmmMonotonicDecreasing(t *testing.T) {
	for awg := 1; awg <= 40; awg++ {
		assert.Less(t, AWGToSqmm(awg), AWGToSqmm(awg-1),
			"area must shrink as gauge grows (AWG %d vs %d)", awg, awg-1)
	}
}

func TestAWGToSqmmOutOfTable(t *testing.T) {
	// Values beyond the table come from the geometric formula and must
	// stay positive and continue the downward trend.
	got := AWGToSqmm(45)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, AWGToSqmm(40))
}
