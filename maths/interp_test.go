package maths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, []float64{0, 0.25, 1}, Normalize([]float64{2, 3, 6}))
	assert.Equal(t, []float64{0}, Normalize([]float64{5}))
}

func TestLinear(t *testing.T) {
	l, err := NewLinear([]float64{0, 1}, []float64{300, 900})
	require.NoError(t, err)
	for i, want := range []float64{300, 450, 600, 750, 900} {
		assert.InDelta(t, want, l.At(float64(i)/4), 1e-9)
	}
	assert.Equal(t, 900.0, l.At(2), "区间外应取端点值")
	assert.Equal(t, 300.0, l.At(-1))

	flat, err := NewLinear([]float64{0.3}, []float64{7})
	require.NoError(t, err)
	assert.Equal(t, 7.0, flat.At(0.9))

	_, err = NewLinear([]float64{0, 0}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrNotIncreasing)
	_, err = NewLinear([]float64{0, 1}, []float64{1})
	assert.Error(t, err)
}

func TestRegrid(t *testing.T) {
	v, err := Regrid([]float64{0, 1, 2}, []float64{0, 10, 20}, []float64{10, 11, 12, 13, 14})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 5, 10, 15, 20}, v, 1e-12)
}

func TestWeightedNorm(t *testing.T) {
	assert.InDelta(t, 1.0, WeightedNorm([]float64{1, -2}, []float64{1, 2}), 1e-15)
	assert.Zero(t, WeightedNorm(nil, nil))
	assert.False(t, IsFinite([]float64{1, 0 / zero()}))
}

func zero() float64 { return 0 }
