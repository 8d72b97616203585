package profiling

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_Empty(t *testing.T) {
	_, err := NewResidualAnalyzer().Analyze(nil)
	assert.ErrorIs(t, err, ErrNoResiduals)
}

func TestAnalyze_LocationAndSpread(t *testing.T) {
	s, err := NewResidualAnalyzer().Analyze([]float64{-2, -1, 0, 1, 2})
	require.NoError(t, err)

	assert.InDelta(t, 0, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2), s.Std, 1e-12)
	assert.Equal(t, -2.0, s.Min)
	assert.Equal(t, 2.0, s.Max)
	assert.Equal(t, 0.0, s.Median)
	assert.InDelta(t, 0, s.Skewness, 1e-12)
	assert.Equal(t, 0, s.IQROutliers)
}

func TestAnalyze_GaussianLooksNormal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := make([]float64, 2000)
	for i := range r {
		r[i] = rng.NormFloat64()
	}
	s, err := NewResidualAnalyzer().Analyze(r)
	require.NoError(t, err)

	assert.InDelta(t, 0, s.Skewness, 0.2)
	assert.InDelta(t, 0, s.ExcessKurtosis, 0.4)
	assert.InDelta(t, 2, s.DurbinWatson, 0.2)
}

func TestAnalyze_HeavyTailRejectsNormality(t *testing.T) {
	r := make([]float64, 500)
	for i := range r {
		r[i] = float64(i%3) - 1
	}
	r[100] = 400
	r[200] = -350

	s, err := NewResidualAnalyzer().Analyze(r)
	require.NoError(t, err)

	assert.False(t, s.LooksNormal())
	assert.Greater(t, s.JarqueBera, 100.0)
	assert.Equal(t, 2, s.IQROutliers)
}

func TestAnalyze_TrendingResidualsAreAutocorrelated(t *testing.T) {
	r := make([]float64, 200)
	for i := range r {
		r[i] = math.Sin(float64(i) / 20)
	}
	s, err := NewResidualAnalyzer().Analyze(r)
	require.NoError(t, err)
	assert.Less(t, s.DurbinWatson, 0.1)
}

func TestAnalyze_Constant(t *testing.T) {
	s, err := NewResidualAnalyzer().Analyze([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Std)
	assert.Equal(t, 0.0, s.Skewness)
	assert.Equal(t, 0.0, s.DurbinWatson)
	assert.InDelta(t, 1, s.NormalityP, 1e-12)
}
