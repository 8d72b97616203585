package elasticnet

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// lineDesign returns columns [1, t] with t spread symmetrically on [-1, 1]
func lineDesign(n int, intercept, slope float64) (*mat.Dense, []float64) {
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		t := -1 + 2*float64(i)/float64(n-1)
		x.Set(i, 0, 1)
		x.Set(i, 1, t)
		y[i] = intercept + slope*t + 0.01*math.Sin(float64(i))
	}
	return x, y
}

func TestFitNearlyUnpenalised(t *testing.T) {
	x, y := lineDesign(101, 2, 3)
	res, err := Fit(x, y, 1e-8, 0.5, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 2, res.Coef[0], 0.01)
	assert.InDelta(t, 3, res.Coef[1], 0.01)
}

func TestFitAboveAlphaMaxIsZero(t *testing.T) {
	x, y := lineDesign(50, 2, 3)
	g := newGram(x, y, allRows(50))
	res, err := Fit(x, y, g.alphaMax(1)*1.01, 1, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, res.Coef)
}

func TestFitShrinksWithAlpha(t *testing.T) {
	x, y := lineDesign(80, 2, 3)
	small, err := Fit(x, y, 0.01, 0.5, DefaultOptions())
	require.NoError(t, err)
	large, err := Fit(x, y, 0.5, 0.5, DefaultOptions())
	require.NoError(t, err)
	assert.Less(t, math.Abs(large.Coef[1]), math.Abs(small.Coef[1]))
}

func TestFitRejectsBadInput(t *testing.T) {
	x, y := lineDesign(10, 1, 1)
	_, err := Fit(x, y[:5], 0.1, 0.5, DefaultOptions())
	assert.ErrorIs(t, err, ErrShape)
	_, err = Fit(x, y, -1, 0.5, DefaultOptions())
	assert.ErrorIs(t, err, ErrParameter)
	_, err = Fit(x, y, 0.1, 1.5, DefaultOptions())
	assert.ErrorIs(t, err, ErrParameter)
}

func TestKFoldContiguous(t *testing.T) {
	folds := kFold(11, 5)
	require.Len(t, folds, 5)
	assert.Equal(t, []int{0, 1, 2}, folds[0].test)
	assert.Equal(t, []int{9, 10}, folds[4].test)
	total := 0
	for _, f := range folds {
		assert.Equal(t, 11, len(f.test)+len(f.train))
		total += len(f.test)
	}
	assert.Equal(t, 11, total)
}

func TestAlphaGrid(t *testing.T) {
	grid := alphaGrid(10, 1e-3, 100)
	require.Len(t, grid, 100)
	assert.InDelta(t, 10, grid[0], 1e-9)
	assert.InDelta(t, 0.01, grid[99], 1e-12)
	for i := 1; i < len(grid); i++ {
		assert.Less(t, grid[i], grid[i-1])
	}
	assert.Equal(t, make([]float64, 3), alphaGrid(0, 1e-3, 3))
}

func TestCVFit(t *testing.T) {
	x, y := lineDesign(120, 2, 3)
	cv := DefaultCV()
	cv.Workers = 2
	res, err := cv.Fit(context.Background(), x, y)
	require.NoError(t, err)
	assert.Contains(t, cv.L1Ratios, res.L1Ratio)
	assert.Greater(t, res.Alpha, 0.0)
	require.Len(t, res.MSEPath, len(cv.L1Ratios))
	assert.Len(t, res.MSEPath[0], cv.NAlphas)
	assert.False(t, math.IsInf(res.BestMSE, 0))
	assert.InDelta(t, 3, res.Coef[1], 0.5)
}

func TestCVDeterministic(t *testing.T) {
	x, y := lineDesign(60, -1, 0.5)
	a, err := DefaultCV().Fit(context.Background(), x, y)
	require.NoError(t, err)
	b, err := DefaultCV().Fit(context.Background(), x, y)
	require.NoError(t, err)
	assert.Equal(t, a.Coef, b.Coef)
	assert.Equal(t, a.Alpha, b.Alpha)
}

func TestCVErrors(t *testing.T) {
	x, y := lineDesign(4, 1, 1)
	_, err := DefaultCV().Fit(context.Background(), x, y)
	assert.ErrorIs(t, err, ErrTooFew)

	x, y = lineDesign(40, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = DefaultCV().Fit(ctx, x, y)
	assert.ErrorIs(t, err, context.Canceled)
}
