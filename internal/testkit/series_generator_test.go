package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesGenerator_Truth(t *testing.T) {
	cfg := SeriesGeneratorConfig{Days: 6, Knots: []int{2}, Slopes: []float64{1, -1}, Intercept: 10}
	truth := NewSeriesGenerator(cfg).Truth()
	assert.Equal(t, []float64{10, 11, 12, 11, 10, 9}, truth)
}

func TestSeriesGenerator_Deterministic(t *testing.T) {
	cfg := DefaultSeriesConfig()
	cfg.Days = 50
	cfg.Outliers = map[int]float64{10: 500}
	cfg.Missing = []int{3}

	a := PiecewiseSeries(cfg)
	b := PiecewiseSeries(cfg)
	require.Equal(t, 50, a.Len())
	assert.Equal(t, a.Rows, b.Rows)
	assert.Equal(t, []string{"Date", "Close"}, a.Headers)
	assert.Equal(t, "2015-01-02", a.Rows[0].Values["Date"])
	assert.Equal(t, "NA", a.Rows[3].Values["Close"])
	assert.Equal(t, 10, a.Rows[10].Index)
}
