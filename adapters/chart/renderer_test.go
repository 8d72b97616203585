package chart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakfit/domain/fit"
)

func sampleData() fit.ChartData {
	x := []float64{1577836800, 1577923200, 1578009600, 1578096000}
	return fit.ChartData{
		Title:       "Piecewise Linear Fit of Close",
		ValueColumn: "Close",
		X:           x,
		Y:           []float64{1, 2, 10, 4},
		Fitted:      []float64{1, 2, 3, 4},
		OutlierMask: []bool{false, false, true, false},
		BreakCount:  2,
	}
}

func TestRender_PNG(t *testing.T) {
	chart, err := NewRenderer("").Render(sampleData())
	require.NoError(t, err)
	assert.Equal(t, "png", chart.Format)
	assert.Equal(t, "image/png", chart.ContentType)
	assert.True(t, bytes.HasPrefix(chart.Data, []byte("\x89PNG")))
}

func TestRender_SVG(t *testing.T) {
	chart, err := NewRenderer("SVG").Render(sampleData())
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", chart.ContentType)
	assert.Contains(t, string(chart.Data), "<svg")
}

func TestRender_Mismatch(t *testing.T) {
	data := sampleData()
	data.Fitted = data.Fitted[:2]
	_, err := NewRenderer("png").Render(data)
	assert.Error(t, err)
}

func TestSortedFit(t *testing.T) {
	xy := sortedFit([]float64{3, 1, 2}, []float64{30, 10, 20})
	assert.Equal(t, 1.0, xy[0].X)
	assert.Equal(t, 30.0, xy[2].Y)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "svg", FormatFromPath("out/chart.svg"))
	assert.Equal(t, "pdf", FormatFromPath("chart.PDF"))
	assert.Equal(t, "png", FormatFromPath("chart"))
	assert.Equal(t, "png", FormatFromPath("chart.gif"))
}
