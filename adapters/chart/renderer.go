// Package chart draws the fit overlay: observations, the piecewise fit and
// the flagged outliers on a date axis.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"breakfit/domain/fit"
)

var contentTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
	"pdf": "application/pdf",
}

var (
	dataColor    = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	fitColor     = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	outlierColor = color.RGBA{R: 30, G: 80, B: 220, A: 255}
)

// Renderer renders fit overlays with gonum/plot
type Renderer struct {
	Format string
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns a renderer for format (png, svg or pdf)
func NewRenderer(format string) *Renderer {
	return &Renderer{
		Format: normalizeFormat(format),
		Width:  10 * vg.Inch,
		Height: 6 * vg.Inch,
	}
}

// FormatFromPath infers the image format of an output file
func FormatFromPath(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return normalizeFormat(path[i+1:])
	}
	return "png"
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if _, ok := contentTypes[format]; !ok {
		return "png"
	}
	return format
}

// Render draws data and returns the encoded image
func (r *Renderer) Render(data fit.ChartData) (*fit.Chart, error) {
	if len(data.X) != len(data.Y) || len(data.X) != len(data.Fitted) || len(data.X) != len(data.OutlierMask) {
		return nil, fmt.Errorf("chart: mismatched series lengths")
	}
	if len(data.X) == 0 {
		return nil, fmt.Errorf("chart: no observations")
	}

	p := plot.New()
	p.Title.Text = data.Title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = data.ValueColumn
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())

	points := make(plotter.XYs, len(data.X))
	var outliers plotter.XYs
	for i := range data.X {
		points[i] = plotter.XY{X: data.X[i], Y: data.Y[i]}
		if data.OutlierMask[i] {
			outliers = append(outliers, points[i])
		}
	}

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, fmt.Errorf("chart: data scatter: %w", err)
	}
	scatter.GlyphStyle.Color = dataColor
	scatter.GlyphStyle.Radius = vg.Points(1.5)

	line, err := plotter.NewLine(sortedFit(data.X, data.Fitted))
	if err != nil {
		return nil, fmt.Errorf("chart: fit line: %w", err)
	}
	line.LineStyle.Color = fitColor
	line.LineStyle.Width = vg.Points(1.5)

	p.Add(scatter, line)
	p.Legend.Add("Data", scatter)
	p.Legend.Add("Piecewise Linear Fit", line)

	if len(outliers) > 0 {
		marks, err := plotter.NewScatter(outliers)
		if err != nil {
			return nil, fmt.Errorf("chart: outlier scatter: %w", err)
		}
		marks.GlyphStyle.Color = outlierColor
		marks.GlyphStyle.Radius = vg.Points(3)
		p.Add(marks)
		p.Legend.Add("Outliers", marks)
	}
	p.Legend.Top = true

	writer, err := p.WriterTo(r.Width, r.Height, r.Format)
	if err != nil {
		return nil, fmt.Errorf("chart: encoder: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: encode %s: %w", r.Format, err)
	}
	return &fit.Chart{Format: r.Format, ContentType: contentTypes[r.Format], Data: buf.Bytes()}, nil
}

// sortedFit orders the fitted values by x so the line does not double back
func sortedFit(x, fitted []float64) plotter.XYs {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	out := make(plotter.XYs, len(idx))
	for i, j := range idx {
		out[i] = plotter.XY{X: x[j], Y: fitted[j]}
	}
	return out
}
