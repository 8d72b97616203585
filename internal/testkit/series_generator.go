package testkit

import (
	"math/rand"
	"sort"
	"strconv"
	"time"

	"breakfit/domain/series"
)

// SeriesGeneratorConfig configures a synthetic daily piecewise-linear series
type SeriesGeneratorConfig struct {
	Start       time.Time       `json:"start"`
	Days        int             `json:"days"`
	Knots       []int           `json:"knots"`  // day offsets where the slope changes
	Slopes      []float64       `json:"slopes"` // per segment, len(Knots)+1, in value units per day
	Intercept   float64         `json:"intercept"`
	NoiseStd    float64         `json:"noise_std"`
	Outliers    map[int]float64 `json:"outliers"` // row -> offset added to the value
	Missing     []int           `json:"missing"`  // rows whose value is written as NA
	DateColumn  string          `json:"date_column"`
	ValueColumn string          `json:"value_column"`
	DateLayout  string          `json:"date_layout"`
	Seed        int64           `json:"seed"`
}

// DefaultSeriesConfig returns a three-segment series over 1700 trading days
func DefaultSeriesConfig() SeriesGeneratorConfig {
	return SeriesGeneratorConfig{
		Start:       time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC),
		Days:        1700,
		Knots:       []int{600, 1200},
		Slopes:      []float64{1.0, -0.5, 2.0},
		Intercept:   2000,
		NoiseStd:    5,
		DateColumn:  "Date",
		ValueColumn: "Close",
		DateLayout:  "2006-01-02",
		Seed:        42,
	}
}

// SeriesGenerator produces deterministic tables for selector tests
type SeriesGenerator struct {
	config SeriesGeneratorConfig
	rng    *rand.Rand
}

// NewSeriesGenerator creates a new series generator
func NewSeriesGenerator(config SeriesGeneratorConfig) *SeriesGenerator {
	return &SeriesGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Truth returns the noise-free value for each day
func (g *SeriesGenerator) Truth() []float64 {
	knots := append([]int(nil), g.config.Knots...)
	sort.Ints(knots)
	out := make([]float64, g.config.Days)
	value := g.config.Intercept
	segment := 0
	for day := 0; day < g.config.Days; day++ {
		if day > 0 {
			for segment < len(knots) && day > knots[segment] {
				segment++
			}
			value += g.slope(segment)
		}
		out[day] = value
	}
	return out
}

func (g *SeriesGenerator) slope(segment int) float64 {
	if len(g.config.Slopes) == 0 {
		return 0
	}
	if segment >= len(g.config.Slopes) {
		return g.config.Slopes[len(g.config.Slopes)-1]
	}
	return g.config.Slopes[segment]
}

// Generate builds the table with noise, outliers and missing cells applied
func (g *SeriesGenerator) Generate() *series.Table {
	truth := g.Truth()
	missing := make(map[int]bool, len(g.config.Missing))
	for _, m := range g.config.Missing {
		missing[m] = true
	}

	records := make([][]string, g.config.Days)
	for day := 0; day < g.config.Days; day++ {
		date := g.config.Start.AddDate(0, 0, day).Format(g.config.DateLayout)
		v := truth[day] + g.rng.NormFloat64()*g.config.NoiseStd
		if off, ok := g.config.Outliers[day]; ok {
			v += off
		}
		cell := strconv.FormatFloat(v, 'f', 4, 64)
		if missing[day] {
			cell = "NA"
		}
		records[day] = []string{date, cell}
	}
	return series.NewTable([]string{g.config.DateColumn, g.config.ValueColumn}, records)
}

// PiecewiseSeries generates a table in one call
func PiecewiseSeries(config SeriesGeneratorConfig) *series.Table {
	return NewSeriesGenerator(config).Generate()
}
