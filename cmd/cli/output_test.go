package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakfit/app"
	"breakfit/domain/core"
	"breakfit/domain/fit"
	"breakfit/domain/run"
	"breakfit/ports"
)

func init() {
	color.NoColor = true
}

func TestOverridesFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("select", pflag.ContinueOnError)
	var opts selectOptions
	flags.Float64Var(&opts.penalty, "penalty", 0, "")
	flags.IntVar(&opts.maxBreaks, "max-breaks", 0, "")
	flags.Float64Var(&opts.threshold, "threshold", 0, "")
	require.NoError(t, flags.Parse([]string{"--max-breaks", "4"}))
	opts.plot = true

	o := overridesFromFlags(flags, opts)
	assert.Nil(t, o.ComplexityPenalty)
	assert.Nil(t, o.OutlierThreshold)
	require.NotNil(t, o.MaxBreaks)
	assert.Equal(t, 4, *o.MaxBreaks)
	require.NotNil(t, o.PlotResults)
	assert.False(t, *o.PlotResults, "no chart path means nothing to plot")

	opts.chartPath = "fit.png"
	assert.True(t, *overridesFromFlags(flags, opts).PlotResults)
}

func TestPrintSelection(t *testing.T) {
	r := &run.SelectionRun{
		RunID:        core.NewRunID(),
		ValueColumn:  "Close",
		Config:       fit.Config{ComplexityPenalty: 2, MaxBreaks: 4, OutlierThreshold: 3},
		BreakCount:   3,
		Observations: 400,
		Breakpoints:  []float64{1.7e9, 1.71e9, 1.72e9, 1.73e9},
		Candidates: []fit.Candidate{
			{Breaks: 2, RSS: 900, BIC: 120},
			{Breaks: 3, RSS: 400, BIC: 80},
		},
		OutlierRows: []int{221},
	}
	var buf bytes.Buffer
	printSelection(&buf, &app.SelectionOutcome{Run: r, Selection: &fit.Selection{Slopes: []float64{0.001, -0.002, 0.0005}}, Stored: true})

	out := buf.String()
	assert.Contains(t, out, "Piecewise linear fit of Close")
	assert.Contains(t, out, "<- selected")
	assert.Contains(t, out, "1 outliers at rows 221")
	assert.Contains(t, out, "Stored as run "+r.RunID.String())
	assert.Contains(t, out, "slope 86.4/day")
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Contains(t, buf.String(), "No stored runs")

	buf.Reset()
	older := core.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := core.NewTimestamp(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	printRuns(&buf, []ports.RunSummary{
		{ID: "old", ValueColumn: "Close", CreatedAt: older},
		{ID: "new", ValueColumn: "Open", CreatedAt: newer},
	})
	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("new")), bytes.Index(buf.Bytes(), []byte("old")))
	assert.Contains(t, out, "2024-06-01 00:00:00")
}

func TestPrintProfiles(t *testing.T) {
	var buf bytes.Buffer
	printProfiles(&buf, fit.BuiltinProfiles(), fit.ProfileStandard)
	out := buf.String()
	assert.Contains(t, out, fit.ProfileStandard)
	assert.Contains(t, out, fit.ProfileEfficiency)
}

func TestJoinInts(t *testing.T) {
	assert.Equal(t, "1, 2, 3", joinInts([]int{1, 2, 3}, 5))
	assert.Equal(t, "1, 2, ... (2 more)", joinInts([]int{1, 2, 3, 4}, 2))
}
