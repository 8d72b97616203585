package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"breakfit/app"
	"breakfit/domain/fit"
	"breakfit/ports"
)

var (
	headerColor   = color.New(color.Bold)
	selectedColor = color.New(color.FgGreen, color.Bold)
	outlierColor  = color.New(color.FgYellow)
	mutedColor    = color.New(color.FgHiBlack)
	errorColor    = color.New(color.FgRed, color.Bold)
)

// printSelection writes a human summary of one run
func printSelection(w io.Writer, out *app.SelectionOutcome) {
	r, sel := out.Run, out.Selection

	headerColor.Fprintf(w, "Piecewise linear fit of %s\n", r.ValueColumn)
	mutedColor.Fprintf(w, "%d observations, %d dropped, penalty %g, threshold %g sd\n\n",
		r.Observations, r.Dropped, r.Config.ComplexityPenalty, r.Config.OutlierThreshold)

	headerColor.Fprintf(w, "%8s %14s %14s\n", "segments", "RSS", "BIC")
	for _, c := range r.Candidates {
		line := fmt.Sprintf("%8d %14.6g %14.6g", c.Breaks, c.RSS, c.BIC)
		if c.Breaks == r.BreakCount {
			selectedColor.Fprintln(w, line+"  <- selected")
		} else {
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintln(w)
	headerColor.Fprintln(w, "Breakpoints")
	for i, t := range r.BreakTimes() {
		slope := ""
		if i < len(sel.Slopes) {
			slope = fmt.Sprintf("  slope %.4g/day", sel.Slopes[i]*86400)
		}
		fmt.Fprintf(w, "  %s%s\n", t.Format("2006-01-02"), slope)
	}

	fmt.Fprintln(w)
	n := len(r.OutlierRows)
	if n == 0 {
		fmt.Fprintln(w, "No outliers")
	} else {
		outlierColor.Fprintf(w, "%d outliers at rows %s\n", n, joinInts(r.OutlierRows, 20))
	}
	if out.Stored {
		mutedColor.Fprintf(w, "Stored as run %s\n", r.RunID)
	}
}

// printProfiles lists named profiles in name order
func printProfiles(w io.Writer, profiles map[string]fit.Profile, active string) {
	headerColor.Fprintf(w, "%-12s %8s %10s %9s  %s\n", "profile", "penalty", "max-breaks", "threshold", "description")
	for _, name := range fit.ProfileNames(profiles) {
		p := profiles[name]
		line := fmt.Sprintf("%-12s %8g %10d %9g  %s", name, p.Config.ComplexityPenalty, p.Config.MaxBreaks, p.Config.OutlierThreshold, p.Description)
		if name == active {
			selectedColor.Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
}

// printRuns lists stored runs, newest first
func printRuns(w io.Writer, runs []ports.RunSummary) {
	if len(runs) == 0 {
		mutedColor.Fprintln(w, "No stored runs")
		return
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.Time().After(runs[j].CreatedAt.Time())
	})
	headerColor.Fprintf(w, "%-36s %-20s %-12s %8s %6s %8s\n", "run", "created", "value", "segments", "n", "outliers")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s %-20s %-12s %8d %6d %8d\n", r.ID, r.CreatedAt.Time().UTC().Format("2006-01-02 15:04:05"),
			r.ValueColumn, r.BreakCount, r.Observations, r.Outliers)
	}
}

func joinInts(v []int, limit int) string {
	parts := make([]string, 0, len(v))
	for i, x := range v {
		if i == limit {
			parts = append(parts, fmt.Sprintf("... (%d more)", len(v)-limit))
			break
		}
		parts = append(parts, strconv.Itoa(x))
	}
	return strings.Join(parts, ", ")
}
