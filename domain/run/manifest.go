package run

import (
	"fmt"
	"time"

	"breakfit/domain/core"
	"breakfit/domain/fit"
	"breakfit/domain/series"
)

// SelectionRun is the stored record of one break-count selection
type SelectionRun struct {
	RunID        core.RunID      `json:"run_id"`
	Fingerprint  RunFingerprint  `json:"fingerprint"`
	DateColumn   string          `json:"date_column"`
	ValueColumn  string          `json:"value_column"`
	Config       fit.Config      `json:"config"`
	BreakCount   int             `json:"break_count"`
	Observations int             `json:"observations"`
	Dropped      int             `json:"dropped"`
	Breakpoints  []float64       `json:"breakpoints"`
	Coefficients []float64       `json:"coefficients"`
	Candidates   []fit.Candidate `json:"candidates"`
	Regularized  fit.Regularized `json:"regularized"`
	Residual     fit.Summary     `json:"residual_summary"`
	OutlierRows  []int           `json:"outlier_rows"`
	Outliers     *series.Table   `json:"outliers"`
	CreatedAt    core.Timestamp  `json:"created_at"`
}

// NewSelectionRun captures a finished selection under a fresh run id
func NewSelectionRun(fp RunFingerprint, sel *fit.Selection) *SelectionRun {
	rows := make([]int, 0, sel.OutlierCount())
	for i, flagged := range sel.OutlierMask {
		if flagged {
			rows = append(rows, sel.Series.Observations[i].Row)
		}
	}
	return &SelectionRun{
		RunID:        core.NewRunID(),
		Fingerprint:  fp,
		DateColumn:   sel.Series.DateColumn,
		ValueColumn:  sel.Series.ValueColumn,
		Config:       sel.Config,
		BreakCount:   sel.BreakCount,
		Observations: sel.Series.Len(),
		Dropped:      sel.Series.Dropped,
		Breakpoints:  sel.Breakpoints,
		Coefficients: sel.Coefficients,
		Candidates:   sel.Candidates,
		Regularized:  sel.Regularized,
		Residual:     sel.Residual,
		OutlierRows:  rows,
		Outliers:     sel.Outliers,
		CreatedAt:    core.NewTimestamp(time.Now().UTC().Truncate(time.Second)),
	}
}

// BreakTimes converts the stored breakpoints to UTC instants
func (r *SelectionRun) BreakTimes() []time.Time {
	out := make([]time.Time, len(r.Breakpoints))
	for i, b := range r.Breakpoints {
		out[i] = core.FromEpochSeconds(b)
	}
	return out
}

// Best returns the stored winning candidate
func (r *SelectionRun) Best() fit.Candidate {
	for _, c := range r.Candidates {
		if c.Breaks == r.BreakCount {
			return c
		}
	}
	return fit.Candidate{}
}

// Validate checks if the record is complete
func (r *SelectionRun) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return fmt.Errorf("selection run: run_id cannot be empty")
	}
	if r.Fingerprint.Fingerprint.IsEmpty() {
		return fmt.Errorf("selection run: fingerprint cannot be empty")
	}
	if r.BreakCount < 2 {
		return fmt.Errorf("selection run: break_count %d below 2", r.BreakCount)
	}
	if len(r.Breakpoints) != r.BreakCount+1 {
		return fmt.Errorf("selection run: %d breakpoints for %d segments", len(r.Breakpoints), r.BreakCount)
	}
	return nil
}
