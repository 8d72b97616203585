package ports

import (
	"context"

	"breakfit/domain/core"
	"breakfit/domain/run"
)

// ReaderPort provides read-only access to stored selections for the UI.
// The UI never runs or stores selections itself.
type ReaderPort interface {
	ListRuns(ctx context.Context, filters RunFilters) ([]RunSummary, error)
	GetRun(ctx context.Context, runID core.RunID) (*run.SelectionRun, error)
	RenderReport(ctx context.Context, runID core.RunID) ([]byte, error)
}

// RunFilters for querying runs
type RunFilters struct {
	Limit int
}

// RunSummary is one line of the run listing
type RunSummary struct {
	ID           core.RunID     `json:"id"`
	DateColumn   string         `json:"date_column"`
	ValueColumn  string         `json:"value_column"`
	BreakCount   int            `json:"break_count"`
	Observations int            `json:"observations"`
	Outliers     int            `json:"outliers"`
	CreatedAt    core.Timestamp `json:"created_at"`
}

// SummarizeRun builds a listing line from a stored run
func SummarizeRun(r *run.SelectionRun) RunSummary {
	return RunSummary{
		ID:           r.RunID,
		DateColumn:   r.DateColumn,
		ValueColumn:  r.ValueColumn,
		BreakCount:   r.BreakCount,
		Observations: r.Observations,
		Outliers:     len(r.OutlierRows),
		CreatedAt:    r.CreatedAt,
	}
}
