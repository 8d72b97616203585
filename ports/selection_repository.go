package ports

import (
	"context"

	"breakfit/domain/core"
	"breakfit/domain/fit"
	"breakfit/domain/run"
)

// SelectionRepository defines the interface for storing selection runs
type SelectionRepository interface {
	Save(ctx context.Context, r *run.SelectionRun) error
	GetByID(ctx context.Context, id core.RunID) (*run.SelectionRun, error)
	ListRecent(ctx context.Context, limit int) ([]*run.SelectionRun, error)
	FindByFingerprint(ctx context.Context, fingerprint core.Hash) (*run.SelectionRun, error)
}

// ChartRenderer draws the fit overlay of a selection
type ChartRenderer interface {
	Render(data fit.ChartData) (*fit.Chart, error)
}
