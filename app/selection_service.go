package app

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"

	"breakfit/adapters/report"
	"breakfit/domain/core"
	"breakfit/domain/fit"
	"breakfit/domain/run"
	"breakfit/domain/series"
	"breakfit/internal"
	"breakfit/internal/config"
	apperrors "breakfit/internal/errors"
	"breakfit/internal/selector"
	"breakfit/ports"
)

// SelectionService runs break-count selections and serves stored runs
type SelectionService struct {
	profiles config.SelectorConfig
	solver   config.SolverConfig
	repo     ports.SelectionRepository
	charts   ports.ChartRenderer
	cache    *otter.Cache[core.Hash, *SelectionOutcome]
	logger   *internal.Logger
}

// SelectionRequest is one table plus the columns and settings to fit
type SelectionRequest struct {
	Table       *series.Table
	DateColumn  string
	ValueColumn string
	Profile     string        // empty means the configured profile
	Overrides   fit.Overrides // applied on top of the profile
}

// SelectionOutcome is a finished selection and its stored record
type SelectionOutcome struct {
	Run       *run.SelectionRun `json:"run"`
	Selection *fit.Selection    `json:"selection"`
	Chart     *fit.Chart        `json:"chart,omitempty"`
	Stored    bool              `json:"stored"`
	Cached    bool              `json:"cached"`
	RuntimeMs int64             `json:"runtime_ms"`
}

// ServiceOption configures a SelectionService
type ServiceOption func(*SelectionService)

// WithRepository persists every new run
func WithRepository(repo ports.SelectionRepository) ServiceOption {
	return func(s *SelectionService) { s.repo = repo }
}

// WithChartRenderer renders charts for configs with PlotResults set
func WithChartRenderer(r ports.ChartRenderer) ServiceOption {
	return func(s *SelectionService) { s.charts = r }
}

// WithServiceLogger replaces the default logger
func WithServiceLogger(l *internal.Logger) ServiceOption {
	return func(s *SelectionService) { s.logger = l }
}

// NewSelectionService creates the service. A cache size of zero disables
// memoisation.
func NewSelectionService(cfg *config.Config, opts ...ServiceOption) (*SelectionService, error) {
	s := &SelectionService{
		profiles: cfg.Selector,
		solver:   cfg.Solver,
		logger:   internal.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("SelectionService")

	if cfg.Cache.Size > 0 {
		cacheOpts := &otter.Options[core.Hash, *SelectionOutcome]{MaximumSize: cfg.Cache.Size}
		if cfg.Cache.TTL > 0 {
			cacheOpts.ExpiryCalculator = otter.ExpiryWriting[core.Hash, *SelectionOutcome](cfg.Cache.TTL)
		}
		cache, err := otter.New(cacheOpts)
		if err != nil {
			return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, fmt.Errorf("result cache: %w", err))
		}
		s.cache = cache
	}
	return s, nil
}

// Profiles returns the available selection profiles
func (s *SelectionService) Profiles() map[string]fit.Profile {
	if s.profiles.Profiles == nil {
		return fit.BuiltinProfiles()
	}
	return s.profiles.Profiles
}

// Run fits the request, or returns the memoised outcome of an identical
// earlier request
func (s *SelectionService) Run(ctx context.Context, req SelectionRequest) (*SelectionOutcome, error) {
	start := time.Now()

	cfg, err := s.profiles.Resolve(req.Profile, req.Overrides)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeValidationError, err)
	}
	ser, err := selector.BuildSeries(req.Table, req.DateColumn, req.ValueColumn)
	if err != nil {
		return nil, apperrors.InvalidInputf(err, "cannot build series from %q and %q", req.DateColumn, req.ValueColumn)
	}
	fp := s.fingerprint(req.Table, ser, cfg)

	if s.cache != nil {
		if hit, ok := s.cache.GetIfPresent(fp.Fingerprint); ok {
			s.logger.Debug("cache hit for %s", fp.Fingerprint.Short())
			out := *hit
			out.Cached = true
			out.RuntimeMs = time.Since(start).Milliseconds()
			return &out, nil
		}
	}

	sel := selector.New(cfg,
		selector.WithSearchOptions(s.solver.SearchOptions()),
		selector.WithCV(s.solver.CV()),
		selector.WithLogger(s.logger),
	)
	selection, err := sel.Select(ctx, req.Table, ser.DateColumn, ser.ValueColumn)
	if err != nil {
		return nil, err
	}

	out := &SelectionOutcome{
		Run:       run.NewSelectionRun(fp, selection),
		Selection: selection,
	}

	if cfg.PlotResults && s.charts != nil {
		chart, err := s.charts.Render(fit.NewChartData(selection))
		if err != nil {
			// the selection stands without its chart
			s.logger.Warn("chart rendering failed: %v", err)
		} else {
			out.Chart = chart
		}
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, out.Run); err != nil {
			return nil, apperrors.WithCode(apperrors.CodeDatabaseError, fmt.Errorf("save selection run: %w", err))
		}
		out.Stored = true
	}

	if s.cache != nil {
		s.cache.Set(fp.Fingerprint, out)
	}
	out.RuntimeMs = time.Since(start).Milliseconds()
	s.logger.Info("run %s: %d segments, %d outliers in %dms", out.Run.RunID, selection.BreakCount, selection.OutlierCount(), out.RuntimeMs)
	return out, nil
}

// fingerprint identifies the numbers, settings and search seed of a run.
// Column names are part of the settings since they label the output, and
// the source records are hashed because the outlier table is cut from them.
func (s *SelectionService) fingerprint(table *series.Table, ser *series.Series, cfg fit.Config) run.RunFingerprint {
	params := cfg.Params()
	params["source_records"] = sourceHash(table).String()
	params["plot_results"] = cfg.PlotResults
	params["date_column"] = ser.DateColumn
	params["value_column"] = ser.ValueColumn
	params["de_max_iter"] = s.solver.DEMaxIter
	params["de_popsize"] = s.solver.DEPopSize
	params["cv_folds"] = s.solver.CVFolds
	params["cv_max_iter"] = s.solver.CVMaxIter
	return run.NewRunFingerprint(
		core.ComputeDatasetHash(ser.X(), ser.Y()),
		core.ComputeParamsHash(params),
		s.solver.Seed,
		run.CodeVersion,
	)
}

func sourceHash(t *series.Table) core.Hash {
	indices := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		indices[i] = r.Index
	}
	cells := make([]string, len(t.Headers))
	return core.ComputeRecordsHash(t.Headers, indices, func(i int) []string {
		for j, h := range t.Headers {
			cells[j] = t.Rows[i].Values[h]
		}
		return cells
	})
}

// Get returns a stored run
func (s *SelectionService) Get(ctx context.Context, id core.RunID) (*run.SelectionRun, error) {
	if s.repo == nil {
		return nil, core.NewNotFoundError("selection run", id.String())
	}
	return s.repo.GetByID(ctx, id)
}

// Recent returns the newest stored runs
func (s *SelectionService) Recent(ctx context.Context, limit int) ([]*run.SelectionRun, error) {
	if s.repo == nil {
		return []*run.SelectionRun{}, nil
	}
	return s.repo.ListRecent(ctx, limit)
}

// FindByFingerprint returns the newest stored run with the fingerprint
func (s *SelectionService) FindByFingerprint(ctx context.Context, fp core.Hash) (*run.SelectionRun, error) {
	if s.repo == nil {
		return nil, core.NewNotFoundError("selection run", fp.Short())
	}
	return s.repo.FindByFingerprint(ctx, fp)
}

// Report renders a stored run as an HTML page
func (s *SelectionService) Report(ctx context.Context, id core.RunID) ([]byte, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.HTML(r), nil
}

// Reader exposes the stored runs read-only
func (s *SelectionService) Reader() ports.ReaderPort {
	return runReader{svc: s}
}

type runReader struct {
	svc *SelectionService
}

func (r runReader) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunSummary, error) {
	runs, err := r.svc.Recent(ctx, filters.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]ports.RunSummary, len(runs))
	for i, sr := range runs {
		out[i] = ports.SummarizeRun(sr)
	}
	return out, nil
}

func (r runReader) GetRun(ctx context.Context, id core.RunID) (*run.SelectionRun, error) {
	return r.svc.Get(ctx, id)
}

func (r runReader) RenderReport(ctx context.Context, id core.RunID) ([]byte, error) {
	return r.svc.Report(ctx, id)
}
