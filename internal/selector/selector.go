// Package selector chooses how many linear segments best describe a time
// series. Each candidate count is fitted, scored with a BIC whose complexity
// term is scaled by a penalty, and the winner is refitted with a
// cross-validated elastic net. Outliers are flagged against the
// unregularized fit.
package selector

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"breakfit/domain/fit"
	"breakfit/domain/series"
	"breakfit/internal"
	"breakfit/internal/elasticnet"
	apperrors "breakfit/internal/errors"
	"breakfit/internal/profiling"
	"breakfit/internal/pwlf"
)

// Selector runs break-count selection for one configuration. It holds no
// mutable state and may be shared between goroutines.
type Selector struct {
	config fit.Config
	search pwlf.Options
	cv     elasticnet.CV
	logger *internal.Logger
}

// Option customises a Selector
type Option func(*Selector)

// WithSearchOptions sets the breakpoint search settings
func WithSearchOptions(opts pwlf.Options) Option {
	return func(s *Selector) { s.search = opts }
}

// WithCV sets the elastic-net cross-validation settings
func WithCV(cv elasticnet.CV) Option {
	return func(s *Selector) { s.cv = cv }
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

// New creates a selector for config
func New(config fit.Config, opts ...Option) *Selector {
	s := &Selector{
		config: config,
		search: pwlf.DefaultOptions(),
		cv:     elasticnet.DefaultCV(),
		logger: internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("Selector")
	return s
}

// Config returns the selection configuration
func (s *Selector) Config() fit.Config {
	return s.config
}

// Select parses dateCol and valueCol from table and runs the selection.
// The outlier table holds the original rows of table.
func (s *Selector) Select(ctx context.Context, table *series.Table, dateCol, valueCol string) (*fit.Selection, error) {
	if err := s.config.Validate(); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeValidationError, err)
	}
	ser, err := BuildSeries(table, dateCol, valueCol)
	if err != nil {
		return nil, apperrors.InvalidInputf(err, "cannot build series from %q and %q", dateCol, valueCol)
	}
	s.logger.Debug("parsed %d observations, dropped %d rows with missing cells", ser.Len(), ser.Dropped)
	return s.run(ctx, ser, table)
}

// SelectSeries runs the selection on an already cleaned series. The outlier
// table is rebuilt from the observations.
func (s *Selector) SelectSeries(ctx context.Context, ser *series.Series) (*fit.Selection, error) {
	if err := s.config.Validate(); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeValidationError, err)
	}
	if ser == nil {
		return nil, apperrors.InvalidInput("series is nil")
	}
	return s.run(ctx, ser, seriesTable(ser))
}

func (s *Selector) run(ctx context.Context, ser *series.Series, source *series.Table) (*fit.Selection, error) {
	start := time.Now()
	x, y := ser.X(), ser.Y()
	n := float64(len(x))

	model, err := pwlf.New(x, y, s.search)
	if err != nil {
		return nil, apperrors.FitFailed(2, err)
	}

	candidates := make([]fit.Candidate, 0, s.config.MaxBreaks-1)
	for k := 2; k <= s.config.MaxBreaks; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		breaks, err := model.Fit(k)
		if err != nil {
			return nil, apperrors.FitFailed(k, err)
		}
		pred, err := model.Predict(x)
		if err != nil {
			return nil, apperrors.FitFailed(k, err)
		}
		rss := sumSquaredResiduals(y, pred)
		bic, err := s.bic(k, n, rss)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("k=%d rss=%g bic=%g", k, rss, bic)
		candidates = append(candidates, fit.Candidate{Breaks: k, Breakpoints: breaks, RSS: rss, BIC: bic})
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.BIC < best.BIC {
			best = c
		}
	}

	if _, err := model.FitWithBreaks(best.Breakpoints); err != nil {
		return nil, apperrors.FitFailed(best.Breaks, err)
	}
	regularized, err := s.regularize(ctx, model, x, y, best.Breaks)
	if err != nil {
		return nil, err
	}

	fitted, err := model.Predict(x)
	if err != nil {
		return nil, apperrors.FitFailed(best.Breaks, err)
	}
	residuals := make([]float64, len(y))
	for i := range y {
		residuals[i] = y[i] - fitted[i]
	}
	summary, mask, err := flagOutliers(residuals, s.config.OutlierThreshold)
	if err != nil {
		return nil, apperrors.Wrap(err, "residual summary")
	}

	var outlierRows []int
	for i, flagged := range mask {
		if flagged {
			outlierRows = append(outlierRows, ser.Observations[i].Row)
		}
	}
	slopes, err := model.Slopes()
	if err != nil {
		return nil, apperrors.FitFailed(best.Breaks, err)
	}
	intercepts, err := model.Intercepts()
	if err != nil {
		return nil, apperrors.FitFailed(best.Breaks, err)
	}

	s.logger.Info("selected %d segments from %d candidates over %d points, %d outliers (%v)",
		best.Breaks, len(candidates), len(x), len(outlierRows), time.Since(start).Round(time.Millisecond))

	return &fit.Selection{
		BreakCount:   best.Breaks,
		Candidates:   candidates,
		Model:        model,
		Breakpoints:  model.Breaks(),
		Coefficients: model.Beta(),
		Slopes:       slopes,
		Intercepts:   intercepts,
		Regularized:  *regularized,
		Series:       *ser,
		Fitted:       fitted,
		Residuals:    residuals,
		OutlierMask:  mask,
		Outliers:     source.SelectIndices(outlierRows),
		Residual:     summary,
		Config:       s.config,
	}, nil
}

// bic scores k segments; a zero residual sum makes the log undefined
func (s *Selector) bic(k int, n, rss float64) (float64, error) {
	if !(rss > 0) {
		return 0, &apperrors.NumericalError{Breaks: k, RSS: rss, Reason: "residual sum of squares is not positive"}
	}
	score := n*math.Log(rss/n) + s.config.ComplexityPenalty*float64(k)*math.Log(n)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, &apperrors.NumericalError{Breaks: k, RSS: rss, Reason: "non-finite BIC"}
	}
	return score, nil
}

// regularize fits the cross-validated elastic net on the piecewise basis of
// the current model. The result is reported only.
func (s *Selector) regularize(ctx context.Context, model *pwlf.PiecewiseLinFit, x, y []float64, k int) (*fit.Regularized, error) {
	design := pwlf.AssembleRegressionMatrix(model.Breaks(), x)
	res, err := s.cv.Fit(ctx, design, y)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.FitFailed(k, fmt.Errorf("elastic net: %w", err))
	}
	if !res.Converged {
		s.logger.Warn("elastic net did not converge at alpha=%g l1_ratio=%g", res.Alpha, res.L1Ratio)
	}
	return &fit.Regularized{
		Coefficients: res.Coef,
		Alpha:        res.Alpha,
		L1Ratio:      res.L1Ratio,
		CVMSE:        res.BestMSE,
		Converged:    res.Converged,
	}, nil
}

func sumSquaredResiduals(y, pred []float64) float64 {
	rss := 0.0
	for i := range y {
		d := y[i] - pred[i]
		rss += d * d
	}
	return rss
}

// flagOutliers marks residuals more than threshold population standard
// deviations from their mean
func flagOutliers(residuals []float64, threshold float64) (fit.Summary, []bool, error) {
	summary, err := profiling.NewResidualAnalyzer().Analyze(residuals)
	if err != nil {
		return fit.Summary{}, nil, err
	}
	mask := make([]bool, len(residuals))
	for i, r := range residuals {
		mask[i] = math.Abs(r-summary.Mean) > threshold*summary.Std
	}
	return summary, mask, nil
}

// seriesTable renders observations as a two-column table keyed by their
// source row
func seriesTable(ser *series.Series) *series.Table {
	dateCol, valueCol := ser.DateColumn, ser.ValueColumn
	if dateCol == "" {
		dateCol = "date"
	}
	if valueCol == "" {
		valueCol = "value"
	}
	t := &series.Table{Headers: []string{dateCol, valueCol}}
	for _, o := range ser.Observations {
		t.Rows = append(t.Rows, series.Row{
			Index: o.Row,
			Values: map[string]string{
				dateCol:  o.Time.UTC().Format(time.RFC3339),
				valueCol: strconv.FormatFloat(o.Value, 'g', -1, 64),
			},
		})
	}
	return t
}
