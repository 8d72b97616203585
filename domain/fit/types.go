package fit

import (
	"time"

	"breakfit/domain/core"
	"breakfit/domain/series"
)

// Config controls a break-count selection
type Config struct {
	ComplexityPenalty float64 `json:"complexity_penalty" yaml:"complexity_penalty"`
	MaxBreaks         int     `json:"max_breaks" yaml:"max_breaks"`
	OutlierThreshold  float64 `json:"outlier_threshold" yaml:"outlier_threshold"`
	PlotResults       bool    `json:"plot_results" yaml:"plot_results"`
}

// Params returns the config as a flat map for fingerprinting
func (c Config) Params() map[string]interface{} {
	return map[string]interface{}{
		"complexity_penalty": c.ComplexityPenalty,
		"max_breaks":         c.MaxBreaks,
		"outlier_threshold":  c.OutlierThreshold,
	}
}

// Model is the fitted piecewise-linear model handle
type Model interface {
	Predict(x []float64) ([]float64, error)
	Breaks() []float64
}

// Candidate is the score of one break count in the search
type Candidate struct {
	Breaks      int       `json:"breaks"`
	Breakpoints []float64 `json:"breakpoints"`
	RSS         float64   `json:"rss"`
	BIC         float64   `json:"bic"`
}

// Regularized holds the elastic-net refit of the selected piecewise basis.
// It is reported alongside the selection; fitted values and outliers come
// from the unregularized model.
type Regularized struct {
	Coefficients []float64 `json:"coefficients"`
	Alpha        float64   `json:"alpha"`
	L1Ratio      float64   `json:"l1_ratio"`
	CVMSE        float64   `json:"cv_mse"`
	Converged    bool      `json:"converged"`
}

// Selection is the outcome of a break-count search
type Selection struct {
	BreakCount   int           `json:"break_count"`
	Candidates   []Candidate   `json:"candidates"`
	Model        Model         `json:"-"`
	Breakpoints  []float64     `json:"breakpoints"`
	Coefficients []float64     `json:"coefficients"`
	Slopes       []float64     `json:"slopes"`
	Intercepts   []float64     `json:"intercepts"`
	Regularized  Regularized   `json:"regularized"`
	Series       series.Series `json:"-"`
	Fitted       []float64     `json:"fitted"`
	Residuals    []float64     `json:"residuals"`
	OutlierMask  []bool        `json:"outlier_mask"`
	Outliers     *series.Table `json:"outliers"`
	Residual     Summary       `json:"residual_summary"`
	Config       Config        `json:"config"`
}

// Summary describes the residual distribution of the selected fit. Std is
// the population standard deviation used for the outlier band.
type Summary struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`

	// Shape of the residuals; informational only
	Skewness       float64 `json:"skewness"`
	ExcessKurtosis float64 `json:"excess_kurtosis"`
	JarqueBera     float64 `json:"jarque_bera"`
	NormalityP     float64 `json:"normality_p"`
	DurbinWatson   float64 `json:"durbin_watson"`
	IQROutliers    int     `json:"iqr_outliers"`
}

// LooksNormal reports whether the Jarque-Bera test fails to reject
// normality at the 5% level
func (s Summary) LooksNormal() bool {
	return s.NormalityP > 0.05
}

// Best returns the winning candidate
func (s *Selection) Best() Candidate {
	for _, c := range s.Candidates {
		if c.Breaks == s.BreakCount {
			return c
		}
	}
	return Candidate{}
}

// BreakTimes converts the breakpoints back to UTC instants
func (s *Selection) BreakTimes() []time.Time {
	out := make([]time.Time, len(s.Breakpoints))
	for i, b := range s.Breakpoints {
		out[i] = core.FromEpochSeconds(b)
	}
	return out
}

// OutlierCount returns the number of flagged observations
func (s *Selection) OutlierCount() int {
	n := 0
	for _, m := range s.OutlierMask {
		if m {
			n++
		}
	}
	return n
}

// ChartData is what a renderer needs to draw the fit overlay
type ChartData struct {
	Title       string
	ValueColumn string
	X           []float64
	Y           []float64
	Fitted      []float64
	OutlierMask []bool
	BreakCount  int
}

// NewChartData builds chart input from a selection
func NewChartData(s *Selection) ChartData {
	return ChartData{
		Title:       "Piecewise Linear Fit of " + s.Series.ValueColumn,
		ValueColumn: s.Series.ValueColumn,
		X:           s.Series.X(),
		Y:           s.Series.Y(),
		Fitted:      s.Fitted,
		OutlierMask: s.OutlierMask,
		BreakCount:  s.BreakCount,
	}
}

// Chart is a rendered image artifact
type Chart struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}
