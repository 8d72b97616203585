// Package profiling describes the distribution of fit residuals.
package profiling

import (
	"errors"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"breakfit/domain/fit"
)

// ErrNoResiduals is returned for an empty residual vector
var ErrNoResiduals = errors.New("profiling: no residuals")

// ResidualAnalyzer summarizes residual vectors
type ResidualAnalyzer struct {
	// IQRFence is the Tukey fence multiplier, 1.5 by default
	IQRFence float64
}

// NewResidualAnalyzer creates an analyzer with the usual Tukey fence
func NewResidualAnalyzer() *ResidualAnalyzer {
	return &ResidualAnalyzer{IQRFence: 1.5}
}

// Analyze computes location, spread and shape of the residuals in
// observation order. The standard deviation is the population one;
// quantiles interpolate linearly so short vectors still have them.
func (ra *ResidualAnalyzer) Analyze(residuals []float64) (fit.Summary, error) {
	var out fit.Summary
	if len(residuals) == 0 {
		return out, ErrNoResiduals
	}
	data := stats.Float64Data(residuals)

	var err error
	if out.Mean, err = stats.Mean(data); err != nil {
		return out, err
	}
	if out.Std, err = stats.StandardDeviationPopulation(data); err != nil {
		return out, err
	}
	if out.Min, err = stats.Min(data); err != nil {
		return out, err
	}
	if out.Max, err = stats.Max(data); err != nil {
		return out, err
	}
	if out.Median, err = stats.Median(data); err != nil {
		return out, err
	}
	sorted := append([]float64(nil), residuals...)
	sort.Float64s(sorted)
	out.P05 = stat.Quantile(0.05, stat.LinInterp, sorted, nil)
	out.P95 = stat.Quantile(0.95, stat.LinInterp, sorted, nil)
	q25 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q75 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	out.IQROutliers = countOutsideFence(residuals, q25, q75, ra.fence())

	out.Skewness, out.ExcessKurtosis = moments(residuals, out.Mean, out.Std)
	out.JarqueBera, out.NormalityP = jarqueBera(len(residuals), out.Skewness, out.ExcessKurtosis)
	out.DurbinWatson = durbinWatson(residuals)
	return out, nil
}

func (ra *ResidualAnalyzer) fence() float64 {
	if ra == nil || ra.IQRFence <= 0 {
		return 1.5
	}
	return ra.IQRFence
}

// moments returns the population skewness and excess kurtosis. A constant
// vector has neither, and both are reported as zero.
func moments(data []float64, mean, std float64) (skew, exKurt float64) {
	if std == 0 || len(data) < 2 {
		return 0, 0
	}
	var m3, m4 float64
	for _, x := range data {
		d := (x - mean) / std
		d2 := d * d
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(data))
	return m3 / n, m4/n - 3
}

// jarqueBera tests normality from skewness and excess kurtosis; the
// statistic is asymptotically chi-squared with two degrees of freedom
func jarqueBera(n int, skew, exKurt float64) (stat, p float64) {
	stat = float64(n) / 6 * (skew*skew + exKurt*exKurt/4)
	p = distuv.ChiSquared{K: 2}.Survival(stat)
	return stat, p
}

// durbinWatson measures first-order autocorrelation of residuals ordered in
// time. Values near 2 mean none, near 0 strong positive correlation.
func durbinWatson(residuals []float64) float64 {
	var num, den float64
	for i, r := range residuals {
		den += r * r
		if i > 0 {
			d := r - residuals[i-1]
			num += d * d
		}
	}
	if den == 0 {
		// undefined for an exact fit
		return 0
	}
	return num / den
}

func countOutsideFence(data []float64, q25, q75, k float64) int {
	iqr := q75 - q25
	lo, hi := q25-k*iqr, q75+k*iqr
	n := 0
	for _, x := range data {
		if x < lo || x > hi {
			n++
		}
	}
	return n
}
