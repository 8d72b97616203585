// Package pwlf fits continuous piecewise-linear functions by least squares.
//
// A model with n segments is described by n+1 breakpoints b0 < b1 < ... < bn
// where b0 and bn are the smallest and largest x. For fixed breakpoints the
// fit is an ordinary least-squares problem on the basis
//
//	[1, x-b0, max(x-b1, 0), ..., max(x-b(n-1), 0)]
//
// and Fit searches the interior breakpoints globally with differential
// evolution followed by a Nelder-Mead polish.
package pwlf

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInsufficientData = errors.New("pwlf: insufficient data for requested segments")
	ErrSingular         = errors.New("pwlf: singular regression matrix")
	ErrNotFitted        = errors.New("pwlf: model has not been fitted")
	ErrDegenerate       = errors.New("pwlf: x has no spread")
	ErrInvalidInput     = errors.New("pwlf: invalid input")
)

// Options tunes the breakpoint search
type Options struct {
	Seed    int64   // seed of the search's random stream
	PopSize int     // population size multiplier per dimension
	MaxIter int     // generation cap
	Tol     float64 // relative spread of population energies at convergence
	Polish  bool    // refine the best member with Nelder-Mead
}

// DefaultOptions mirrors the usual differential evolution settings
func DefaultOptions() Options {
	return Options{
		Seed:    42,
		PopSize: 15,
		MaxIter: 1000,
		Tol:     0.01,
		Polish:  true,
	}
}

// PiecewiseLinFit holds the data and, once fitted, the model state
type PiecewiseLinFit struct {
	x, y []float64
	opts Options

	breaks []float64
	beta   []float64
	ssr    float64
	fitted bool

	// best interior breakpoints in unit coordinates per segment count,
	// used to seed the search for one more segment
	searched map[int][]float64
}

// New copies x and y and validates them
func New(x, y []float64, opts Options) (*PiecewiseLinFit, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrInvalidInput, len(x), len(y))
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: no observations", ErrInsufficientData)
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("%w: non-finite observation at %d", ErrInvalidInput, i)
		}
	}
	if opts.PopSize <= 0 {
		opts.PopSize = DefaultOptions().PopSize
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultOptions().MaxIter
	}
	if opts.Tol <= 0 {
		opts.Tol = DefaultOptions().Tol
	}
	return &PiecewiseLinFit{
		x:        append([]float64(nil), x...),
		y:        append([]float64(nil), y...),
		opts:     opts,
		searched: make(map[int][]float64),
	}, nil
}

// Fit searches breakpoints for nSegments line segments, fits the model and
// returns the nSegments+1 breakpoints including both ends of x. When the
// same model was fitted with nSegments-1 segments before, that solution
// seeds the search and the residual sum never exceeds it.
func (p *PiecewiseLinFit) Fit(nSegments int) ([]float64, error) {
	if nSegments < 1 {
		return nil, fmt.Errorf("%w: %d segments", ErrInvalidInput, nSegments)
	}
	if params := nSegments + 1; len(p.x) < params {
		return nil, fmt.Errorf("%w: %d observations, %d parameters", ErrInsufficientData, len(p.x), params)
	}
	lo, hi := floats.Min(p.x), floats.Max(p.x)
	if lo == hi {
		return nil, ErrDegenerate
	}

	if nSegments == 1 {
		breaks := []float64{lo, hi}
		if _, err := p.FitWithBreaks(breaks); err != nil {
			return nil, err
		}
		p.searched[1] = []float64{}
		return p.Breaks(), nil
	}

	g := newGramSolver(p.x, p.y, lo, hi, nSegments+1)
	objective := func(interior []float64) float64 {
		return g.ssr(interior)
	}

	rng := rand.New(rand.NewSource(p.opts.Seed + int64(nSegments)))
	de := &evolver{
		f:       objective,
		dim:     nSegments - 1,
		rng:     rng,
		popMult: p.opts.PopSize,
		maxIter: p.opts.MaxIter,
		tol:     p.opts.Tol,
	}
	var nested []float64
	nestedE := math.Inf(1)
	if prev, ok := p.searched[nSegments-1]; ok {
		de.seeds = nestedSeeds(prev, rng)
		for _, seed := range de.seeds {
			if e := objective(seed); e < nestedE {
				nested, nestedE = seed, e
			}
		}
	}
	best, bestE := de.minimize()
	if p.opts.Polish && !math.IsInf(bestE, 1) {
		best, bestE = polish(objective, best, bestE)
	}
	if nestedE < bestE {
		best, bestE = nested, nestedE
	}
	if math.IsInf(bestE, 1) {
		return nil, fmt.Errorf("%w: no finite fit for %d segments", ErrSingular, nSegments)
	}
	p.searched[nSegments] = sortedCopy(best)

	breaks := make([]float64, 0, nSegments+1)
	breaks = append(breaks, lo)
	for _, u := range sortedCopy(best) {
		breaks = append(breaks, lo+u*(hi-lo))
	}
	breaks = append(breaks, hi)

	if _, err := p.FitWithBreaks(breaks); err != nil {
		return nil, err
	}
	return p.Breaks(), nil
}

// FitWithBreaks solves for the coefficients with the breakpoints held fixed
// and returns the residual sum of squares.
func (p *PiecewiseLinFit) FitWithBreaks(breaks []float64) (float64, error) {
	if len(breaks) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 breakpoints", ErrInvalidInput)
	}
	breaks = sortedCopy(breaks)
	if len(p.x) < len(breaks) {
		return 0, fmt.Errorf("%w: %d observations, %d parameters", ErrInsufficientData, len(p.x), len(breaks))
	}

	a := AssembleRegressionMatrix(breaks, p.x)
	beta, err := lstsq(a, p.y)
	if err != nil {
		return 0, err
	}

	var fitted mat.VecDense
	fitted.MulVec(a, mat.NewVecDense(len(beta), beta))
	ssr := 0.0
	for i, yi := range p.y {
		r := yi - fitted.AtVec(i)
		ssr += r * r
	}
	if math.IsNaN(ssr) || math.IsInf(ssr, 0) {
		return 0, fmt.Errorf("%w: non-finite residuals", ErrSingular)
	}

	p.breaks = breaks
	p.beta = beta
	p.ssr = ssr
	p.fitted = true
	return ssr, nil
}

// Predict evaluates the fitted model at x
func (p *PiecewiseLinFit) Predict(x []float64) ([]float64, error) {
	if !p.fitted {
		return nil, ErrNotFitted
	}
	if len(x) == 0 {
		return []float64{}, nil
	}
	a := AssembleRegressionMatrix(p.breaks, x)
	var out mat.VecDense
	out.MulVec(a, mat.NewVecDense(len(p.beta), p.beta))
	return append([]float64(nil), out.RawVector().Data...), nil
}

// Breaks returns the fitted breakpoints, or nil before fitting
func (p *PiecewiseLinFit) Breaks() []float64 {
	return append([]float64(nil), p.breaks...)
}

// Beta returns the basis coefficients
func (p *PiecewiseLinFit) Beta() []float64 {
	return append([]float64(nil), p.beta...)
}

// SSR returns the residual sum of squares of the last fit
func (p *PiecewiseLinFit) SSR() float64 {
	return p.ssr
}

// NumParameters is the number of basis columns of the fitted model
func (p *PiecewiseLinFit) NumParameters() int {
	return len(p.beta)
}

// Slopes returns the slope of each segment
func (p *PiecewiseLinFit) Slopes() ([]float64, error) {
	slopes, _, err := p.segments()
	return slopes, err
}

// Intercepts returns the y-intercept of each segment's line
func (p *PiecewiseLinFit) Intercepts() ([]float64, error) {
	_, intercepts, err := p.segments()
	return intercepts, err
}

func (p *PiecewiseLinFit) segments() ([]float64, []float64, error) {
	yb, err := p.Predict(p.breaks)
	if err != nil {
		return nil, nil, err
	}
	n := len(p.breaks) - 1
	slopes := make([]float64, n)
	intercepts := make([]float64, n)
	for i := 0; i < n; i++ {
		dx := p.breaks[i+1] - p.breaks[i]
		if dx != 0 {
			slopes[i] = (yb[i+1] - yb[i]) / dx
		}
		intercepts[i] = yb[i] - slopes[i]*p.breaks[i]
	}
	return slopes, intercepts, nil
}

// AssembleRegressionMatrix builds the len(x) by len(breaks) basis matrix
// for sorted breakpoints.
func AssembleRegressionMatrix(breaks, x []float64) *mat.Dense {
	cols := len(breaks)
	a := mat.NewDense(len(x), cols, nil)
	for i, xi := range x {
		a.Set(i, 0, 1)
		a.Set(i, 1, xi-breaks[0])
		for j := 1; j < cols-1; j++ {
			if xi > breaks[j] {
				a.Set(i, j+1, xi-breaks[j])
			}
		}
	}
	return a
}

// lstsq solves min ||a*beta - y|| with a QR factorisation
func lstsq(a *mat.Dense, y []float64) ([]float64, error) {
	rows, cols := a.Dims()
	if rows < cols {
		return nil, fmt.Errorf("%w: %d rows, %d columns", ErrInsufficientData, rows, cols)
	}
	var qr mat.QR
	qr.Factorize(a)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(len(y), y)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}
	out := append([]float64(nil), beta.RawVector().Data...)
	for _, b := range out {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficients", ErrSingular)
		}
	}
	return out, nil
}

func sortedCopy(v []float64) []float64 {
	out := append([]float64(nil), v...)
	sort.Float64s(out)
	return out
}
