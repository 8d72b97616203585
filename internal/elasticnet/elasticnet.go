// Package elasticnet fits linear models without intercept under a combined
// L1/L2 penalty, minimising
//
//	1/(2n) ||y - Xw||^2 + alpha*l1*||w||_1 + 0.5*alpha*(1-l1)*||w||^2
//
// by cyclic coordinate descent on the Gram matrix.
package elasticnet

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrShape     = errors.New("elasticnet: design matrix and response disagree")
	ErrTooFew    = errors.New("elasticnet: too few samples")
	ErrParameter = errors.New("elasticnet: invalid parameter")
)

// Options bounds a single coordinate descent solve
type Options struct {
	MaxIter int
	Tol     float64 // duality gap tolerance, scaled by ||y||^2
}

// DefaultOptions matches the customary solver settings
func DefaultOptions() Options {
	return Options{MaxIter: 1000, Tol: 1e-4}
}

// Result of a single solve
type Result struct {
	Coef       []float64
	Alpha      float64
	L1Ratio    float64
	Iterations int
	Gap        float64
	Converged  bool
}

// gram holds the sufficient statistics of a least-squares problem
type gram struct {
	q  *mat.SymDense // X'X
	xy []float64     // X'y
	yy float64       // y'y
	n  int
}

func newGram(x mat.Matrix, y []float64, rows []int) *gram {
	_, p := x.Dims()
	q := mat.NewSymDense(p, nil)
	xy := make([]float64, p)
	yy := 0.0
	row := make([]float64, p)
	for _, i := range rows {
		for j := 0; j < p; j++ {
			row[j] = x.At(i, j)
		}
		yi := y[i]
		yy += yi * yi
		for a := 0; a < p; a++ {
			if row[a] == 0 {
				continue
			}
			xy[a] += row[a] * yi
			for b := a; b < p; b++ {
				q.SetSym(a, b, q.At(a, b)+row[a]*row[b])
			}
		}
	}
	return &gram{q: q, xy: xy, yy: yy, n: len(rows)}
}

// alphaMax is the smallest alpha for which every coefficient is zero
func (g *gram) alphaMax(l1Ratio float64) float64 {
	m := 0.0
	for _, v := range g.xy {
		m = math.Max(m, math.Abs(v))
	}
	return m / (float64(g.n) * l1Ratio)
}

// Fit solves the elastic net for a single (alpha, l1Ratio) pair
func Fit(x mat.Matrix, y []float64, alpha, l1Ratio float64, opts Options) (*Result, error) {
	r, _ := x.Dims()
	if r != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d responses", ErrShape, r, len(y))
	}
	if r == 0 {
		return nil, ErrTooFew
	}
	if err := checkParams(alpha, l1Ratio); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	g := newGram(x, y, allRows(r))
	_, p := x.Dims()
	w := make([]float64, p)
	return g.solve(w, alpha, l1Ratio, opts), nil
}

func checkParams(alpha, l1Ratio float64) error {
	if alpha < 0 || math.IsNaN(alpha) {
		return fmt.Errorf("%w: alpha=%g", ErrParameter, alpha)
	}
	if l1Ratio < 0 || l1Ratio > 1 || math.IsNaN(l1Ratio) {
		return fmt.Errorf("%w: l1_ratio=%g", ErrParameter, l1Ratio)
	}
	return nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxIter <= 0 {
		o.MaxIter = d.MaxIter
	}
	if o.Tol <= 0 {
		o.Tol = d.Tol
	}
	return o
}

// solve runs coordinate descent starting from w, which is updated in place
func (g *gram) solve(w []float64, alpha, l1Ratio float64, opts Options) *Result {
	p := len(w)
	n := float64(g.n)
	l1 := alpha * l1Ratio * n
	l2 := alpha * (1 - l1Ratio) * n
	tol := opts.Tol * g.yy

	// h = Q w
	h := make([]float64, p)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			h[i] += g.q.At(i, j) * w[j]
		}
	}

	res := &Result{Alpha: alpha, L1Ratio: l1Ratio}
	gap := tol + 1
	for iter := 1; iter <= opts.MaxIter; iter++ {
		res.Iterations = iter
		maxW, maxDW := 0.0, 0.0
		for j := 0; j < p; j++ {
			qjj := g.q.At(j, j)
			if qjj == 0 {
				continue
			}
			old := w[j]
			tmp := g.xy[j] - h[j] + qjj*old
			w[j] = softThreshold(tmp, l1) / (qjj + l2)
			if d := w[j] - old; d != 0 {
				for i := 0; i < p; i++ {
					h[i] += d * g.q.At(i, j)
				}
			}
			maxDW = math.Max(maxDW, math.Abs(w[j]-old))
			maxW = math.Max(maxW, math.Abs(w[j]))
		}
		if maxW == 0 || maxDW/maxW < opts.Tol || iter == opts.MaxIter {
			gap = g.dualityGap(w, h, l1, l2)
			if gap < tol {
				res.Converged = true
				break
			}
		}
	}
	res.Gap = gap
	res.Coef = append([]float64(nil), w...)
	return res
}

func (g *gram) dualityGap(w, h []float64, l1, l2 float64) float64 {
	qw := floats.Dot(w, g.xy)
	wh := floats.Dot(w, h)
	rNorm2 := math.Max(g.yy+wh-2*qw, 0)
	dual := 0.0
	for j := range w {
		dual = math.Max(dual, math.Abs(g.xy[j]-h[j]-l2*w[j]))
	}
	wNorm2 := floats.Dot(w, w)

	scale := 1.0
	var gap float64
	if dual > l1 {
		scale = l1 / dual
		gap = 0.5 * (rNorm2 + rNorm2*scale*scale)
	} else {
		gap = rNorm2
	}
	gap += l1*floats.Norm(w, 1) - scale*g.yy + scale*qw + 0.5*l2*(1+scale*scale)*wNorm2
	return gap
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
