package pwlf

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// gramSolver evaluates the least-squares residual for candidate interior
// breakpoints. It works on x rescaled to [0, 1], which spans the same
// piecewise-linear space and keeps the normal equations well conditioned.
// Not safe for concurrent use; buffers are reused between calls.
type gramSolver struct {
	u    []float64
	y    []float64
	yy   float64
	p    int
	data []float64
	aty  []float64
	row  []float64
	brk  []float64
	chol mat.Cholesky
	beta mat.VecDense
}

func newGramSolver(x, y []float64, lo, hi float64, params int) *gramSolver {
	u := make([]float64, len(x))
	span := hi - lo
	for i, xi := range x {
		u[i] = (xi - lo) / span
	}
	yy := 0.0
	for _, yi := range y {
		yy += yi * yi
	}
	return &gramSolver{
		u:    u,
		y:    y,
		yy:   yy,
		p:    params,
		data: make([]float64, params*params),
		aty:  make([]float64, params),
		row:  make([]float64, params),
		brk:  make([]float64, params-2),
	}
}

// ssr returns the residual sum of squares for interior breakpoints given in
// unit coordinates, or +Inf when the system cannot be solved.
func (g *gramSolver) ssr(interior []float64) float64 {
	for i, v := range interior {
		g.brk[i] = math.Min(1, math.Max(0, v))
	}
	sort.Float64s(g.brk)

	p := g.p
	for i := range g.data {
		g.data[i] = 0
	}
	for i := range g.aty {
		g.aty[i] = 0
	}

	for i, ui := range g.u {
		g.row[0] = 1
		g.row[1] = ui
		for j, b := range g.brk {
			if ui > b {
				g.row[j+2] = ui - b
			} else {
				g.row[j+2] = 0
			}
		}
		yi := g.y[i]
		for r := 0; r < p; r++ {
			vr := g.row[r]
			if vr == 0 {
				continue
			}
			g.aty[r] += vr * yi
			base := r * p
			for c := r; c < p; c++ {
				g.data[base+c] += vr * g.row[c]
			}
		}
	}

	gram := mat.NewSymDense(p, g.data)
	if ok := g.chol.Factorize(gram); !ok {
		return math.Inf(1)
	}
	aty := mat.NewVecDense(p, g.aty)
	if err := g.chol.SolveVecTo(&g.beta, aty); err != nil {
		if cond, isCond := err.(mat.Condition); !isCond || math.IsInf(float64(cond), 1) {
			return math.Inf(1)
		}
	}
	ssr := g.yy - mat.Dot(&g.beta, aty)
	if math.IsNaN(ssr) {
		return math.Inf(1)
	}
	if ssr < 0 {
		ssr = 0
	}
	return ssr
}
