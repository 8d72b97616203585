package pwlf

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// evolver is a best/1/bin differential evolution minimiser over the unit
// hypercube with dithered mutation and immediate replacement.
type evolver struct {
	f       func([]float64) float64
	dim     int
	rng     *rand.Rand
	popMult int
	maxIter int
	tol     float64
	seeds   [][]float64 // starting points that replace the worst initial members
}

const (
	recombination = 0.7
	mutationLow   = 0.5
	mutationHigh  = 1.0
)

func (e *evolver) minimize() ([]float64, float64) {
	size := e.popMult * e.dim
	if size < 5 {
		size = 5
	}
	pop := e.latinHypercube(size)
	energies := make([]float64, size)
	for i := range pop {
		energies[i] = e.f(pop[i])
	}
	for _, seed := range e.seeds {
		if len(seed) != e.dim {
			continue
		}
		w := worst(energies)
		copy(pop[w], seed)
		energies[w] = e.f(pop[w])
	}
	best := 0
	for i := range energies {
		if energies[i] < energies[best] {
			best = i
		}
	}

	trial := make([]float64, e.dim)
	for gen := 0; gen < e.maxIter; gen++ {
		scale := mutationLow + e.rng.Float64()*(mutationHigh-mutationLow)
		for i := 0; i < size; i++ {
			r1, r2 := e.pickTwo(size, i)
			jrand := e.rng.Intn(e.dim)
			for j := 0; j < e.dim; j++ {
				if j == jrand || e.rng.Float64() < recombination {
					trial[j] = pop[best][j] + scale*(pop[r1][j]-pop[r2][j])
				} else {
					trial[j] = pop[i][j]
				}
				if trial[j] < 0 || trial[j] > 1 {
					trial[j] = e.rng.Float64()
				}
			}
			energy := e.f(trial)
			if energy <= energies[i] {
				copy(pop[i], trial)
				energies[i] = energy
				if energy <= energies[best] {
					best = i
				}
			}
		}
		if e.converged(energies) {
			break
		}
	}
	return append([]float64(nil), pop[best]...), energies[best]
}

func worst(energies []float64) int {
	w := 0
	for i, v := range energies {
		if math.IsNaN(v) || v > energies[w] {
			w = i
			if math.IsNaN(v) {
				break
			}
		}
	}
	return w
}

// nestedSeeds extends the interior breakpoints of a fit with one segment
// fewer by a single extra point: once at the middle of the widest gap and
// once at a random position. Either spans the smaller model, so the search
// starts no worse than it.
func nestedSeeds(prev []float64, rng *rand.Rand) [][]float64 {
	sorted := sortedCopy(prev)
	edges := append(append([]float64{0}, sorted...), 1)
	gap := 0
	for i := 1; i < len(edges)-1; i++ {
		if edges[i+1]-edges[i] > edges[gap+1]-edges[gap] {
			gap = i
		}
	}
	mid := append(append([]float64(nil), sorted...), (edges[gap]+edges[gap+1])/2)
	random := append(append([]float64(nil), sorted...), rng.Float64())
	return [][]float64{mid, random}
}

// converged reports whether the spread of energies is within tol of their mean
func (e *evolver) converged(energies []float64) bool {
	for _, v := range energies {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	mean, variance := stat.MeanVariance(energies, nil)
	return math.Sqrt(variance) <= e.tol*math.Abs(mean)
}

// pickTwo draws two distinct population indices different from exclude
func (e *evolver) pickTwo(size, exclude int) (int, int) {
	r1 := e.rng.Intn(size - 1)
	if r1 >= exclude {
		r1++
	}
	r2 := e.rng.Intn(size - 2)
	lo, hi := exclude, r1
	if lo > hi {
		lo, hi = hi, lo
	}
	if r2 >= lo {
		r2++
	}
	if r2 >= hi {
		r2++
	}
	return r1, r2
}

// latinHypercube stratifies each dimension into size bins
func (e *evolver) latinHypercube(size int) [][]float64 {
	pop := make([][]float64, size)
	for i := range pop {
		pop[i] = make([]float64, e.dim)
	}
	for j := 0; j < e.dim; j++ {
		perm := e.rng.Perm(size)
		for i := 0; i < size; i++ {
			pop[i][j] = (float64(perm[i]) + e.rng.Float64()) / float64(size)
		}
	}
	return pop
}

// polish refines start with Nelder-Mead and keeps the result only if it
// improves the energy. Points are clamped to the unit cube by the objective.
func polish(f func([]float64) float64, start []float64, startE float64) ([]float64, float64) {
	clamp := func(u []float64) []float64 {
		out := make([]float64, len(u))
		for i, v := range u {
			out[i] = math.Min(1, math.Max(0, v))
		}
		return out
	}
	problem := optimize.Problem{
		Func: func(u []float64) float64 { return f(clamp(u)) },
	}
	settings := &optimize.Settings{
		MajorIterations: 500,
		FuncEvaluations: 5000,
	}
	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if result == nil || (err != nil && len(result.X) == 0) {
		return start, startE
	}
	if result.F < startE {
		return clamp(result.X), result.F
	}
	return start, startE
}
