package elasticnet

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// CV selects alpha and the L1 ratio by K-fold cross-validation
type CV struct {
	L1Ratios []float64
	Folds    int
	MaxIter  int
	NAlphas  int
	Eps      float64 // alpha_min / alpha_max
	Tol      float64
	Workers  int // concurrent fold jobs; <= 0 uses every CPU
}

// DefaultCV returns the grid used for the selected-model refit
func DefaultCV() CV {
	return CV{
		L1Ratios: []float64{0.1, 0.5, 0.7, 0.9, 0.95, 1.0},
		Folds:    5,
		MaxIter:  1000,
		NAlphas:  100,
		Eps:      1e-3,
		Tol:      1e-4,
	}
}

// CVResult is the refit at the best grid point plus the error surface
type CVResult struct {
	Coef      []float64
	Alpha     float64
	L1Ratio   float64
	Alphas    [][]float64 // per l1 ratio, descending
	MSEPath   [][]float64 // mean held-out MSE, aligned with Alphas
	BestMSE   float64
	Converged bool
}

func (cv CV) withDefaults() CV {
	d := DefaultCV()
	if len(cv.L1Ratios) == 0 {
		cv.L1Ratios = d.L1Ratios
	}
	if cv.Folds <= 0 {
		cv.Folds = d.Folds
	}
	if cv.MaxIter <= 0 {
		cv.MaxIter = d.MaxIter
	}
	if cv.NAlphas <= 0 {
		cv.NAlphas = d.NAlphas
	}
	if cv.Eps <= 0 {
		cv.Eps = d.Eps
	}
	if cv.Tol <= 0 {
		cv.Tol = d.Tol
	}
	if cv.Workers <= 0 {
		cv.Workers = runtime.NumCPU()
	}
	return cv
}

// Fit evaluates the grid on contiguous folds and refits on all of x
func (cv CV) Fit(ctx context.Context, x mat.Matrix, y []float64) (*CVResult, error) {
	cv = cv.withDefaults()
	n, p := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d responses", ErrShape, n, len(y))
	}
	if cv.Folds < 2 {
		return nil, fmt.Errorf("%w: folds=%d", ErrParameter, cv.Folds)
	}
	if n < cv.Folds {
		return nil, fmt.Errorf("%w: %d samples for %d folds", ErrTooFew, n, cv.Folds)
	}
	for _, r := range cv.L1Ratios {
		if r <= 0 || r > 1 {
			return nil, fmt.Errorf("%w: l1_ratio=%g", ErrParameter, r)
		}
	}

	full := newGram(x, y, allRows(n))
	alphas := make([][]float64, len(cv.L1Ratios))
	for i, r := range cv.L1Ratios {
		alphas[i] = alphaGrid(full.alphaMax(r), cv.Eps, cv.NAlphas)
	}

	folds := kFold(n, cv.Folds)
	// mse[ratio][fold][alpha]
	mse := make([][][]float64, len(cv.L1Ratios))
	for i := range mse {
		mse[i] = make([][]float64, len(folds))
	}

	opts := Options{MaxIter: cv.MaxIter, Tol: cv.Tol}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cv.Workers)
	for ri := range cv.L1Ratios {
		for fi := range folds {
			ri, fi := ri, fi
			g.Go(func() error {
				path, err := foldPath(gctx, x, y, folds[fi], alphas[ri], cv.L1Ratios[ri], p, opts)
				if err != nil {
					return err
				}
				mse[ri][fi] = path
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &CVResult{Alphas: alphas, MSEPath: make([][]float64, len(cv.L1Ratios)), BestMSE: math.Inf(1)}
	bestR, bestA := 0, 0
	for ri := range cv.L1Ratios {
		res.MSEPath[ri] = make([]float64, cv.NAlphas)
		for ai := 0; ai < cv.NAlphas; ai++ {
			sum := 0.0
			for fi := range folds {
				sum += mse[ri][fi][ai]
			}
			m := sum / float64(len(folds))
			res.MSEPath[ri][ai] = m
			if m < res.BestMSE {
				res.BestMSE = m
				bestR, bestA = ri, ai
			}
		}
	}

	res.L1Ratio = cv.L1Ratios[bestR]
	res.Alpha = alphas[bestR][bestA]
	final := full.solve(make([]float64, p), res.Alpha, res.L1Ratio, opts)
	res.Coef = final.Coef
	res.Converged = final.Converged
	return res, nil
}

type fold struct {
	train, test []int
}

// kFold splits 0..n-1 into k contiguous folds, the first n%k one larger
func kFold(n, k int) []fold {
	out := make([]fold, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		f := fold{}
		for j := 0; j < n; j++ {
			if j >= start && j < start+size {
				f.test = append(f.test, j)
			} else {
				f.train = append(f.train, j)
			}
		}
		out = append(out, f)
		start += size
	}
	return out
}

// alphaGrid is log-spaced from alphaMax down to eps*alphaMax
func alphaGrid(alphaMax, eps float64, count int) []float64 {
	grid := make([]float64, count)
	if alphaMax <= 0 || math.IsNaN(alphaMax) || math.IsInf(alphaMax, 0) {
		return grid
	}
	if count == 1 {
		grid[0] = alphaMax
		return grid
	}
	hi, lo := math.Log10(alphaMax), math.Log10(alphaMax*eps)
	step := (lo - hi) / float64(count-1)
	for i := range grid {
		grid[i] = math.Pow(10, hi+step*float64(i))
	}
	return grid
}

// foldPath walks the alpha path with warm starts and scores each point
// on the held-out rows
func foldPath(ctx context.Context, x mat.Matrix, y []float64, f fold, alphas []float64, l1Ratio float64, p int, opts Options) ([]float64, error) {
	train := newGram(x, y, f.train)
	w := make([]float64, p)
	out := make([]float64, len(alphas))
	for ai, alpha := range alphas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		train.solve(w, alpha, l1Ratio, opts)
		out[ai] = heldOutMSE(x, y, f.test, w)
	}
	return out, nil
}

func heldOutMSE(x mat.Matrix, y []float64, rows []int, w []float64) float64 {
	sum := 0.0
	for _, i := range rows {
		pred := 0.0
		for j, wj := range w {
			pred += x.At(i, j) * wj
		}
		d := y[i] - pred
		sum += d * d
	}
	return sum / float64(len(rows))
}
