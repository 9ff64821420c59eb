// Package optimize implements L-BFGS with the OWL-QN extension for L1
// regularisation, shared by the CRF and quasi-Newton maxent trainers.
package optimize

import (
	"context"
	"log/slog"
	"math"
)

// Objective returns the smooth part of the loss at x. When grad is non-nil
// it must also be filled with the gradient.
type Objective func(x, grad []float64) float64

// Config holds optimiser settings.
type Config struct {
	L1            float64 // L1 penalty handled by OWL-QN, 0 disables
	MaxIterations int
	Epsilon       float64 // stop when the largest pseudo-gradient entry falls below
	Memory        int     // L-BFGS history size
	// OnIteration is called after every iteration; a non-nil error stops
	// the optimisation and is returned.
	OnIteration func(iter int, loss float64) error
}

// DefaultConfig returns the settings used by the built-in trainers.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 100,
		Epsilon:       1e-5,
		Memory:        10,
	}
}

// Result reports how the optimisation ended.
type Result struct {
	Iterations int
	Loss       float64
	Converged  bool
}

// Minimize runs OWL-QN from x, updating x in place.
func Minimize(ctx context.Context, f Objective, x []float64, cfg Config) (Result, error) {
	n := len(x)
	if cfg.Memory <= 0 {
		cfg.Memory = 10
	}
	hist := newLBFGS(n, cfg.Memory)

	grad := make([]float64, n)
	loss := f(x, grad) + l1Norm(x, cfg.L1)
	pg := pseudoGradient(x, grad, cfg.L1)

	var res Result
	for iter := range cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations = iter + 1

		dir := hist.computeDirection(pg)
		// constrain direction to the orthant of the pseudo-gradient
		for i := range n {
			if dir[i]*pg[i] > 0 {
				dir[i] = 0
			}
		}

		step := lineSearch(x, dir, loss, pg, func(xNew []float64) float64 {
			return f(xNew, nil) + l1Norm(xNew, cfg.L1)
		}, cfg.L1)
		if step == 0 {
			slog.Warn("Line search failed, stopping", "iteration", iter+1)
			break
		}

		prev := make([]float64, n)
		copy(prev, x)
		for i := range n {
			x[i] += step * dir[i]
		}
		if cfg.L1 > 0 {
			for i := range n {
				if x[i]*prev[i] < 0 {
					x[i] = 0
				}
			}
		}

		loss = f(x, grad) + l1Norm(x, cfg.L1)
		newPG := pseudoGradient(x, grad, cfg.L1)

		s := make([]float64, n)
		y := make([]float64, n)
		for i := range n {
			s[i] = x[i] - prev[i]
			y[i] = newPG[i] - pg[i]
		}
		hist.update(s, y)
		pg = newPG
		res.Loss = loss

		if cfg.OnIteration != nil {
			if err := cfg.OnIteration(iter+1, loss); err != nil {
				return res, err
			}
		}

		maxGrad := 0.0
		for _, g := range pg {
			maxGrad = math.Max(maxGrad, math.Abs(g))
		}
		if maxGrad < cfg.Epsilon {
			slog.Debug("Optimizer converged", "iteration", iter+1, "max_gradient", maxGrad)
			res.Converged = true
			break
		}
	}
	res.Loss = loss
	return res, nil
}

func l1Norm(x []float64, c1 float64) float64 {
	if c1 <= 0 {
		return 0
	}
	s := 0.0
	for _, v := range x {
		s += math.Abs(v)
	}
	return c1 * s
}

func pseudoGradient(x, grad []float64, c1 float64) []float64 {
	pg := make([]float64, len(x))
	for i := range x {
		switch {
		case x[i] > 0:
			pg[i] = grad[i] + c1
		case x[i] < 0:
			pg[i] = grad[i] - c1
		case grad[i]+c1 < 0:
			pg[i] = grad[i] + c1
		case grad[i]-c1 > 0:
			pg[i] = grad[i] - c1
		}
	}
	return pg
}

// lbfgs implements the L-BFGS two-loop recursion.
type lbfgs struct {
	n    int // number of variables
	m    int // memory size
	s    [][]float64
	y    [][]float64
	rho  []float64
	k    int
	size int
}

func newLBFGS(n, m int) *lbfgs {
	return &lbfgs{
		n:   n,
		m:   m,
		s:   make([][]float64, m),
		y:   make([][]float64, m),
		rho: make([]float64, m),
	}
}

func (l *lbfgs) update(s, y []float64) {
	sy := dot(s, y)
	if sy <= 0 {
		return
	}
	idx := l.k % l.m
	l.s[idx] = s
	l.y[idx] = y
	l.rho[idx] = 1.0 / sy
	l.k++
	if l.size < l.m {
		l.size++
	}
}

func (l *lbfgs) slot(i int) int {
	idx := (l.k - l.size + i) % l.m
	if idx < 0 {
		idx += l.m
	}
	return idx
}

func (l *lbfgs) computeDirection(pg []float64) []float64 {
	q := make([]float64, l.n)
	copy(q, pg)

	if l.size == 0 {
		for i := range q {
			q[i] = -q[i]
		}
		return q
	}

	alpha := make([]float64, l.size)
	for i := l.size - 1; i >= 0; i-- {
		idx := l.slot(i)
		alpha[i] = l.rho[idx] * dot(l.s[idx], q)
		for j := range l.n {
			q[j] -= alpha[i] * l.y[idx][j]
		}
	}

	// scale by H_0 = (s_k^T y_k) / (y_k^T y_k)
	latest := l.slot(l.size - 1)
	if yy := dot(l.y[latest], l.y[latest]); yy > 0 {
		gamma := dot(l.s[latest], l.y[latest]) / yy
		for i := range q {
			q[i] *= gamma
		}
	}

	for i := range l.size {
		idx := l.slot(i)
		beta := l.rho[idx] * dot(l.y[idx], q)
		for j := range l.n {
			q[j] += (alpha[i] - beta) * l.s[idx][j]
		}
	}

	for i := range q {
		q[i] = -q[i]
	}
	return q
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// lineSearch performs a backtracking Armijo search with orthant projection.
func lineSearch(x, dir []float64, fVal float64, pg []float64, objFunc func([]float64) float64, c1 float64) float64 {
	dirDeriv := dot(dir, pg)
	if dirDeriv >= 0 {
		return 0
	}

	step := 1.0
	const armijo = 1e-4
	xNew := make([]float64, len(x))

	for range 20 {
		for i := range x {
			xNew[i] = x[i] + step*dir[i]
		}
		if c1 > 0 {
			for i := range x {
				if xNew[i]*x[i] < 0 {
					xNew[i] = 0
				}
			}
		}
		if objFunc(xNew) <= fVal+armijo*step*dirDeriv {
			return step
		}
		step *= 0.5
	}
	return step
}
