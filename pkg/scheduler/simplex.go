package scheduler

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const simplexTolerance = 1e-10

// SimplexSolver solves linear programs with gonum's simplex implementation
type SimplexSolver struct {
	Tolerance float64
}

// Solve converts prog into standard form
//
//	minimize -c·x  s.t.  [A I] [x s]ᵀ = b,  x, s >= 0
//
// with one slack per constraint row and one per finite upper bound. When
// every bound is non-negative the slacks form a feasible starting basis.
func (s SimplexSolver) Solve(ctx context.Context, prog LinearProgram) (LPResult, error) {
	if err := ctx.Err(); err != nil {
		return LPResult{}, err
	}

	n := len(prog.Objective)
	if len(prog.Upper) != n {
		return LPResult{}, fmt.Errorf("lp: %d upper bounds for %d variables", len(prog.Upper), n)
	}
	if n == 0 {
		return LPResult{Status: LPOptimal}, nil
	}

	type row struct {
		coeffs map[int]float64
		bound  float64
	}
	rows := make([]row, 0, len(prog.Constraints)+n)
	for _, c := range prog.Constraints {
		rows = append(rows, row{coeffs: c.Coeffs, bound: c.Bound})
	}
	for j, u := range prog.Upper {
		if !math.IsInf(u, 1) {
			rows = append(rows, row{coeffs: map[int]float64{j: 1}, bound: u})
		}
	}
	if len(rows) == 0 {
		return LPResult{}, lp.ErrUnbounded
	}

	m := len(rows)
	cols := n + m
	a := mat.NewDense(m, cols, nil)
	b := make([]float64, m)
	basic := make([]int, m)
	startFeasible := true
	for i, r := range rows {
		for j, v := range r.coeffs {
			if j < 0 || j >= n {
				return LPResult{}, fmt.Errorf("lp: constraint %d references variable %d", i, j)
			}
			a.Set(i, j, v)
		}
		a.Set(i, n+i, 1)
		b[i] = r.bound
		basic[i] = n + i
		if r.bound < 0 {
			startFeasible = false
		}
	}

	c := make([]float64, cols)
	for j, v := range prog.Objective {
		c[j] = -v
	}

	if !startFeasible {
		basic = nil
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = simplexTolerance
	}

	optF, optX, err := lp.Simplex(c, a, b, tol, basic)
	if err != nil {
		return LPResult{}, err
	}
	return LPResult{X: optX[:n], Objective: -optF, Status: LPOptimal}, nil
}
