package scheduler

import "context"

// Constraint is a sparse row: sum(Coeffs[j] * x[j]) <= Bound
type Constraint struct {
	Coeffs map[int]float64
	Bound  float64
}

// LinearProgram asks to maximize Objective·x subject to the constraints
// and 0 <= x[j] <= Upper[j]. An infinite upper bound leaves x[j] unbounded above.
type LinearProgram struct {
	Objective   []float64
	Upper       []float64
	Constraints []Constraint
}

// LPStatus tells how far the backend got
type LPStatus int

const (
	// LPOptimal means the backend converged
	LPOptimal LPStatus = iota
	// LPFeasible means X is a feasible point but optimality was not proven
	LPFeasible
)

// LPResult is a variable assignment returned by an LPSolver
type LPResult struct {
	X         []float64
	Objective float64
	Status    LPStatus
}

// LPSolver is a linear programming backend. Implementations should honor
// ctx where they can; the exact solver abandons calls that outlive it.
type LPSolver interface {
	Solve(ctx context.Context, prog LinearProgram) (LPResult, error)
}
