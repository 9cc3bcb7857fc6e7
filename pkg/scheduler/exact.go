package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/arnavshah/assign-api-go/pkg/models"
)

const (
	// dropBelow is the value under which an LP variable counts as zero
	dropBelow = 1e-6
	roundTo   = 1e6
)

// ExactSolver formulates the problem as a linear program and hands it to an
// LPSolver backend
type ExactSolver struct {
	Backend LPSolver
}

type lpOutcome struct {
	res LPResult
	err error
}

// Solve maximizes the priority-weighted assigned hours. Only feasible pairs
// with a positive bound become variables. The backend runs in its own
// goroutine; when ctx ends first the call returns SolverTimeoutError and
// the backend computation is abandoned.
func (s ExactSolver) Solve(ctx context.Context, p *Problem) (models.Solution, error) {
	vars := make([]int, 0, len(p.pairs))
	varOf := make(map[int]int, len(p.pairs))
	for pi, pr := range p.pairs {
		if pr.Max > epsilon {
			varOf[pi] = len(vars)
			vars = append(vars, pi)
		}
	}

	sol := models.Solution{Method: string(MethodLP), Status: models.StatusOptimal}
	if len(vars) == 0 {
		return s.finish(p, sol, LPOptimal), nil
	}

	prog := LinearProgram{
		Objective: make([]float64, len(vars)),
		Upper:     make([]float64, len(vars)),
	}
	for j, pi := range vars {
		pr := p.pairs[pi]
		prog.Objective[j] = p.weight(pr.Task)
		prog.Upper[j] = math.Inf(1)
		// capacity and demand are already rows; only an overlap shorter
		// than both needs its own bound
		if pr.Max < math.Min(p.workers[pr.Worker].Capacity, p.tasks[pr.Task].Demand)-epsilon {
			prog.Upper[j] = pr.Max
		}
	}
	for wi, pis := range p.byWorker {
		if c, ok := constraintOver(pis, varOf, p.workers[wi].Capacity); ok {
			prog.Constraints = append(prog.Constraints, c)
		}
	}
	for ti, pis := range p.byTask {
		if c, ok := constraintOver(pis, varOf, p.tasks[ti].Demand); ok {
			prog.Constraints = append(prog.Constraints, c)
		}
	}

	backend := s.Backend
	if backend == nil {
		backend = SimplexSolver{}
	}

	done := make(chan lpOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- lpOutcome{err: fmt.Errorf("lp backend panic: %v", r)}
			}
		}()
		res, err := backend.Solve(ctx, prog)
		done <- lpOutcome{res: res, err: err}
	}()

	var out lpOutcome
	select {
	case <-ctx.Done():
		return models.Solution{}, abandoned(ctx.Err())
	case out = <-done:
	}

	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(out.err, context.Canceled) {
			return models.Solution{}, abandoned(out.err)
		}
		if out.res.Status != LPFeasible || len(out.res.X) != len(vars) {
			return models.Solution{}, &SolverFailureError{Cause: out.err}
		}
	}
	if len(out.res.X) != len(vars) {
		return models.Solution{}, &SolverFailureError{
			Cause: fmt.Errorf("backend returned %d values for %d variables", len(out.res.X), len(vars)),
		}
	}

	for j, pi := range vars {
		hours := out.res.X[j]
		if hours < dropBelow {
			continue
		}
		pr := p.pairs[pi]
		hours = math.Min(math.Round(hours*roundTo)/roundTo, pr.Max)
		sol.Assignments = append(sol.Assignments, models.Assignment{
			WorkerID: p.workers[pr.Worker].ID,
			TaskID:   p.tasks[pr.Task].ID,
			Hours:    hours,
		})
	}

	return s.finish(p, sol, out.res.Status), nil
}

// finish sets the status: a converged LP is OPTIMAL unless demand is left
// uncovered, a non-converged point is FEASIBLE
func (s ExactSolver) finish(p *Problem, sol models.Solution, st LPStatus) models.Solution {
	if st == LPFeasible {
		sol.Status = models.StatusFeasible
	}
	covered := make(map[string]float64, len(p.tasks))
	for _, a := range sol.Assignments {
		covered[a.TaskID] += a.Hours
	}
	for _, t := range p.tasks {
		if t.Demand-covered[t.ID] > dropBelow {
			sol.Status = models.StatusInfeasiblePartial
			break
		}
	}
	return sol
}

func constraintOver(pis []int, varOf map[int]int, bound float64) (Constraint, bool) {
	coeffs := make(map[int]float64, len(pis))
	for _, pi := range pis {
		if j, ok := varOf[pi]; ok {
			coeffs[j] = 1
		}
	}
	return Constraint{Coeffs: coeffs, Bound: bound}, len(coeffs) > 0
}

// abandoned maps an ended context to the error returned to the caller.
// The engine fills in the budget of a SolverTimeoutError.
func abandoned(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &SolverTimeoutError{}
}
