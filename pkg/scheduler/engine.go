package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/sirupsen/logrus"
)

// Method selects the solving strategy
type Method string

const (
	MethodLP     Method = "lp"
	MethodGreedy Method = "greedy"
)

// ParseMethod converts a request value into a Method. An empty value
// selects MethodLP.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodLP:
		return MethodLP, nil
	case MethodGreedy:
		return MethodGreedy, nil
	}
	return "", &InvalidMethodError{Method: s}
}

// Result is the outcome of a single assignment request
type Result struct {
	Problem  *Problem
	Solution models.Solution
	KPIs     models.KPIReport
	Elapsed  time.Duration
}

// Engine builds the problem, dispatches to a solver and computes KPIs.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	cfg    Config
	exact  ExactSolver
	greedy GreedyAssigner
	log    logrus.FieldLogger
}

// NewEngine creates an engine. A nil backend selects SimplexSolver and a
// nil logger the logrus standard logger.
func NewEngine(cfg Config, backend LPSolver, log logrus.FieldLogger) *Engine {
	if backend == nil {
		backend = SimplexSolver{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		cfg:   cfg.withDefaults(),
		exact: ExactSolver{Backend: backend},
		log:   log,
	}
}

// Config returns the effective engine settings
func (e *Engine) Config() Config {
	return e.cfg
}

// Assign solves one request. The exact method runs under budget (the
// configured TimeBudget when budget <= 0); the greedy method is bounded by
// workers x tasks and runs without one. Unmet demand is reported through
// the solution status and KPIs, never as an error.
func (e *Engine) Assign(ctx context.Context, workers []models.Worker, tasks []models.Task, method Method, budget time.Duration) (Result, error) {
	if method != MethodLP && method != MethodGreedy {
		return Result{}, &InvalidMethodError{Method: string(method)}
	}
	if budget <= 0 {
		budget = e.cfg.TimeBudget
	}

	start := time.Now()
	p, err := BuildProblem(workers, tasks, e.cfg)
	if err != nil {
		return Result{}, err
	}

	var sol models.Solution
	switch method {
	case MethodGreedy:
		sol = e.greedy.Solve(p)
	case MethodLP:
		solveCtx, cancel := context.WithTimeout(ctx, budget)
		sol, err = e.exact.Solve(solveCtx, p)
		cancel()
		if err != nil {
			var timeout *SolverTimeoutError
			if errors.As(err, &timeout) {
				timeout.Budget = budget
			}
			e.log.WithFields(logrus.Fields{
				"method":  method,
				"workers": len(workers),
				"tasks":   len(tasks),
				"budget":  budget,
			}).WithError(err).Warn("Exact solver failed")
			return Result{}, err
		}
	}

	kpis, err := ComputeKPIs(p, sol)
	if err != nil {
		return Result{}, err
	}

	res := Result{Problem: p, Solution: sol, KPIs: kpis, Elapsed: time.Since(start)}
	e.log.WithFields(logrus.Fields{
		"method":      method,
		"status":      sol.Status,
		"workers":     len(workers),
		"tasks":       len(tasks),
		"pairs":       len(p.pairs),
		"assignments": len(sol.Assignments),
		"fulfillment": kpis.FulfillmentRate,
		"elapsed":     res.Elapsed,
	}).Info("Assignment solved")
	return res, nil
}
