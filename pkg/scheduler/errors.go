package scheduler

import (
	"fmt"
	"time"
)

// ValidationError reports malformed or inconsistent engine input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// InvalidMethodError reports an unknown solving method
type InvalidMethodError struct {
	Method string
}

func (e *InvalidMethodError) Error() string {
	return fmt.Sprintf("invalid method %q: must be one of %q, %q", e.Method, MethodLP, MethodGreedy)
}

// SolverTimeoutError reports that the exact solver exceeded its time budget.
// Callers may retry with MethodGreedy.
type SolverTimeoutError struct {
	Budget time.Duration
}

func (e *SolverTimeoutError) Error() string {
	return fmt.Sprintf("solver exceeded time budget of %s", e.Budget)
}

// SolverFailureError reports that the LP backend failed without a usable point
type SolverFailureError struct {
	Cause error
}

func (e *SolverFailureError) Error() string {
	return "solver failure: " + e.Cause.Error()
}

func (e *SolverFailureError) Unwrap() error {
	return e.Cause
}
