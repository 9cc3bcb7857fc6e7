package scheduler

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplexSolver(t *testing.T) {
	// maximize x + y  s.t.  x + 2y <= 4,  3x + y <= 6
	prog := LinearProgram{
		Objective: []float64{1, 1},
		Upper:     []float64{math.Inf(1), math.Inf(1)},
		Constraints: []Constraint{
			{Coeffs: map[int]float64{0: 1, 1: 2}, Bound: 4},
			{Coeffs: map[int]float64{0: 3, 1: 1}, Bound: 6},
		},
	}

	res, err := SimplexSolver{}.Solve(context.Background(), prog)
	require.NoError(t, err)

	assert.Equal(t, LPOptimal, res.Status)
	require.Len(t, res.X, 2)
	assert.InDelta(t, 1.6, res.X[0], 1e-9)
	assert.InDelta(t, 1.2, res.X[1], 1e-9)
	assert.InDelta(t, 2.8, res.Objective, 1e-9)
}

func TestSimplexSolver_UpperBounds(t *testing.T) {
	prog := LinearProgram{
		Objective:   []float64{2, 1},
		Upper:       []float64{1, 5},
		Constraints: []Constraint{{Coeffs: map[int]float64{0: 1, 1: 1}, Bound: 3}},
	}

	res, err := SimplexSolver{}.Solve(context.Background(), prog)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.X[0], 1e-9)
	assert.InDelta(t, 2.0, res.X[1], 1e-9)
}

func TestSimplexSolver_BadInput(t *testing.T) {
	_, err := SimplexSolver{}.Solve(context.Background(), LinearProgram{Objective: []float64{1}})
	assert.Error(t, err)

	_, err = SimplexSolver{}.Solve(context.Background(), LinearProgram{
		Objective:   []float64{1},
		Upper:       []float64{1},
		Constraints: []Constraint{{Coeffs: map[int]float64{3: 1}, Bound: 1}},
	})
	assert.Error(t, err)
}

func TestSimplexSolver_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SimplexSolver{}.Solve(ctx, LinearProgram{Objective: []float64{1}, Upper: []float64{1}})
	assert.ErrorIs(t, err, context.Canceled)
}
