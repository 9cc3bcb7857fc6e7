package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-6

var day = time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)

func window(from, to int) models.TimeWindow {
	return models.TimeWindow{
		Start: day.Add(time.Duration(from) * time.Hour),
		End:   day.Add(time.Duration(to) * time.Hour),
	}
}

func worker(id string, capacity float64, skills ...string) models.Worker {
	return models.Worker{ID: id, Capacity: capacity, Skills: skills}
}

func task(id string, demand float64, skills ...string) models.Task {
	return models.Task{ID: id, Demand: demand, Skills: skills}
}

func withPriority(t models.Task, p float64) models.Task {
	t.Priority = &p
	return t
}

func mustBuild(t *testing.T, workers []models.Worker, tasks []models.Task) *Problem {
	t.Helper()
	p, err := BuildProblem(workers, tasks, DefaultConfig())
	require.NoError(t, err)
	return p
}

func solveExact(t *testing.T, p *Problem) models.Solution {
	t.Helper()
	sol, err := ExactSolver{Backend: SimplexSolver{}}.Solve(context.Background(), p)
	require.NoError(t, err)
	return sol
}

func totalHours(sol models.Solution) float64 {
	var total float64
	for _, a := range sol.Assignments {
		total += a.Hours
	}
	return total
}

// assertRespectsProblem checks that every assignment is feasible and that no
// worker or task is booked beyond its bound
func assertRespectsProblem(t *testing.T, p *Problem, sol models.Solution) {
	t.Helper()
	perWorker := map[string]float64{}
	perTask := map[string]float64{}
	for _, a := range sol.Assignments {
		assert.True(t, p.Feasible(a.WorkerID, a.TaskID), "infeasible pair %s/%s", a.WorkerID, a.TaskID)
		assert.Greater(t, a.Hours, 0.0)
		assert.LessOrEqual(t, a.Hours, p.MaxAssignable(a.WorkerID, a.TaskID)+tolerance)
		perWorker[a.WorkerID] += a.Hours
		perTask[a.TaskID] += a.Hours
	}
	for id, h := range perWorker {
		w, ok := p.Worker(id)
		require.True(t, ok)
		assert.LessOrEqual(t, h, w.Capacity+tolerance, "worker %s over capacity", id)
	}
	for id, h := range perTask {
		tk, ok := p.Task(id)
		require.True(t, ok)
		assert.LessOrEqual(t, h, tk.Demand+tolerance, "task %s over demand", id)
	}
}

// randomProblem builds a small problem with integer hours so both solvers
// have to make real trade-offs
func randomProblem(t *testing.T, r *rand.Rand) *Problem {
	skills := []string{"driving", "cooking", "cleaning"}
	var workers []models.Worker
	for i := 0; i < 2+r.Intn(4); i++ {
		w := worker(fmt.Sprintf("w%d", i), float64(r.Intn(9)), skills[r.Intn(len(skills))])
		if r.Intn(2) == 0 {
			w.Skills = append(w.Skills, skills[r.Intn(len(skills))])
		}
		workers = append(workers, w)
	}
	var tasks []models.Task
	for i := 0; i < 2+r.Intn(4); i++ {
		tk := task(fmt.Sprintf("t%d", i), float64(1+r.Intn(8)), skills[r.Intn(len(skills))])
		tasks = append(tasks, withPriority(tk, float64(1+r.Intn(3))))
	}
	return mustBuild(t, workers, tasks)
}
