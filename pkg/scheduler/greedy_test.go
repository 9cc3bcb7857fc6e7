package scheduler

import (
	"math/rand"
	"testing"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreedy_SingleWorkerCoversTask(t *testing.T) {
	p := mustBuild(t, []models.Worker{worker("w1", 8, "driving")}, []models.Task{task("t1", 5, "driving")})

	sol := GreedyAssigner{}.Solve(p)

	assert.Equal(t, models.StatusFeasible, sol.Status)
	assert.Equal(t, string(MethodGreedy), sol.Method)
	require.Len(t, sol.Assignments, 1)
	assert.Equal(t, models.Assignment{WorkerID: "w1", TaskID: "t1", Hours: 5}, sol.Assignments[0])
}

func TestGreedy_CapacityShortfall(t *testing.T) {
	p := mustBuild(t, []models.Worker{worker("w1", 4, "driving")}, []models.Task{task("t1", 5, "driving")})

	sol := GreedyAssigner{}.Solve(p)

	assert.Equal(t, models.StatusInfeasiblePartial, sol.Status)
	assert.InDelta(t, 4.0, totalHours(sol), tolerance)
}

func TestGreedy_OneWorkerPerTask(t *testing.T) {
	p := mustBuild(t,
		[]models.Worker{worker("w1", 5, "cooking"), worker("w2", 5, "cooking")},
		[]models.Task{task("t1", 5, "cooking"), task("t2", 5, "cooking")},
	)

	sol := GreedyAssigner{}.Solve(p)

	assert.Equal(t, models.StatusFeasible, sol.Status)
	assert.Equal(t, []models.Assignment{
		{WorkerID: "w1", TaskID: "t1", Hours: 5},
		{WorkerID: "w2", TaskID: "t2", Hours: 5},
	}, sol.Assignments)
}

func TestGreedy_MissingSkill(t *testing.T) {
	p := mustBuild(t, []models.Worker{worker("w1", 40, "cooking")}, []models.Task{task("t1", 5, "driving")})

	sol := GreedyAssigner{}.Solve(p)

	assert.Empty(t, sol.Assignments)
	assert.Equal(t, models.StatusInfeasiblePartial, sol.Status)
}

func TestGreedy_PriorityThenDemandOrder(t *testing.T) {
	// one worker with room for a single task: the high priority task wins,
	// then the larger of the equal-priority tasks
	p := mustBuild(t,
		[]models.Worker{worker("w1", 6, "x")},
		[]models.Task{
			withPriority(task("a", 2, "x"), 1),
			withPriority(task("b", 3, "x"), 1),
			withPriority(task("c", 4, "x"), 5),
		},
	)

	sol := GreedyAssigner{}.Solve(p)

	assert.Equal(t, []models.Assignment{
		{WorkerID: "w1", TaskID: "c", Hours: 4},
		{WorkerID: "w1", TaskID: "b", Hours: 2},
	}, sol.Assignments)
	assert.Equal(t, models.StatusInfeasiblePartial, sol.Status)
}

func TestGreedy_PicksMostAvailableWorker(t *testing.T) {
	p := mustBuild(t,
		[]models.Worker{worker("w1", 3, "x"), worker("w2", 7, "x"), worker("w3", 7, "x")},
		[]models.Task{task("t1", 9, "x")},
	)

	sol := GreedyAssigner{}.Solve(p)

	// w2 and w3 tie on capacity, w2 wins on id; w3 then has the most left
	assert.Equal(t, []models.Assignment{
		{WorkerID: "w2", TaskID: "t1", Hours: 7},
		{WorkerID: "w3", TaskID: "t1", Hours: 2},
	}, sol.Assignments)
}

func TestGreedy_RespectsPairBound(t *testing.T) {
	w1 := worker("w1", 8, "x")
	w1.Availability = []models.TimeWindow{window(8, 10)}
	tk := task("t1", 5, "x")
	win := window(9, 17)
	tk.Window = &win

	p := mustBuild(t, []models.Worker{w1, worker("w2", 2, "x")}, []models.Task{tk})
	sol := GreedyAssigner{}.Solve(p)

	assert.Equal(t, []models.Assignment{
		{WorkerID: "w1", TaskID: "t1", Hours: 1},
		{WorkerID: "w2", TaskID: "t1", Hours: 2},
	}, sol.Assignments)
	assert.Equal(t, models.StatusInfeasiblePartial, sol.Status)
}

func TestGreedy_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 25; i++ {
		p := randomProblem(t, r)
		first := GreedyAssigner{}.Solve(p)
		second := GreedyAssigner{}.Solve(p)
		assert.Equal(t, first, second)
		assertRespectsProblem(t, p, first)
	}
}
