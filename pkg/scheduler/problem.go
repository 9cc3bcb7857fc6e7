package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/arnavshah/assign-api-go/pkg/models"
)

// Pair is a feasible (worker, task) combination with the most hours it can carry
type Pair struct {
	Worker int
	Task   int
	Max    float64
}

type pairKey struct {
	worker, task int
}

// Problem is a read-only snapshot of workers, tasks and the feasibility
// relation between them. It is never mutated after BuildProblem returns.
type Problem struct {
	workers []models.Worker
	tasks   []models.Task

	workerIdx map[string]int
	taskIdx   map[string]int

	pairs    []Pair
	pairIdx  map[pairKey]int
	byTask   [][]int
	byWorker [][]int

	defaultPriority float64
}

// BuildProblem validates the input and precomputes every feasible pair. A
// pair that cannot carry any hours, such as one with a zero-capacity
// worker, is not feasible. Workers and tasks are ordered by id so that
// solvers are deterministic.
func BuildProblem(workers []models.Worker, tasks []models.Task, cfg Config) (*Problem, error) {
	cfg = cfg.withDefaults()

	if len(workers) == 0 {
		return nil, &ValidationError{Field: "workers", Reason: "at least one worker is required"}
	}
	if len(tasks) == 0 {
		return nil, &ValidationError{Field: "tasks", Reason: "at least one task is required"}
	}

	p := &Problem{
		workers:         make([]models.Worker, 0, len(workers)),
		tasks:           make([]models.Task, 0, len(tasks)),
		workerIdx:       make(map[string]int, len(workers)),
		taskIdx:         make(map[string]int, len(tasks)),
		pairIdx:         make(map[pairKey]int),
		defaultPriority: cfg.DefaultPriority,
	}

	seen := make(map[string]bool, len(workers))
	for _, w := range workers {
		if err := w.Validate(); err != nil {
			return nil, entityError("worker", w.ID, err)
		}
		if seen[w.ID] {
			return nil, &ValidationError{Field: "workers", Reason: "duplicate worker ID: " + w.ID}
		}
		seen[w.ID] = true
		p.workers = append(p.workers, cloneWorker(w))
	}

	seen = make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, entityError("task", t.ID, err)
		}
		if seen[t.ID] {
			return nil, &ValidationError{Field: "tasks", Reason: "duplicate task ID: " + t.ID}
		}
		seen[t.ID] = true
		p.tasks = append(p.tasks, cloneTask(t))
	}

	sort.Slice(p.workers, func(i, j int) bool { return p.workers[i].ID < p.workers[j].ID })
	sort.Slice(p.tasks, func(i, j int) bool { return p.tasks[i].ID < p.tasks[j].ID })
	for i, w := range p.workers {
		p.workerIdx[w.ID] = i
	}
	for i, t := range p.tasks {
		p.taskIdx[t.ID] = i
	}

	p.byTask = make([][]int, len(p.tasks))
	p.byWorker = make([][]int, len(p.workers))
	for ti, t := range p.tasks {
		for wi, w := range p.workers {
			if !skillsMatch(cfg.SkillMatch, w, t) {
				continue
			}
			overlap, ok := overlapHours(w, t)
			if !ok {
				continue
			}
			maxHours := math.Min(w.Capacity, math.Min(t.Demand, overlap))
			if maxHours <= epsilon {
				continue
			}
			idx := len(p.pairs)
			p.pairs = append(p.pairs, Pair{Worker: wi, Task: ti, Max: maxHours})
			p.pairIdx[pairKey{wi, ti}] = idx
			p.byTask[ti] = append(p.byTask[ti], idx)
			p.byWorker[wi] = append(p.byWorker[wi], idx)
		}
	}

	return p, nil
}

func entityError(kind, id string, err error) error {
	var fe *models.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fmt.Sprintf("%s %q %s", kind, id, fe.Field), Reason: fe.Reason}
	}
	return &ValidationError{Field: fmt.Sprintf("%s %q", kind, id), Reason: err.Error()}
}

// skillsMatch checks the worker's skills against the task's requirements.
// A task without required skills accepts any worker.
func skillsMatch(policy SkillMatch, w models.Worker, t models.Task) bool {
	if len(t.Skills) == 0 {
		return true
	}
	for _, s := range t.Skills {
		has := w.HasSkill(s)
		if policy == MatchAny && has {
			return true
		}
		if policy != MatchAny && !has {
			return false
		}
	}
	return policy != MatchAny
}

// overlapHours returns how many hours the worker's availability shares with
// the task window. When either side has no window there is no time
// constraint and the other side's total length bounds the pair, or +Inf.
func overlapHours(w models.Worker, t models.Task) (float64, bool) {
	avail, constrained := w.AvailableHours()
	if t.Window == nil {
		if !constrained {
			return math.Inf(1), true
		}
		return avail, true
	}
	if !constrained {
		return t.Window.Hours(), true
	}
	var hours float64
	for _, win := range w.Availability {
		if ov, ok := win.Overlap(*t.Window); ok {
			hours += ov.Hours()
		}
	}
	return hours, hours > 0
}

func cloneWorker(w models.Worker) models.Worker {
	w.Skills = append([]string(nil), w.Skills...)
	w.Availability = append([]models.TimeWindow(nil), w.Availability...)
	return w
}

func cloneTask(t models.Task) models.Task {
	t.Skills = append([]string(nil), t.Skills...)
	if t.Window != nil {
		win := *t.Window
		t.Window = &win
	}
	if t.Priority != nil {
		p := *t.Priority
		t.Priority = &p
	}
	return t
}

// Workers returns the workers ordered by id
func (p *Problem) Workers() []models.Worker {
	return append([]models.Worker(nil), p.workers...)
}

// Tasks returns the tasks ordered by id
func (p *Problem) Tasks() []models.Task {
	return append([]models.Task(nil), p.tasks...)
}

// Worker looks up a worker by id
func (p *Problem) Worker(id string) (models.Worker, bool) {
	i, ok := p.workerIdx[id]
	if !ok {
		return models.Worker{}, false
	}
	return p.workers[i], true
}

// Task looks up a task by id
func (p *Problem) Task(id string) (models.Task, bool) {
	i, ok := p.taskIdx[id]
	if !ok {
		return models.Task{}, false
	}
	return p.tasks[i], true
}

// Pairs returns every feasible pair, ordered by task then worker
func (p *Problem) Pairs() []Pair {
	return append([]Pair(nil), p.pairs...)
}

// PairsForTask returns the feasible pairs of a task ordered by worker id,
// or nil for an unknown task
func (p *Problem) PairsForTask(taskID string) []Pair {
	ti, ok := p.taskIdx[taskID]
	if !ok {
		return nil
	}
	out := make([]Pair, 0, len(p.byTask[ti]))
	for _, pi := range p.byTask[ti] {
		out = append(out, p.pairs[pi])
	}
	return out
}

// Feasible reports whether the worker may work on the task at all
func (p *Problem) Feasible(workerID, taskID string) bool {
	_, ok := p.pair(workerID, taskID)
	return ok
}

// MaxAssignable returns the most hours the worker may spend on the task,
// or 0 when the pair is not feasible
func (p *Problem) MaxAssignable(workerID, taskID string) float64 {
	pr, ok := p.pair(workerID, taskID)
	if !ok {
		return 0
	}
	return pr.Max
}

func (p *Problem) pair(workerID, taskID string) (Pair, bool) {
	wi, ok := p.workerIdx[workerID]
	if !ok {
		return Pair{}, false
	}
	ti, ok := p.taskIdx[taskID]
	if !ok {
		return Pair{}, false
	}
	idx, ok := p.pairIdx[pairKey{wi, ti}]
	if !ok {
		return Pair{}, false
	}
	return p.pairs[idx], true
}

// weight returns the objective weight of the task at index ti
func (p *Problem) weight(ti int) float64 {
	return p.tasks[ti].Weight(p.defaultPriority)
}

// WeightedValue returns the priority-weighted sum of assigned hours
func (p *Problem) WeightedValue(sol models.Solution) float64 {
	var total float64
	for _, a := range sol.Assignments {
		if ti, ok := p.taskIdx[a.TaskID]; ok {
			total += p.weight(ti) * a.Hours
		}
	}
	return total
}
