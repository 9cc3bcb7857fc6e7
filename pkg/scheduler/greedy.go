package scheduler

import (
	"sort"

	"github.com/arnavshah/assign-api-go/pkg/models"
)

// epsilon is the smallest number of hours treated as non-zero
const epsilon = 1e-9

// GreedyAssigner fills tasks one at a time, handing each to the worker with
// the most remaining capacity. It is deterministic and never fails.
type GreedyAssigner struct{}

// Solve produces a FEASIBLE solution when every task is covered and an
// INFEASIBLE_PARTIAL one otherwise
func (GreedyAssigner) Solve(p *Problem) models.Solution {
	order := make([]int, len(p.tasks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := p.tasks[order[i]], p.tasks[order[j]]
		wa, wb := p.weight(order[i]), p.weight(order[j])
		if wa != wb {
			return wa > wb
		}
		if a.Demand != b.Demand {
			return a.Demand > b.Demand
		}
		return a.ID < b.ID
	})

	assignedHours := make([]float64, len(p.workers))
	used := make([]bool, len(p.pairs))

	sol := models.Solution{Method: string(MethodGreedy), Status: models.StatusFeasible}
	for _, ti := range order {
		task := p.tasks[ti]
		remaining := task.Demand

		for remaining > epsilon {
			best := -1
			bestCap := 0.0
			// byTask is ordered by worker index, which is id order, so the
			// strict comparison keeps the lowest id on ties
			for _, pi := range p.byTask[ti] {
				if used[pi] {
					continue
				}
				pr := p.pairs[pi]
				capLeft := p.workers[pr.Worker].RemainingCapacity(assignedHours[pr.Worker])
				if capLeft <= epsilon || pr.Max <= epsilon {
					continue
				}
				if best == -1 || capLeft > bestCap {
					best = pi
					bestCap = capLeft
				}
			}
			if best == -1 {
				break
			}

			pr := p.pairs[best]
			hours := min(remaining, bestCap, pr.Max)
			used[best] = true
			assignedHours[pr.Worker] += hours
			remaining -= hours

			sol.Assignments = append(sol.Assignments, models.Assignment{
				WorkerID: p.workers[pr.Worker].ID,
				TaskID:   task.ID,
				Hours:    hours,
			})
		}

		if remaining > epsilon {
			sol.Status = models.StatusInfeasiblePartial
		}
	}

	return sol
}
