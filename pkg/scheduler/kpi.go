package scheduler

import (
	"fmt"
	"math"
	"sort"

	"github.com/arnavshah/assign-api-go/pkg/models"
)

// ComputeKPIs summarizes a solution against its problem. It does not care
// which solver produced the solution. An assignment that references an
// unknown worker or task is a ValidationError.
func ComputeKPIs(p *Problem, sol models.Solution) (models.KPIReport, error) {
	report := models.KPIReport{
		WorkerUtilization: make(map[string]float64, len(p.workers)),
		WorkerHours:       make(map[string]float64, len(p.workers)),
		UnmetTasks:        []models.UnmetTask{},
	}

	taskHours := make(map[string]float64, len(p.tasks))
	for i, a := range sol.Assignments {
		if _, ok := p.workerIdx[a.WorkerID]; !ok {
			return models.KPIReport{}, &ValidationError{Field: "assignments", Reason: "unknown worker ID: " + a.WorkerID}
		}
		if _, ok := p.taskIdx[a.TaskID]; !ok {
			return models.KPIReport{}, &ValidationError{Field: "assignments", Reason: "unknown task ID: " + a.TaskID}
		}
		if a.Hours <= 0 {
			return models.KPIReport{}, &ValidationError{Field: "assignments", Reason: fmt.Sprintf("non-positive hours at index %d", i)}
		}
		report.WorkerHours[a.WorkerID] += a.Hours
		taskHours[a.TaskID] += a.Hours
		report.TotalAssigned += a.Hours
	}

	for _, t := range p.tasks {
		report.TotalDemand += t.Demand
		if unmet := t.Demand - taskHours[t.ID]; unmet > dropBelow {
			report.UnmetTasks = append(report.UnmetTasks, models.UnmetTask{TaskID: t.ID, UnmetHours: unmet})
			report.UnassignedHours += unmet
		}
	}
	if report.TotalDemand > 0 {
		report.FulfillmentRate = report.TotalAssigned / report.TotalDemand
	}

	loads := make([]float64, 0, len(p.workers))
	for _, w := range p.workers {
		hours := report.WorkerHours[w.ID]
		report.WorkerHours[w.ID] = hours
		if w.Capacity > 0 {
			report.WorkerUtilization[w.ID] = hours / w.Capacity
		} else {
			report.WorkerUtilization[w.ID] = 0
		}
		if hours > report.MaxWorkerLoad {
			report.MaxWorkerLoad = hours
		}
		loads = append(loads, hours)
	}

	report.GiniCoefficient = giniCoefficient(loads)
	report.FairnessScore = fairnessScore(loads)
	return report, nil
}

// giniCoefficient measures how unequally hours are spread (0 = equal)
func giniCoefficient(loads []float64) float64 {
	n := len(loads)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), loads...)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, x := range sorted {
		sum += x
		weighted += float64(i+1) * x
	}
	if sum == 0 {
		return 0
	}
	g := 2*weighted/(float64(n)*sum) - float64(n+1)/float64(n)
	return math.Max(0, g)
}

// fairnessScore returns a percentage (0-100) representing how evenly
// hours are distributed. 100% is perfectly fair (Standard Deviation = 0).
func fairnessScore(loads []float64) float64 {
	if len(loads) == 0 {
		return 100.0
	}

	var sum float64
	for _, h := range loads {
		sum += h
	}
	if sum == 0 {
		return 100.0 // Everyone having 0 hours is perfectly fair
	}

	mean := sum / float64(len(loads))

	var varianceSum float64
	for _, h := range loads {
		diff := h - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(loads)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
