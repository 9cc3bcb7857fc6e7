package models

import "time"

// TimeWindow is a half-open interval [Start, End) during which work may happen
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Hours returns the length of the window in hours
func (w TimeWindow) Hours() float64 {
	return w.End.Sub(w.Start).Hours()
}

// Overlap returns the window shared by w and o, if any
func (w TimeWindow) Overlap(o TimeWindow) (TimeWindow, bool) {
	start := w.Start
	if o.Start.After(start) {
		start = o.Start
	}
	end := w.End
	if o.End.Before(end) {
		end = o.End
	}
	if !start.Before(end) {
		return TimeWindow{}, false
	}
	return TimeWindow{Start: start, End: end}, true
}

// Worker represents a person who can be assigned hours of work
type Worker struct {
	ID           string       `json:"id" validate:"required"`
	Name         string       `json:"name,omitempty"`
	Skills       []string     `json:"skills"`
	Availability []TimeWindow `json:"availability,omitempty"`
	Capacity     float64      `json:"capacity" validate:"gte=0"`
}

// HasSkill reports whether the worker carries the given skill tag
func (w Worker) HasSkill(skill string) bool {
	for _, s := range w.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// AvailableHours is the total length of the worker's availability windows.
// A worker without windows is always available and ok is false.
func (w Worker) AvailableHours() (hours float64, ok bool) {
	if len(w.Availability) == 0 {
		return 0, false
	}
	for _, win := range w.Availability {
		hours += win.Hours()
	}
	return hours, true
}

// RemainingCapacity returns the capacity left once assigned hours are booked
func (w Worker) RemainingCapacity(assigned float64) float64 {
	if rem := w.Capacity - assigned; rem > 0 {
		return rem
	}
	return 0
}

// Task represents a body of work that needs a number of hours
type Task struct {
	ID       string      `json:"id" validate:"required"`
	Name     string      `json:"name,omitempty"`
	Skills   []string    `json:"skills"`
	Demand   float64     `json:"demand" validate:"gt=0"`
	Window   *TimeWindow `json:"window,omitempty"`
	Priority *float64    `json:"priority,omitempty" validate:"omitempty,gte=0"`
}

// Weight returns the task priority, or def when none was set
func (t Task) Weight(def float64) float64 {
	if t.Priority == nil {
		return def
	}
	return *t.Priority
}

// RemainingDemand returns the hours still needed once assigned hours are covered
func (t Task) RemainingDemand(assigned float64) float64 {
	if rem := t.Demand - assigned; rem > 0 {
		return rem
	}
	return 0
}

// Assignment represents hours of a worker booked against a task
type Assignment struct {
	WorkerID string  `json:"worker_id"`
	TaskID   string  `json:"task_id"`
	Hours    float64 `json:"hours"`
}

// Status describes how complete a solution is
type Status string

const (
	StatusOptimal           Status = "OPTIMAL"
	StatusFeasible          Status = "FEASIBLE"
	StatusInfeasiblePartial Status = "INFEASIBLE_PARTIAL"
)

// Solution is the output of a solver. Assignments keep generation order.
type Solution struct {
	Method      string       `json:"method"`
	Status      Status       `json:"status"`
	Assignments []Assignment `json:"assignments"`
}

// UnmetTask records how many hours of a task were left uncovered
type UnmetTask struct {
	TaskID     string  `json:"task_id"`
	UnmetHours float64 `json:"unmet_hours"`
}

// KPIReport summarizes a solution against the problem it solves
type KPIReport struct {
	TotalDemand       float64            `json:"total_demand"`
	TotalAssigned     float64            `json:"total_assigned"`
	FulfillmentRate   float64            `json:"fulfillment_rate"`
	UnassignedHours   float64            `json:"unassigned_hours"`
	WorkerUtilization map[string]float64 `json:"worker_utilization"`
	WorkerHours       map[string]float64 `json:"worker_hours"`
	MaxWorkerLoad     float64            `json:"max_worker_load"`
	GiniCoefficient   float64            `json:"gini_coefficient"`
	FairnessScore     float64            `json:"fairness_score"`
	UnmetTasks        []UnmetTask        `json:"unmet_tasks"`
}

// AssignInput is the request body for inline assignment and validation
type AssignInput struct {
	Workers []Worker `json:"workers"`
	Tasks   []Task   `json:"tasks"`
}

// AssignResponse is the data structure for the assignment result
type AssignResponse struct {
	RunID       string       `json:"run_id,omitempty"`
	Method      string       `json:"method"`
	Status      Status       `json:"status"`
	Assignments []Assignment `json:"assignments"`
	KPIs        KPIReport    `json:"kpis"`
	ElapsedMS   int64        `json:"elapsed_ms"`
}

// ScheduleRow is a single position or worker row of the workforce schedule
type ScheduleRow struct {
	Name       string             `json:"name"`
	Type       string             `json:"type"` // "position" or "worker"
	DailyHours map[string]float64 `json:"daily_hours"`
}

// ScheduleResponse is the workforce schedule table
type ScheduleResponse struct {
	Data        []ScheduleRow `json:"data"`
	DateColumns []string      `json:"date_columns"`
}
