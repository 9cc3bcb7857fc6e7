package database

import (
	"context"
	"sort"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/pkg/errors"
)

const (
	// DateColumnFormat labels the daily columns of the schedule
	DateColumnFormat = "02 Jan"

	unassignedPosition = "Unassigned"
	unassignedTasks    = "Unassigned Tasks"
)

// WorkforceSchedule aggregates stored assignments between from and to
// (inclusive days) into one row per position followed by one row per
// worker who held hours in it. Positions are named after a task's first
// skill. Tasks in range with no assignment show up in an
// "Unassigned Tasks" row under their position.
func (s *Store) WorkforceSchedule(ctx context.Context, from, to time.Time) (models.ScheduleResponse, error) {
	start, end := dayRange(from, to)
	db := s.DB.WithContext(ctx)

	var records []AssignmentRecord
	if err := db.Where("work_date >= ? AND work_date < ?", start, end).Find(&records).Error; err != nil {
		return models.ScheduleResponse{}, errors.Wrap(err, "failed to load assignments")
	}

	taskIDs := make([]string, 0, len(records))
	workerIDs := make([]string, 0, len(records))
	for _, r := range records {
		taskIDs = append(taskIDs, r.TaskID)
		workerIDs = append(workerIDs, r.WorkerID)
	}

	var tasks []TaskRecord
	q := db.Where("window_start >= ? AND window_start < ?", start, end)
	if len(taskIDs) > 0 {
		q = q.Or("id IN ?", taskIDs)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return models.ScheduleResponse{}, errors.Wrap(err, "failed to load tasks")
	}
	taskByID := make(map[string]TaskRecord, len(tasks))
	for _, t := range tasks {
		taskByID[t.ID] = t
	}

	var workers []WorkerRecord
	if len(workerIDs) > 0 {
		if err := db.Where("id IN ?", workerIDs).Find(&workers).Error; err != nil {
			return models.ScheduleResponse{}, errors.Wrap(err, "failed to load workers")
		}
	}
	workerName := make(map[string]string, len(workers))
	for _, w := range workers {
		workerName[w.ID] = w.Name
	}

	columns := dateColumns(start, end)
	sched := newScheduleTable()
	assigned := make(map[string]bool, len(records))
	for _, r := range records {
		assigned[r.TaskID] = true
		position := positionOf(taskByID[r.TaskID])
		name := workerName[r.WorkerID]
		if name == "" {
			name = r.WorkerID
		}
		sched.add(position, name, r.WorkDate.UTC().Format(DateColumnFormat), r.Hours)
	}
	for _, t := range tasks {
		if assigned[t.ID] || t.WindowStart == nil {
			continue
		}
		if t.WindowStart.Before(start) || !t.WindowStart.Before(end) {
			continue
		}
		sched.addUnassigned(positionOf(t), t.WindowStart.UTC().Format(DateColumnFormat), t.Demand)
	}

	return models.ScheduleResponse{Data: sched.rows(columns), DateColumns: columns}, nil
}

func positionOf(t TaskRecord) string {
	if skills := splitSkills(t.Skills); len(skills) > 0 {
		return skills[0]
	}
	return unassignedPosition
}

func dateColumns(start, end time.Time) []string {
	var columns []string
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		columns = append(columns, d.Format(DateColumnFormat))
	}
	return columns
}

type scheduleTable struct {
	positions  map[string]map[string]float64
	workers    map[string]map[string]map[string]float64
	unassigned map[string]map[string]float64
}

func newScheduleTable() *scheduleTable {
	return &scheduleTable{
		positions:  map[string]map[string]float64{},
		workers:    map[string]map[string]map[string]float64{},
		unassigned: map[string]map[string]float64{},
	}
}

func (t *scheduleTable) add(position, worker, day string, hours float64) {
	if t.positions[position] == nil {
		t.positions[position] = map[string]float64{}
		t.workers[position] = map[string]map[string]float64{}
	}
	t.positions[position][day] += hours
	if t.workers[position][worker] == nil {
		t.workers[position][worker] = map[string]float64{}
	}
	t.workers[position][worker][day] += hours
}

func (t *scheduleTable) addUnassigned(position, day string, hours float64) {
	if t.unassigned[position] == nil {
		t.unassigned[position] = map[string]float64{}
	}
	t.unassigned[position][day] += hours
}

func (t *scheduleTable) rows(columns []string) []models.ScheduleRow {
	names := map[string]bool{}
	for p := range t.positions {
		names[p] = true
	}
	for p := range t.unassigned {
		names[p] = true
	}
	positions := make([]string, 0, len(names))
	for p := range names {
		positions = append(positions, p)
	}
	sort.Strings(positions)

	rows := []models.ScheduleRow{}
	for _, p := range positions {
		rows = append(rows, models.ScheduleRow{Name: p, Type: "position", DailyHours: fill(t.positions[p], columns)})

		workers := make([]string, 0, len(t.workers[p]))
		for w := range t.workers[p] {
			workers = append(workers, w)
		}
		sort.Strings(workers)
		for _, w := range workers {
			rows = append(rows, models.ScheduleRow{Name: w, Type: "worker", DailyHours: fill(t.workers[p][w], columns)})
		}

		if hours, ok := t.unassigned[p]; ok {
			rows = append(rows, models.ScheduleRow{Name: unassignedTasks, Type: "worker", DailyHours: fill(hours, columns)})
		}
	}
	return rows
}

// fill returns hours for every column, zero where nothing was booked
func fill(hours map[string]float64, columns []string) map[string]float64 {
	out := make(map[string]float64, len(columns))
	for _, c := range columns {
		out[c] = hours[c]
	}
	return out
}
