package database

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/arnavshah/assign-api-go/pkg/scheduler"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const skillSeparator = "|"

// Store loads engine input from the database and persists engine output.
// The engine itself never talks to the database.
type Store struct {
	DB *gorm.DB
}

// NewStore wraps an open connection
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// LoadWorkers returns every worker with its availability, ordered by id
func (s *Store) LoadWorkers(ctx context.Context) ([]models.Worker, error) {
	var records []WorkerRecord
	err := s.DB.WithContext(ctx).
		Preload("Availability", func(db *gorm.DB) *gorm.DB { return db.Order("starts_at") }).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load workers")
	}

	workers := make([]models.Worker, 0, len(records))
	for _, r := range records {
		workers = append(workers, r.toModel())
	}
	return workers, nil
}

// LoadTasks returns the tasks ordered by id. When from and to are set only
// tasks whose window touches the days [from, to] are returned; tasks
// without a window have no time constraint and are always included.
func (s *Store) LoadTasks(ctx context.Context, from, to *time.Time) ([]models.Task, error) {
	q := s.DB.WithContext(ctx).Order("id")
	if from != nil && to != nil {
		start, end := dayRange(*from, *to)
		q = q.Where("window_start IS NULL OR (window_start < ? AND window_end > ?)", end, start)
	}

	var records []TaskRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load tasks")
	}

	tasks := make([]models.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, r.toModel())
	}
	return tasks, nil
}

// SaveWorkers upserts workers and replaces their availability
func (s *Store) SaveWorkers(ctx context.Context, workers []models.Worker) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range workers {
			rec := workerRecord(w)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Omit("Availability").Create(&rec).Error; err != nil {
				return errors.Wrapf(err, "failed to save worker %s", w.ID)
			}
			if err := tx.Where("worker_id = ?", w.ID).Delete(&AvailabilityRecord{}).Error; err != nil {
				return errors.Wrapf(err, "failed to clear availability of worker %s", w.ID)
			}
			if len(rec.Availability) == 0 {
				continue
			}
			if err := tx.Create(&rec.Availability).Error; err != nil {
				return errors.Wrapf(err, "failed to save availability of worker %s", w.ID)
			}
		}
		return nil
	})
}

// SaveTasks upserts tasks
func (s *Store) SaveTasks(ctx context.Context, tasks []models.Task) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tasks {
			rec := taskRecord(t)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
				return errors.Wrapf(err, "failed to save task %s", t.ID)
			}
		}
		return nil
	})
}

// SaveRun stores the run summary and its assignments. Assignments from
// earlier runs for the same tasks are replaced. keyID names the API key that
// requested the run, 0 for none.
func (s *Store) SaveRun(ctx context.Context, res scheduler.Result, keyID uint) (AssignmentRun, error) {
	run := AssignmentRun{
		ID:              uuid.NewString(),
		KeyID:           keyID,
		Method:          res.Solution.Method,
		Status:          string(res.Solution.Status),
		TotalDemand:     res.KPIs.TotalDemand,
		TotalAssigned:   res.KPIs.TotalAssigned,
		FulfillmentRate: res.KPIs.FulfillmentRate,
		CreatedAt:       time.Now().UTC(),
	}

	tasks := res.Problem.Tasks()
	taskIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}

	records := make([]AssignmentRecord, 0, len(res.Solution.Assignments))
	for _, a := range res.Solution.Assignments {
		t, _ := res.Problem.Task(a.TaskID)
		records = append(records, AssignmentRecord{
			RunID:    run.ID,
			WorkerID: a.WorkerID,
			TaskID:   a.TaskID,
			Hours:    a.Hours,
			WorkDate: workDate(t, run.CreatedAt),
		})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return errors.Wrap(err, "failed to create run")
		}
		if err := tx.Where("task_id IN ?", taskIDs).Delete(&AssignmentRecord{}).Error; err != nil {
			return errors.Wrap(err, "failed to clear previous assignments")
		}
		if len(records) == 0 {
			return nil
		}
		return errors.Wrap(tx.Create(&records).Error, "failed to store assignments")
	})
	if err != nil {
		return AssignmentRun{}, err
	}
	return run, nil
}

// Assignments returns the stored assignments of a run
func (s *Store) Assignments(ctx context.Context, runID string) ([]models.Assignment, error) {
	var records []AssignmentRecord
	if err := s.DB.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to load assignments of run %s", runID)
	}
	out := make([]models.Assignment, 0, len(records))
	for _, r := range records {
		out = append(out, models.Assignment{WorkerID: r.WorkerID, TaskID: r.TaskID, Hours: r.Hours})
	}
	return out, nil
}

func (r WorkerRecord) toModel() models.Worker {
	w := models.Worker{
		ID:       r.ID,
		Name:     r.Name,
		Skills:   splitSkills(r.Skills),
		Capacity: r.Capacity,
	}
	for _, a := range r.Availability {
		w.Availability = append(w.Availability, models.TimeWindow{Start: a.Start.UTC(), End: a.End.UTC()})
	}
	sort.Slice(w.Availability, func(i, j int) bool { return w.Availability[i].Start.Before(w.Availability[j].Start) })
	return w
}

func workerRecord(w models.Worker) WorkerRecord {
	rec := WorkerRecord{ID: w.ID, Name: w.Name, Skills: joinSkills(w.Skills), Capacity: w.Capacity}
	for _, win := range w.Availability {
		rec.Availability = append(rec.Availability, AvailabilityRecord{WorkerID: w.ID, Start: win.Start.UTC(), End: win.End.UTC()})
	}
	return rec
}

func (r TaskRecord) toModel() models.Task {
	t := models.Task{
		ID:       r.ID,
		Name:     r.Name,
		Skills:   splitSkills(r.Skills),
		Demand:   r.Demand,
		Priority: r.Priority,
	}
	if r.WindowStart != nil && r.WindowEnd != nil {
		t.Window = &models.TimeWindow{Start: r.WindowStart.UTC(), End: r.WindowEnd.UTC()}
	}
	return t
}

func taskRecord(t models.Task) TaskRecord {
	rec := TaskRecord{ID: t.ID, Name: t.Name, Skills: joinSkills(t.Skills), Demand: t.Demand, Priority: t.Priority}
	if t.Window != nil {
		start, end := t.Window.Start.UTC(), t.Window.End.UTC()
		rec.WindowStart, rec.WindowEnd = &start, &end
	}
	return rec
}

func splitSkills(s string) []string {
	var skills []string
	for _, part := range strings.Split(s, skillSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			skills = append(skills, part)
		}
	}
	return skills
}

func joinSkills(skills []string) string {
	return strings.Join(skills, skillSeparator)
}

// workDate is the day a task's hours are booked on: the start of its
// window, or fallback for tasks without one
func workDate(t models.Task, fallback time.Time) time.Time {
	d := fallback
	if t.Window != nil {
		d = t.Window.Start
	}
	return truncateDay(d)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dayRange returns [start of from, start of the day after to)
func dayRange(from, to time.Time) (time.Time, time.Time) {
	return truncateDay(from), truncateDay(to).AddDate(0, 0, 1)
}
