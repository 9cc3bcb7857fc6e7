package database

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedAssignment is one entry of assignments.json. Hours default to the
// task's demand when left out.
type SeedAssignment struct {
	WorkerID string   `json:"worker_id"`
	TaskID   string   `json:"task_id"`
	Hours    *float64 `json:"hours,omitempty"`
}

// SeedSummary counts the rows read from the seed files
type SeedSummary struct {
	Workers     int
	Tasks       int
	Assignments int
}

// Seed loads workers.json, tasks.json and, if present, assignments.json
// from dir in one transaction. Rows that already exist are left alone.
// With truncate set every worker, task and assignment is removed first.
func (s *Store) Seed(ctx context.Context, dir string, truncate bool) (SeedSummary, error) {
	var workers []models.Worker
	if err := readSeedFile(dir, "workers.json", &workers, true); err != nil {
		return SeedSummary{}, err
	}
	var tasks []models.Task
	if err := readSeedFile(dir, "tasks.json", &tasks, true); err != nil {
		return SeedSummary{}, err
	}
	var assigns []SeedAssignment
	if err := readSeedFile(dir, "assignments.json", &assigns, false); err != nil {
		return SeedSummary{}, err
	}

	workerIDs := make(map[string]bool, len(workers))
	for _, w := range workers {
		if err := w.Validate(); err != nil {
			return SeedSummary{}, errors.Wrapf(err, "invalid worker %q", w.ID)
		}
		workerIDs[w.ID] = true
	}
	taskByID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return SeedSummary{}, errors.Wrapf(err, "invalid task %q", t.ID)
		}
		taskByID[t.ID] = t
	}

	now := time.Now().UTC()
	records := make([]AssignmentRecord, 0, len(assigns))
	for _, a := range assigns {
		t, ok := taskByID[a.TaskID]
		if !ok {
			return SeedSummary{}, errors.Errorf("assignment references unknown task %q", a.TaskID)
		}
		if !workerIDs[a.WorkerID] {
			return SeedSummary{}, errors.Errorf("assignment references unknown worker %q", a.WorkerID)
		}
		hours := t.Demand
		if a.Hours != nil {
			hours = *a.Hours
		}
		records = append(records, AssignmentRecord{
			WorkerID: a.WorkerID,
			TaskID:   a.TaskID,
			Hours:    hours,
			WorkDate: workDate(t, now),
		})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if truncate {
			for _, model := range []interface{}{&AssignmentRecord{}, &AvailabilityRecord{}, &TaskRecord{}, &WorkerRecord{}} {
				if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
					return errors.Wrap(err, "failed to truncate")
				}
			}
		}

		for _, w := range workers {
			rec := workerRecord(w)
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("Availability").Create(&rec)
			if res.Error != nil {
				return errors.Wrapf(res.Error, "failed to seed worker %s", w.ID)
			}
			if res.RowsAffected == 0 || len(rec.Availability) == 0 {
				continue
			}
			if err := tx.Create(&rec.Availability).Error; err != nil {
				return errors.Wrapf(err, "failed to seed availability of worker %s", w.ID)
			}
		}

		if len(tasks) > 0 {
			recs := make([]TaskRecord, 0, len(tasks))
			for _, t := range tasks {
				recs = append(recs, taskRecord(t))
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&recs).Error; err != nil {
				return errors.Wrap(err, "failed to seed tasks")
			}
		}

		if len(records) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&records).Error; err != nil {
				return errors.Wrap(err, "failed to seed assignments")
			}
		}
		return nil
	})
	if err != nil {
		return SeedSummary{}, err
	}
	return SeedSummary{Workers: len(workers), Tasks: len(tasks), Assignments: len(records)}, nil
}

func readSeedFile(dir, name string, v interface{}, required bool) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrapf(err, "failed to read %s", path)
	}
	return errors.Wrapf(json.Unmarshal(data, v), "failed to parse %s", path)
}
