package database

import (
	"context"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const usageDateFormat = "2006-01-02"

// RecordUsage counts one request for the key on today's row with a single
// upsert, which both Postgres and SQLite support
func (s *Store) RecordUsage(ctx context.Context, keyID uint, taskCount, workerCount int) error {
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"total_tasks":   gorm.Expr("total_tasks + ?", taskCount),
			"total_workers": gorm.Expr("total_workers + ?", workerCount),
		}),
	}).Create(&APIUsage{
		KeyID:        keyID,
		Date:         time.Now().UTC().Format(usageDateFormat),
		RequestCount: 1,
		TotalTasks:   taskCount,
		TotalWorkers: workerCount,
	}).Error
	return errors.Wrap(err, "failed to record usage")
}

// RequestsToday returns how many requests the key made today
func (s *Store) RequestsToday(ctx context.Context, keyID uint) (int, error) {
	var usage APIUsage
	err := s.DB.WithContext(ctx).
		Where("key_id = ? AND date = ?", keyID, time.Now().UTC().Format(usageDateFormat)).
		Limit(1).
		Find(&usage).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to read usage")
	}
	return usage.RequestCount, nil
}

// UsageHistory returns the most recent daily usage rows of a key
func (s *Store) UsageHistory(ctx context.Context, keyID uint, days int) ([]APIUsage, error) {
	var usage []APIUsage
	err := s.DB.WithContext(ctx).Where("key_id = ?", keyID).Order("date desc").Limit(days).Find(&usage).Error
	return usage, errors.Wrap(err, "could not fetch usage details")
}

// RunDay summarizes the runs a key persisted on one day
type RunDay struct {
	Date            string  `json:"date"`
	Runs            int     `json:"runs"`
	Partial         int     `json:"partial_runs"`
	TotalDemand     float64 `json:"total_demand"`
	TotalAssigned   float64 `json:"total_assigned"`
	FulfillmentRate float64 `json:"fulfillment_rate"`
}

// RunHistory groups the key's runs of the last days by UTC date, newest
// first. FulfillmentRate is assigned over demand for the whole day.
func (s *Store) RunHistory(ctx context.Context, keyID uint, days int) ([]RunDay, error) {
	since := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))

	var runs []AssignmentRun
	err := s.DB.WithContext(ctx).
		Where("key_id = ? AND created_at >= ?", keyID, since).
		Order("created_at desc").
		Find(&runs).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch run history")
	}

	out := []RunDay{}
	for _, r := range runs {
		date := r.CreatedAt.UTC().Format(usageDateFormat)
		if len(out) == 0 || out[len(out)-1].Date != date {
			out = append(out, RunDay{Date: date})
		}
		d := &out[len(out)-1]
		d.Runs++
		if r.Status == string(models.StatusInfeasiblePartial) {
			d.Partial++
		}
		d.TotalDemand += r.TotalDemand
		d.TotalAssigned += r.TotalAssigned
	}
	for i := range out {
		if out[i].TotalDemand > 0 {
			out[i].FulfillmentRate = out[i].TotalAssigned / out[i].TotalDemand
		}
	}
	return out, nil
}
