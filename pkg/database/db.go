package database

import (
	"time"

	"github.com/arnavshah/assign-api-go/pkg/config"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalTasks   int    `gorm:"default:0" json:"total_tasks"`
	TotalWorkers int    `gorm:"default:0" json:"total_workers"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkerRecord represents the workers table. Skills are stored pipe-separated.
type WorkerRecord struct {
	ID           string               `gorm:"primaryKey"`
	Name         string               `gorm:"not null;default:''"`
	Skills       string               `gorm:"not null;default:''"`
	Capacity     float64              `gorm:"not null"`
	Availability []AvailabilityRecord `gorm:"foreignKey:WorkerID;constraint:OnDelete:CASCADE"`
}

func (WorkerRecord) TableName() string { return "workers" }

// AvailabilityRecord represents a single availability window of a worker
type AvailabilityRecord struct {
	ID       uint      `gorm:"primaryKey"`
	WorkerID string    `gorm:"index;not null"`
	Start    time.Time `gorm:"column:starts_at;not null"`
	End      time.Time `gorm:"column:ends_at;not null"`
}

func (AvailabilityRecord) TableName() string { return "worker_availability" }

// TaskRecord represents the tasks table
type TaskRecord struct {
	ID          string     `gorm:"primaryKey"`
	Name        string     `gorm:"not null;default:''"`
	Skills      string     `gorm:"not null;default:''"`
	Demand      float64    `gorm:"not null"`
	WindowStart *time.Time `gorm:"index"`
	WindowEnd   *time.Time
	Priority    *float64
}

func (TaskRecord) TableName() string { return "tasks" }

// AssignmentRun represents one persisted engine run
type AssignmentRun struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	KeyID           uint      `gorm:"index" json:"key_id,omitempty"`
	Method          string    `gorm:"not null" json:"method"`
	Status          string    `gorm:"not null" json:"status"`
	TotalDemand     float64   `json:"total_demand"`
	TotalAssigned   float64   `json:"total_assigned"`
	FulfillmentRate float64   `json:"fulfillment_rate"`
	CreatedAt       time.Time `json:"created_at"`
}

// AssignmentRecord represents the assignments table. A worker holds at
// most one assignment per task.
type AssignmentRecord struct {
	ID       uint      `gorm:"primaryKey"`
	RunID    string    `gorm:"index"`
	WorkerID string    `gorm:"uniqueIndex:idx_worker_task;not null"`
	TaskID   string    `gorm:"uniqueIndex:idx_worker_task;index;not null"`
	Hours    float64   `gorm:"not null"`
	WorkDate time.Time `gorm:"index;not null"`
}

func (AssignmentRecord) TableName() string { return "assignments" }

// Open connects to Postgres when a URL is configured and to SQLite
// otherwise, then migrates the schema
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.URL != "" {
		gormCfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		}), gormCfg)
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&APIKey{}, &APIUsage{}, &MasterUser{},
		&WorkerRecord{}, &AvailabilityRecord{}, &TaskRecord{},
		&AssignmentRun{}, &AssignmentRecord{},
	)
	return errors.Wrap(err, "failed to migrate schema")
}
