package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/config"
	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/arnavshah/assign-api-go/pkg/scheduler"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "assign.db")})
	require.NoError(t, err)
	return NewStore(db)
}

func day(d, hour int) time.Time {
	return time.Date(2025, time.January, d, hour, 0, 0, 0, time.UTC)
}

func windowOn(d, from, to int) *models.TimeWindow {
	return &models.TimeWindow{Start: day(d, from), End: day(d, to)}
}

func TestStore_WorkersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w := models.Worker{
		ID:       "w1",
		Name:     "Alice",
		Skills:   []string{"driving", "lifting"},
		Capacity: 8,
		Availability: []models.TimeWindow{
			{Start: day(11, 8), End: day(11, 12)},
			{Start: day(12, 8), End: day(12, 12)},
		},
	}
	require.NoError(t, s.SaveWorkers(ctx, []models.Worker{w}))

	got, err := s.LoadWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Equal(t, w.Skills, got[0].Skills)
	require.Len(t, got[0].Availability, 2)
	for i, win := range w.Availability {
		assert.True(t, win.Start.Equal(got[0].Availability[i].Start))
		assert.True(t, win.End.Equal(got[0].Availability[i].End))
	}

	w.Capacity = 6
	w.Availability = w.Availability[:1]
	require.NoError(t, s.SaveWorkers(ctx, []models.Worker{w}))

	got, err = s.LoadWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 6.0, got[0].Capacity)
	assert.Len(t, got[0].Availability, 1)
}

func TestStore_LoadTasksDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	prio := 3.0
	require.NoError(t, s.SaveTasks(ctx, []models.Task{
		{ID: "t1", Skills: []string{"driving"}, Demand: 5, Window: windowOn(11, 9, 17), Priority: &prio},
		{ID: "t2", Skills: []string{"driving"}, Demand: 2, Window: windowOn(13, 9, 17)},
		{ID: "t3", Demand: 1},
	}))

	all, err := s.LoadTasks(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	require.NotNil(t, all[0].Priority)
	assert.Equal(t, 3.0, *all[0].Priority)
	require.NotNil(t, all[0].Window)
	assert.True(t, all[0].Window.Start.Equal(day(11, 9)))
	assert.Nil(t, all[2].Window)

	from, to := day(11, 0), day(11, 0)
	inRange, err := s.LoadTasks(ctx, &from, &to)
	require.NoError(t, err)
	ids := make([]string, 0, len(inRange))
	for _, task := range inRange {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"t1", "t3"}, ids)
}

func TestStore_SaveRunReplacesPreviousAssignments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	workers := []models.Worker{
		{ID: "w1", Skills: []string{"driving"}, Capacity: 8},
		{ID: "w2", Skills: []string{"driving"}, Capacity: 8},
	}
	tasks := []models.Task{{ID: "t1", Skills: []string{"driving"}, Demand: 5, Window: windowOn(11, 9, 17)}}
	logger, _ := logtest.NewNullLogger()
	engine := scheduler.NewEngine(scheduler.DefaultConfig(), nil, logger)

	res, err := engine.Assign(ctx, workers, tasks, scheduler.MethodGreedy, 0)
	require.NoError(t, err)
	first, err := s.SaveRun(ctx, res, 0)
	require.NoError(t, err)
	assert.Equal(t, "greedy", first.Method)
	assert.Equal(t, string(models.StatusFeasible), first.Status)

	res, err = engine.Assign(ctx, workers, tasks, scheduler.MethodLP, 0)
	require.NoError(t, err)
	second, err := s.SaveRun(ctx, res, 0)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	stale, err := s.Assignments(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, stale)

	current, err := s.Assignments(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Solution.Assignments, current)

	var records []AssignmentRecord
	require.NoError(t, s.DB.Find(&records).Error)
	require.Len(t, records, len(res.Solution.Assignments))
	assert.True(t, records[0].WorkDate.Equal(day(11, 0)))
}

func TestStore_WorkforceSchedule(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWorkers(ctx, []models.Worker{
		{ID: "w1", Name: "Worker 1", Capacity: 40},
		{ID: "w2", Name: "Worker 2", Capacity: 40},
	}))
	require.NoError(t, s.SaveTasks(ctx, []models.Task{
		{ID: "t1", Skills: []string{"Position 1"}, Demand: 8, Window: windowOn(11, 9, 17)},
		{ID: "t2", Skills: []string{"Position 1"}, Demand: 6, Window: windowOn(12, 9, 17)},
		{ID: "t3", Skills: []string{"Position 2"}, Demand: 5, Window: windowOn(11, 9, 17)},
		{ID: "t4", Demand: 2, Window: windowOn(12, 9, 17)},
	}))
	require.NoError(t, s.DB.Create(&[]AssignmentRecord{
		{WorkerID: "w1", TaskID: "t1", Hours: 3, WorkDate: day(11, 0)},
		{WorkerID: "w2", TaskID: "t1", Hours: 4, WorkDate: day(11, 0)},
		{WorkerID: "w1", TaskID: "t2", Hours: 6, WorkDate: day(12, 0)},
	}).Error)

	sched, err := s.WorkforceSchedule(ctx, day(11, 0), day(12, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"11 Jan", "12 Jan"}, sched.DateColumns)
	hours := func(a, b float64) map[string]float64 { return map[string]float64{"11 Jan": a, "12 Jan": b} }
	assert.Equal(t, []models.ScheduleRow{
		{Name: "Position 1", Type: "position", DailyHours: hours(7, 6)},
		{Name: "Worker 1", Type: "worker", DailyHours: hours(3, 6)},
		{Name: "Worker 2", Type: "worker", DailyHours: hours(4, 0)},
		{Name: "Position 2", Type: "position", DailyHours: hours(0, 0)},
		{Name: "Unassigned Tasks", Type: "worker", DailyHours: hours(5, 0)},
		{Name: "Unassigned", Type: "position", DailyHours: hours(0, 0)},
		{Name: "Unassigned Tasks", Type: "worker", DailyHours: hours(0, 2)},
	}, sched.Data)
}

func TestStore_WorkforceScheduleEmptyRange(t *testing.T) {
	s := newTestStore(t)

	sched, err := s.WorkforceSchedule(context.Background(), day(20, 0), day(20, 0))
	require.NoError(t, err)
	assert.NotNil(t, sched.Data)
	assert.Empty(t, sched.Data)
	assert.Equal(t, []string{"20 Jan"}, sched.DateColumns)
}

func writeSeed(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestStore_Seed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeSeed(t, dir, "workers.json", `[
		{"id": "w1", "name": "Alice", "skills": ["driving"], "capacity": 8,
		 "availability": [{"start": "2025-01-11T08:00:00Z", "end": "2025-01-11T16:00:00Z"}]},
		{"id": "w2", "name": "Bob", "skills": ["driving"], "capacity": 4}
	]`)
	writeSeed(t, dir, "tasks.json", `[
		{"id": "t1", "skills": ["driving"], "demand": 5,
		 "window": {"start": "2025-01-11T09:00:00Z", "end": "2025-01-11T17:00:00Z"}},
		{"id": "t2", "skills": ["driving"], "demand": 3}
	]`)
	writeSeed(t, dir, "assignments.json", `[
		{"worker_id": "w1", "task_id": "t1"},
		{"worker_id": "w2", "task_id": "t2", "hours": 2}
	]`)

	summary, err := s.Seed(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, SeedSummary{Workers: 2, Tasks: 2, Assignments: 2}, summary)

	var records []AssignmentRecord
	require.NoError(t, s.DB.Order("task_id").Find(&records).Error)
	require.Len(t, records, 2)
	assert.Equal(t, 5.0, records[0].Hours)
	assert.True(t, records[0].WorkDate.Equal(day(11, 0)))
	assert.Equal(t, 2.0, records[1].Hours)

	// loading again leaves existing rows alone
	_, err = s.Seed(ctx, dir, false)
	require.NoError(t, err)
	workers, err := s.LoadWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Len(t, workers[0].Availability, 1)

	var count int64
	require.NoError(t, s.DB.Model(&AssignmentRecord{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err = s.Seed(ctx, dir, true)
	require.NoError(t, err)
	require.NoError(t, s.DB.Model(&AssignmentRecord{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestStore_SeedErrors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeSeed(t, dir, "workers.json", `[]`)
	_, err := s.Seed(ctx, dir, false)
	assert.Error(t, err, "tasks.json is required")

	writeSeed(t, dir, "tasks.json", `[{"id": "t1", "demand": 0}]`)
	_, err = s.Seed(ctx, dir, false)
	assert.Error(t, err, "zero demand is invalid")

	writeSeed(t, dir, "tasks.json", `[{"id": "t1", "demand": 1}]`)
	writeSeed(t, dir, "assignments.json", `[{"worker_id": "w1", "task_id": "t9"}]`)
	_, err = s.Seed(ctx, dir, false)
	assert.ErrorContains(t, err, `unknown task "t9"`)

	writeSeed(t, dir, "workers.json", `[{"id": "w1", "capacity": 8}]`)
	writeSeed(t, dir, "assignments.json", `[{"worker_id": "w9", "task_id": "t1"}]`)
	_, err = s.Seed(ctx, dir, false)
	assert.ErrorContains(t, err, `unknown worker "w9"`)

	var count int64
	require.NoError(t, s.DB.Model(&AssignmentRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStore_Usage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.RequestsToday(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.RecordUsage(ctx, 1, 3, 2))
	require.NoError(t, s.RecordUsage(ctx, 1, 4, 1))
	require.NoError(t, s.RecordUsage(ctx, 2, 1, 1))

	n, err = s.RequestsToday(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	history, err := s.UsageHistory(ctx, 1, 30)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 7, history[0].TotalTasks)
	assert.Equal(t, 3, history[0].TotalWorkers)
}

func TestStore_RunHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	workers := []models.Worker{{ID: "w1", Skills: []string{"driving"}, Capacity: 4}}
	logger, _ := logtest.NewNullLogger()
	engine := scheduler.NewEngine(scheduler.DefaultConfig(), nil, logger)

	full, err := engine.Assign(ctx, workers, []models.Task{{ID: "t1", Skills: []string{"driving"}, Demand: 4}}, scheduler.MethodGreedy, 0)
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, full, 7)
	require.NoError(t, err)

	partial, err := engine.Assign(ctx, workers, []models.Task{{ID: "t2", Skills: []string{"driving"}, Demand: 8}}, scheduler.MethodLP, 0)
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, partial, 7)
	require.NoError(t, err)

	// another key's run stays out
	_, err = s.SaveRun(ctx, full, 8)
	require.NoError(t, err)
	require.NoError(t, s.DB.Create(&AssignmentRun{
		ID: "old", KeyID: 7, Method: "lp", Status: string(models.StatusOptimal),
		TotalDemand: 10, TotalAssigned: 10, CreatedAt: time.Now().UTC().AddDate(0, 0, -40),
	}).Error)

	history, err := s.RunHistory(ctx, 7, 30)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), history[0].Date)
	assert.Equal(t, 2, history[0].Runs)
	assert.Equal(t, 1, history[0].Partial)
	assert.InDelta(t, 12.0, history[0].TotalDemand, 1e-9)
	assert.InDelta(t, 8.0, history[0].TotalAssigned, 1e-9)
	assert.InDelta(t, 8.0/12.0, history[0].FulfillmentRate, 1e-9)

	none, err := s.RunHistory(ctx, 99, 30)
	require.NoError(t, err)
	assert.Empty(t, none)
}
