package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/arnavshah/assign-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// AssignTasks loads workers and the tasks of the requested date range from
// the store, solves them and persists the run
func (h *Handler) AssignTasks(c *gin.Context) {
	method, err := scheduler.ParseMethod(c.Query("method"))
	if err != nil {
		h.fail(c, "unknown", err)
		return
	}

	from, to, err := optionalDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	workers, err := h.Store.LoadWorkers(ctx)
	if err != nil {
		h.fail(c, string(method), err)
		return
	}
	tasks, err := h.Store.LoadTasks(ctx, from, to)
	if err != nil {
		h.fail(c, string(method), err)
		return
	}

	res, ok := h.solve(c, workers, tasks, method)
	if !ok {
		return
	}

	var keyID uint
	if apiKey := currentKey(c); apiKey != nil {
		keyID = apiKey.ID
	}
	run, err := h.Store.SaveRun(ctx, res, keyID)
	if err != nil {
		h.fail(c, string(method), err)
		return
	}

	c.JSON(http.StatusOK, response(run.ID, res))
}

// AssignInline solves the workers and tasks posted in the request body
// without touching the store
func (h *Handler) AssignInline(c *gin.Context) {
	method, err := scheduler.ParseMethod(c.Query("method"))
	if err != nil {
		h.fail(c, "unknown", err)
		return
	}

	var input models.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, ok := h.solve(c, input.Workers, input.Tasks, method)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, response("", res))
}

// solve runs the engine and records usage and metrics. On failure the
// error response is written and ok is false.
func (h *Handler) solve(c *gin.Context, workers []models.Worker, tasks []models.Task, method scheduler.Method) (scheduler.Result, bool) {
	res, err := h.Engine.Assign(c.Request.Context(), workers, tasks, method, 0)
	h.recordUsage(c, len(tasks), len(workers))
	if err != nil {
		h.fail(c, string(method), err)
		return scheduler.Result{}, false
	}
	if h.Metrics != nil {
		h.Metrics.ObserveSolved(string(method), res.Solution.Status, res.KPIs.FulfillmentRate, res.Elapsed)
	}
	return res, true
}

func response(runID string, res scheduler.Result) models.AssignResponse {
	assignments := res.Solution.Assignments
	if assignments == nil {
		assignments = []models.Assignment{}
	}
	return models.AssignResponse{
		RunID:       runID,
		Method:      res.Solution.Method,
		Status:      res.Solution.Status,
		Assignments: assignments,
		KPIs:        res.KPIs,
		ElapsedMS:   res.Elapsed.Milliseconds(),
	}
}

// fail maps an engine or store error to its HTTP status and body
func (h *Handler) fail(c *gin.Context, method string, err error) {
	status, kind := classify(err)
	if h.Metrics != nil {
		h.Metrics.ObserveFailed(method, kind)
	}
	_ = c.Error(err)

	body := gin.H{"error": err.Error(), "kind": kind}
	var verr *scheduler.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		body["field"] = verr.Field
	}
	if status >= http.StatusInternalServerError {
		h.Log.WithFields(log.Fields{"method": method, "kind": kind}).WithError(err).Error("Assignment request failed")
	}
	c.JSON(status, body)
}

func classify(err error) (int, string) {
	var (
		verr    *scheduler.ValidationError
		merr    *scheduler.InvalidMethodError
		timeout *scheduler.SolverTimeoutError
		failure *scheduler.SolverFailureError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &merr):
		return http.StatusBadRequest, "invalid_method"
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &failure):
		return http.StatusBadGateway, "solver_failure"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	}
	return http.StatusInternalServerError, "internal"
}

// optionalDateRange reads start_date and end_date. Both absent means no
// range; a missing end_date defaults to start_date.
func optionalDateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	startRaw, endRaw := c.Query("start_date"), c.Query("end_date")
	if startRaw == "" && endRaw == "" {
		return nil, nil, nil
	}
	if startRaw == "" {
		return nil, nil, errors.New("start_date is required when end_date is set")
	}
	from, to, err := dateRange(startRaw, endRaw)
	if err != nil {
		return nil, nil, err
	}
	return &from, &to, nil
}

func dateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start_date must be formatted as YYYY-MM-DD")
	}
	to := from
	if endRaw != "" {
		if to, err = time.Parse(dateLayout, endRaw); err != nil {
			return time.Time{}, time.Time{}, errors.New("end_date must be formatted as YYYY-MM-DD")
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("end_date must not be before start_date")
	}
	return from, to, nil
}
