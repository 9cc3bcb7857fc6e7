package handlers

import (
	"errors"
	"net/http"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/arnavshah/assign-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks an inline request body the way the engine would,
// without solving it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}
	h.recordUsage(c, len(input.Tasks), len(input.Workers))

	p, err := scheduler.BuildProblem(input.Workers, input.Tasks, h.Engine.Config())
	if err != nil {
		body := gin.H{"valid": false, "error": err.Error()}
		var verr *scheduler.ValidationError
		if errors.As(err, &verr) && verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusOK, body)
		return
	}

	var demand, assignable float64
	uncoverable := []string{}
	for _, t := range p.Tasks() {
		demand += t.Demand
		if len(p.PairsForTask(t.ID)) == 0 {
			uncoverable = append(uncoverable, t.ID)
		}
	}
	for _, pr := range p.Pairs() {
		assignable += pr.Max
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"worker_count":   len(input.Workers),
			"task_count":     len(input.Tasks),
			"feasible_pairs": len(p.Pairs()),
			"total_demand":   demand,
			"pair_capacity":  assignable,
		},
		"uncoverable_tasks": uncoverable,
	})
}
