package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// WorkforceSchedule returns the daily hours table of stored assignments.
// start_date defaults to today and end_date to start_date.
func (h *Handler) WorkforceSchedule(c *gin.Context) {
	startRaw := c.Query("start_date")
	if startRaw == "" {
		startRaw = time.Now().UTC().Format(dateLayout)
	}
	from, to, err := dateRange(startRaw, c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sched, err := h.Store.WorkforceSchedule(c.Request.Context(), from, to)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build workforce schedule"})
		return
	}
	c.JSON(http.StatusOK, sched)
}
