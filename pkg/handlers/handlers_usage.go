package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const usageDays = 30

// GetMyUsage reports the authenticated key's request counts together with
// the fulfillment of the runs it persisted, per day
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey := currentKey(c)
	if apiKey == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}

	ctx := c.Request.Context()
	requests, err := h.Store.UsageHistory(ctx, apiKey.ID, usageDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}
	runs, err := h.Store.RunHistory(ctx, apiKey.ID, usageDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch run history"})
		return
	}

	var requestCount, runCount, partial int
	var demand, assigned float64
	for _, u := range requests {
		requestCount += u.RequestCount
	}
	for _, d := range runs {
		runCount += d.Runs
		partial += d.Partial
		demand += d.TotalDemand
		assigned += d.TotalAssigned
	}
	fulfillment := 0.0
	if demand > 0 {
		fulfillment = assigned / demand
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":   apiKey.Name,
		"rate_limit": apiKey.RateLimit,
		"requests":   requests,
		"runs":       runs,
		"totals": gin.H{
			"requests":         requestCount,
			"runs":             runCount,
			"partial_runs":     partial,
			"total_demand":     demand,
			"total_assigned":   assigned,
			"fulfillment_rate": fulfillment,
		},
	})
}
