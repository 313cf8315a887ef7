package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lhoward/shiftgrid-api/pkg/models"
	"github.com/lhoward/shiftgrid-api/pkg/schedule"
)

// ValidatePeriodInput checks a period payload without persisting anything
func (h *Handler) ValidatePeriodInput(c *gin.Context) {
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "name is required",
		})
		return
	}

	period := models.Period{
		Name:           req.Name,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		NeededCapacity: req.NeededCapacity,
	}
	days, err := schedule.PeriodDays(period)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"day_count":       len(days),
			"needed_capacity": req.NeededCapacity,
		},
	})
}
