package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lhoward/shiftgrid-api/pkg/database"
)

// ListRuns returns the most recent optimizer runs for a period
func (h *Handler) ListRuns(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}

	var runs []database.OptimizerRun
	if err := h.DB.Where("period_id = ?", period.ID).Order("created_at desc").Limit(30).Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch runs"})
		return
	}

	// Totals across the listed runs
	var totalChanged, totalFailed int64
	for _, r := range runs {
		totalChanged += int64(r.CellsChanged)
		totalFailed += int64(r.CellsFailed)
	}

	c.JSON(http.StatusOK, gin.H{
		"runs": runs,
		"totals": gin.H{
			"cells_changed": totalChanged,
			"cells_failed":  totalFailed,
		},
	})
}
