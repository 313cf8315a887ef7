package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lhoward/shiftgrid-api/pkg/database"
	"github.com/lhoward/shiftgrid-api/pkg/models"
	"github.com/lhoward/shiftgrid-api/pkg/schedule"
)

// buildGridResponse loads a period's users and records and assembles the grid
func (h *Handler) buildGridResponse(c *gin.Context, period models.Period) (models.GridResponse, bool) {
	users, err := h.periodUsers(period.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch users"})
		return models.GridResponse{}, false
	}

	records, err := h.periodRecords(period.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch records"})
		return models.GridResponse{}, false
	}

	grid, err := schedule.BuildGrid(period, users, records)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, schedule.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return models.GridResponse{}, false
	}

	return models.GridResponse{Period: period, Users: users, Grid: grid}, true
}

// GetGrid returns the full assignment grid for a period
func (h *Handler) GetGrid(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}

	resp, ok := h.buildGridResponse(c, period)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportGrid is the read-only grid endpoint for external consumers,
// authenticated by export key
func (h *Handler) ExportGrid(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}

	resp, ok := h.buildGridResponse(c, period)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

type toggleCellRequest struct {
	Assigned     *bool `json:"assigned"`
	Locked       *bool `json:"locked"`
	RequestedOff *bool `json:"requested_off"`
}

// ToggleCell updates one cell of the grid. Assignment changes on a locked
// cell are rejected unless the same request unlocks it.
func (h *Handler) ToggleCell(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	date := c.Param("date")

	if _, err := time.ParseInLocation(schedule.DateKeyFormat, date, time.UTC); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	days, err := schedule.PeriodDays(period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inRange := false
	for _, d := range days {
		if d == date {
			inRange = true
			break
		}
	}
	if !inRange {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date outside period"})
		return
	}

	var assignment database.PeriodAssignment
	if err := h.DB.Where("period_id = ? AND user_id = ?", period.ID, userID).First(&assignment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not assigned to period"})
		return
	}

	var req toggleCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Assigned == nil && req.Locked == nil && req.RequestedOff == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	var existing database.ShiftRecord
	err = h.DB.Where("period_id = ? AND user_id = ? AND date = ?", period.ID, userID, date).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch record"})
		return
	}

	stillLocked := existing.Locked
	if req.Locked != nil {
		stillLocked = *req.Locked
	}
	if existing.Locked && stillLocked && req.Assigned != nil && *req.Assigned != existing.Assigned {
		c.JSON(http.StatusConflict, gin.H{"error": "cell is locked"})
		return
	}

	record := database.ShiftRecord{
		PeriodID:     period.ID,
		UserID:       userID,
		Date:         date,
		Assigned:     existing.Assigned,
		Locked:       existing.Locked,
		RequestedOff: existing.RequestedOff,
	}
	if req.Assigned != nil {
		record.Assigned = *req.Assigned
	}
	if req.Locked != nil {
		record.Locked = *req.Locked
	}
	if req.RequestedOff != nil {
		record.RequestedOff = *req.RequestedOff
	}

	if err := h.upsertRecord(&record); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save record"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// upsertRecord writes one cell keyed by (period, user, date) in a single
// query, supported by both Postgres and SQLite
func (h *Handler) upsertRecord(record *database.ShiftRecord) error {
	return h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "period_id"}, {Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"assigned", "locked", "requested_off", "updated_at",
		}),
	}).Create(record).Error
}
