package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lhoward/shiftgrid-api/pkg/database"
	"github.com/lhoward/shiftgrid-api/pkg/models"
	"github.com/lhoward/shiftgrid-api/pkg/schedule"
)

type periodRequest struct {
	Name           string `json:"name"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	NeededCapacity int    `json:"needed_capacity"`
}

func (r periodRequest) validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return schedule.ValidatePeriod(models.Period{
		Name:           r.Name,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		NeededCapacity: r.NeededCapacity,
	})
}

// CreatePeriod creates a new scheduling period
func (h *Handler) CreatePeriod(c *gin.Context) {
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	period := database.Period{
		Name:           req.Name,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		NeededCapacity: req.NeededCapacity,
	}
	if err := h.DB.Create(&period).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create period"})
		return
	}

	c.JSON(http.StatusCreated, period)
}

// ListPeriods returns all periods
func (h *Handler) ListPeriods(c *gin.Context) {
	var periods []database.Period
	h.DB.Order("start_date desc").Find(&periods)
	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

// GetPeriod returns one period
func (h *Handler) GetPeriod(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, period)
}

// UpdatePeriod edits a period's name, dates or capacity. The optimizer never
// goes through here; only admins do.
func (h *Handler) UpdatePeriod(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}

	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"name":            req.Name,
		"start_date":      req.StartDate,
		"end_date":        req.EndDate,
		"needed_capacity": req.NeededCapacity,
	}
	if err := h.DB.Model(&database.Period{}).Where("id = ?", period.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update period"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Period updated"})
}

// DeletePeriod removes a period along with its assignments, records and runs
func (h *Handler) DeletePeriod(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}

	h.DB.Where("period_id = ?", period.ID).Delete(&database.ShiftRecord{})
	h.DB.Where("period_id = ?", period.ID).Delete(&database.PeriodAssignment{})
	h.DB.Where("period_id = ?", period.ID).Delete(&database.OptimizerRun{})
	if err := h.DB.Delete(&database.Period{}, period.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete period"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Period deleted"})
}

// ListPeriodUsers returns the users assigned to a period
func (h *Handler) ListPeriodUsers(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}

	users, err := h.periodUsers(period.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// AssignUser adds a user to a period
func (h *Handler) AssignUser(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}

	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.User
	if err := h.DB.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	assignment := database.PeriodAssignment{PeriodID: period.ID, UserID: req.UserID}
	if err := h.DB.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already assigned"})
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// UnassignUser removes a user from a period. Their shift records stay; the
// grid builder ignores records of unassigned users.
func (h *Handler) UnassignUser(c *gin.Context) {
	period, ok := h.loadPeriod(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	result := h.DB.Where("period_id = ? AND user_id = ?", period.ID, userID).Delete(&database.PeriodAssignment{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not unassign user"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not assigned to period"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User unassigned"})
}
