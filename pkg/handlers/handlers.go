package handlers

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lhoward/shiftgrid-api/pkg/auth"
	"github.com/lhoward/shiftgrid-api/pkg/database"
	"github.com/lhoward/shiftgrid-api/pkg/logger"
	"github.com/lhoward/shiftgrid-api/pkg/metrics"
	"github.com/lhoward/shiftgrid-api/pkg/models"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB      *gorm.DB
	Log     logger.Logger
	Metrics *metrics.Sink

	runLocks sync.Map // period ID -> *sync.Mutex
}

// AuthMiddleware verifies the JWT token and stores the claims in the context
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Strip "Bearer " if present
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Set("isAdmin", claims.IsAdmin)
		c.Next()
	}
}

// AdminRequired rejects non-admin callers. Must run after AuthMiddleware.
func (h *Handler) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isAdmin") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ExportKeyMiddleware verifies the HMAC export key for read-only API routes
func (h *Handler) ExportKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Authorization")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Export key required"})
			c.Abort()
			return
		}

		if len(key) > 7 && key[:7] == "Bearer " {
			key = key[7:]
		}

		name, err := auth.VerifyExportKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid export key signature"})
			c.Abort()
			return
		}

		// Track key usage
		var exportKey database.ExportKey
		h.DB.Where(database.ExportKey{Key: key}).FirstOrCreate(&exportKey, database.ExportKey{
			Key:  key,
			Name: name,
		})
		now := time.Now()
		h.DB.Model(&exportKey).Update("last_used", &now)

		c.Set("exportKeyName", name)
		c.Next()
	}
}

// Login authenticates a user and issues a JWT
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken(user.Username, user.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// CreateUser creates a new user account
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		IsAdmin   bool   `json:"is_admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}

	user := database.User{
		Username:     req.Username,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsAdmin:      req.IsAdmin,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create user"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListUsers returns all users
func (h *Handler) ListUsers(c *gin.Context) {
	var users []database.User
	h.DB.Order("id").Find(&users)
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GenerateExportKey creates a new HMAC export key
func (h *Handler) GenerateExportKey(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	key := auth.GenerateExportKey(req.Name)

	// Create preview (e.g., rep...a1b2)
	preview := "****"
	if len(key) > 8 {
		preview = key[:3] + "..." + key[len(key)-4:]
	}

	exportKey := database.ExportKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: preview,
	}
	if err := h.DB.Create(&exportKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name": req.Name,
		"key":  key,
	})
}

// ListExportKeys returns all export keys
func (h *Handler) ListExportKeys(c *gin.Context) {
	var keys []database.ExportKey
	h.DB.Find(&keys)
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeExportKey deletes an export key
func (h *Handler) RevokeExportKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.DB.Delete(&database.ExportKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// parseID parses a numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// loadPeriod fetches a period row and maps it to the domain type
func (h *Handler) loadPeriod(c *gin.Context) (models.Period, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return models.Period{}, false
	}

	var row database.Period
	if err := h.DB.First(&row, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Period not found"})
		return models.Period{}, false
	}

	return models.Period{
		ID:             row.ID,
		Name:           row.Name,
		StartDate:      row.StartDate,
		EndDate:        row.EndDate,
		NeededCapacity: row.NeededCapacity,
	}, true
}

// periodUsers returns the users assigned to a period, ordered by assignment
// creation. That order is the optimizer's tie-break order, so it must be
// stable across reads.
func (h *Handler) periodUsers(periodID uint) ([]models.User, error) {
	var rows []database.User
	err := h.DB.
		Joins("JOIN period_assignments ON period_assignments.user_id = users.id").
		Where("period_assignments.period_id = ?", periodID).
		Order("period_assignments.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, models.User{
			ID:        row.ID,
			Username:  row.Username,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			IsAdmin:   row.IsAdmin,
		})
	}
	return users, nil
}

// periodRecords returns the persisted cells for a period
func (h *Handler) periodRecords(periodID uint) ([]models.CellRecord, error) {
	var rows []database.ShiftRecord
	if err := h.DB.Where("period_id = ?", periodID).Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.CellRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.CellRecord{
			ID:           row.ID,
			UserID:       row.UserID,
			Date:         row.Date,
			Assigned:     row.Assigned,
			Locked:       row.Locked,
			RequestedOff: row.RequestedOff,
		})
	}
	return records, nil
}
