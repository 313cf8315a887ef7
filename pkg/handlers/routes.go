package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lhoward/shiftgrid-api/pkg/metrics"
)

// RegisterRoutes wires every endpoint onto the engine. Shared by the server
// binary and the serverless entry point.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ShiftGrid API",
			"version": "1.2.0",
		})
	})

	r.POST("/login", h.Login)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware(), h.AdminRequired())
	{
		admin.POST("/users", h.CreateUser)
		admin.GET("/users", h.ListUsers)

		admin.POST("/periods", h.CreatePeriod)
		admin.GET("/periods", h.ListPeriods)
		admin.POST("/periods/validate", h.ValidatePeriodInput)
		admin.GET("/periods/:id", h.GetPeriod)
		admin.PUT("/periods/:id", h.UpdatePeriod)
		admin.DELETE("/periods/:id", h.DeletePeriod)

		admin.GET("/periods/:id/users", h.ListPeriodUsers)
		admin.POST("/periods/:id/users", h.AssignUser)
		admin.DELETE("/periods/:id/users/:userId", h.UnassignUser)

		admin.GET("/periods/:id/grid", h.GetGrid)
		admin.PUT("/periods/:id/grid/:userId/:date", h.ToggleCell)
		admin.POST("/periods/:id/optimize", h.OptimizePeriod)
		admin.GET("/periods/:id/runs", h.ListRuns)

		admin.POST("/export-keys", h.GenerateExportKey)
		admin.GET("/export-keys", h.ListExportKeys)
		admin.DELETE("/export-keys/:id", h.RevokeExportKey)
	}

	// Read-only export endpoints for external consumers
	api := r.Group("/api")
	api.Use(h.ExportKeyMiddleware())
	{
		api.GET("/periods/:id/grid", h.ExportGrid)
	}
}
