package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/lhoward/shiftgrid-api/pkg/auth"
	"github.com/lhoward/shiftgrid-api/pkg/config"
	"github.com/lhoward/shiftgrid-api/pkg/database"
	"github.com/lhoward/shiftgrid-api/pkg/handlers"
	"github.com/lhoward/shiftgrid-api/pkg/logger"
	"github.com/lhoward/shiftgrid-api/pkg/metrics"
)

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("server")

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	auth.Configure(cfg.Auth)

	db := database.InitDB(cfg.Database.URL, cfg.Database.SQLitePath)
	if err := auth.EnsureAdminExists(db, cfg.Auth); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	sink, err := metrics.NewSink(nil)
	if err != nil {
		log.Fatalf("metrics sink: %v", err)
	}

	h := &handlers.Handler{DB: db, Log: logg, Metrics: sink}

	r := gin.Default()
	handlers.RegisterRoutes(r, h)

	logg.Infof("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
