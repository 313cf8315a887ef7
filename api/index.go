package handler

import (
	"log"
	"net/http"
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

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.SetLevel(cfg.Logging.Level)
	auth.Configure(cfg.Auth)

	db := database.InitDB(cfg.Database.URL, cfg.Database.SQLitePath)
	_ = auth.EnsureAdminExists(db, cfg.Auth)

	sink, err := metrics.NewSink(nil)
	if err != nil {
		log.Fatalf("metrics sink: %v", err)
	}

	h := &handlers.Handler{DB: db, Log: logger.New("api"), Metrics: sink}

	gin.SetMode(gin.ReleaseMode)
	r = gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	handlers.RegisterRoutes(r, h)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
