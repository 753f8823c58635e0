// Package server exposes the student submission flow and the trainer
// dashboard over HTTP.
package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/joseph-ayodele/assignment-verifier/internal/auth"
)

type RouterConfig struct {
	ServiceName    string
	CORSOrigins    []string
	MaxUploadBytes int64

	Health      *HealthHandler
	Sessions    *SessionHandler
	Submissions *SubmissionHandler
	Trainer     *TrainerHandler
	TrainerAuth *auth.TrainerAuth
	Logger      *slog.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	// question, final output and a handful of supporting docs
	router.MaxMultipartMemory = 8 * cfg.MaxUploadBytes
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.ServiceName),
		RequestID(),
		RequestLogger(logger),
	)
	if len(cfg.CORSOrigins) > 0 {
		router.Use(CORS(cfg.CORSOrigins))
	}
	router.NoRoute(noRoute)

	router.GET("/healthcheck", cfg.Health.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/sessions", cfg.Sessions.Create)
		api.GET("/sessions/:id", cfg.Sessions.Get)
		api.POST("/sessions/:id/captcha", cfg.Sessions.RefreshCaptcha)
		api.POST("/sessions/:id/submissions", cfg.Submissions.Submit)

		api.POST("/trainer/login", cfg.Trainer.Login)
	}

	trainer := api.Group("/trainer")
	trainer.Use(RequireTrainer(cfg.TrainerAuth))
	{
		trainer.GET("/submissions", cfg.Trainer.List)
		trainer.DELETE("/submissions/:id", cfg.Trainer.Delete)
		trainer.GET("/submissions/export.csv", cfg.Trainer.ExportCSV)
		trainer.GET("/submissions/export.xlsx", cfg.Trainer.ExportXLSX)
		trainer.GET("/analytics", cfg.Trainer.Analytics)
		trainer.GET("/analytics/chart.png", cfg.Trainer.Chart)
	}

	return router
}
