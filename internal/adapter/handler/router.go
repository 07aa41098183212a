package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/rmoh-git/kwik-med-emr-backend/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg              *config.Config
	recordingHandler *Recording
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, recordingHandler *Recording) *Router {
	return &Router{
		cfg:              cfg,
		recordingHandler: recordingHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// Prometheus metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Swagger documentation
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupRecordingRoutes(v1)
}

// setupRecordingRoutes configures recording lifecycle routes
func (rt *Router) setupRecordingRoutes(g *echo.Group) {
	recordingGroup := g.Group("/recordings")

	recordingGroup.POST("/start", rt.recordingHandler.Start)
	recordingGroup.POST("/stop", rt.recordingHandler.Stop)
	recordingGroup.POST("/:id/upload", rt.recordingHandler.Upload)
	recordingGroup.POST("/:id/transcribe", rt.recordingHandler.Transcribe)
	recordingGroup.GET("/:id", rt.recordingHandler.Get)
	recordingGroup.GET("/session/:session_id", rt.recordingHandler.ListBySession)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
