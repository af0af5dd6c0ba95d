// Package http assembles the GrantScope API server.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/GrantScope/internal/interfaces/http/handlers"
	"github.com/turtacn/GrantScope/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies for the
// route tree.  Nil handlers leave their routes unregistered.
type RouterConfig struct {
	GrantHandler    *handlers.GrantHandler
	ProfileHandler  *handlers.ProfileHandler
	MatchHandler    *handlers.MatchHandler
	PredictHandler  *handlers.PredictHandler
	AnalysisHandler *handlers.AnalysisHandler
	SearchHandler   *handlers.SearchHandler
	HealthHandler   *handlers.HealthHandler

	Logger  logging.Logger
	Metrics *prometheus.Metrics
	Mode    string
}

// NewRouter builds the gin engine: recovery and request logging globally,
// public health and metrics endpoints, and the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger, cfg.Metrics))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	{
		if h := cfg.GrantHandler; h != nil {
			api.GET("/grants", h.List)
			api.POST("/grants", h.Create)
			api.GET("/grants/:id", h.Get)
			api.DELETE("/grants/:id", h.Delete)
		}
		if h := cfg.ProfileHandler; h != nil {
			api.GET("/organizations", h.List)
			api.POST("/organizations", h.Create)
			api.GET("/organizations/:id", h.Get)
			api.PUT("/organizations/:id", h.Update)
		}
		if h := cfg.AnalysisHandler; h != nil {
			api.GET("/organizations/:id/landscape", h.Landscape)
		}
		if h := cfg.MatchHandler; h != nil {
			api.POST("/match/grants", h.Match)
		}
		if h := cfg.PredictHandler; h != nil {
			api.POST("/predict", h.Predict)
		}
		if h := cfg.SearchHandler; h != nil {
			api.GET("/search/grants", h.Search)
		}
	}

	return r
}
