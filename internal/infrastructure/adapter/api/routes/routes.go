package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/middleware"
)

// Handlers groups the HTTP handlers wired into the router
type Handlers struct {
	Credit     *handler.CreditHandler
	History    *handler.HistoryHandler
	Generation *handler.GenerationHandler
	Health     *handler.HealthHandler
	Metrics    http.Handler // Prometheus exposition; optional
}

// MiddlewareConfig holds the settings for the global middlewares
type MiddlewareConfig struct {
	ServiceName    string
	AllowedOrigins []string
	CORSMaxAge     time.Duration
	Recorder       middleware.RequestRecorder // Optional
	Tracing        bool
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, h Handlers, requireAuth gin.HandlerFunc) {
	router.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api", requireAuth)
	{
		api.POST("/generations", h.Generation.CreateGeneration)
		api.GET("/generations/:taskId", h.Generation.GetGeneration)

		user := api.Group("/user")
		{
			user.GET("/credits", h.Credit.GetCredits)
			user.GET("/history", h.History.ListHistory)
			user.POST("/init", h.Credit.InitUser)
			user.POST("/recharge", h.Credit.Recharge)
		}

		// Routes kept for existing clients
		api.POST("/generate-image", h.Generation.LegacyGenerateImage)
		api.GET("/query-task", h.Generation.LegacyQueryTask)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, cfg MiddlewareConfig) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.RequestID())
	if cfg.Tracing {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(middleware.Metrics(cfg.Recorder))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins, cfg.CORSMaxAge))
}
