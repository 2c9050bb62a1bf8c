package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/sales-api/internal/config"
	domainRepo "github.com/sangkips/sales-api/internal/domain/repository"
	"github.com/sangkips/sales-api/internal/metrics"
	"github.com/sangkips/sales-api/internal/presentation/http/handler"
	"github.com/sangkips/sales-api/internal/presentation/http/dto/response"
	"github.com/sangkips/sales-api/internal/presentation/http/middleware"
	"github.com/sangkips/sales-api/pkg/apperror"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Sale   *handler.SaleHandler
	Health *handler.HealthHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Metrics         *metrics.Metrics
	Logger          *zap.Logger
	RateLimiter     *middleware.ClientRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger, deps.Metrics))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, apperror.ErrNotFound)
	})

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}
	registerSaleRoutes(v1, h, deps)

	return router
}

func registerSaleRoutes(rg *gin.RouterGroup, h *Handlers, deps *Deps) {
	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo:   deps.IdempotencyRepo,
		Logger: deps.Logger,
	})

	sales := rg.Group("/sales")
	{
		sales.GET("", h.Sale.List)
		sales.POST("", idempotent, h.Sale.Create)
		sales.GET("/:id", h.Sale.Get)
		sales.PUT("/:id", idempotent, h.Sale.Update)
		sales.DELETE("/:id", h.Sale.Delete)
		sales.POST("/:id/cancel", idempotent, h.Sale.Cancel)
	}
}
