package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/sales-api/internal/application/service"
	"github.com/sangkips/sales-api/internal/config"
	"github.com/sangkips/sales-api/internal/domain/pricing"
	"github.com/sangkips/sales-api/internal/domain/validation"
	"github.com/sangkips/sales-api/internal/infrastructure/database"
	"github.com/sangkips/sales-api/internal/infrastructure/messaging"
	"github.com/sangkips/sales-api/internal/infrastructure/repository"
	"github.com/sangkips/sales-api/internal/logger"
	"github.com/sangkips/sales-api/internal/metrics"
	"github.com/sangkips/sales-api/internal/presentation/http/handler"
	"github.com/sangkips/sales-api/internal/presentation/http/middleware"
	"github.com/sangkips/sales-api/internal/presentation/http/routes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const idempotencyPurgeInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.App, cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Error("server stopped with error", zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
}

// ginMode runs gin in debug mode only when APP_DEBUG is set outside production.
func ginMode(app config.AppConfig) string {
	if app.IsProduction() || !app.Debug {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	// Set Gin mode based on environment
	gin.SetMode(ginMode(cfg.App))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.Log.Level, zlog)
	if err != nil {
		return err
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	mode, err := pricing.ParseMode(cfg.Pricing.DiscountMode)
	if err != nil {
		return err
	}

	m := metrics.New()

	publisher, err := messaging.NewPublisher(ctx, cfg.Redis, cfg.Events, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			zlog.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	// Initialize repositories
	saleRepo := repository.NewSaleRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize services
	validator := validation.NewValidator(
		cfg.Validation.DescriptionMin,
		cfg.Validation.DescriptionMax,
		cfg.Validation.MaxQuantityPerProduct,
	)
	engine := pricing.NewEngine(mode, zlog.Named("pricing"))
	notifier := service.NewNotifier(publisher, cfg.Events, m, zlog.Named("events"))
	saleService := service.NewSaleService(saleRepo, validator, engine, notifier, m, zlog.Named("sales"))

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return database.Ping(db) },
	}
	if rp, ok := publisher.(*messaging.RedisPublisher); ok {
		checks["redis"] = rp.Ping
	}

	// Initialize handlers
	handlers := &routes.Handlers{
		Sale:   handler.NewSaleHandler(saleService),
		Health: handler.NewHealthHandler(cfg.App.Name, m, checks),
	}

	rateLimiter := middleware.NewClientRateLimiter(
		middleware.RateLimiterConfigFrom(cfg.RateLimit.Requests, cfg.RateLimit.Duration),
	)

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         m,
		Logger:          zlog,
		RateLimiter:     rateLimiter,
	})

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zlog.Info("starting server",
			zap.String("service", cfg.App.Name),
			zap.String("port", port),
			zap.String("env", cfg.App.Env),
			zap.String("discount_mode", string(engine.Mode())),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return rateLimiter.Run(gctx)
	})

	g.Go(func() error {
		return middleware.PurgeExpiredKeys(gctx, idempotencyRepo, idempotencyPurgeInterval, zlog)
	})

	return g.Wait()
}
