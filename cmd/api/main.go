package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	eventport "github.com/amirhossein-jamali/imagegen/internal/domain/port/event"
	creditUseCase "github.com/amirhossein-jamali/imagegen/internal/domain/usecase/credit"
	generationUseCase "github.com/amirhossein-jamali/imagegen/internal/domain/usecase/generation"
	historyUseCase "github.com/amirhossein-jamali/imagegen/internal/domain/usecase/history"

	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/event"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/metrics"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/provider/dashscope"
	timeProvider "github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/tracing"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/config"
)

const poolMonitorInterval = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger, err := logger.NewZapLogger(logger.Options{
		Production: cfg.Environment == config.Production,
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		CallerInfo: cfg.Logger.CallerInfo,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = appLogger.Flush() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error("Service terminated with error", map[string]any{
			"error": err.Error(),
		})
		_ = appLogger.Flush()
		os.Exit(1)
	}

	appLogger.Info("Server exited gracefully", nil)
}

// run wires the service and blocks until ctx is canceled or a component fails
func run(ctx context.Context, cfg *config.Config, appLogger coreport.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Environment,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	// Initialize time provider
	tp := timeProvider.NewRealTimeProvider()

	// Connect to the database
	dbManager := database.NewManager(database.NewConfig(cfg.Database), appLogger, tp)
	if _, err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			appLogger.Error("Failed to close database", map[string]any{"error": err.Error()})
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize repositories
	creditRepo := dbManager.CreditRepository()
	generationRepo := dbManager.GenerationRepository()
	uow := dbManager.CreateUnitOfWork()

	imageProvider, err := dashscope.NewClient(dashscope.Config{
		BaseURL:        cfg.Provider.BaseURL,
		APIKey:         cfg.Provider.APIKey,
		Model:          cfg.Provider.Model,
		RequestTimeout: cfg.Provider.RequestTimeout,
	}, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create image provider: %w", err)
	}

	publisher, err := newPublisher(ctx, cfg.Redis, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			appLogger.Warn("Failed to close event publisher", map[string]any{"error": err.Error()})
		}
	}()

	promMetrics := metrics.NewPrometheus()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	if err := dbManager.StartMonitoring(monitorCtx, poolMonitorInterval, promMetrics); err != nil {
		appLogger.Warn("Connection pool monitoring disabled", map[string]any{"error": err.Error()})
	}

	// Initialize use cases
	credits := creditUseCase.NewCreditUseCase(creditRepo, cfg.Credits.InitialGrant, promMetrics, appLogger)
	history := historyUseCase.NewHistoryUseCase(generationRepo, tp, cfg.Generation.HistoryTimeout, appLogger)

	validator := generationUseCase.NewRequestValidator(cfg.Generation.MaxPromptLength)
	gateway := generationUseCase.NewGateway(imageProvider, validator, generationUseCase.GatewayConfig{
		BatchSize: cfg.Provider.BatchSize,
		ImageSize: cfg.Provider.ImageSize,
	}, appLogger)
	poller := generationUseCase.NewPoller(imageProvider, generationUseCase.PollerConfig{
		Interval:    cfg.Generation.PollInterval,
		Timeout:     cfg.Generation.PollTimeout,
		MaxAttempts: cfg.Generation.MaxPollAttempts,
	}, promMetrics, appLogger)
	finalizer := generationUseCase.NewFinalizer(uow, creditRepo, generationRepo, publisher, promMetrics, tp, appLogger)
	orchestrator := generationUseCase.NewOrchestrator(
		credits,
		history,
		validator,
		gateway,
		poller,
		finalizer,
		imageProvider,
		publisher,
		promMetrics,
		tp,
		appLogger,
	)

	dispatcher := generationUseCase.NewDispatcher(generationUseCase.DispatcherConfig{
		Workers:   cfg.Generation.Workers,
		QueueSize: cfg.Generation.QueueSize,
	}, orchestrator.Await, appLogger)
	dispatcher.Start(ctx)

	verifier, err := middleware.NewTokenVerifier(middleware.AuthConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	// Initialize Gin router
	router := gin.New()
	routes.SetupMiddlewares(router, appLogger, routes.MiddlewareConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSMaxAge:     cfg.CORS.MaxAge,
		Recorder:       promMetrics,
		Tracing:        cfg.Tracing.Enabled,
	})
	routes.SetupRoutes(router, routes.Handlers{
		Credit:     handler.NewCreditHandler(credits, appLogger),
		History:    handler.NewHistoryHandler(history, appLogger),
		Generation: handler.NewGenerationHandler(orchestrator, credits, dispatcher, appLogger),
		Health:     handler.NewHealthHandler(dbManager, appLogger),
		Metrics:    promMetrics.Handler(),
	}, middleware.RequireAuth(verifier, appLogger))

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Starting server", map[string]any{
			"address": server.Addr,
			"env":     cfg.Environment,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if cfg.Reconciler.Enabled {
		reconciler := generationUseCase.NewReconciler(
			generationRepo,
			imageProvider,
			finalizer,
			generationUseCase.ReconcilerConfig{
				Interval:     cfg.Reconciler.Interval,
				StaleAfter:   cfg.Reconciler.StaleAfter,
				AbandonAfter: cfg.Reconciler.AbandonAfter,
				BatchSize:    cfg.Reconciler.BatchSize,
				Concurrency:  cfg.Reconciler.Concurrency,
			},
			promMetrics,
			tp,
			appLogger,
		)
		g.Go(func() error { return reconciler.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...", nil)

		// Create a deadline to wait for
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher shutdown: %w", err))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// newPublisher returns the Redis publisher when an address is configured
func newPublisher(ctx context.Context, cfg config.RedisConfig, appLogger coreport.Logger) (eventport.Publisher, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		appLogger.Info("Event publishing disabled", nil)
		return event.NewNoopPublisher(), nil
	}

	publisher, err := event.NewRedisPublisher(ctx, event.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Channel:  cfg.Channel,
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	return publisher, nil
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	// Validate server configuration
	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}
	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	// Validate database configuration
	if err := database.NewConfig(cfg.Database).Validate(); err != nil {
		missingConfigs = append(missingConfigs, err.Error())
	}

	if cfg.Provider.APIKey == "" {
		missingConfigs = append(missingConfigs, "provider.apiKey (or IG_PROVIDER_API_KEY environment variable)")
	}
	if cfg.Auth.JWTSecret == "" {
		missingConfigs = append(missingConfigs, "auth.jwtSecret (or IG_AUTH_JWT_SECRET environment variable)")
	}

	if cfg.Generation.PollInterval <= 0 || cfg.Generation.PollTimeout <= 0 {
		missingConfigs = append(missingConfigs, "generation.pollInterval and generation.pollTimeout")
	}
	if cfg.Generation.Workers <= 0 {
		missingConfigs = append(missingConfigs, "generation.workers")
	}
	if cfg.Reconciler.Enabled && cfg.Reconciler.Interval <= 0 {
		missingConfigs = append(missingConfigs, "reconciler.interval")
	}

	// Environment should be set with a valid value
	if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	// If we're in production, do additional validation for sensitive settings
	if cfg.Environment == config.Production {
		var warnings []string

		sslMode := strings.ToLower(cfg.Database.SSLMode)
		if cfg.Database.Driver == database.DriverPostgres &&
			sslMode != "require" && sslMode != "verify-ca" && sslMode != "verify-full" {
			warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
		}
		if cfg.Server.WriteTimeout < cfg.Generation.PollTimeout {
			warnings = append(warnings, "server.writeTimeout is shorter than generation.pollTimeout; waiting requests may be cut off")
		}
		if len(cfg.Auth.JWTSecret) < 32 {
			warnings = append(warnings, "auth.jwtSecret should be at least 32 bytes in production")
		}

		if len(warnings) > 0 {
			log.Printf("Warning: potential security issues in production configuration: %v", warnings)
		}
	}

	return nil
}
