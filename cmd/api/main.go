package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bakery-backend/config"
	"bakery-backend/internal/delivery/http/middleware"
	v1 "bakery-backend/internal/delivery/http/v1"
	"bakery-backend/internal/infrastructure/cache"
	"bakery-backend/internal/infrastructure/metrics"
	"bakery-backend/internal/repository/postgres"
	"bakery-backend/internal/usecase"
	"bakery-backend/pkg/logger"
	"bakery-backend/pkg/utils"
)

const serviceName = "shipping-api"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	pgxPool, err := postgres.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgxPool.Close()
	log.Info().Msg("Successfully connected to PostgreSQL via pgx")

	// Initialize Repositories
	branchRepo := postgres.NewBranchRepository(pgxPool)
	zoneRepo := postgres.NewZoneRepository(pgxPool)
	calcLogRepo := postgres.NewCalculationLogRepository(pgxPool)

	// Zone listings are cached per branch; cleanup runs at twice the TTL
	memCache := cache.NewMemoryCache(cfg.ZoneCacheTTL, 2*cfg.ZoneCacheTTL)
	appMetrics := metrics.New(metrics.DefaultConfig(serviceName))

	// --- Modules Initialization ---
	shippingCfg := cfg.Shipping()
	zoneResolver := usecase.NewZoneResolver(zoneRepo, memCache, cfg.ZoneCacheTTL, shippingCfg, appMetrics)
	calcLogger := usecase.NewCalculationLogger(calcLogRepo, cfg.CalculationLogTimeout, appMetrics)
	shippingUC := usecase.NewShippingUsecase(branchRepo, zoneResolver, calcLogger, shippingCfg, appMetrics)

	// Set up Router
	mux := http.NewServeMux()
	registerRoutes(mux, handlers{
		shipping:      v1.NewShippingHandler(shippingUC),
		adminShipping: v1.NewAdminShippingHandler(shippingUC, zoneResolver),
		health:        v1.NewHealthHandler(pgxPool),
	}, appMetrics)

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Rate limiter: cleanup every minute, TTL 3 minutes; health checks are never throttled
	rateLimiter := middleware.NewRateLimiter(context.Background(), middleware.RateLimitConfig{
		RPS:           cfg.RateLimitRPS,
		Burst:         cfg.RateLimitBurst,
		CleanupPeriod: time.Minute,
		ClientTTL:     3 * time.Minute,
		ExemptPaths:   []string{"/health", "/api/v1/health"},
	})

	handler := withMiddleware(mux, cfg, rateLimiter, appMetrics)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart(serviceName, "1.0.0", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// In-flight calculation log writes finish before the pool closes
	if err := calcLogger.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Calculation log writes still pending at shutdown")
	}

	logger.ServiceStop(serviceName)
}
