package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/config"
	"github.com/lifecompass/finance-bfa-go/internal/domain"
	"github.com/lifecompass/finance-bfa-go/internal/finance"
	"github.com/lifecompass/finance-bfa-go/internal/handler"
	"github.com/lifecompass/finance-bfa-go/internal/infra/cache"
	"github.com/lifecompass/finance-bfa-go/internal/infra/client"
	"github.com/lifecompass/finance-bfa-go/internal/infra/observability"
	"github.com/lifecompass/finance-bfa-go/internal/infra/resilience"
	"github.com/lifecompass/finance-bfa-go/internal/infra/scheduler"
	"github.com/lifecompass/finance-bfa-go/internal/infra/store"
	"github.com/lifecompass/finance-bfa-go/internal/infra/supabase"
	"github.com/lifecompass/finance-bfa-go/internal/port"
	"github.com/lifecompass/finance-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("amount_parse_mode", cfg.AmountParseMode),
		zap.String("rates_provider", cfg.RatesProvider),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Bool("redis_cache", cfg.RedisAddr != ""),
		zap.Bool("auth_enabled", cfg.JWTSecret != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("rates_cache_ttl", cfg.RatesCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	ctx := context.Background()

	parseMode, err := finance.ParseModeFromString(cfg.AmountParseMode)
	if err != nil {
		logger.Fatal("invalid AMOUNT_PARSE_MODE", zap.Error(err))
	}

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, "finance-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	checks := map[string]port.Pinger{}

	// --- Rate cache ---
	var rateCache port.Cache[*domain.ExchangeRates]
	if cfg.RedisAddr != "" {
		redisClient := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		redisCache := cache.NewRedis[*domain.ExchangeRates](redisClient, "finance-bfa:", cfg.RatesCacheTTL, logger)
		rateCache = redisCache
		checks["redis"] = redisCache
		logger.Info("using Redis rate cache", zap.String("addr", cfg.RedisAddr))
	} else {
		memCache := cache.New[*domain.ExchangeRates](cfg.RatesCacheTTL)
		defer memCache.Stop()
		rateCache = memCache
	}

	// --- Rate source ---
	ratesCB := resilience.NewCircuitBreaker("rates-api", logger)
	var rateSource port.RateSource
	switch cfg.RatesProvider {
	case "ecb":
		rateSource = client.NewECBRatesClient(httpClient, cfg.ECBRatesURL, ratesCB, resilienceCfg)
	case "json":
		rateSource = client.NewJSONRatesClient(httpClient, cfg.RatesAPIURL, cfg.RatesJSONPath, ratesCB, resilienceCfg)
	case "none", "":
		logger.Warn("no rate provider configured, static fallback rates only")
	default:
		logger.Fatal("unknown RATES_PROVIDER", zap.String("rates_provider", cfg.RatesProvider))
	}

	// --- Record store ---
	recordStore, closeStore := openStore(ctx, cfg, httpClient, resilienceCfg, checks, logger)
	defer closeStore()

	// --- Services ---
	currencySvc := service.NewCurrencyService(rateSource, rateCache, metrics, logger)
	financeSvc := service.NewFinanceService(recordStore, currencySvc, finance.NewEngine(), parseMode, metrics, logger)

	var authSvc *service.AuthService
	if cfg.JWTSecret != "" {
		authSvc = service.NewAuthService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL)
		logger.Info("auth enabled on /v1/users routes")
	} else {
		logger.Warn("JWT_SECRET not set, /v1/users routes are unauthenticated")
	}

	// --- Scheduled rate refresh ---
	if rateSource != nil && cfg.RatesRefreshCron != "" {
		refresher, err := scheduler.NewRateRefresher(cfg.RatesRefreshCron, currencySvc, cfg.HTTPTimeout*time.Duration(cfg.MaxRetries+1), logger)
		if err != nil {
			logger.Fatal("failed to schedule rate refresh", zap.Error(err))
		}
		refresher.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := refresher.Stop(stopCtx); err != nil {
				logger.Warn("rate refresher did not stop cleanly", zap.Error(err))
			}
		}()
	}

	// --- Router ---
	router := handler.NewRouter(financeSvc, currencySvc, authSvc, checks, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// openStore builds the configured record store and registers it for health checks.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	httpClient *http.Client,
	resilienceCfg resilience.Config,
	checks map[string]port.Pinger,
	logger *zap.Logger,
) (port.RecordStore, func()) {
	switch cfg.StoreBackend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			logger.Fatal("STORE_BACKEND=postgres requires DATABASE_URL")
		}
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		db, err := store.OpenPostgres(openCtx, cfg.DatabaseURL, cfg.MaxConcurrency)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		pg := store.NewPostgres(db, logger)
		if err := pg.EnsureSchema(openCtx); err != nil {
			logger.Fatal("failed to create schema", zap.Error(err))
		}
		checks["postgres"] = pg
		logger.Info("using Postgres record store")
		return pg, func() { db.Close() }

	case "supabase":
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
			logger.Fatal("STORE_BACKEND=supabase requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
		sb := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase", logger),
			resilienceCfg,
			logger,
		)
		checks["supabase"] = sb
		logger.Info("using Supabase record store", zap.String("supabase_url", cfg.SupabaseURL))
		return sb, func() {}

	case "memory", "":
		logger.Warn("using in-memory record store, records are lost on restart")
		return store.NewMemory(), func() {}
	}

	logger.Fatal("unknown STORE_BACKEND", zap.String("store_backend", cfg.StoreBackend))
	return nil, nil
}
