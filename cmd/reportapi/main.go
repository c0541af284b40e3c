package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmenezes/fomento-report-api/internal/config"
	"github.com/dmenezes/fomento-report-api/internal/domain"
	"github.com/dmenezes/fomento-report-api/internal/handler"
	"github.com/dmenezes/fomento-report-api/internal/infra/cache"
	"github.com/dmenezes/fomento-report-api/internal/infra/mailer"
	"github.com/dmenezes/fomento-report-api/internal/infra/observability"
	"github.com/dmenezes/fomento-report-api/internal/infra/postgres"
	"github.com/dmenezes/fomento-report-api/internal/infra/resilience"
	"github.com/dmenezes/fomento-report-api/internal/service"

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
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Int("churn_idle_days", cfg.ChurnIdleDays),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "fomento-report-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Database ---
	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	guard := resilience.NewGuard("postgres", resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	})
	store := postgres.NewStore(db, guard, logger, metrics)

	// --- Mailer ---
	reportMailer := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, logger)

	// --- Cache ---
	churnCache := cache.New[[]domain.ChurnClient](cfg.CacheTTL)

	// --- Services ---
	reportSvc := service.NewReportService(store, reportMailer, cfg.ReportRecipients, metrics, logger)
	opsSvc := service.NewOperationsService(store, metrics, logger)
	comercialSvc := service.NewComercialService(store, churnCache, cfg.ChurnIdleDays, cfg.ChurnTopN, metrics, logger)

	if cfg.AppUser == "" || cfg.AppPasswordHash == "" {
		logger.Warn("no operator account configured, logins will be rejected")
	}
	authSvc := service.NewAuthService(cfg.AppUser, cfg.AppPasswordHash, cfg.JWTSecret, cfg.JWTAccessTTL, logger)

	// --- Router ---
	router := handler.NewRouter(reportSvc, opsSvc, comercialSvc, authSvc, store, metrics, logger)

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
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
