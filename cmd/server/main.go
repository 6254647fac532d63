package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tenagalabs/jejak/internal"
	"github.com/tenagalabs/jejak/internal/ai"
	"github.com/tenagalabs/jejak/internal/ai/anthropic"
	"github.com/tenagalabs/jejak/internal/ai/mock"
	"github.com/tenagalabs/jejak/internal/analytics"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/email"
	"github.com/tenagalabs/jejak/internal/emission"
	"github.com/tenagalabs/jejak/internal/handler"
	"github.com/tenagalabs/jejak/internal/jobs"
	"github.com/tenagalabs/jejak/internal/maintenance"
	"github.com/tenagalabs/jejak/internal/metrics"
	"github.com/tenagalabs/jejak/internal/middleware"
	"github.com/tenagalabs/jejak/internal/ratelimit"
	"github.com/tenagalabs/jejak/internal/repository"
	"github.com/tenagalabs/jejak/internal/service"
	"github.com/tenagalabs/jejak/internal/storage"
	"github.com/tenagalabs/jejak/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("database ready")

	queries := repository.New(db)
	txer := repository.NewTransactor(db)

	// Rate limit counter store
	var rateStore ratelimit.Store
	switch cfg.RateLimitBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		defer client.Close()
		rateStore = ratelimit.NewRedisStore(client)
	case "memory":
		rateStore = ratelimit.NewMemoryStore()
	default:
		rateStore = ratelimit.NewPostgresStore(queries)
	}
	limiter := ratelimit.New(rateStore, logger)
	logger.Info("rate limiter ready", "backend", cfg.RateLimitBackend)

	// Object storage
	var store storage.Storage
	if cfg.StorageProvider == "r2" {
		store, err = storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	} else {
		store, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("storage ready", "provider", cfg.StorageProvider)

	// Analytics export
	var exporter analytics.Exporter = analytics.NopExporter{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaExporter := analytics.NewKafkaExporter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kafkaExporter.Close()
		exporter = kafkaExporter
		logger.Info("analytics exporter ready", "topic", cfg.KafkaTopic)
	}

	// Invitation mail
	var sender email.Sender
	if cfg.SMTPHost != "" {
		from := cfg.SMTPFrom
		if cfg.SMTPFromName != "" {
			from = fmt.Sprintf("%s <%s>", cfg.SMTPFromName, cfg.SMTPFrom)
		}
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     from,
		}, logger)
	} else {
		sender = &email.LogSender{Logger: logger}
	}

	// Bill extraction provider
	var extractor ai.BillExtractor
	if cfg.AIProvider == "anthropic" {
		extractor, err = anthropic.New(anthropic.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
			RequestsPerSecond: cfg.AIRequestsPerSecond,
		}, logger)
		if err != nil {
			return fmt.Errorf("ai provider initialization failed: %w", err)
		}
	} else {
		extractor = mock.New(logger)
	}
	logger.Info("bill extractor ready", "provider", cfg.AIProvider)

	calculator, err := emission.NewCalculator()
	if err != nil {
		return fmt.Errorf("emission factor table failed to load: %w", err)
	}

	// Services
	settingsService := service.NewSettingsService(queries, logger)
	auditService := service.NewAuditService(queries, logger)
	userService := service.NewUserService(queries, logger)
	quotaService := service.NewQuotaService(queries, settingsService, logger)
	entryService := service.NewEntryService(queries, calculator, auditService, exporter, logger)
	tenantService := service.NewTenantService(queries, txer, logger)
	invitationService := service.NewInvitationService(queries, txer, settingsService, auditService, sender, cfg.BaseURL, logger)
	reportService := service.NewReportService(queries, store, auditService, logger)

	// Background worker
	if cfg.WorkerEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Concurrency = cfg.WorkerConcurrency
		workerCfg.PollInterval = cfg.WorkerPollInterval
		workerCfg.JobTimeout = cfg.WorkerJobTimeout

		jobWorker, err := worker.New(db, queries, workerCfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		jobWorker.Register(jobs.NewAnalyzeBillHandler(queries, store, extractor, entryService, quotaService, auditService, logger))
		jobWorker.Register(jobs.NewGenerateReportHandler(queries, store, quotaService, auditService, logger))
		jobWorker.Start(ctx)
		defer jobWorker.Stop()
	}

	// Housekeeping
	janitor := maintenance.New(queries, logger)
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("maintenance scheduler failed: %w", err)
	}
	defer janitor.Stop()

	// Middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger)
	gate := middleware.NewOperationGate(limiter, quotaService, settingsService, logger)
	loggingMw := middleware.NewRequestLogging(logger)
	securityMw := middleware.NewSecurityHeaders(isSecure)

	requireAuth := authMw.RequireAuth
	requirePerm := func(perm domain.Permission, next http.Handler) http.Handler {
		return authMw.RequireAuth(authMw.RequirePermission(perm, next))
	}
	requireSuperadmin := func(next http.Handler) http.Handler {
		return authMw.RequireAuth(authMw.RequireSuperadmin(next))
	}
	guardAnalyze := func(next http.Handler) http.Handler {
		return gate.Guard(domain.OpBillAnalysis, next)
	}
	guardGenerate := func(next http.Handler) http.Handler {
		return gate.Guard(domain.OpReportGeneration, next)
	}

	// Routes
	mux := http.NewServeMux()

	handler.NewHealthHandler(db).RegisterRoutes(mux)
	handler.NewAuthHandler(userService, auditService, logger).RegisterRoutes(mux, requireAuth)
	handler.NewTenantHandler(tenantService, quotaService, settingsService, limiter, logger).RegisterRoutes(mux, requirePerm, requireSuperadmin)
	handler.NewEntryHandler(entryService, queries, store, logger).RegisterRoutes(mux, requirePerm, guardAnalyze)
	handler.NewReportHandler(reportService, logger).RegisterRoutes(mux, requirePerm, guardGenerate)
	handler.NewUserHandler(userService, invitationService, logger).RegisterRoutes(mux, requireAuth, requirePerm)
	handler.NewAuditHandler(auditService, logger).RegisterRoutes(mux, requireAuth, requirePerm)
	handler.NewSystemHandler(settingsService, limiter, auditService, logger).RegisterRoutes(mux, requireSuperadmin)

	mux.Handle("GET /metrics", metrics.Handler(cfg.MetricsUsername, cfg.MetricsPassword))

	// Local storage objects are served directly in development.
	if cfg.StorageProvider == "local" {
		fileServer := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", fileServer))
	}

	root := securityMw.Handler(loggingMw.Handler(metrics.Middleware(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
