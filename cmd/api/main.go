package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supplier-wallet-service/config"
	httpHandler "supplier-wallet-service/internal/adapter/http/handler"
	pgStorage "supplier-wallet-service/internal/adapter/storage/postgres"
	redisStorage "supplier-wallet-service/internal/adapter/storage/redis"
	"supplier-wallet-service/internal/core/ports"
	"supplier-wallet-service/internal/scheduler"
	"supplier-wallet-service/internal/service"
	"supplier-wallet-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Supplier Wallet Service")

	commissionRate, err := cfg.Ledger.CommissionRate()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid commission rate configuration")
	}

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	holdRepo := pgStorage.NewHoldRepo(pool)
	settlementRepo := pgStorage.NewSettlementRepo(pool)
	withdrawalRepo := pgStorage.NewWithdrawalRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	settlementCache := redisStorage.NewSettlementCache(rdb)
	commissionCache := redisStorage.NewCommissionCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	clock := service.SystemClock{}
	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	ledgerSvc := service.NewLedgerService(
		walletRepo,
		ledgerRepo,
		holdRepo,
		settlementRepo,
		withdrawalRepo,
		transactor,
		clock,
		cfg.Ledger.HoldPeriod,
		log,
	)
	commissionSvc := service.NewCommissionService(commissionCache, commissionRate, log)
	settlementSvc := service.NewSettlementService(
		ledgerSvc,
		walletRepo,
		holdRepo,
		settlementRepo,
		commissionSvc,
		settlementCache,
		log,
	)
	withdrawalSvc := service.NewWithdrawalService(
		ledgerSvc,
		withdrawalRepo,
		walletRepo,
		clock,
		cfg.Ledger.MinWithdrawal,
		cfg.Ledger.WithdrawalFee,
		log,
	)
	reportingSvc := service.NewReportingService(walletRepo, ledgerRepo, withdrawalRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Background jobs: pending-balance release and monthly rollover
	sched := scheduler.New(log)
	sched.Register(
		scheduler.NewReleaseJob(ledgerSvc, holdRepo, clock, cfg.Scheduler.ReleaseBatchSize, log),
		cfg.Scheduler.ReleaseInterval,
	)
	sched.Register(
		scheduler.NewRolloverJob(ledgerSvc, walletRepo, clock, cfg.Scheduler.ReleaseBatchSize, log),
		cfg.Scheduler.RolloverInterval,
	)
	sched.Start(ctx)
	defer sched.Stop()

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		SettlementSvc:  settlementSvc,
		WithdrawalSvc:  withdrawalSvc,
		ReportingSvc:   reportingSvc,
		LedgerSvc:      ledgerSvc,
		WalletRepo:     walletRepo,
		TokenSvc:       tokenSvc,
		SigSvc:         sigSvc,
		EventsSecret:   cfg.Events.Secret,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
