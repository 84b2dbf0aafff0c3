package handler

import (
	"supplier-wallet-service/internal/adapter/http/middleware"
	redisStore "supplier-wallet-service/internal/adapter/storage/redis"
	"supplier-wallet-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	SettlementSvc  ports.SettlementService
	WithdrawalSvc  ports.WithdrawalService
	ReportingSvc   ports.ReportingService
	LedgerSvc      ports.LedgerService
	WalletRepo     ports.WalletRepository
	TokenSvc       ports.TokenService
	SigSvc         ports.SignatureService
	EventsSecret   string
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (verifies PostgreSQL + Redis connectivity)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Signed internal routes (order subsystem) ---
	eventHandler := NewEventHandler(deps.SettlementSvc)
	eventAuth := middleware.EventSignature(deps.EventsSecret, deps.SigSvc, deps.Logger)
	internal := v1.Group("/internal", eventAuth)
	{
		internal.POST("/order-events", rl("events"), eventHandler.HandleOrderEvent)
	}

	// --- JWT-authenticated supplier routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	supplierOnly := middleware.RequireRole(ports.RoleSupplier)
	walletHandler := NewWalletHandler(deps.ReportingSvc)
	withdrawalHandler := NewWithdrawalHandler(deps.WithdrawalSvc, deps.ReportingSvc)

	wallet := v1.Group("/wallet", jwtAuth, supplierOnly)
	{
		wallet.GET("", rl("supplier"), walletHandler.GetWallet)
		wallet.GET("/ledger", rl("supplier"), walletHandler.ListLedger)
		wallet.GET("/summary/:period", rl("supplier"), walletHandler.GetPeriodSummary)
	}

	withdrawals := v1.Group("/withdrawals", jwtAuth, supplierOnly)
	{
		withdrawals.POST("", rl("withdrawals"), withdrawalHandler.Create)
		withdrawals.GET("", rl("supplier"), withdrawalHandler.List)
		withdrawals.POST("/:id/cancel", rl("withdrawals"), withdrawalHandler.Cancel)
	}

	// --- JWT-authenticated admin routes ---
	adminOnly := middleware.RequireRole(ports.RoleAdmin)
	adminHandler := NewAdminHandler(deps.LedgerSvc, deps.WithdrawalSvc, deps.WalletRepo)

	admin := v1.Group("/admin", jwtAuth, adminOnly)
	{
		admin.POST("/wallets", rl("admin"), adminHandler.CreateWallet)
		admin.GET("/wallets/:id", rl("admin"), adminHandler.GetWallet)
		admin.POST("/wallets/:id/transactions", rl("admin"), adminHandler.ApplyTransaction)
		admin.PUT("/wallets/:id/status", rl("admin"), adminHandler.UpdateWalletStatus)
		admin.POST("/withdrawals/:id/process", rl("admin"), adminHandler.ProcessWithdrawal)
		admin.POST("/withdrawals/:id/complete", rl("admin"), adminHandler.CompleteWithdrawal)
		admin.POST("/withdrawals/:id/reject", rl("admin"), adminHandler.RejectWithdrawal)
		admin.POST("/withdrawals/:id/fail", rl("admin"), adminHandler.FailWithdrawal)
	}

	return r
}
