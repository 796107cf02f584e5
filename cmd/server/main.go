package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"sunupay/docs"
	"sunupay/internal/cache"
	"sunupay/internal/config"
	"sunupay/internal/db"
	"sunupay/internal/handler"
	"sunupay/internal/logger"
	"sunupay/internal/model"
	"sunupay/internal/provider"
	"sunupay/internal/repository"
	"sunupay/internal/router"
	"sunupay/internal/service"
	"sunupay/internal/worker"
)

// @title Payment Orchestration API
// @version 1.0
// @description Aggregates African mobile-money and card gateways behind one canonical payment interface.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zlog := logger.New(cfg.LogLevel, cfg.LogFile)
	defer zlog.Sync()

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.Gateway{},
		&model.PaymentRecord{},
		&model.ProviderLog{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	recordRepo := repository.NewPaymentRecordRepository(gormDB)
	gatewayRepo := repository.NewGatewayRepository(gormDB)
	logRepo := repository.NewProviderLogRepository(gormDB)

	// Initialize adapter factory and services
	factory := provider.NewFactory()
	checkoutService := service.NewCheckoutService(recordRepo, gatewayRepo, logRepo, factory, cfg.BaseURL, zlog)
	syncService := service.NewSyncService(recordRepo, gatewayRepo, logRepo, factory, cacheClient, cacheClient, zlog)
	webhookService := service.NewWebhookService(recordRepo, gatewayRepo, logRepo, factory, cacheClient, zlog)
	transactionService := service.NewTransactionService(recordRepo, logRepo)
	gatewayService := service.NewGatewayService(gatewayRepo, recordRepo, factory, cacheClient, zlog)

	// Initialize handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	transactionHandler := handler.NewTransactionHandler(transactionService, syncService)
	gatewayHandler := handler.NewGatewayHandler(gatewayService)

	// Register routes
	router.Register(
		e,
		cfg,
		checkoutHandler,
		webhookHandler,
		transactionHandler,
		gatewayHandler,
	)

	// Reconciliation sweep: the backstop for undelivered webhooks.
	if !cfg.SweepDisabled {
		sweeper := worker.NewSweeper(syncService, cfg.SweepInterval, zlog)
		sweeper.Start(context.Background())
		zlog.Info("reconciliation sweeper started", zap.Duration("interval", cfg.SweepInterval))
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
