package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/gescom-app/gescom/internal/app"
	"github.com/gescom-app/gescom/internal/auth"
	"github.com/gescom-app/gescom/internal/billing"
	"github.com/gescom-app/gescom/internal/catalog"
	"github.com/gescom-app/gescom/internal/clients"
	"github.com/gescom-app/gescom/internal/masterdata/channels"
	"github.com/gescom-app/gescom/internal/masterdata/registers"
	"github.com/gescom-app/gescom/internal/observability"
	"github.com/gescom-app/gescom/internal/orders"
	"github.com/gescom-app/gescom/internal/platform/db"
	"github.com/gescom-app/gescom/internal/settlement"
	"github.com/gescom-app/gescom/internal/shared"
	"github.com/gescom-app/gescom/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "gescom_session", cfg.SessionTTL, cfg.IsProduction())

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	clientRepo := clients.NewRepository(dbpool)
	clientService := clients.NewService(clientRepo)
	clientHandler := clients.NewHandler(logger, clientService)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	channelRepo := channels.NewRepository(dbpool)
	channelService := channels.NewService(channelRepo)
	channelHandler := channels.NewHandler(logger, channelService)

	registerRepo := registers.NewRepository(dbpool)
	registerService := registers.NewService(registerRepo)
	registerHandler := registers.NewHandler(logger, registerService)

	orderRepo := orders.NewRepository(dbpool)
	orderService := orders.NewService(orderRepo, clientRepo, catalogRepo, channelRepo)
	orderHandler := orders.NewHandler(logger, orderService)

	metrics := observability.NewMetrics()

	saleRepo := settlement.NewRepository(dbpool)
	saleService := settlement.NewService(saleRepo, metrics)
	saleHandler := settlement.NewHandler(logger, saleService)

	billingService := billing.NewService(orderRepo, saleRepo, clientRepo, catalogRepo)
	billingHandler := billing.NewHandler(logger, billingService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		Pool:              dbpool,
		Metrics:           metrics,
		MasterdataGuard:   auth.RequireRole(authService, auth.RoleAdmin, auth.RoleManager),
		AuthHandler:       authHandler,
		ClientsHandler:    clientHandler,
		CatalogHandler:    catalogHandler,
		ChannelsHandler:   channelHandler,
		RegistersHandler:  registerHandler,
		OrdersHandler:     orderHandler,
		SettlementHandler: saleHandler,
		BillingHandler:    billingHandler,
		JobsHandler:       jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
