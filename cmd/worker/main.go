package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/gescom-app/gescom/internal/app"
	"github.com/gescom-app/gescom/internal/masterdata/registers"
	"github.com/gescom-app/gescom/internal/platform/db"
	"github.com/gescom-app/gescom/internal/settlement"
	"github.com/gescom-app/gescom/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	registerRepo := registers.NewRepository(pool)
	saleRepo := settlement.NewRepository(pool)

	refreshHandler := jobs.NewRegisterRefreshHandler(registerRepo, saleRepo, logger)
	auditHandler := jobs.NewSequenceAuditHandler(pool, logger)

	refreshTask, err := jobs.NewRegisterRefreshTask(time.Now().UTC())
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}
	auditTask, err := jobs.NewSequenceAuditTask(time.Time{})
	if err != nil {
		logger.Error("build audit task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRegisterRefresh, Handler: refreshHandler},
			{Type: jobs.TaskSequenceAudit, Handler: auditHandler},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 23 * * *", Task: auditTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
