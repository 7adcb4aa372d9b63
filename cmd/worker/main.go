package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/gethelp/internal/audit"
	"github.com/nikhilbhutani/gethelp/internal/config"
	"github.com/nikhilbhutani/gethelp/internal/database"
	"github.com/nikhilbhutani/gethelp/internal/queue"
	"github.com/nikhilbhutani/gethelp/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	redisOpt := queue.RedisOpt(cfg.Redis)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			queue.QueueDefault: 3,
			queue.QueueLow:     1,
		},
	})

	registry := queue.NewHandlersRegistry()

	sweeper := workers.NewSweepWorker()
	registry.Register(queue.TypeAudioSweep, sweeper.ProcessTask)

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database unavailable, audit records will stay queued", "error", err)
	} else {
		defer db.Close()

		migrations, err := database.Migrations(cfg.Database.MigrationsPath)
		if err != nil {
			slog.Error("failed to load migrations", "error", err)
			os.Exit(1)
		}
		if err := database.RunMigrations(ctx, db, migrations); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}

		auditWorker := workers.NewAuditWorker(audit.NewService(db))
		registry.Register(queue.TypeTaskAudit, auditWorker.ProcessTaskAudit)
		registry.Register(queue.TypeUsageAudit, auditWorker.ProcessUsage)
	}

	sweepTask, err := queue.NewSweepTask(cfg.Intake)
	if err != nil {
		slog.Error("failed to build sweep task", "error", err)
		os.Exit(1)
	}
	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register(cfg.Intake.SweepInterval, sweepTask); err != nil {
		slog.Error("failed to schedule audio sweep", "schedule", cfg.Intake.SweepInterval, "error", err)
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		slog.Error("scheduler error", "error", err)
		os.Exit(1)
	}
	defer scheduler.Shutdown()

	slog.Info("starting worker", "concurrency", 5, "task_types", registry.Types())
	if err := srv.Start(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	srv.Shutdown()
	slog.Info("worker stopped")
}
