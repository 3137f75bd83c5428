package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"teamsync-backend/internal/bootstrap"
	"teamsync-backend/internal/jobs"
	"teamsync-backend/internal/shared/config"
	"teamsync-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("worker.config_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	if err := run(ctx, cfg); err != nil {
		telemetry.Error("worker.stopped", map[string]any{"error": err})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	opt, err := jobs.RedisOpt(cfg.RedisURL)
	if err != nil {
		return err
	}

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	if app.Redis == nil {
		return errors.New("redis is unreachable")
	}

	scheduler, err := jobs.NewScheduler(opt, cfg.CleanupCron, cfg.RetentionDays)
	if err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Shutdown()

	srv := jobs.NewServer(opt, cfg.WorkerConcurrency)
	if err := srv.Start(newMux(app.Jobs)); err != nil {
		return err
	}
	telemetry.Info("worker.started", map[string]any{
		"concurrency":  cfg.WorkerConcurrency,
		"cleanup_cron": cfg.CleanupCron,
		"retention":    cfg.RetentionDays,
	})

	<-ctx.Done()
	telemetry.Info("worker.shutdown", nil)
	srv.Shutdown()
	return nil
}

func newMux(h *jobs.Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	h.Register(mux)
	return mux
}
