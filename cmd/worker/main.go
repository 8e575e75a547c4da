package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"briefcaster/internal/app"
	"briefcaster/internal/config"
	"briefcaster/internal/db"
	"briefcaster/internal/logging"
	"briefcaster/internal/worker"

	"github.com/hibiken/asynq"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatalf("could not create logger: %v", err)
	}
	slog.SetDefault(logger)

	db.InitDB(cfg.DatabaseURL)

	a, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("could not build service: %v", err)
	}
	defer a.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			// The daily batch bounds its own per-user concurrency.
			Concurrency: 2,
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
			RetryDelayFunc: retryDelay,
		},
	)

	mux := asynq.NewServeMux()
	worker.NewTaskHandler(a.Service, logger).Register(mux)

	logger.Info("Worker starting", "commit", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}

// retryDelay backs off exponentially from one minute up to one hour.
func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	delay := time.Minute
	maxDelay := time.Hour

	for i := 0; i < n; i++ {
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
			break
		}
	}

	slog.Warn("task failed, retrying", "task", task.Type(), "attempt", n+1, "delay", delay, "error", err)
	return delay
}
