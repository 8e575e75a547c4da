package main

import (
	"fmt"
	"log"
	"log/slog"
	"time"

	"briefcaster/internal/config"
	"briefcaster/internal/logging"
	"briefcaster/pkg/tasks"

	"github.com/hibiken/asynq"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

// registrar is the part of asynq.Scheduler used to register periodic tasks.
type registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

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

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		&asynq.SchedulerOpts{Location: time.UTC},
	)

	if err := registerPeriodicTasks(scheduler, cfg); err != nil {
		log.Fatalf("could not register task: %v", err)
	}

	logger.Info("Scheduler starting", "commit", CommitSHA, "daily_schedule", cfg.Batch.DailySchedule)
	if err := scheduler.Run(); err != nil {
		log.Fatalf("could not run scheduler: %v", err)
	}
}

// registerPeriodicTasks registers the daily batch (UTC cron) and the hourly subscription expiry.
func registerPeriodicTasks(s registrar, cfg *config.Config) error {
	daily, err := tasks.NewDailyBatchTask("scheduler")
	if err != nil {
		return fmt.Errorf("create daily batch task: %w", err)
	}
	if _, err := s.Register(cfg.Batch.DailySchedule, daily); err != nil {
		return fmt.Errorf("register daily batch: %w", err)
	}

	expire, err := tasks.NewExpireSubscriptionsTask()
	if err != nil {
		return fmt.Errorf("create expiry task: %w", err)
	}
	if _, err := s.Register("@every 1h", expire); err != nil {
		return fmt.Errorf("register subscription expiry: %w", err)
	}
	return nil
}
