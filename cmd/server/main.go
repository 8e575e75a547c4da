package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"briefcaster/internal/app"
	"briefcaster/internal/config"
	"briefcaster/internal/db"
	"briefcaster/internal/handlers"
	"briefcaster/internal/logging"
	"briefcaster/internal/middleware"
	"briefcaster/pkg/tasks"

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

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	db.InitDB(cfg.DatabaseURL)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("could not migrate database: %v", err)
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("could not build service: %v", err)
	}
	defer a.Close()

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	srv := newServer(cfg, a, client, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("Starting server", "addr", srv.Addr, "commit", CommitSHA)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// newServer builds the HTTP server. Generation calls run inline, so the write timeout
// covers a script call plus synthesis.
func newServer(cfg *config.Config, a *app.App, enqueuer tasks.TaskEnqueuer, logger *slog.Logger) *http.Server {
	h := handlers.New(a.Service, enqueuer, a.AudioDir, cfg.BaseURL, logger)
	auth := middleware.NewAuth(cfg.JWTSecret, logger)
	limiter := middleware.NewRateLimiterMiddleware(middleware.PerMinute(cfg.RateLimit.PerMinute), cfg.RateLimit.Burst, logger)

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h, auth, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ScriptTimeout() + 5*time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
