package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"briefcaster/internal/app"
	"briefcaster/internal/config"
	"briefcaster/internal/db"
	"briefcaster/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error

	dbOnce sync.Once
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if c.configFlag != nil {
			if path := strings.TrimSpace(*c.configFlag); path != "" {
				os.Setenv(config.ConfigPathEnv, path)
			}
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr})
		if err != nil {
			c.configErr = err
			return
		}
		slog.SetDefault(logger)
		c.config, c.logger = cfg, logger
	})
	return c.config, c.configErr
}

func (c *commandContext) connect() error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	c.dbOnce.Do(func() { db.InitDB(cfg.DatabaseURL) })
	return nil
}

// withApp connects to the database and runs fn against a fully wired service.
func (c *commandContext) withApp(ctx context.Context, fn func(*app.App) error) error {
	if err := c.connect(); err != nil {
		return err
	}
	a, err := app.Build(ctx, c.config, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
