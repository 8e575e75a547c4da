// Package app builds the podcast service and its collaborators from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"briefcaster/internal/audio"
	"briefcaster/internal/config"
	"briefcaster/internal/db"
	"briefcaster/internal/lock"
	"briefcaster/internal/podcast"
	"briefcaster/internal/script"
	"briefcaster/internal/storage"

	"github.com/redis/go-redis/v9"
)

// App owns the service graph of one process.
type App struct {
	Service   *podcast.Service
	Artifacts storage.ArtifactStore
	// AudioDir is set when artifacts live on local disk.
	AudioDir string

	closers []func() error
}

// Build wires the service against the global database connection.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{}

	artifacts, audioDir, err := NewArtifactStore(cfg)
	if err != nil {
		return nil, err
	}
	a.Artifacts, a.AudioDir = artifacts, audioDir

	text, err := a.textGenerator(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	engine, err := a.speechEngine(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	locker, err := a.locker(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = podcast.NewService(
		db.NewStore(),
		script.NewGenerator(text, script.WithShowName(cfg.LLM.ShowName), script.WithMaxTokens(cfg.LLM.MaxTokens)),
		audio.NewSynthesizer(engine, logger),
		artifacts,
		podcast.WithLogger(logger),
		podcast.WithVoice(cfg.TTS.Voice),
		podcast.WithScriptTimeout(cfg.ScriptTimeout()),
		podcast.WithLocker(locker, cfg.LockTTL()),
		podcast.WithBatchConcurrency(cfg.Batch.Concurrency),
	)
	return a, nil
}

// Close releases provider clients in reverse construction order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewArtifactStore selects the configured storage backend. The returned directory is
// non-empty only for local storage.
func NewArtifactStore(cfg *config.Config) (storage.ArtifactStore, string, error) {
	switch cfg.Storage.Backend {
	case "local":
		local, err := storage.NewLocal(cfg.Storage.AudioDir, "")
		if err != nil {
			return nil, "", fmt.Errorf("local storage: %w", err)
		}
		return local, local.Root(), nil
	case "supabase":
		return storage.NewSupabase(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.SupabaseBucket), "", nil
	case "s3":
		return storage.NewS3Client(storage.S3Options{
			Bucket:          cfg.Storage.S3Bucket,
			Region:          cfg.Storage.S3Region,
			Endpoint:        cfg.Storage.S3Endpoint,
			AccessKeyID:     cfg.Storage.S3AccessKeyID,
			SecretAccessKey: cfg.Storage.S3SecretAccessKey,
		}), "", nil
	}
	return nil, "", fmt.Errorf("storage backend: unsupported value %q", cfg.Storage.Backend)
}

func (a *App) textGenerator(ctx context.Context, cfg *config.Config) (script.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case "deepseek":
		if cfg.LLM.DeepSeekAPIKey == "" {
			return nil, errors.New("DEEPSEEK_API_KEY is not set")
		}
		return script.NewDeepSeek(cfg.LLM.DeepSeekAPIKey, cfg.LLM.DeepSeekBaseURL, cfg.LLM.DeepSeekModel), nil
	case "gemini":
		if cfg.LLM.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is not set")
		}
		g, err := script.NewGemini(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		a.closers = append(a.closers, g.Close)
		return g, nil
	}
	return nil, fmt.Errorf("llm provider: unsupported value %q", cfg.LLM.Provider)
}

func (a *App) speechEngine(ctx context.Context, cfg *config.Config) (audio.Engine, error) {
	switch cfg.TTS.Provider {
	case "google":
		g, err := audio.NewGoogle(ctx, cfg.TTS.GoogleCredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("google text-to-speech client: %w", err)
		}
		a.closers = append(a.closers, g.Close)
		return g, nil
	case "openai":
		if cfg.TTS.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return audio.NewOpenAI(cfg.TTS.OpenAIAPIKey), nil
	}
	return nil, fmt.Errorf("tts provider: unsupported value %q", cfg.TTS.Provider)
}

func (a *App) locker(cfg *config.Config) (lock.Locker, error) {
	switch cfg.Lock.Backend {
	case "none":
		return lock.Noop{}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, client.Close)
		return lock.NewRedis(client), nil
	case "file":
		f, err := lock.NewFile(filepath.Clean(cfg.Lock.Dir))
		if err != nil {
			return nil, fmt.Errorf("file lock: %w", err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("lock backend: unsupported value %q", cfg.Lock.Backend)
}
