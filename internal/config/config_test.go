package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"briefcaster/internal/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom("", env(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, "deepseek-chat", cfg.LLM.DeepSeekModel)
	assert.Equal(t, 90*time.Second, cfg.ScriptTimeout())
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, "Briefcaster", cfg.LLM.ShowName)
	assert.Equal(t, "en-US-Neural2-F", cfg.TTS.Voice)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "none", cfg.Lock.Backend)
	assert.Equal(t, 1, cfg.Batch.Concurrency)
	assert.Equal(t, "0 3 * * *", cfg.Batch.DailySchedule)
}

func TestLoadFromEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "briefcaster.toml")
	contents := `
port = "9000"

[tts]
provider = "openai"

[batch]
concurrency = 4
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadFrom(path, env(map[string]string{
		"PORT":             "9100",
		"LOCK_BACKEND":     "Redis",
		"LOCK_TTL_SECONDS": "60",
		"LLM_MAX_TOKENS":   "1500",
		"SHOW_NAME":        "Morning Desk",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "openai", cfg.TTS.Provider)
	assert.Equal(t, "alloy", cfg.TTS.Voice)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, "redis", cfg.Lock.Backend)
	assert.Equal(t, time.Minute, cfg.LockTTL())
	assert.Equal(t, 1500, cfg.LLM.MaxTokens)
	assert.Equal(t, "Morning Desk", cfg.LLM.ShowName)
}

func TestLoadFromRejectsBadValues(t *testing.T) {
	_, err := LoadFrom("", env(map[string]string{"LLM_PROVIDER": "clippy"}))
	assert.ErrorContains(t, err, `llm provider: unsupported value "clippy"`)

	_, err = LoadFrom("", env(map[string]string{"BATCH_CONCURRENCY": "many"}))
	assert.ErrorContains(t, err, "BATCH_CONCURRENCY")

	_, err = LoadFrom("", env(map[string]string{"LLM_MAX_TOKENS": "0"}))
	assert.ErrorContains(t, err, "max_tokens must be positive")

	_, err = LoadFrom("", env(map[string]string{"STORAGE_BACKEND": "s3"}))
	assert.ErrorContains(t, err, "s3_bucket is required")

	_, err = LoadFrom(filepath.Join(t.TempDir(), "missing.toml"), env(nil))
	assert.ErrorContains(t, err, "does not exist")
}

func TestExampleConfigParses(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(test.ProjectRoot(), "configs", "briefcaster.example.toml"), env(nil))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
}
