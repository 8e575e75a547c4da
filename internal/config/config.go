// Package config assembles process configuration from defaults, an optional TOML file
// and environment variables (in increasing precedence).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ConfigPathEnv names the environment variable holding an optional TOML config path.
const ConfigPathEnv = "BRIEFCASTER_CONFIG"

type Config struct {
	DatabaseURL string `toml:"database_url"`
	RedisAddr   string `toml:"redis_addr"`
	Port        string `toml:"port"`
	BaseURL     string `toml:"base_url"`
	JWTSecret   string `toml:"jwt_secret"`

	Logging   Logging   `toml:"logging"`
	LLM       LLM       `toml:"llm"`
	TTS       TTS       `toml:"tts"`
	Storage   Storage   `toml:"storage"`
	Lock      Lock      `toml:"lock"`
	Batch     Batch     `toml:"batch"`
	RateLimit RateLimit `toml:"rate_limit"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type LLM struct {
	Provider        string `toml:"provider"`
	DeepSeekAPIKey  string `toml:"deepseek_api_key"`
	DeepSeekBaseURL string `toml:"deepseek_base_url"`
	DeepSeekModel   string `toml:"deepseek_model"`
	GeminiAPIKey    string `toml:"gemini_api_key"`
	GeminiModel     string `toml:"gemini_model"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxTokens       int    `toml:"max_tokens"`
	ShowName        string `toml:"show_name"`
}

type TTS struct {
	Provider              string `toml:"provider"`
	Voice                 string `toml:"voice"`
	GoogleCredentialsJSON string `toml:"google_credentials_json"`
	OpenAIAPIKey          string `toml:"openai_api_key"`
}

type Storage struct {
	Backend           string `toml:"backend"`
	AudioDir          string `toml:"audio_dir"`
	SupabaseURL       string `toml:"supabase_url"`
	SupabaseKey       string `toml:"supabase_key"`
	SupabaseBucket    string `toml:"supabase_bucket"`
	S3Bucket          string `toml:"s3_bucket"`
	S3Region          string `toml:"s3_region"`
	S3Endpoint        string `toml:"s3_endpoint"`
	S3AccessKeyID     string `toml:"s3_access_key_id"`
	S3SecretAccessKey string `toml:"s3_secret_access_key"`
}

type Lock struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

type Batch struct {
	Concurrency   int    `toml:"concurrency"`
	DailySchedule string `toml:"daily_schedule"`
}

type RateLimit struct {
	PerMinute int `toml:"per_minute"`
	Burst     int `toml:"burst"`
}

// Default returns the configuration used when nothing overrides a key.
func Default() Config {
	return Config{
		RedisAddr: "127.0.0.1:6379",
		Port:      "8080",
		BaseURL:   "http://localhost:8080",
		Logging:   Logging{Level: "info", Format: "console"},
		LLM: LLM{
			Provider:        "deepseek",
			DeepSeekBaseURL: "https://api.deepseek.com/v1",
			DeepSeekModel:   "deepseek-chat",
			GeminiModel:     "gemini-1.5-flash",
			TimeoutSeconds:  90,
			MaxTokens:       2000,
			ShowName:        "Briefcaster",
		},
		TTS:       TTS{Provider: "google"},
		Storage:   Storage{Backend: "local", AudioDir: "audio", SupabaseBucket: "podcasts"},
		Lock:      Lock{Backend: "none", Dir: os.TempDir(), TTLSeconds: 900},
		Batch:     Batch{Concurrency: 1, DailySchedule: "0 3 * * *"},
		RateLimit: RateLimit{PerMinute: 6, Burst: 2},
	}
}

// Load reads .env (if present), the TOML file named by BRIEFCASTER_CONFIG (if set) and the
// process environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return LoadFrom(os.Getenv(ConfigPathEnv), os.Getenv)
}

// LoadFrom builds a Config from an optional TOML file and a lookup function for overrides.
func LoadFrom(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("config file %s does not exist", path)
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
			return
		}
		*dst = n
	}

	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_ADDR", &c.RedisAddr)
	str("PORT", &c.Port)
	str("BASE_URL", &c.BaseURL)
	str("JWT_SECRET", &c.JWTSecret)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	str("LLM_PROVIDER", &c.LLM.Provider)
	str("DEEPSEEK_API_KEY", &c.LLM.DeepSeekAPIKey)
	str("DEEPSEEK_BASE_URL", &c.LLM.DeepSeekBaseURL)
	str("DEEPSEEK_MODEL", &c.LLM.DeepSeekModel)
	str("GEMINI_API_KEY", &c.LLM.GeminiAPIKey)
	str("GEMINI_MODEL", &c.LLM.GeminiModel)
	num("SCRIPT_TIMEOUT_SECONDS", &c.LLM.TimeoutSeconds)
	num("LLM_MAX_TOKENS", &c.LLM.MaxTokens)
	str("SHOW_NAME", &c.LLM.ShowName)

	str("TTS_PROVIDER", &c.TTS.Provider)
	str("TTS_VOICE", &c.TTS.Voice)
	str("GOOGLE_CREDENTIALS_JSON", &c.TTS.GoogleCredentialsJSON)
	str("OPENAI_API_KEY", &c.TTS.OpenAIAPIKey)

	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("AUDIO_DIR", &c.Storage.AudioDir)
	str("SUPABASE_URL", &c.Storage.SupabaseURL)
	str("SUPABASE_KEY", &c.Storage.SupabaseKey)
	str("SUPABASE_BUCKET", &c.Storage.SupabaseBucket)
	str("S3_BUCKET", &c.Storage.S3Bucket)
	str("S3_REGION", &c.Storage.S3Region)
	str("S3_ENDPOINT", &c.Storage.S3Endpoint)
	str("S3_ACCESS_KEY_ID", &c.Storage.S3AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &c.Storage.S3SecretAccessKey)

	str("LOCK_BACKEND", &c.Lock.Backend)
	str("LOCK_DIR", &c.Lock.Dir)
	num("LOCK_TTL_SECONDS", &c.Lock.TTLSeconds)

	num("BATCH_CONCURRENCY", &c.Batch.Concurrency)
	str("DAILY_SCHEDULE", &c.Batch.DailySchedule)
	num("RATE_LIMIT_PER_MINUTE", &c.RateLimit.PerMinute)
	num("RATE_LIMIT_BURST", &c.RateLimit.Burst)

	return errors.Join(errs...)
}

func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	c.TTS.Provider = strings.ToLower(c.TTS.Provider)
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	c.Lock.Backend = strings.ToLower(c.Lock.Backend)
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.TTS.Voice == "" {
		switch c.TTS.Provider {
		case "openai":
			c.TTS.Voice = "alloy"
		default:
			c.TTS.Voice = "en-US-Neural2-F"
		}
	}
}

// Validate ensures every provider and backend name is one this build understands.
func (c *Config) Validate() error {
	var errs []error
	if !oneOf(c.LLM.Provider, "deepseek", "gemini") {
		errs = append(errs, fmt.Errorf("llm provider: unsupported value %q", c.LLM.Provider))
	}
	if !oneOf(c.TTS.Provider, "google", "openai") {
		errs = append(errs, fmt.Errorf("tts provider: unsupported value %q", c.TTS.Provider))
	}
	if !oneOf(c.Storage.Backend, "local", "supabase", "s3") {
		errs = append(errs, fmt.Errorf("storage backend: unsupported value %q", c.Storage.Backend))
	}
	if !oneOf(c.Lock.Backend, "none", "redis", "file") {
		errs = append(errs, fmt.Errorf("lock backend: unsupported value %q", c.Lock.Backend))
	}
	if c.Storage.Backend == "s3" && c.Storage.S3Bucket == "" {
		errs = append(errs, errors.New("storage: s3_bucket is required for the s3 backend"))
	}
	if c.Storage.Backend == "supabase" && (c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "") {
		errs = append(errs, errors.New("storage: supabase_url and supabase_key are required for the supabase backend"))
	}
	if c.LLM.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("llm: timeout_seconds must be positive"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("llm: max_tokens must be positive"))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, errors.New("batch: concurrency must be at least 1"))
	}
	if c.Lock.TTLSeconds <= 0 {
		errs = append(errs, errors.New("lock: ttl_seconds must be positive"))
	}
	return errors.Join(errs...)
}

// ScriptTimeout is the deadline applied to each script generation call.
func (c *Config) ScriptTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Lock.TTLSeconds) * time.Second
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
