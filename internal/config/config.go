package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"neurovault/internal/cognition"
)

// Config holds all configuration for the application. Loaded once at
// startup and immutable for the lifetime of the process.
type Config struct {
	DBPath   string
	IndexDir string
	APIPort  string

	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string
	VectorDim          int

	Cognition cognition.Params

	// RescoreSchedule is the cron expression for the background lifecycle
	// re-scoring sweep. Empty disables the sweep.
	RescoreSchedule string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config
// struct. It applies defaults for optional fields and validates the result,
// failing fast on inconsistent values. If a .env file exists in the current
// directory or a parent, it is loaded automatically; variables already set
// in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few levels so running from a subdirectory still finds the
	// project .env.
	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		DBPath:             getEnv("DB_PATH", "./data/neurovault.db"),
		IndexDir:           getEnv("INDEX_DIR", "./data/indexes"),
		APIPort:            getEnv("API_PORT", "9000"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		RescoreSchedule:    getEnv("RESCORE_SCHEDULE", "0 3 * * *"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	// Vector dimensionality must match the embedding model's output size.
	// For all-MiniLM-L6-v2 this is 384. If the model changes, the per-user
	// index snapshots must be rebuilt.
	dim, err := getEnvInt("VECTOR_DIM", 384)
	if err != nil {
		return nil, err
	}
	if dim <= 0 {
		return nil, fmt.Errorf("VECTOR_DIM must be greater than 0")
	}
	cfg.VectorDim = dim

	params := cognition.DefaultParams()
	if params.SemanticWeight, err = getEnvFloat("COGNITIVE_WEIGHT_SEMANTIC", params.SemanticWeight); err != nil {
		return nil, err
	}
	if params.RecencyWeight, err = getEnvFloat("COGNITIVE_WEIGHT_RECENCY", params.RecencyWeight); err != nil {
		return nil, err
	}
	if params.AccessWeight, err = getEnvFloat("COGNITIVE_WEIGHT_ACCESS", params.AccessWeight); err != nil {
		return nil, err
	}
	if params.DecayLambda, err = getEnvFloat("RECENCY_DECAY_LAMBDA", params.DecayLambda); err != nil {
		return nil, err
	}
	if params.ActiveThreshold, err = getEnvFloat("TIER_ACTIVE_THRESHOLD", params.ActiveThreshold); err != nil {
		return nil, err
	}
	if params.ContextualThreshold, err = getEnvFloat("TIER_CONTEXTUAL_THRESHOLD", params.ContextualThreshold); err != nil {
		return nil, err
	}
	if params.ArchivedThreshold, err = getEnvFloat("TIER_ARCHIVED_THRESHOLD", params.ArchivedThreshold); err != nil {
		return nil, err
	}
	// Fail fast on unordered thresholds or negative weights rather than
	// silently substituting defaults.
	if err := params.Validate(); err != nil {
		return nil, err
	}
	cfg.Cognition = params

	switch level := strings.ToLower(getEnv("LOG_LEVEL", "info")); level {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", level)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	// An empty schedule disables the sweep; anything else must parse now
	// rather than when the scheduler starts.
	if cfg.RescoreSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RescoreSchedule); err != nil {
			return nil, fmt.Errorf("RESCORE_SCHEDULE must be a valid cron expression: %w", err)
		}
	}

	// Create the data directories up front so startup failures surface here.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}
