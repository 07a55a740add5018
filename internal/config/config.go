package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Ollama embedding
	OllamaHost         string
	EmbeddingModel     string
	EmbeddingDimension int

	// Significance scoring LLM
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	ScoringTimeout  time.Duration

	// Routing
	EphemeralCapacity int
	ConsentWindowDays int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the optional YAML overlay shape. Only set fields
// override the environment.
type fileConfig struct {
	SurrealDB struct {
		URL       string `yaml:"url"`
		Namespace string `yaml:"namespace"`
		Database  string `yaml:"database"`
		User      string `yaml:"user"`
		Pass      string `yaml:"pass"`
	} `yaml:"surrealdb"`
	Embedding struct {
		Model     string `yaml:"model"`
		Dimension int    `yaml:"dimension"`
	} `yaml:"embedding"`
	LLM struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
	} `yaml:"llm"`
	EphemeralCapacity int    `yaml:"ephemeral_capacity"`
	ConsentWindowDays int    `yaml:"consent_window_days"`
	LogFile           string `yaml:"log_file"`
	LogLevel          string `yaml:"log_level"`
}

// Load reads configuration from environment variables, then applies the
// YAML overlay from MEMGATE_CONFIG if that variable is set.
func Load() (Config, error) {
	cfg := Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "memgate"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "memory"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		OllamaHost:         getEnv("OLLAMA_HOST", "http://localhost:11434"),
		EmbeddingModel:     getEnv("MEMGATE_EMBEDDING_MODEL", "all-minilm:l6-v2"),
		EmbeddingDimension: getEnvInt("MEMGATE_EMBEDDING_DIMENSION", 384),

		LLMProvider:     getEnv("MEMGATE_LLM_PROVIDER", "ollama"),
		LLMModel:        getEnv("MEMGATE_LLM_MODEL", ""),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		ScoringTimeout:  time.Duration(getEnvInt("MEMGATE_SCORING_TIMEOUT_SECONDS", 10)) * time.Second,

		EphemeralCapacity: getEnvInt("MEMGATE_EPHEMERAL_CAPACITY", 50),
		ConsentWindowDays: getEnvInt("MEMGATE_CONSENT_WINDOW_DAYS", 7),

		LogFile:  getEnv("MEMGATE_LOG_FILE", "/tmp/memgate.log"),
		LogLevel: parseLogLevel(getEnv("MEMGATE_LOG_LEVEL", "INFO")),
	}

	if path := os.Getenv("MEMGATE_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if cfg.EphemeralCapacity <= 0 {
		return Config{}, fmt.Errorf("ephemeral capacity must be positive, got %d", cfg.EphemeralCapacity)
	}
	if cfg.ConsentWindowDays <= 0 {
		return Config{}, fmt.Errorf("consent window must be positive, got %d days", cfg.ConsentWindowDays)
	}

	return cfg, nil
}

// ConsentWindow returns the pending consent expiry window.
func (c Config) ConsentWindow() time.Duration {
	return time.Duration(c.ConsentWindowDays) * 24 * time.Hour
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.SurrealDBURL, fc.SurrealDB.URL)
	setString(&cfg.SurrealDBNamespace, fc.SurrealDB.Namespace)
	setString(&cfg.SurrealDBDatabase, fc.SurrealDB.Database)
	setString(&cfg.SurrealDBUser, fc.SurrealDB.User)
	setString(&cfg.SurrealDBPass, fc.SurrealDB.Pass)
	setString(&cfg.EmbeddingModel, fc.Embedding.Model)
	if fc.Embedding.Dimension > 0 {
		cfg.EmbeddingDimension = fc.Embedding.Dimension
	}
	setString(&cfg.LLMProvider, fc.LLM.Provider)
	setString(&cfg.LLMModel, fc.LLM.Model)
	if fc.EphemeralCapacity > 0 {
		cfg.EphemeralCapacity = fc.EphemeralCapacity
	}
	if fc.ConsentWindowDays > 0 {
		cfg.ConsentWindowDays = fc.ConsentWindowDays
	}
	setString(&cfg.LogFile, fc.LogFile)
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	return nil
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
