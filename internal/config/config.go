// Package config provides configuration for datachat.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the datachat configuration.
type Config struct {
	// Server settings
	HTTPPort  int
	StaticDir string

	// File layout
	StorageDir     string
	UploadsDir     string
	MaxUploadBytes int64

	// Journal database
	DatabaseURL string

	// Reasoning service
	OpenAIBaseURL string
	OpenAIAPIKey  string
	AssistantID   string
	AnalyzerModel string
	Mode          string

	// Timeouts
	LLMTimeout      time.Duration
	RunPollInterval time.Duration
	RunTimeout      time.Duration

	// Session lifecycle
	SessionTTL      time.Duration
	JanitorSchedule string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and an optional .env
// file in the working directory. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read .env: %w", err)
			}
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", 8000)
	v.SetDefault("STATIC_DIR", "static")
	v.SetDefault("STORAGE_DIR", "db_storage")
	v.SetDefault("UPLOADS_DIR", "csv_uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 32<<20)
	v.SetDefault("DATABASE_URL", "file:datachat_journal.db?cache=shared&mode=rwc")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("ASSISTANT_ID", "")
	v.SetDefault("ANALYZER_MODEL", "gpt-4.1-nano-2025-04-14")
	v.SetDefault("GOGO_MODE", "")
	v.SetDefault("LLM_TIMEOUT_MS", 60000)
	v.SetDefault("RUN_POLL_INTERVAL_MS", 1000)
	v.SetDefault("RUN_TIMEOUT_MS", 120000)
	v.SetDefault("SESSION_TTL_MS", 86400000)
	v.SetDefault("JANITOR_SCHEDULE", "@every 10m")
	v.SetDefault("LOG_LEVEL", "info")
}

// MockAssistantID is used in mock mode when no assistant is configured.
const MockAssistantID = "asst_mock"

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		HTTPPort:        v.GetInt("HTTP_PORT"),
		StaticDir:       v.GetString("STATIC_DIR"),
		StorageDir:      v.GetString("STORAGE_DIR"),
		UploadsDir:      v.GetString("UPLOADS_DIR"),
		MaxUploadBytes:  v.GetInt64("MAX_UPLOAD_BYTES"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		OpenAIBaseURL:   v.GetString("OPENAI_BASE_URL"),
		OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
		AssistantID:     v.GetString("ASSISTANT_ID"),
		AnalyzerModel:   v.GetString("ANALYZER_MODEL"),
		Mode:            v.GetString("GOGO_MODE"),
		LLMTimeout:      millis(v, "LLM_TIMEOUT_MS"),
		RunPollInterval: millis(v, "RUN_POLL_INTERVAL_MS"),
		RunTimeout:      millis(v, "RUN_TIMEOUT_MS"),
		SessionTTL:      millis(v, "SESSION_TTL_MS"),
		JanitorSchedule: v.GetString("JANITOR_SCHEDULE"),
		LogLevel:        v.GetString("LOG_LEVEL"),
	}
	if cfg.Mode == "MOCK" && cfg.AssistantID == "" {
		cfg.AssistantID = MockAssistantID
	}
	return cfg
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}

// EnsureDirs creates the storage and upload directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.StorageDir, c.UploadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
