package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Config contains all runtime settings for the tutoring service.
type Config struct {
	BindAddr          string
	ShutdownTimeout   time.Duration
	CompletionTimeout time.Duration
	MetricsNamespace  string
	AllowedOrigins    []string

	LogLevel  string
	LogFormat string

	// Completion provider. Empty values are reported per request, not at load.
	Endpoint     string
	APIKey       string
	Model        string
	ProviderMode string

	MemoryLimit      int
	ModesFile        string
	MaxMessageLength int
	SafetyFilter     bool
}

// ProviderStatus reports which provider settings are present without exposing values.
type ProviderStatus struct {
	EndpointSet bool    `json:"endpoint_set"`
	APIKeySet   bool    `json:"api_key_set"`
	Model       *string `json:"model"`
}

// Load reads the optional .env file plus environment variables and applies defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8000"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "tutor"),
		AllowedOrigins:    splitList(envOrDefault("APP_ALLOWED_ORIGINS", "*")),
		LogLevel:          strings.ToLower(envOrDefault("APP_LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(envOrDefault("APP_LOG_FORMAT", "text")),
		Endpoint:          firstNonEmpty("ENDPOINT", "AZURE_OPENAI_ENDPOINT"),
		APIKey:            firstNonEmpty("API_KEY", "AZURE_OPENAI_API_KEY"),
		Model:             firstNonEmpty("MODEL", "AZURE_OPENAI_MODEL"),
		ProviderMode:      strings.ToLower(envOrDefault("APP_PROVIDER_MODE", "openai")),
		ModesFile:         stringsTrimSpace("APP_MODES_FILE"),
		MemoryLimit:       20,
		ShutdownTimeout:   15 * time.Second,
		CompletionTimeout: 60 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionTimeout, err = durationFromEnv("APP_COMPLETION_TIMEOUT", cfg.CompletionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryLimit, err = intFromEnv("MEMORY_LIMIT", cfg.MemoryLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxMessageLength, err = intFromEnv("APP_MAX_MESSAGE_LENGTH", cfg.MaxMessageLength)
	if err != nil {
		return Config{}, err
	}
	cfg.SafetyFilter, err = boolFromEnv("APP_SAFETY_FILTER", cfg.SafetyFilter)
	if err != nil {
		return Config{}, err
	}

	if cfg.MemoryLimit < 2 {
		return Config{}, fmt.Errorf("MEMORY_LIMIT must be at least 2")
	}
	if cfg.CompletionTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_COMPLETION_TIMEOUT must be positive")
	}
	if cfg.MaxMessageLength < 0 {
		return Config{}, fmt.Errorf("APP_MAX_MESSAGE_LENGTH must be >= 0")
	}
	switch cfg.ProviderMode {
	case "openai", "mock":
	default:
		return Config{}, fmt.Errorf("invalid APP_PROVIDER_MODE: %q (expected openai|mock)", cfg.ProviderMode)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("invalid APP_LOG_FORMAT: %q (expected text|json)", cfg.LogFormat)
	}

	return cfg, nil
}

func (c Config) ProviderStatus() ProviderStatus {
	st := ProviderStatus{
		EndpointSet: strings.TrimSpace(c.Endpoint) != "",
		APIKeySet:   strings.TrimSpace(c.APIKey) != "",
	}
	if m := strings.TrimSpace(c.Model); m != "" {
		st.Model = &m
	}
	return st
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(keys ...string) string {
	for _, key := range keys {
		if v := stringsTrimSpace(key); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	parts := lo.Map(strings.Split(v, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Compact(parts)
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
