// Package config reads repo-finder's settings from the environment.
//
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// HTTP
	Port int

	// Storage
	DBPath string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// GitHub
	GitHubToken   string
	GitHubAPIURL  string
	FetchTimeout  time.Duration
	RateLimitWait time.Duration

	// Logging
	Debug bool
}

// Load reads the configuration. files are optional .env files; with none
// given, ".env" is tried.
func Load(files ...string) (*Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load(files...)

	cfg := &Config{
		DBPath:        getEnv("DB_PATH", "data/repo-finder.db"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		GitHubToken:   getEnv("GITHUB_TOKEN", ""),
		GitHubAPIURL:  getEnv("GITHUB_API_URL", ""),
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitWait, err = getDuration("RATE_LIMIT_WAIT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getBool("DEBUG", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values Load could parse but not judge.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &ConfigError{Field: "PORT", Message: "must be between 1 and 65535"}
	}
	if len(c.SessionSecret) < 16 {
		return &ConfigError{Field: "SESSION_SECRET", Message: "must be at least 16 characters"}
	}
	if c.DBPath == "" {
		return &ConfigError{Field: "DB_PATH", Message: "is required"}
	}
	if c.FetchTimeout <= 0 {
		return &ConfigError{Field: "FETCH_TIMEOUT", Message: "must be positive"}
	}
	return nil
}

// ConfigError reports one bad setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: fmt.Sprintf("invalid integer %q", raw)}
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ConfigError{Field: key, Message: fmt.Sprintf("invalid duration %q", raw)}
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ConfigError{Field: key, Message: fmt.Sprintf("invalid boolean %q", raw)}
	}
	return v, nil
}
