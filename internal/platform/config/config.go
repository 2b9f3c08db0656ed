// Package config loads application configuration from environment variables.
// All variables use the PLAYGROUND_ prefix.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Content  ContentConfig
	Progress ProgressConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Log      LogConfig
}

// ContentConfig says where concepts and animation assets come from. When
// Path is set concepts load from YAML files and URL is only used for
// animations and progress.
type ContentConfig struct {
	URL            string
	Path           string
	AnimationsPath string
	HTTPTimeout    time.Duration
}

// ProgressConfig holds score notification settings.
type ProgressConfig struct {
	Enabled    bool
	ScoreDelta int
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL
// disables event storage.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL
// disables concept caching.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// Load reads configuration from environment variables with PLAYGROUND_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Content: ContentConfig{
			URL:            envStr("PLAYGROUND_CONTENT_URL", "http://localhost:5000"),
			Path:           envStr("PLAYGROUND_CONTENT_PATH", ""),
			AnimationsPath: envStr("PLAYGROUND_ANIMATIONS_PATH", ""),
			HTTPTimeout:    envDuration("PLAYGROUND_HTTP_TIMEOUT", 10*time.Second),
		},
		Progress: ProgressConfig{
			Enabled:    envBool("PLAYGROUND_PROGRESS_ENABLED", false),
			ScoreDelta: envInt("PLAYGROUND_SCORE_DELTA", 10),
		},
		Database: DatabaseConfig{
			URL:      envStr("PLAYGROUND_DATABASE_URL", ""),
			MaxConns: envInt("PLAYGROUND_DATABASE_MAX_CONNS", 4),
			MinConns: envInt("PLAYGROUND_DATABASE_MIN_CONNS", 0),
		},
		Cache: CacheConfig{
			URL: envStr("PLAYGROUND_CACHE_URL", ""),
			TTL: envDuration("PLAYGROUND_CACHE_TTL", 10*time.Minute),
		},
		Log: LogConfig{
			Level:  envStr("PLAYGROUND_LOG_LEVEL", "info"),
			Format: envStr("PLAYGROUND_LOG_FORMAT", "json"),
			File:   envStr("PLAYGROUND_LOG_FILE", ""),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Content.Path == "" {
		if c.Content.URL == "" {
			return fmt.Errorf("PLAYGROUND_CONTENT_URL or PLAYGROUND_CONTENT_PATH is required")
		}
	}
	if c.Content.URL != "" {
		u, err := url.Parse(c.Content.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("PLAYGROUND_CONTENT_URL must be an http(s) URL, got %q", c.Content.URL)
		}
	}

	if c.Content.HTTPTimeout <= 0 {
		return fmt.Errorf("PLAYGROUND_HTTP_TIMEOUT must be positive, got %s", c.Content.HTTPTimeout)
	}

	if c.Progress.ScoreDelta <= 0 {
		return fmt.Errorf("PLAYGROUND_SCORE_DELTA must be positive, got %d", c.Progress.ScoreDelta)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("PLAYGROUND_DATABASE_MIN_CONNS (%d) exceeds PLAYGROUND_DATABASE_MAX_CONNS (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("PLAYGROUND_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// UsesFileContent reports whether concepts load from local YAML files.
func (c *Config) UsesFileContent() bool {
	return c.Content.Path != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envDuration accepts Go durations ("30s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
