/*
Package config handles loading, saving, and validating food-search configuration.

Configuration is YAML, read through viper from --config or from the first of
./food-search.yaml and ~/.config/food-search/config.yaml. Every key can be
overridden by an environment variable with the FOOD_SEARCH_ prefix, dots
replaced by underscores (FOOD_SEARCH_PROVIDER_API_KEY).

Schema:

	usage:
	  capacity: 50
	  retention: 168h
	  query_history: 10
	  local_limit: 5
	  min_query_length: 2
	  recent_window: 1h
	  usage_weight: 10
	  recent_bonus: 50
	session:
	  ttl: 5m
	  capacity: 100
	  backend: memory      # memory | redis
	merge:
	  max_results: 20
	provider:
	  kind: usda           # usda | static
	  base_url: https://api.nal.usda.gov/fdc/v1
	  api_key: ""
	  data_type: SR Legacy
	  page_size: 50
	  timeout: 10s
	  max_retries: 3
	  rate_per_second: 5
	  catalog_file: ""     # static kind; empty uses the bundled catalog
	  expand: true
	storage:
	  path: ~/.food-search/history.db
	  redis_url: ""
	feedback:
	  queue_size: 1000
	  batch_size: 10
	  flush_interval: 50ms
	log:
	  level: info
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Provider kinds.
const (
	ProviderUSDA   = "usda"
	ProviderStatic = "static"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "FOOD_SEARCH"

// Config represents the root configuration structure.
type Config struct {
	Usage    UsageConfig    `mapstructure:"usage" yaml:"usage"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Merge    MergeConfig    `mapstructure:"merge" yaml:"merge"`
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Feedback FeedbackConfig `mapstructure:"feedback" yaml:"feedback"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// UsageConfig configures the personal-usage cache.
type UsageConfig struct {
	// Capacity is the maximum number of usage records kept.
	Capacity int `mapstructure:"capacity" yaml:"capacity"`

	// Retention is how long a record survives without being selected.
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`

	// QueryHistory caps the matched queries remembered per record.
	QueryHistory int `mapstructure:"query_history" yaml:"query_history"`

	// LocalLimit is how many instant predictions are returned.
	LocalLimit int `mapstructure:"local_limit" yaml:"local_limit"`

	// MinQueryLength is the shortest query that scans local history.
	MinQueryLength int `mapstructure:"min_query_length" yaml:"min_query_length"`

	RecentWindow time.Duration `mapstructure:"recent_window" yaml:"recent_window"`
	UsageWeight  float64       `mapstructure:"usage_weight" yaml:"usage_weight"`
	RecentBonus  float64       `mapstructure:"recent_bonus" yaml:"recent_bonus"`
}

// SessionConfig configures the session result cache.
type SessionConfig struct {
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Capacity int           `mapstructure:"capacity" yaml:"capacity"`
	Backend  string        `mapstructure:"backend" yaml:"backend"`
}

// MergeConfig configures the merged result list.
type MergeConfig struct {
	MaxResults int `mapstructure:"max_results" yaml:"max_results"`
}

// ProviderConfig configures the remote catalog.
type ProviderConfig struct {
	Kind          string        `mapstructure:"kind" yaml:"kind"`
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey        string        `mapstructure:"api_key" yaml:"api_key"`
	DataType      string        `mapstructure:"data_type" yaml:"data_type"`
	PageSize      int           `mapstructure:"page_size" yaml:"page_size"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries" yaml:"max_retries"`
	RatePerSecond float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	CatalogFile   string        `mapstructure:"catalog_file" yaml:"catalog_file"`
	Expand        bool          `mapstructure:"expand" yaml:"expand"`
}

// StorageConfig locates persistent state.
type StorageConfig struct {
	// Path is the SQLite database. A leading ~ expands to the home directory.
	Path string `mapstructure:"path" yaml:"path"`

	// RedisURL is required when session.backend is redis.
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
}

// FeedbackConfig sizes the feedback recorder.
type FeedbackConfig struct {
	QueueSize     int           `mapstructure:"queue_size" yaml:"queue_size"`
	BatchSize     int           `mapstructure:"batch_size" yaml:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	// Timestamps prefixes log lines with the time, for long runs and
	// redirected stderr.
	Timestamps bool `mapstructure:"timestamps" yaml:"timestamps"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Usage: UsageConfig{
			Capacity:       50,
			Retention:      7 * 24 * time.Hour,
			QueryHistory:   10,
			LocalLimit:     5,
			MinQueryLength: 2,
			RecentWindow:   time.Hour,
			UsageWeight:    10,
			RecentBonus:    50,
		},
		Session: SessionConfig{
			TTL:      5 * time.Minute,
			Capacity: 100,
			Backend:  BackendMemory,
		},
		Merge: MergeConfig{MaxResults: 20},
		Provider: ProviderConfig{
			Kind:          ProviderUSDA,
			BaseURL:       "https://api.nal.usda.gov/fdc/v1",
			DataType:      "SR Legacy",
			PageSize:      50,
			Timeout:       10 * time.Second,
			MaxRetries:    3,
			RatePerSecond: 5,
			Expand:        true,
		},
		Storage: StorageConfig{
			Path: filepath.Join("~", ".food-search", "history.db"),
		},
		Feedback: FeedbackConfig{
			QueueSize:     1000,
			BatchSize:     10,
			FlushInterval: 50 * time.Millisecond,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultConfigPath returns ~/.config/food-search/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "food-search", "config.yaml"), nil
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
