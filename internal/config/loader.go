package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// SetDefaults registers every default on v. Keys must be known to viper for
// AutomaticEnv to pick up their environment overrides.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("usage.capacity", d.Usage.Capacity)
	v.SetDefault("usage.retention", d.Usage.Retention)
	v.SetDefault("usage.query_history", d.Usage.QueryHistory)
	v.SetDefault("usage.local_limit", d.Usage.LocalLimit)
	v.SetDefault("usage.min_query_length", d.Usage.MinQueryLength)
	v.SetDefault("usage.recent_window", d.Usage.RecentWindow)
	v.SetDefault("usage.usage_weight", d.Usage.UsageWeight)
	v.SetDefault("usage.recent_bonus", d.Usage.RecentBonus)

	v.SetDefault("session.ttl", d.Session.TTL)
	v.SetDefault("session.capacity", d.Session.Capacity)
	v.SetDefault("session.backend", d.Session.Backend)

	v.SetDefault("merge.max_results", d.Merge.MaxResults)

	v.SetDefault("provider.kind", d.Provider.Kind)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.api_key", d.Provider.APIKey)
	v.SetDefault("provider.data_type", d.Provider.DataType)
	v.SetDefault("provider.page_size", d.Provider.PageSize)
	v.SetDefault("provider.timeout", d.Provider.Timeout)
	v.SetDefault("provider.max_retries", d.Provider.MaxRetries)
	v.SetDefault("provider.rate_per_second", d.Provider.RatePerSecond)
	v.SetDefault("provider.catalog_file", d.Provider.CatalogFile)
	v.SetDefault("provider.expand", d.Provider.Expand)

	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.redis_url", d.Storage.RedisURL)

	v.SetDefault("feedback.queue_size", d.Feedback.QueueSize)
	v.SetDefault("feedback.batch_size", d.Feedback.BatchSize)
	v.SetDefault("feedback.flush_interval", d.Feedback.FlushInterval)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.timestamps", d.Log.Timestamps)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SearchPaths returns the config files tried when no path is given, in
// order: ./food-search.yaml, then ~/.config/food-search/config.yaml.
func SearchPaths() []string {
	paths := []string{"food-search.yaml"}
	if p, err := DefaultConfigPath(); err == nil {
		paths = append(paths, p)
	}
	return paths
}

// Read loads a config file into v. An explicit path must exist. Without one
// the first existing search path is used, and finding none is not an error.
// It returns the file that was read, if any.
func Read(v *viper.Viper, path string) (string, error) {
	if path == "" {
		for _, p := range SearchPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
		if path == "" {
			return "", nil
		}
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", &ConfigNotFoundError{Path: path}
		}
		return "", fmt.Errorf("failed to access config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return "", &PermissionError{
				Path:    path,
				Op:      "read",
				Fix:     getReadPermissionFix(path),
				Details: getPermissionDetails(path),
			}
		}
		return "", fmt.Errorf("failed to read config: %w", err)
	}

	v.SetConfigFile(path)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return "", &InvalidConfigError{
			Path:    path,
			Message: fmt.Sprintf("YAML parse error: %v", err),
			Hint:    fmt.Sprintf("Restore %s.bak if 'food-search config init' left one, or rerun it with --force", path),
			Err:     err,
		}
	}
	return path, nil
}

// Load decodes v over the defaults, expands paths, and validates.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    v.ConfigFileUsed(),
			Message: err.Error(),
			Hint:    "Check value types; durations look like 5m or 168h",
			Err:     err,
		}
	}

	p, err := ExpandPath(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	cfg.Storage.Path = p

	if err := cfg.Validate(); err != nil {
		return nil, rejected(v.ConfigFileUsed(), err)
	}
	return cfg, nil
}

// LoadFrom reads path with environment overrides applied.
func LoadFrom(path string) (*Config, error) {
	v := New()
	if _, err := Read(v, path); err != nil {
		return nil, err
	}
	return Load(v)
}

// IsNotFound reports whether err is a missing config file.
func IsNotFound(err error) bool {
	var nf *ConfigNotFoundError
	return errors.As(err, &nf)
}

// getReadPermissionFix returns platform-specific fix command
func getReadPermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Right-click %s → Properties → Security → Edit permissions", path)
	default: // unix-like
		return fmt.Sprintf("Run: chmod 644 %s", path)
	}
}

// getPermissionDetails checks file ownership and permissions
func getPermissionDetails(path string) string {
	if runtime.GOOS == "windows" {
		return ""
	}

	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Current permissions: %04o", info.Mode().Perm())
}
