// Package config loads dirindex settings from defaults, an optional config
// file, DIRINDEX_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/taigrr/dirindex/internal/cache"
	"github.com/taigrr/dirindex/internal/filesystem"
	"github.com/taigrr/dirindex/internal/i18n"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DIRINDEX"

// Config is the complete dirindex configuration.
type Config struct {
	Root            string        `json:"root" mapstructure:"root"`
	ListenAddr      string        `json:"listenAddr" mapstructure:"listen_addr"`
	MetricsAddr     string        `json:"metricsAddr" mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" mapstructure:"shutdown_timeout"`

	CacheFileIndex bool     `json:"cacheFileindex" mapstructure:"cache_fileindex"`
	DisplayReadmes bool     `json:"displayReadmes" mapstructure:"display_readmes"`
	ReadmeMaxBytes int64    `json:"readmeMaxBytes" mapstructure:"readme_max_bytes"`
	HiddenFiles    []string `json:"hiddenFiles" mapstructure:"hidden_files"`
	HideDotFiles   bool     `json:"hideDotFiles" mapstructure:"hide_dot_files"`
	SortOrder      string   `json:"sortOrder" mapstructure:"sort_order"`
	ReverseSort    bool     `json:"reverseSort" mapstructure:"reverse_sort"`
	Language       string   `json:"language" mapstructure:"language"`

	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	LogLevel  string `json:"logLevel" mapstructure:"log_level"`
	LogFormat string `json:"logFormat" mapstructure:"log_format"`
}

// CacheConfig selects and tunes the page cache store.
type CacheConfig struct {
	Backend string        `json:"backend" mapstructure:"backend"`
	Path    string        `json:"path" mapstructure:"path"`
	TTL     time.Duration `json:"ttl" mapstructure:"ttl"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Root:            ".",
		ListenAddr:      ":8080",
		MetricsAddr:     "",
		ShutdownTimeout: 10 * time.Second,
		CacheFileIndex:  false,
		DisplayReadmes:  true,
		ReadmeMaxBytes:  1 << 20,
		HiddenFiles:     []string{},
		HideDotFiles:    true,
		SortOrder:       filesystem.SortByName,
		ReverseSort:     false,
		Language:        i18n.DefaultLanguage,
		Cache: CacheConfig{
			Backend: cache.BackendMemory,
			Path:    defaultCachePath(),
			TTL:     0,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// defaultCachePath places the sqlite cache in the user cache directory, so
// it never shows up in a listing of the working directory.
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dirindex", "cache.db")
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"root":             "root",
	"listen":           "listen_addr",
	"metrics-listen":   "metrics_addr",
	"shutdown-timeout": "shutdown_timeout",
	"cache":            "cache_fileindex",
	"readmes":          "display_readmes",
	"readme-max-bytes": "readme_max_bytes",
	"hide":             "hidden_files",
	"hide-dot-files":   "hide_dot_files",
	"sort":             "sort_order",
	"reverse":          "reverse_sort",
	"language":         "language",
	"cache-backend":    "cache.backend",
	"cache-path":       "cache.path",
	"cache-ttl":        "cache.ttl",
	"log-level":        "log_level",
	"log-format":       "log_format",
}

// RegisterFlags adds the configuration flags to flags. Flag defaults match
// DefaultConfig; only flags set explicitly override other sources.
func RegisterFlags(flags *pflag.FlagSet) {
	d := DefaultConfig()
	flags.String("root", d.Root, "directory to serve")
	flags.String("listen", d.ListenAddr, "HTTP listen address")
	flags.String("metrics-listen", d.MetricsAddr, "metrics listen address (empty disables)")
	flags.Duration("shutdown-timeout", d.ShutdownTimeout, "graceful shutdown timeout")
	flags.Bool("cache", d.CacheFileIndex, "cache rendered listings")
	flags.Bool("readmes", d.DisplayReadmes, "display README files below listings")
	flags.Int64("readme-max-bytes", d.ReadmeMaxBytes, "maximum README bytes rendered")
	flags.StringSlice("hide", d.HiddenFiles, "glob patterns of files to hide")
	flags.Bool("hide-dot-files", d.HideDotFiles, "hide files starting with a dot")
	flags.String("sort", d.SortOrder, "sort order: name or type")
	flags.Bool("reverse", d.ReverseSort, "reverse the sort order")
	flags.String("language", d.Language, "default page language")
	flags.String("cache-backend", d.Cache.Backend, "cache store: memory or sqlite")
	flags.String("cache-path", d.Cache.Path, "sqlite cache database path")
	flags.Duration("cache-ttl", d.Cache.TTL, "cache entry lifetime (0 never expires)")
	flags.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", d.LogFormat, "log format: json or console")
}

// Load builds the configuration. configFile may be empty, in which case a
// dirindex.{yaml,toml,json} in the working directory is used if present.
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := DefaultConfig()
	v.SetDefault("root", d.Root)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("cache_fileindex", d.CacheFileIndex)
	v.SetDefault("display_readmes", d.DisplayReadmes)
	v.SetDefault("readme_max_bytes", d.ReadmeMaxBytes)
	v.SetDefault("hidden_files", d.HiddenFiles)
	v.SetDefault("hide_dot_files", d.HideDotFiles)
	v.SetDefault("sort_order", d.SortOrder)
	v.SetDefault("reverse_sort", d.ReverseSort)
	v.SetDefault("language", d.Language)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("dirindex")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return &ConfigError{Field: "root", Message: "must not be empty"}
	}
	if c.ListenAddr == "" {
		return &ConfigError{Field: "listen_addr", Message: "must not be empty"}
	}
	if c.ShutdownTimeout < 0 {
		return &ConfigError{Field: "shutdown_timeout", Message: "must not be negative"}
	}
	if c.ReadmeMaxBytes <= 0 {
		return &ConfigError{Field: "readme_max_bytes", Message: "must be positive"}
	}
	if !slices.Contains([]string{filesystem.SortByName, filesystem.SortByType}, c.SortOrder) {
		return &ConfigError{Field: "sort_order", Message: "unsupported sort order " + c.SortOrder}
	}
	if !slices.Contains([]string{cache.BackendMemory, cache.BackendSQLite}, c.Cache.Backend) {
		return &ConfigError{Field: "cache.backend", Message: "unsupported backend " + c.Cache.Backend}
	}
	if c.Cache.Backend == cache.BackendSQLite && c.Cache.Path == "" {
		return &ConfigError{Field: "cache.path", Message: "required for the sqlite backend"}
	}
	if c.Cache.TTL < 0 {
		return &ConfigError{Field: "cache.ttl", Message: "must not be negative"}
	}
	if !slices.Contains([]string{"json", "console"}, c.LogFormat) {
		return &ConfigError{Field: "log_format", Message: "unsupported format " + c.LogFormat}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
