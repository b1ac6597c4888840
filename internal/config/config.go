// Package config handles configuration loading for dexlens.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"

	"github.com/dexlens/dexlens/internal/screener"
)

// Config represents the complete application configuration.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"   yaml:"source"`
	Screener ScreenerConfig `mapstructure:"screener" yaml:"screener"`
	Archive  ArchiveConfig  `mapstructure:"archive"  yaml:"archive"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	News     NewsConfig     `mapstructure:"news"     yaml:"news"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// SourceConfig holds the token-rank feed settings.
type SourceConfig struct {
	RankURL         string `mapstructure:"rank_url"         yaml:"rank_url"`
	Proxy           string `mapstructure:"proxy"            yaml:"proxy"`            // optional HTTP proxy URL
	RefreshInterval int    `mapstructure:"refresh_interval" yaml:"refresh_interval"` // seconds
	MaxRetries      int    `mapstructure:"max_retries"      yaml:"max_retries"`
	EnrichHolders   bool   `mapstructure:"enrich_holders"   yaml:"enrich_holders"`
	ExplorerURL     string `mapstructure:"explorer_url"     yaml:"explorer_url"` // holders-page base for enrichment
	RefPrice        bool   `mapstructure:"ref_price"        yaml:"ref_price"`    // fetch SOL/USDT reference price
}

// ScreenerConfig holds table-engine settings.
type ScreenerConfig struct {
	// DeployOverrides maps token addresses to corrected deployment dates
	// (YYYY-MM-DD). Entries merge over the built-in correction table.
	DeployOverrides map[string]string `mapstructure:"deploy_overrides" yaml:"deploy_overrides"`
	TokenLinkBase   string            `mapstructure:"token_link_base"  yaml:"token_link_base"`
}

// ArchiveConfig holds the optional MySQL snapshot archive settings.
type ArchiveConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"` // empty disables archiving
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// NewsConfig holds the market-news feed settings.
type NewsConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Feeds   []string `mapstructure:"feeds"   yaml:"feeds"` // RSS URLs; empty uses defaults
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.dexlens/config.yaml (home directory)
//  3. /etc/dexlens/config.yaml (system)
//
// Environment variables override config file values.
// Format: DEXLENS_<SECTION>_<KEY>, e.g., DEXLENS_SOURCE_RANK_URL
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".dexlens"))
	v.AddConfigPath("/etc/dexlens")

	v.SetEnvPrefix("DEXLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("DEXLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.rank_url", "")
	v.SetDefault("source.refresh_interval", 30)
	v.SetDefault("source.max_retries", 5)
	v.SetDefault("source.enrich_holders", false)
	v.SetDefault("source.ref_price", true)

	// Screener defaults
	v.SetDefault("screener.token_link_base", "https://gmgn.ai/sol/token/")

	// Archive defaults
	v.SetDefault("archive.dsn", "")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// News defaults
	v.SetDefault("news.enabled", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Overrides parses the configured deploy-date corrections and merges them
// over the built-in table.
func (c *Config) Overrides() (screener.DeployOverrides, error) {
	out := screener.DeployOverrides{}
	for addr, t := range screener.DefaultDeployOverrides {
		out[addr] = t
	}
	for addr, s := range c.Screener.DeployOverrides {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("deploy override for %s: %w", addr, err)
		}
		out[addr] = t
	}
	return out, nil
}

// SetupLogger builds the process logger from the logging config.
func SetupLogger(cfg LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
