// Package config handles configuration loading for newswire.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/finwatch/newswire/pkg/models"
)

// Config represents the complete application configuration.
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Sentiment SentimentConfig `mapstructure:"sentiment" yaml:"sentiment"`
	Database  DatabaseConfig  `mapstructure:"database"  yaml:"database"`
	Cache     CacheConfig     `mapstructure:"cache"     yaml:"cache"`
	Ingest    IngestConfig    `mapstructure:"ingest"    yaml:"ingest"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Watchlist []models.Asset  `mapstructure:"watchlist" yaml:"watchlist"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ProvidersConfig holds news provider credentials and query settings.
// Providers are tried in a fixed priority order; the first one with a
// configured credential wins.
type ProvidersConfig struct {
	NewsAPIKey string   `mapstructure:"newsapi_key" yaml:"newsapi_key"`
	GNewsKey   string   `mapstructure:"gnews_key"   yaml:"gnews_key"`
	FinnhubKey string   `mapstructure:"finnhub_key" yaml:"finnhub_key"`
	RSSFeeds   []string `mapstructure:"rss_feeds"   yaml:"rss_feeds"`
	Language   string   `mapstructure:"language"    yaml:"language"`
	MaxResults int      `mapstructure:"max_results" yaml:"max_results"`
}

// SentimentConfig holds sentiment classifier settings.
type SentimentConfig struct {
	Backend       string `mapstructure:"backend"        yaml:"backend"` // "openai" or "lexicon"
	OpenAIKey     string `mapstructure:"openai_key"     yaml:"openai_key"`
	Model         string `mapstructure:"model"          yaml:"model"`
	FallbackModel string `mapstructure:"fallback_model" yaml:"fallback_model"`
	BatchSize     int    `mapstructure:"batch_size"     yaml:"batch_size"`
	BatchPauseMS  int    `mapstructure:"batch_pause_ms" yaml:"batch_pause_ms"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string `mapstructure:"url"               yaml:"url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"    yaml:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"` // seconds
}

// CacheConfig holds cache tier settings.
type CacheConfig struct {
	NewsTTL       int `mapstructure:"news_ttl"       yaml:"news_ttl"`       // seconds
	SweepInterval int `mapstructure:"sweep_interval" yaml:"sweep_interval"` // seconds
}

// IngestConfig holds ingestion cycle settings.
type IngestConfig struct {
	Interval         int `mapstructure:"interval"          yaml:"interval"` // seconds
	FetchConcurrency int `mapstructure:"fetch_concurrency" yaml:"fetch_concurrency"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// NewsTTLDuration returns the per-asset news cache TTL.
func (c CacheConfig) NewsTTLDuration() time.Duration {
	return time.Duration(c.NewsTTL) * time.Second
}

// SweepIntervalDuration returns the durable-tier maintenance cadence.
func (c CacheConfig) SweepIntervalDuration() time.Duration {
	return time.Duration(c.SweepInterval) * time.Second
}

// IntervalDuration returns the ingestion cycle interval.
func (c IngestConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// BatchPause returns the pause between sentiment classification chunks.
func (c SentimentConfig) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseMS) * time.Millisecond
}

// Addr returns the host:port listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.newswire/config.yaml (home directory)
//  3. /etc/newswire/config.yaml (system)
//
// Environment variables override config file values.
// Format: NEWSWIRE_<SECTION>_<KEY>, e.g., NEWSWIRE_PROVIDERS_NEWSAPI_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newswire"))
	v.AddConfigPath("/etc/newswire")

	v.SetEnvPrefix("NEWSWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not required to exist; defaults + env vars suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyFallbacks(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("NEWSWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyFallbacks(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("providers.language", "en")
	v.SetDefault("providers.max_results", 10)

	// Sentiment defaults
	v.SetDefault("sentiment.backend", "lexicon")
	v.SetDefault("sentiment.model", "gpt-4o-mini")
	v.SetDefault("sentiment.fallback_model", "gpt-3.5-turbo")
	v.SetDefault("sentiment.batch_size", 5)
	v.SetDefault("sentiment.batch_pause_ms", 250)

	// Database defaults
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 300)

	// Cache defaults
	v.SetDefault("cache.news_ttl", 600)        // 10 minutes
	v.SetDefault("cache.sweep_interval", 3600) // 1 hour

	// Ingest defaults
	v.SetDefault("ingest.interval", 300) // 5 minutes
	v.SetDefault("ingest.fetch_concurrency", 4)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("NEWSWIRE_PROVIDERS_NEWSAPI_KEY"); key != "" {
		cfg.Providers.NewsAPIKey = key
	}
	if key := os.Getenv("NEWSWIRE_PROVIDERS_GNEWS_KEY"); key != "" {
		cfg.Providers.GNewsKey = key
	}
	if key := os.Getenv("NEWSWIRE_PROVIDERS_FINNHUB_KEY"); key != "" {
		cfg.Providers.FinnhubKey = key
	}
	if key := os.Getenv("NEWSWIRE_SENTIMENT_OPENAI_KEY"); key != "" {
		cfg.Sentiment.OpenAIKey = key
	}
	if url := os.Getenv("NEWSWIRE_DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
}

// DefaultWatchlist is the watchlist used when none is configured.
var DefaultWatchlist = []models.Asset{
	{Symbol: "BTC", Name: "Bitcoin", Category: models.CategoryCrypto},
	{Symbol: "ETH", Name: "Ethereum", Category: models.CategoryCrypto},
	{Symbol: "XAU", Name: "Gold", Category: models.CategoryMetal},
	{Symbol: "XAG", Name: "Silver", Category: models.CategoryMetal},
}

// applyFallbacks fills values viper defaults cannot express.
func applyFallbacks(cfg *Config) {
	if len(cfg.Watchlist) == 0 {
		cfg.Watchlist = DefaultWatchlist
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
