package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	// Unset any env vars that would interfere
	envVars := []string{
		"NEWSWIRE_PROVIDERS_NEWSAPI_KEY", "NEWSWIRE_PROVIDERS_GNEWS_KEY",
		"NEWSWIRE_PROVIDERS_FINNHUB_KEY", "NEWSWIRE_SENTIMENT_OPENAI_KEY",
		"NEWSWIRE_DATABASE_URL",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Provider defaults
	if cfg.Providers.Language != "en" {
		t.Errorf("Providers.Language: got %q, want %q", cfg.Providers.Language, "en")
	}
	if cfg.Providers.MaxResults != 10 {
		t.Errorf("Providers.MaxResults: got %d, want 10", cfg.Providers.MaxResults)
	}

	// Sentiment defaults
	if cfg.Sentiment.Backend != "lexicon" {
		t.Errorf("Sentiment.Backend: got %q, want %q", cfg.Sentiment.Backend, "lexicon")
	}
	if cfg.Sentiment.BatchSize != 5 {
		t.Errorf("Sentiment.BatchSize: got %d, want 5", cfg.Sentiment.BatchSize)
	}
	if cfg.Sentiment.BatchPauseMS != 250 {
		t.Errorf("Sentiment.BatchPauseMS: got %d, want 250", cfg.Sentiment.BatchPauseMS)
	}

	// Database defaults
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Database.MaxOpenConns: got %d, want 25", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 25 {
		t.Errorf("Database.MaxIdleConns: got %d, want 25", cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime != 300 {
		t.Errorf("Database.ConnMaxLifetime: got %d, want 300", cfg.Database.ConnMaxLifetime)
	}

	// Cache defaults
	if cfg.Cache.NewsTTL != 600 {
		t.Errorf("Cache.NewsTTL: got %d, want 600", cfg.Cache.NewsTTL)
	}
	if cfg.Cache.SweepInterval != 3600 {
		t.Errorf("Cache.SweepInterval: got %d, want 3600", cfg.Cache.SweepInterval)
	}

	// Ingest defaults
	if cfg.Ingest.Interval != 300 {
		t.Errorf("Ingest.Interval: got %d, want 300", cfg.Ingest.Interval)
	}
	if cfg.Ingest.FetchConcurrency != 4 {
		t.Errorf("Ingest.FetchConcurrency: got %d, want 4", cfg.Ingest.FetchConcurrency)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	// Watchlist fallback
	if len(cfg.Watchlist) != len(DefaultWatchlist) {
		t.Errorf("Watchlist: got %d entries, want %d", len(cfg.Watchlist), len(DefaultWatchlist))
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
providers:
  newsapi_key: "file_newsapi_key_1234"
  language: "de"
  max_results: 25
  rss_feeds:
    - "https://example.com/feed.xml"
sentiment:
  backend: "openai"
  model: "gpt-4o"
database:
  url: "postgres://localhost/newswire_test"
cache:
  news_ttl: 120
ingest:
  interval: 60
api:
  port: 9090
watchlist:
  - symbol: "BTC"
    name: "Bitcoin"
    category: "crypto"
logging:
  level: "debug"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	os.Unsetenv("NEWSWIRE_PROVIDERS_NEWSAPI_KEY")
	os.Unsetenv("NEWSWIRE_DATABASE_URL")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Providers.NewsAPIKey != "file_newsapi_key_1234" {
		t.Errorf("Providers.NewsAPIKey: got %q", cfg.Providers.NewsAPIKey)
	}
	if cfg.Providers.Language != "de" {
		t.Errorf("Providers.Language: got %q, want %q", cfg.Providers.Language, "de")
	}
	if cfg.Providers.MaxResults != 25 {
		t.Errorf("Providers.MaxResults: got %d, want 25", cfg.Providers.MaxResults)
	}
	if len(cfg.Providers.RSSFeeds) != 1 {
		t.Errorf("Providers.RSSFeeds: got %v", cfg.Providers.RSSFeeds)
	}
	if cfg.Sentiment.Backend != "openai" {
		t.Errorf("Sentiment.Backend: got %q, want %q", cfg.Sentiment.Backend, "openai")
	}
	if cfg.Database.URL != "postgres://localhost/newswire_test" {
		t.Errorf("Database.URL: got %q", cfg.Database.URL)
	}
	if cfg.Cache.NewsTTL != 120 {
		t.Errorf("Cache.NewsTTL: got %d, want 120", cfg.Cache.NewsTTL)
	}
	if cfg.Ingest.Interval != 60 {
		t.Errorf("Ingest.Interval: got %d, want 60", cfg.Ingest.Interval)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if len(cfg.Watchlist) != 1 || cfg.Watchlist[0].Symbol != "BTC" {
		t.Errorf("Watchlist: got %+v", cfg.Watchlist)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}

	// File values unspecified keep their defaults.
	if cfg.Sentiment.BatchSize != 5 {
		t.Errorf("Sentiment.BatchSize default lost: got %d", cfg.Sentiment.BatchSize)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("NEWSWIRE_PROVIDERS_NEWSAPI_KEY", "env_newsapi_key")
	t.Setenv("NEWSWIRE_SENTIMENT_OPENAI_KEY", "env_openai_key")
	t.Setenv("NEWSWIRE_DATABASE_URL", "postgres://env/newswire")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Providers.NewsAPIKey != "env_newsapi_key" {
		t.Errorf("Providers.NewsAPIKey: got %q", cfg.Providers.NewsAPIKey)
	}
	if cfg.Sentiment.OpenAIKey != "env_openai_key" {
		t.Errorf("Sentiment.OpenAIKey: got %q", cfg.Sentiment.OpenAIKey)
	}
	if cfg.Database.URL != "postgres://env/newswire" {
		t.Errorf("Database.URL: got %q", cfg.Database.URL)
	}
}

// ── Duration helpers ──

func TestDurationHelpers(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := cfg.Cache.NewsTTLDuration(); got != 10*time.Minute {
		t.Errorf("NewsTTLDuration: got %s, want 10m", got)
	}
	if got := cfg.Ingest.IntervalDuration(); got != 5*time.Minute {
		t.Errorf("IntervalDuration: got %s, want 5m", got)
	}
	if got := cfg.Sentiment.BatchPause(); got != 250*time.Millisecond {
		t.Errorf("BatchPause: got %s, want 250ms", got)
	}
	if got := cfg.API.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr: got %q", got)
	}
}
