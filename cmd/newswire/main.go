// newswire — financial asset news pipeline.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/finwatch/newswire/api"
	"github.com/finwatch/newswire/internal/cache"
	"github.com/finwatch/newswire/internal/config"
	"github.com/finwatch/newswire/internal/ingest"
	"github.com/finwatch/newswire/internal/provider"
	"github.com/finwatch/newswire/internal/sentiment"
	"github.com/finwatch/newswire/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newswire",
	Short: "newswire — asset news ingestion, sentiment, and streaming",
	Long: `newswire tracks a watchlist of financial assets (crypto, precious
metals), pulls their news from configured providers, scores sentiment
and relevance, stores the canonical articles in PostgreSQL, and streams
updates to WebSocket subscribers.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newswire %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and the ingestion loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := buildPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer pipe.db.Close()

		go pipe.cacheSweepLoop(cmd.Context())

		srv := api.NewServer(cfg, pipe.store, pipe.engine)
		return srv.ListenAndServe(cfg.API.Addr())
	},
}

// --- Ingest Command ---

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run a single ingestion cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := buildPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer pipe.db.Close()

		fresh, err := pipe.engine.Ingest(cmd.Context(), cfg.Watchlist)
		if err != nil {
			return err
		}
		fmt.Printf("ingested %d new articles across %d watched assets\n", len(fresh), len(cfg.Watchlist))
		for _, a := range fresh {
			fmt.Printf("  [%s] %s (%.2f) %s\n", a.Sentiment.Label, a.Title, a.RelevanceScore, a.URL)
		}
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and credential status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("newswire %s (%s)\n\n", version, commit)

		fmt.Println("Configuration:")
		fmt.Printf("  API server:        %s\n", cfg.API.Addr())
		fmt.Printf("  Ingest interval:   %s\n", cfg.Ingest.IntervalDuration())
		fmt.Printf("  Cache TTL:         %s\n", cfg.Cache.NewsTTLDuration())
		fmt.Printf("  Sentiment backend: %s\n", sentimentBackend())
		fmt.Printf("  Database:          %s\n", maskedState(cfg.Database.URL))
		fmt.Println()

		fmt.Println("Provider credentials (priority order):")
		fmt.Printf("  NewsAPI:  %s\n", maskedState(cfg.Providers.NewsAPIKey))
		fmt.Printf("  GNews:    %s\n", maskedState(cfg.Providers.GNewsKey))
		fmt.Printf("  Finnhub:  %s\n", maskedState(cfg.Providers.FinnhubKey))
		fmt.Printf("  RSS:      %d feed(s)\n", len(cfg.Providers.RSSFeeds))
		fmt.Println()

		fmt.Println("Watchlist:")
		for _, asset := range cfg.Watchlist {
			fmt.Printf("  %-6s %s (%s)\n", asset.Symbol, asset.DisplayName(), asset.Category)
		}
		return nil
	},
}

func maskedState(secret string) string {
	if secret == "" {
		return "not set"
	}
	return "set"
}

func sentimentBackend() string {
	if cfg.Sentiment.Backend == "openai" && cfg.Sentiment.OpenAIKey != "" {
		return fmt.Sprintf("openai (%s)", cfg.Sentiment.Model)
	}
	return "lexicon"
}

// pipeline holds the wired-up components shared by serve and ingest.
type pipeline struct {
	db     *sql.DB
	store  *store.ArticleStore
	cache  *cache.Cache
	engine *ingest.Engine
}

// buildPipeline opens the database, prepares schemas, and assembles
// the provider chain, classifier, cache, and ingestion engine.
func buildPipeline(ctx context.Context) (*pipeline, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required (or NEWSWIRE_DATABASE_URL)")
	}

	db, err := store.Open(
		cfg.Database.URL,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		time.Duration(cfg.Database.ConnMaxLifetime)*time.Second,
	)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	articles := store.New(db)
	if err := articles.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("article schema setup failed: %w", err)
	}

	durable := cache.NewSQLTier(db)
	if err := durable.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache schema setup failed: %w", err)
	}
	cacheTier := cache.New(durable)

	chain := buildProviderChain()
	classifier := buildClassifier()

	engine := ingest.New(chain, classifier, articles, cacheTier, ingest.Options{
		Language:         cfg.Providers.Language,
		MaxResults:       cfg.Providers.MaxResults,
		CacheTTL:         cfg.Cache.NewsTTLDuration(),
		FetchConcurrency: cfg.Ingest.FetchConcurrency,
	})

	return &pipeline{
		db:     db,
		store:  articles,
		cache:  cacheTier,
		engine: engine,
	}, nil
}

// buildProviderChain assembles the fallback chain in priority order.
// Unconfigured providers construct as nil and must not be wrapped in
// the Searcher interface, so each is checked concretely here.
func buildProviderChain() *provider.Chain {
	var providers []provider.Searcher
	if p := provider.NewNewsAPI(cfg.Providers.NewsAPIKey); p != nil {
		providers = append(providers, p)
	}
	if p := provider.NewGNews(cfg.Providers.GNewsKey); p != nil {
		providers = append(providers, p)
	}
	if p := provider.NewFinnhub(cfg.Providers.FinnhubKey); p != nil {
		providers = append(providers, p)
	}
	if p := provider.NewRSS(cfg.Providers.RSSFeeds); p != nil {
		providers = append(providers, p)
	}
	return provider.NewChain(providers...)
}

func buildClassifier() sentiment.Classifier {
	if cfg.Sentiment.Backend == "openai" && cfg.Sentiment.OpenAIKey != "" {
		return sentiment.NewOpenAIClassifier(
			cfg.Sentiment.OpenAIKey,
			cfg.Sentiment.Model,
			cfg.Sentiment.FallbackModel,
			cfg.Sentiment.BatchSize,
			cfg.Sentiment.BatchPause(),
		)
	}
	return sentiment.NewLexicon()
}

// cacheSweepLoop evicts expired durable cache rows on a slow cadence.
func (p *pipeline) cacheSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(cfg.Cache.SweepIntervalDuration())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cache.CleanExpired(ctx)
		}
	}
}
