// Package ingest fetches candidate articles for every watched asset,
// deduplicates them by URL within the batch, enriches them with
// sentiment and relevance, and determines which are genuinely new
// against the persistent store.
package ingest

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finwatch/newswire/internal/provider"
	"github.com/finwatch/newswire/internal/sentiment"
	"github.com/finwatch/newswire/pkg/models"
)

// ArticleStore is the slice of the persistent store the engine needs
// for newness decisions and upserts.
type ArticleStore interface {
	// FindByURL returns nil when the URL has never been seen.
	FindByURL(ctx context.Context, url string) (*models.Article, error)
	// UpsertByURL inserts or refreshes the article keyed by URL.
	UpsertByURL(ctx context.Context, a *models.Article) error
}

// ResultCache is the slice of the cache tier the engine uses for
// per-asset result caching.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, category, assetSymbol string)
}

// Options tune an Engine.
type Options struct {
	Language         string
	MaxResults       int
	CacheTTL         time.Duration
	FetchConcurrency int
}

// Engine is the ingestion and dedup engine.
type Engine struct {
	source     provider.Searcher
	classifier sentiment.Classifier
	store      ArticleStore
	cache      ResultCache
	opts       Options
}

// New creates an engine. The source is normally a *provider.Chain.
func New(source provider.Searcher, classifier sentiment.Classifier, store ArticleStore, cache ResultCache, opts Options) *Engine {
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 4
	}
	return &Engine{
		source:     source,
		classifier: classifier,
		store:      store,
		cache:      cache,
		opts:       opts,
	}
}

// assetBatch is the per-asset fetch outcome.
type assetBatch struct {
	articles  []models.Article
	fromCache bool
}

// Ingest runs one ingestion cycle over the watched assets and returns
// the articles that were not previously known to the store, in
// first-seen order within the batch. Single-asset and single-article
// failures are isolated and logged; partial failure never becomes an
// error. The only error returned is context cancellation.
func (e *Engine) Ingest(ctx context.Context, assets []models.Asset) ([]models.Article, error) {
	if len(assets) == 0 {
		return nil, nil
	}

	// Stage 1: fetch per asset, overlapping the provider I/O. Results
	// are indexed by input position so later stages keep the stable
	// input order.
	batches := make([]assetBatch, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.FetchConcurrency)
	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			batches[i] = e.fetchAsset(gctx, asset)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Stage 2: deduplicate across assets by URL, first occurrence
	// wins. A later duplicate's asset tag is dropped, not merged.
	var merged []models.Article
	seen := make(map[string]struct{})
	for _, b := range batches {
		for _, a := range b.articles {
			if _, dup := seen[a.URL]; dup {
				continue
			}
			seen[a.URL] = struct{}{}
			merged = append(merged, a)
		}
	}

	// Stage 3: enrich articles that still lack sentiment. Cached
	// results were enriched in an earlier cycle and are skipped.
	e.enrich(ctx, merged)

	// Stage 4: newness against the store, upserting either way so a
	// previously-seen URL gets its stored fields refreshed.
	var fresh []models.Article
	for i := range merged {
		a := &merged[i]

		existing, err := e.store.FindByURL(ctx, a.URL)
		if err != nil {
			log.Printf("ingest: newness check for %s failed: %v", a.URL, err)
			continue
		}
		if err := e.store.UpsertByURL(ctx, a); err != nil {
			log.Printf("ingest: upsert %s failed: %v", a.URL, err)
		}
		if existing == nil {
			fresh = append(fresh, *a)
		}
	}

	// Stage 5: cache each asset's enriched result so the next cycle
	// inside the TTL window skips the provider call.
	sentiments := make(map[string]models.Sentiment, len(merged))
	for _, a := range merged {
		sentiments[a.URL] = a.Sentiment
	}
	for i, asset := range assets {
		if batches[i].fromCache || len(batches[i].articles) == 0 {
			continue
		}
		articles := batches[i].articles
		for j := range articles {
			if s, ok := sentiments[articles[j].URL]; ok {
				articles[j].Sentiment = s
			}
		}
		data, err := json.Marshal(articles)
		if err != nil {
			log.Printf("ingest: marshal cache entry for %s failed: %v", asset.Symbol, err)
			continue
		}
		e.cache.Set(ctx, cacheKey(asset), data, e.opts.CacheTTL, string(asset.Category), asset.Symbol)
	}

	return fresh, nil
}

// fetchAsset returns the candidate articles for one asset, consulting
// the cache first. Any provider fault is logged and yields an empty
// batch for this asset only.
func (e *Engine) fetchAsset(ctx context.Context, asset models.Asset) assetBatch {
	key := cacheKey(asset)
	if data, ok := e.cache.Get(ctx, key); ok {
		var cached []models.Article
		if err := json.Unmarshal(data, &cached); err == nil {
			return assetBatch{articles: cached, fromCache: true}
		}
		log.Printf("ingest: corrupt cache entry %q discarded", key)
	}

	raw, err := e.source.Search(ctx, buildQuery(asset), e.opts.Language, e.opts.MaxResults)
	if err != nil {
		switch err {
		case provider.ErrRateLimited:
			log.Printf("ingest: provider rate-limited fetching %s", asset.Symbol)
		case provider.ErrUnauthorized:
			log.Printf("ingest: provider rejected credentials fetching %s", asset.Symbol)
		default:
			log.Printf("ingest: provider fetch for %s failed: %v", asset.Symbol, err)
		}
		return assetBatch{}
	}

	articles := make([]models.Article, 0, len(raw))
	for _, r := range raw {
		articles = append(articles, models.Article{
			Title:          r.Title,
			Description:    r.Description,
			Content:        r.Content,
			Source:         r.Source,
			Author:         r.Author,
			PublishedAt:    r.PublishedAt,
			URL:            r.URL,
			ImageURL:       r.ImageURL,
			RelatedAssets:  []string{asset.Symbol},
			AssetCategory:  asset.Category,
			RelevanceScore: relevanceScore(asset, r.Title, r.Description),
		})
	}
	return assetBatch{articles: articles}
}

// enrich classifies sentiment for the articles that do not have one
// yet. Classification faults degrade to neutral inside the classifier;
// a total batch fault degrades every pending article here.
func (e *Engine) enrich(ctx context.Context, articles []models.Article) {
	var pending []int
	var texts []string
	for i := range articles {
		if articles[i].Sentiment.Label != "" {
			continue
		}
		pending = append(pending, i)
		texts = append(texts, articles[i].Title+". "+articles[i].Description)
	}
	if len(pending) == 0 {
		return
	}

	scores, err := e.classifier.ClassifyBatch(ctx, texts)
	if err != nil || len(scores) != len(texts) {
		log.Printf("ingest: sentiment batch failed, defaulting %d articles to neutral: %v", len(pending), err)
		for _, i := range pending {
			articles[i].Sentiment = models.NeutralSentiment()
		}
		return
	}
	for k, i := range pending {
		articles[i].Sentiment = scores[k]
	}
}
