// Package store persists canonical articles in PostgreSQL, keyed
// uniquely by URL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/finwatch/newswire/pkg/models"
)

// ArticleStore is the PostgreSQL-backed canonical article store.
type ArticleStore struct {
	db *sql.DB
}

// New creates an article store over the given database.
func New(db *sql.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// EnsureSchema creates the articles table if it does not exist.
func (s *ArticleStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS articles (
			id                   BIGSERIAL PRIMARY KEY,
			title                TEXT NOT NULL,
			description          TEXT NOT NULL DEFAULT '',
			content              TEXT NOT NULL DEFAULT '',
			source               TEXT NOT NULL DEFAULT '',
			author               TEXT NOT NULL DEFAULT '',
			published_at         TIMESTAMPTZ NOT NULL,
			url                  TEXT NOT NULL UNIQUE,
			image_url            TEXT NOT NULL DEFAULT '',
			related_assets       TEXT[] NOT NULL DEFAULT '{}',
			asset_category       TEXT NOT NULL DEFAULT '',
			sentiment_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
			sentiment_label      TEXT NOT NULL DEFAULT 'neutral',
			sentiment_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			relevance_score      DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create articles table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles (published_at DESC)
	`)
	return err
}

const articleColumns = `
	id, title, description, content, source, author, published_at, url,
	image_url, related_assets, asset_category,
	sentiment_score, sentiment_label, sentiment_confidence, relevance_score`

// scanArticle reads one article row.
func scanArticle(row interface{ Scan(dest ...any) error }) (*models.Article, error) {
	var a models.Article
	var related pq.StringArray
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.Content, &a.Source, &a.Author,
		&a.PublishedAt, &a.URL, &a.ImageURL, &related, &a.AssetCategory,
		&a.Sentiment.Score, &a.Sentiment.Label, &a.Sentiment.Confidence,
		&a.RelevanceScore,
	)
	if err != nil {
		return nil, err
	}
	a.RelatedAssets = []string(related)
	return &a, nil
}

// FindByURL returns the article with the given URL, or nil when the
// URL has never been seen.
func (s *ArticleStore) FindByURL(ctx context.Context, url string) (*models.Article, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE url = $1
	`, url))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by url: %w", err)
	}
	return a, nil
}

// UpsertByURL inserts the article or, when the URL already exists,
// refreshes its stored fields. The article's ID is populated either way.
func (s *ArticleStore) UpsertByURL(ctx context.Context, a *models.Article) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO articles (
			title, description, content, source, author, published_at, url,
			image_url, related_assets, asset_category,
			sentiment_score, sentiment_label, sentiment_confidence, relevance_score,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			content = EXCLUDED.content,
			source = EXCLUDED.source,
			author = EXCLUDED.author,
			published_at = EXCLUDED.published_at,
			image_url = EXCLUDED.image_url,
			related_assets = EXCLUDED.related_assets,
			asset_category = EXCLUDED.asset_category,
			sentiment_score = EXCLUDED.sentiment_score,
			sentiment_label = EXCLUDED.sentiment_label,
			sentiment_confidence = EXCLUDED.sentiment_confidence,
			relevance_score = EXCLUDED.relevance_score,
			updated_at = now()
		RETURNING id
	`,
		a.Title, a.Description, a.Content, a.Source, a.Author, a.PublishedAt,
		a.URL, a.ImageURL, pq.Array(a.RelatedAssets), string(a.AssetCategory),
		a.Sentiment.Score, a.Sentiment.Label, a.Sentiment.Confidence,
		a.RelevanceScore,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("upsert by url: %w", err)
	}
	return nil
}

// FindRecent returns up to limit articles ordered by publish time
// descending.
func (s *ArticleStore) FindRecent(ctx context.Context, limit int) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		ORDER BY published_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("find recent: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// Filter narrows FindByFilter results. Zero values mean "no filter".
type Filter struct {
	Category  string
	Asset     string
	Sentiment string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// buildFilterWhere renders the WHERE clause and argument list for a
// filter. Exposed within the package for testing.
func buildFilterWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Category != "" {
		add("asset_category = $%d", f.Category)
	}
	if f.Asset != "" {
		add("$%d = ANY(related_assets)", f.Asset)
	}
	if f.Sentiment != "" {
		add("sentiment_label = $%d", f.Sentiment)
	}
	if !f.From.IsZero() {
		add("published_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("published_at <= $%d", f.To)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// FindByFilter returns articles matching the filter, newest first,
// along with the total match count ignoring limit/offset.
func (s *ArticleStore) FindByFilter(ctx context.Context, f Filter) ([]models.Article, int, error) {
	where, args := buildFilterWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("filter count: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM articles
		%s
		ORDER BY published_at DESC
		LIMIT $%d OFFSET $%d
	`, articleColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("filter query: %w", err)
	}
	defer rows.Close()

	items, err := collectArticles(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Stats aggregates summary statistics over the stored article set.
func (s *ArticleStore) Stats(ctx context.Context) (*models.Summary, error) {
	sum := &models.Summary{CountsByCategory: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles`,
	).Scan(&sum.TotalArticles); err != nil {
		return nil, fmt.Errorf("stats total: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT asset_category, COUNT(*)
		FROM articles
		WHERE asset_category <> ''
		GROUP BY asset_category
	`)
	if err != nil {
		return nil, fmt.Errorf("stats categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		sum.CountsByCategory[cat] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srows, err := s.db.QueryContext(ctx, `
		SELECT sentiment_label, COUNT(*)
		FROM articles
		GROUP BY sentiment_label
	`)
	if err != nil {
		return nil, fmt.Errorf("stats sentiment: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var label string
		var n int
		if err := srows.Scan(&label, &n); err != nil {
			return nil, err
		}
		switch label {
		case models.SentimentPositive:
			sum.SentimentBreakdown.Positive = n
		case models.SentimentNegative:
			sum.SentimentBreakdown.Negative = n
		case models.SentimentNeutral:
			sum.SentimentBreakdown.Neutral = n
		}
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}

	arows, err := s.db.QueryContext(ctx, `
		SELECT asset, COUNT(*) AS n
		FROM articles, unnest(related_assets) AS asset
		GROUP BY asset
		ORDER BY n DESC, asset ASC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("stats top assets: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var asset string
		var n int
		if err := arows.Scan(&asset, &n); err != nil {
			return nil, err
		}
		sum.TopAssets = append(sum.TopAssets, asset)
	}
	if err := arows.Err(); err != nil {
		return nil, err
	}

	return sum, nil
}

// collectArticles drains rows into a slice.
func collectArticles(rows *sql.Rows) ([]models.Article, error) {
	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
