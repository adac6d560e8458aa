// Package models defines the core data types shared across the
// application: watched assets, canonical news articles, sentiment
// scores, and summary statistics.
package models

import "time"

// AssetCategory classifies a watched asset. The set is closed; an
// article that cannot be attributed to a category carries the empty
// string.
type AssetCategory string

const (
	CategoryCrypto AssetCategory = "crypto"
	CategoryMetal  AssetCategory = "metal"
)

// Asset is an entry in the watchlist that drives provider queries.
type Asset struct {
	Symbol   string        `mapstructure:"symbol"   json:"symbol"`
	Name     string        `mapstructure:"name"     json:"name"`
	Category AssetCategory `mapstructure:"category" json:"category"`
}

// DisplayName returns the human-readable asset name, falling back to
// the symbol when no name is configured.
func (a Asset) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Symbol
}

// Sentiment label values.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Sentiment is a classification of free text on a -1..+1 scale.
type Sentiment struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// NeutralSentiment is the safe default used when classification fails.
func NeutralSentiment() Sentiment {
	return Sentiment{Score: 0, Label: SentimentNeutral, Confidence: 0.33}
}

// Article is the canonical internal representation of a news item.
// The URL is the unique identity: two fetches yielding the same URL
// refer to the same real-world article regardless of which provider
// or asset query produced them.
type Article struct {
	ID             int64         `json:"id,omitempty"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Content        string        `json:"content,omitempty"`
	Source         string        `json:"source"`
	Author         string        `json:"author,omitempty"`
	PublishedAt    time.Time     `json:"publishedAt"`
	URL            string        `json:"url"`
	ImageURL       string        `json:"imageUrl,omitempty"`
	RelatedAssets  []string      `json:"relatedAssets"`
	AssetCategory  AssetCategory `json:"assetCategory,omitempty"`
	Sentiment      Sentiment     `json:"sentiment"`
	RelevanceScore float64       `json:"relevanceScore"`
}

// SentimentBreakdown counts articles per sentiment label.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Summary holds aggregate statistics over the stored article set,
// broadcast to subscribers after each ingestion cycle.
type Summary struct {
	TotalArticles      int                `json:"totalArticles"`
	CountsByCategory   map[string]int     `json:"countsByCategory"`
	SentimentBreakdown SentimentBreakdown `json:"sentimentBreakdown"`
	TopAssets          []string           `json:"topAssets"`
}
