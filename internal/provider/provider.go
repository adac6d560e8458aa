// Package provider normalizes raw articles from heterogeneous news
// providers into a single shape. Providers sit behind a fixed priority
// chain: the first provider with credentials configured serves every
// query; the others are unused fallbacks for when its credential is
// removed.
package provider

import (
	"context"
	"fmt"
	"time"
)

// RawArticle is the provider-side article shape before normalization
// into a canonical article.
type RawArticle struct {
	Title       string
	Description string
	Content     string
	Source      string
	Author      string
	PublishedAt time.Time
	URL         string
	ImageURL    string
}

// Searcher is the contract every news provider implements.
type Searcher interface {
	// Name returns the human-readable provider name.
	Name() string

	// Search returns articles matching the free-text query. Rate-limit
	// and auth failures surface as ErrRateLimited / ErrUnauthorized so
	// callers can log them distinctly.
	Search(ctx context.Context, query, language string, maxResults int) ([]RawArticle, error)
}

// --- Sentinel errors ---

// ErrRateLimited is returned when a provider rate-limits the request.
var ErrRateLimited = fmt.Errorf("rate limited by news provider")

// ErrUnauthorized is returned when a provider rejects the credentials.
var ErrUnauthorized = fmt.Errorf("news provider rejected credentials")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Chain selects the first configured provider at construction time.
// A runtime fault from the selected provider is NOT retried against
// the others; the caller treats it as an empty result for that query.
type Chain struct {
	primary Searcher
}

// NewChain builds a chain from providers in priority order, skipping
// nil entries (providers whose credentials are not configured).
func NewChain(providers ...Searcher) *Chain {
	for _, p := range providers {
		if p != nil {
			return &Chain{primary: p}
		}
	}
	return &Chain{}
}

// Enabled reports whether any provider is configured.
func (c *Chain) Enabled() bool {
	return c.primary != nil
}

// Name returns the selected provider's name, or "none".
func (c *Chain) Name() string {
	if c.primary == nil {
		return "none"
	}
	return c.primary.Name()
}

// Search delegates to the selected provider. With no provider
// configured it returns an empty result, not an error.
func (c *Chain) Search(ctx context.Context, query, language string, maxResults int) ([]RawArticle, error) {
	if c.primary == nil {
		return nil, nil
	}
	return c.primary.Search(ctx, query, language, maxResults)
}
