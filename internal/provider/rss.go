package provider

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// RSS serves queries from a configured set of RSS feeds. It needs no
// credentials, so it only participates in the chain when feeds are
// explicitly configured.
type RSS struct {
	feeds   []string
	parser  *gofeed.Parser
	limiter *RateLimiter
}

// NewRSS creates an RSS provider over the given feed URLs, or nil when
// no feeds are configured.
func NewRSS(feeds []string) *RSS {
	if len(feeds) == 0 {
		return nil
	}
	return &RSS{
		feeds:   feeds,
		parser:  gofeed.NewParser(),
		limiter: NewRateLimiter(2, time.Second), // conservative: 2 req/s
	}
}

// Name returns the provider name.
func (p *RSS) Name() string { return "RSS" }

// Search fetches every configured feed and keeps items matching any
// query token. A failed feed is skipped, not fatal.
func (p *RSS) Search(ctx context.Context, query, _ string, maxResults int) ([]RawArticle, error) {
	tokens := queryTokens(query)

	var matched []RawArticle
	for _, feedURL := range p.feeds {
		if err := p.limiter.Wait(ctx); err != nil {
			return matched, err
		}

		feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			// Non-critical: skip failed feeds.
			continue
		}

		source := feed.Title
		for _, item := range feed.Items {
			if item.Link == "" || item.Title == "" {
				continue
			}
			desc := cleanHTML(item.Description)
			if !matchesAny(item.Title+" "+desc, tokens) {
				continue
			}

			a := RawArticle{
				Title:       item.Title,
				Description: desc,
				Source:      source,
				URL:         item.Link,
			}
			if item.Author != nil {
				a.Author = item.Author.Name
			}
			if item.PublishedParsed != nil {
				a.PublishedAt = *item.PublishedParsed
			}
			if item.Image != nil {
				a.ImageURL = item.Image.URL
			}
			matched = append(matched, a)
			if maxResults > 0 && len(matched) >= maxResults {
				return matched, nil
			}
		}
	}
	return matched, nil
}

// queryTokens splits a query into lowercase match tokens, dropping
// single-character noise.
func queryTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// matchesAny checks if text contains any of the keywords (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
