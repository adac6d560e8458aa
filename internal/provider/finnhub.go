package provider

import (
	"context"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// Finnhub fetches company news through the Finnhub SDK. Finnhub has
// no free-text search; it is queried by symbol, which the ingestion
// engine places at the start of every query string.
type Finnhub struct {
	client *finnhub.DefaultApiService
}

// NewFinnhub creates a Finnhub provider, or nil when no key is
// configured.
func NewFinnhub(apiKey string) *Finnhub {
	if apiKey == "" {
		return nil
	}
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	return &Finnhub{client: finnhub.NewAPIClient(cfg).DefaultApi}
}

// Name returns the provider name.
func (p *Finnhub) Name() string { return "Finnhub" }

// symbolFromQuery extracts the leading symbol token from a query
// string.
func symbolFromQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// Search fetches recent company news for the query's symbol.
func (p *Finnhub) Search(ctx context.Context, query, _ string, maxResults int) ([]RawArticle, error) {
	symbol := symbolFromQuery(query)
	if symbol == "" {
		return nil, nil
	}

	now := time.Now()
	res, _, err := p.client.CompanyNews(ctx).
		Symbol(symbol).
		From(now.AddDate(0, 0, -7).Format("2006-01-02")).
		To(now.Format("2006-01-02")).
		Execute()
	if err != nil {
		return nil, mapFinnhubError(err)
	}

	articles := make([]RawArticle, 0, len(res))
	for _, n := range res {
		a := RawArticle{Source: p.Name()}
		if n.Headline != nil {
			a.Title = *n.Headline
		}
		if n.Summary != nil {
			a.Description = *n.Summary
		}
		if n.Url != nil {
			a.URL = *n.Url
		}
		if n.Image != nil {
			a.ImageURL = *n.Image
		}
		if n.Source != nil {
			a.Source = *n.Source
		}
		if n.Datetime != nil {
			a.PublishedAt = time.Unix(*n.Datetime, 0)
		}
		if a.URL == "" || a.Title == "" {
			continue
		}
		articles = append(articles, a)
		if maxResults > 0 && len(articles) >= maxResults {
			break
		}
	}
	return articles, nil
}

// mapFinnhubError translates SDK errors into the sentinel errors the
// engine logs distinctly.
func mapFinnhubError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"):
		return ErrRateLimited
	case strings.Contains(msg, "401"):
		return ErrUnauthorized
	default:
		return err
	}
}
