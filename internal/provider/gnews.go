package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const gnewsBaseURL = "https://gnews.io/api/v4/search"

// GNews fetches articles from gnews.io.
type GNews struct {
	apiKey  string
	baseURL string
}

// NewGNews creates a GNews provider, or nil when no key is configured.
func NewGNews(apiKey string) *GNews {
	if apiKey == "" {
		return nil
	}
	return &GNews{apiKey: apiKey, baseURL: gnewsBaseURL}
}

// Name returns the provider name.
func (p *GNews) Name() string { return "GNews" }

// gnewsResponse mirrors the gnews.io /api/v4/search payload.
type gnewsResponse struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Content     string    `json:"content"`
		URL         string    `json:"url"`
		Image       string    `json:"image"`
		PublishedAt time.Time `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"source"`
	} `json:"articles"`
}

// Search queries gnews.io.
func (p *GNews) Search(ctx context.Context, query, language string, maxResults int) ([]RawArticle, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("lang", language)
	q.Set("max", fmt.Sprintf("%d", maxResults))
	q.Set("apikey", p.apiKey)

	body, err := doGet(ctx, p.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp gnewsResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode GNews response: %w", err)
	}

	articles := make([]RawArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		articles = append(articles, RawArticle{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			URL:         a.URL,
			ImageURL:    a.Image,
		})
	}
	return articles, nil
}
