package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPI fetches articles from newsapi.org.
type NewsAPI struct {
	apiKey  string
	baseURL string
}

// NewNewsAPI creates a NewsAPI provider, or nil when no key is
// configured.
func NewNewsAPI(apiKey string) *NewsAPI {
	if apiKey == "" {
		return nil
	}
	return &NewsAPI{apiKey: apiKey, baseURL: newsAPIBaseURL}
}

// Name returns the provider name.
func (p *NewsAPI) Name() string { return "NewsAPI" }

// newsAPIResponse mirrors the newsapi.org /v2/everything payload.
type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string    `json:"author"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
		PublishedAt time.Time `json:"publishedAt"`
		Content     string    `json:"content"`
	} `json:"articles"`
}

// Search queries newsapi.org sorted by publish time.
func (p *NewsAPI) Search(ctx context.Context, query, language string, maxResults int) ([]RawArticle, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("language", language)
	q.Set("pageSize", fmt.Sprintf("%d", maxResults))
	q.Set("sortBy", "publishedAt")
	q.Set("apiKey", p.apiKey)

	body, err := doGet(ctx, p.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp newsAPIResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode NewsAPI response: %w", err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI error: %s", resp.Message)
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
			Author:      a.Author,
			PublishedAt: a.PublishedAt,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
		})
	}
	return articles, nil
}
