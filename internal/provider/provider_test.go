package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChainPicksFirstConfigured(t *testing.T) {
	// First slot unconfigured, second and third configured.
	b := NewGNews("key-b")
	c := NewFinnhub("key-c")

	chain := NewChain(nil, b, c)
	if !chain.Enabled() {
		t.Fatal("expected chain to be enabled")
	}
	if chain.Name() != "GNews" {
		t.Errorf("expected GNews selected, got %s", chain.Name())
	}
}

func TestChainEmptyConfiguration(t *testing.T) {
	chain := NewChain(nil, nil, nil)
	if chain.Enabled() {
		t.Fatal("expected chain disabled with no providers")
	}
	if chain.Name() != "none" {
		t.Errorf("expected name none, got %s", chain.Name())
	}

	articles, err := chain.Search(context.Background(), "bitcoin", "en", 10)
	if err != nil {
		t.Fatalf("empty chain must not error, got %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("expected empty result, got %d articles", len(articles))
	}
}

func TestNewsAPISearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "bitcoin market" {
			t.Errorf("unexpected query: %q", got)
		}
		if got := r.URL.Query().Get("language"); got != "en" {
			t.Errorf("unexpected language: %q", got)
		}
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{
					"source": {"name": "CoinDesk"},
					"author": "A. Writer",
					"title": "Bitcoin climbs",
					"description": "BTC is up",
					"url": "https://example.com/btc",
					"urlToImage": "https://example.com/btc.png",
					"publishedAt": "2025-08-01T10:00:00Z",
					"content": "Full text"
				},
				{"title": "", "url": "https://example.com/skipped"}
			]
		}`))
	}))
	defer srv.Close()

	p := NewNewsAPI("test-key")
	p.baseURL = srv.URL

	articles, err := p.Search(context.Background(), "bitcoin market", "en", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article (titleless one skipped), got %d", len(articles))
	}
	a := articles[0]
	if a.Title != "Bitcoin climbs" || a.Source != "CoinDesk" || a.URL != "https://example.com/btc" {
		t.Errorf("unexpected article: %+v", a)
	}
}

func TestNewsAPIRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewNewsAPI("test-key")
	p.baseURL = srv.URL

	_, err := p.Search(context.Background(), "gold", "en", 10)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestNewsAPIUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewNewsAPI("bad-key")
	p.baseURL = srv.URL

	_, err := p.Search(context.Background(), "gold", "en", 10)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGNewsSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("lang"); got != "en" {
			t.Errorf("unexpected lang: %q", got)
		}
		w.Write([]byte(`{
			"totalArticles": 1,
			"articles": [{
				"title": "Gold steadies",
				"description": "XAU flat",
				"content": "Full text",
				"url": "https://example.com/gold",
				"image": "https://example.com/gold.png",
				"publishedAt": "2025-08-02T08:30:00Z",
				"source": {"name": "Reuters", "url": "https://reuters.com"}
			}]
		}`))
	}))
	defer srv.Close()

	p := NewGNews("test-key")
	p.baseURL = srv.URL

	articles, err := p.Search(context.Background(), "gold price", "en", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Source != "Reuters" || articles[0].ImageURL != "https://example.com/gold.png" {
		t.Errorf("unexpected article: %+v", articles[0])
	}
}

func TestSymbolFromQuery(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"BTC Bitcoin crypto market finance", "BTC"},
		{"xau Gold price trading", "XAU"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := symbolFromQuery(tc.query); got != tc.want {
			t.Errorf("symbolFromQuery(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestRSSSearchFiltersAndCleans(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <title>Test Wire</title>
  <item>
    <title>Bitcoin hits new high</title>
    <link>https://example.com/rss-btc</link>
    <description>&lt;p&gt;BTC &lt;b&gt;rallies&lt;/b&gt; today&lt;/p&gt;</description>
  </item>
  <item>
    <title>Local sports roundup</title>
    <link>https://example.com/rss-sports</link>
    <description>Nothing financial here</description>
  </item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	p := NewRSS([]string{srv.URL})
	articles, err := p.Search(context.Background(), "BTC Bitcoin crypto", "en", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 matching item, got %d", len(articles))
	}
	if articles[0].Description != "BTC rallies today" {
		t.Errorf("expected HTML stripped, got %q", articles[0].Description)
	}
	if articles[0].Source != "Test Wire" {
		t.Errorf("unexpected source: %q", articles[0].Source)
	}
}

func TestNewRSSWithoutFeedsIsNil(t *testing.T) {
	if p := NewRSS(nil); p != nil {
		t.Error("expected nil provider with no feeds")
	}
}
