package ingest

import (
	"fmt"
	"strings"

	"github.com/finwatch/newswire/pkg/models"
)

// domainKeywords is the fixed vocabulary that raises an article's
// relevance score.
var domainKeywords = []string{
	"price", "market", "trading", "investment", "analysis", "forecast",
}

// relevanceScore rates how relevant an article is to an asset:
// 0.5 base when the asset name appears in title+description
// (case-insensitive), plus 0.1 per domain keyword, capped at 1.0.
func relevanceScore(asset models.Asset, title, description string) float64 {
	text := strings.ToLower(title + " " + description)

	score := 0.0
	if strings.Contains(text, strings.ToLower(asset.DisplayName())) {
		score = 0.5
	}
	for _, kw := range domainKeywords {
		if strings.Contains(text, kw) {
			score += 0.1
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// buildQuery renders the provider query for an asset. The symbol leads
// the query string; providers that are symbol-keyed rely on that.
// Category-specific keywords narrow the search toward financial
// coverage.
func buildQuery(asset models.Asset) string {
	base := asset.Symbol
	if asset.Name != "" && !strings.EqualFold(asset.Name, asset.Symbol) {
		base += " " + asset.Name
	}

	switch asset.Category {
	case models.CategoryCrypto:
		return base + " crypto market finance"
	case models.CategoryMetal:
		return base + " price trading commodity"
	default:
		return base
	}
}

// cacheKey is the per-asset result cache key.
func cacheKey(asset models.Asset) string {
	return fmt.Sprintf("news:%s:%s", asset.Category, asset.Symbol)
}
