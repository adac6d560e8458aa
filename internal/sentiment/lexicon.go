package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/finwatch/newswire/pkg/models"
)

// ------------------------------------------------------------------
// Keyword-based sentiment scorer (offline, no LLM needed). Used as
// the default backend when no OpenAI key is configured.
// ------------------------------------------------------------------

// bullish / bearish keyword dictionaries (lowercase).
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"buy": 0.5, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"gains": 0.5, "climbs": 0.5, "adoption": 0.4, "expansion": 0.4,
	"profit": 0.3, "accumulate": 0.5,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "loss": 0.4,
	"selloff": 0.7, "fall": 0.4, "correction": 0.5,
	"fraud": 0.8, "scam": 0.8, "investigation": 0.5, "hack": 0.7,
	"cut": 0.3, "warning": 0.5, "concern": 0.3, "liquidation": 0.6,
}

// Lexicon scores text against the keyword dictionaries.
type Lexicon struct{}

// NewLexicon creates the offline classifier.
func NewLexicon() *Lexicon { return &Lexicon{} }

// Classify scores a single text. Texts with no keyword signal come
// back neutral with the standard low confidence.
func (l *Lexicon) Classify(_ context.Context, text string) (models.Sentiment, error) {
	lower := strings.ToLower(text)

	bullScore := 0.0
	bearScore := 0.0
	matches := 0

	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bullScore += weight
			matches++
		}
	}
	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bearScore += weight
			matches++
		}
	}

	if matches == 0 || bullScore+bearScore == 0 {
		return models.NeutralSentiment(), nil
	}

	// Net score normalized to -1..+1.
	score := (bullScore - bearScore) / (bullScore + bearScore)

	// Confidence based on number of keyword matches.
	confidence := math.Min(float64(matches)*0.15+0.2, 0.85)

	return models.Sentiment{
		Score:      score,
		Label:      labelForScore(score),
		Confidence: confidence,
	}, nil
}

// ClassifyBatch scores each text in order.
func (l *Lexicon) ClassifyBatch(ctx context.Context, texts []string) ([]models.Sentiment, error) {
	out := make([]models.Sentiment, len(texts))
	for i, text := range texts {
		s, err := l.Classify(ctx, text)
		if err != nil {
			s = models.NeutralSentiment()
		}
		out[i] = s
	}
	return out, nil
}
