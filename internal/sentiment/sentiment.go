// Package sentiment classifies article text on a -1..+1 scale. Two
// backends exist: an OpenAI-backed classifier with a fallback-model
// attempt, and an offline keyword-lexicon scorer that needs no
// credentials.
package sentiment

import (
	"context"

	"github.com/finwatch/newswire/pkg/models"
)

// Classifier scores free text. ClassifyBatch preserves input order and
// length; implementations substitute a neutral default for texts that
// cannot be classified rather than failing the batch.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.Sentiment, error)
	ClassifyBatch(ctx context.Context, texts []string) ([]models.Sentiment, error)
}

// labelForScore derives a label from a score when the backend does not
// supply a usable one.
func labelForScore(score float64) string {
	switch {
	case score > 0.15:
		return models.SentimentPositive
	case score < -0.15:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
