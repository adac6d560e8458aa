package sentiment

import (
	"context"
	"testing"

	"github.com/finwatch/newswire/pkg/models"
)

func TestLexiconPositive(t *testing.T) {
	s, err := NewLexicon().Classify(context.Background(), "Bitcoin rally continues on strong growth and positive adoption")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Score <= 0 {
		t.Errorf("expected positive score, got %.4f", s.Score)
	}
	if s.Label != models.SentimentPositive {
		t.Errorf("expected positive label, got %s", s.Label)
	}
	if s.Confidence <= 0 {
		t.Errorf("expected positive confidence, got %.4f", s.Confidence)
	}
}

func TestLexiconNegative(t *testing.T) {
	s, err := NewLexicon().Classify(context.Background(), "Crypto crash: prices plunge amid fraud investigation concerns")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Score >= 0 {
		t.Errorf("expected negative score, got %.4f", s.Score)
	}
	if s.Label != models.SentimentNegative {
		t.Errorf("expected negative label, got %s", s.Label)
	}
}

func TestLexiconNoSignalIsNeutral(t *testing.T) {
	s, err := NewLexicon().Classify(context.Background(), "Company announces new office location")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != models.NeutralSentiment() {
		t.Errorf("expected the neutral default, got %+v", s)
	}
}

func TestLexiconScoreBounds(t *testing.T) {
	texts := []string{
		"rally surge bullish breakout upgrade strong growth profit",
		"crash plunge selloff fraud scam liquidation warning decline",
		"",
	}
	for _, text := range texts {
		s, _ := NewLexicon().Classify(context.Background(), text)
		if s.Score < -1 || s.Score > 1 {
			t.Errorf("score out of bounds for %q: %.4f", text, s.Score)
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			t.Errorf("confidence out of bounds for %q: %.4f", text, s.Confidence)
		}
	}
}

func TestLexiconBatchPreservesOrderAndLength(t *testing.T) {
	texts := []string{
		"Bitcoin rally on strong growth",
		"Market crash and selloff",
		"Scheduled maintenance notice",
	}
	out, err := NewLexicon().ClassifyBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(out))
	}
	if out[0].Label != models.SentimentPositive {
		t.Errorf("expected first result positive, got %s", out[0].Label)
	}
	if out[1].Label != models.SentimentNegative {
		t.Errorf("expected second result negative, got %s", out[1].Label)
	}
	if out[2].Label != models.SentimentNeutral {
		t.Errorf("expected third result neutral, got %s", out[2].Label)
	}
}

func TestParseSentimentJSON(t *testing.T) {
	s, err := parseSentimentJSON(`{"score": 0.6, "label": "positive", "confidence": 0.9}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Score != 0.6 || s.Label != models.SentimentPositive || s.Confidence != 0.9 {
		t.Errorf("unexpected result: %+v", s)
	}
}

func TestParseSentimentJSONCodeFence(t *testing.T) {
	s, err := parseSentimentJSON("```json\n{\"score\": -0.4, \"label\": \"negative\", \"confidence\": 0.7}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Label != models.SentimentNegative {
		t.Errorf("unexpected label: %s", s.Label)
	}
}

func TestParseSentimentJSONClampsAndRelabels(t *testing.T) {
	s, err := parseSentimentJSON(`{"score": 3.5, "label": "very bullish", "confidence": 1.7}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Score != 1 {
		t.Errorf("expected score clamped to 1, got %.2f", s.Score)
	}
	if s.Confidence != 1 {
		t.Errorf("expected confidence clamped to 1, got %.2f", s.Confidence)
	}
	if s.Label != models.SentimentPositive {
		t.Errorf("expected unknown label replaced by derived label, got %s", s.Label)
	}
}

func TestParseSentimentJSONMalformed(t *testing.T) {
	if _, err := parseSentimentJSON("the sentiment is positive"); err == nil {
		t.Error("expected error for non-JSON content")
	}
}
