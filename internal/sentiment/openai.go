package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/finwatch/newswire/pkg/models"
)

const classifySystemPrompt = `You are a financial sentiment classifier for news about crypto assets and precious metals.

Score the sentiment of the given text toward the asset it discusses.

Output as JSON only, no other text:
{
  "score": <number between -1 (very negative) and 1 (very positive)>,
  "label": "positive" | "negative" | "neutral",
  "confidence": <number between 0 and 1>
}`

// OpenAIClassifier scores text through the OpenAI chat API. A failed
// call is retried once against the fallback model; batch callers then
// degrade the text to neutral.
type OpenAIClassifier struct {
	client        *openai.Client
	model         string
	fallbackModel string
	batchSize     int
	pause         time.Duration
}

// NewOpenAIClassifier creates the OpenAI-backed classifier.
func NewOpenAIClassifier(apiKey, model, fallbackModel string, batchSize int, pause time.Duration) *OpenAIClassifier {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if batchSize <= 0 {
		batchSize = 5
	}
	return &OpenAIClassifier{
		client:        &client,
		model:         model,
		fallbackModel: fallbackModel,
		batchSize:     batchSize,
		pause:         pause,
	}
}

// Classify scores a single text, trying the primary model and then the
// fallback model once.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	s, err := c.classifyWith(ctx, c.model, text)
	if err == nil {
		return s, nil
	}
	if c.fallbackModel == "" || c.fallbackModel == c.model {
		return models.Sentiment{}, err
	}

	log.Printf("sentiment: model %s failed (%v), retrying with %s", c.model, err, c.fallbackModel)
	s, ferr := c.classifyWith(ctx, c.fallbackModel, text)
	if ferr != nil {
		return models.Sentiment{}, fmt.Errorf("classify failed on both models: %w", ferr)
	}
	return s, nil
}

// ClassifyBatch scores texts in chunks with a short pause between
// chunks to respect upstream rate limits. A text that cannot be
// classified degrades to neutral; the batch itself never fails.
func (c *OpenAIClassifier) ClassifyBatch(ctx context.Context, texts []string) ([]models.Sentiment, error) {
	out := make([]models.Sentiment, len(texts))

	for start := 0; start < len(texts); start += c.batchSize {
		if start > 0 && c.pause > 0 {
			select {
			case <-ctx.Done():
				// Fill the remainder with neutral and stop calling out.
				for i := start; i < len(texts); i++ {
					out[i] = models.NeutralSentiment()
				}
				return out, nil
			case <-time.After(c.pause):
			}
		}

		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		for i := start; i < end; i++ {
			s, err := c.Classify(ctx, texts[i])
			if err != nil {
				log.Printf("sentiment: text %d degraded to neutral: %v", i, err)
				s = models.NeutralSentiment()
			}
			out[i] = s
		}
	}

	return out, nil
}

// classifyWith runs a single classification call against one model.
func (c *OpenAIClassifier) classifyWith(ctx context.Context, model, text string) (models.Sentiment, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifySystemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Sentiment{}, fmt.Errorf("no response from openai")
	}

	return parseSentimentJSON(resp.Choices[0].Message.Content)
}

// parseSentimentJSON decodes the model's JSON reply, tolerating code
// fences and normalizing out-of-range values.
func parseSentimentJSON(content string) (models.Sentiment, error) {
	content = cleanJSONResponse(content)

	var parsed struct {
		Score      float64 `json:"score"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return models.Sentiment{}, fmt.Errorf("failed to parse response: %w, content: %s", err, content)
	}

	s := models.Sentiment{
		Score:      clamp(parsed.Score, -1, 1),
		Label:      strings.ToLower(strings.TrimSpace(parsed.Label)),
		Confidence: clamp(parsed.Confidence, 0, 1),
	}
	switch s.Label {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral:
	default:
		s.Label = labelForScore(s.Score)
	}
	return s, nil
}

// cleanJSONResponse strips markdown code fences some models wrap
// around JSON output.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
