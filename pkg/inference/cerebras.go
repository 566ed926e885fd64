package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// classificationTimeout bounds the inference call so a slow provider cannot
// stall a streaming connection.
const classificationTimeout = 30 * time.Second

type cerebrasClassifier struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewCerebrasClassifier talks to the Cerebras chat completions endpoint,
// which is OpenAI-compatible.
func NewCerebrasClassifier(log *logrus.Logger) IClassifier {
	apiKey := os.Getenv("CEREBRAS_API_KEY")

	baseURL := os.Getenv("CEREBRAS_API_URL")
	if baseURL == "" {
		baseURL = "https://api.cerebras.ai/v1"
	}

	model := os.Getenv("CEREBRAS_MODEL")
	if model == "" {
		model = "llama3.1-8b"
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &cerebrasClassifier{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		breaker: newClassifierBreaker("cerebras", log),
		log:     log,
	}
}

func (c *cerebrasClassifier) ClassifyIntention(ctx context.Context, gestureType string, features []float64, userContext string) (Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, classificationTimeout)
	defer cancel()

	prompt := buildClassificationPrompt(gestureType, features, userContext)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.CreateChatCompletion(
			ctx,
			openai.ChatCompletionRequest{
				Model: c.model,
				Messages: []openai.ChatCompletionMessage{
					{
						Role:    openai.ChatMessageRoleSystem,
						Content: systemInstruction,
					},
					{
						Role:    openai.ChatMessageRoleUser,
						Content: prompt,
					},
				},
				Temperature: 0.3,
				MaxTokens:   150,
			},
		)
	})
	if err != nil {
		return Classification{}, fmt.Errorf("cerebras API error: %w", err)
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return Classification{}, fmt.Errorf("no response from cerebras")
	}

	var classification Classification
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &classification); err != nil {
		return Classification{}, fmt.Errorf("failed to parse classification: %w", err)
	}
	classification.clamp()

	c.log.WithFields(logrus.Fields{
		"intention":  classification.Intention,
		"confidence": classification.Confidence,
	}).Info("Intention classified")

	return classification, nil
}

func newClassifierBreaker(name string, log *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Inference circuit breaker state changed")
		},
	})
}
