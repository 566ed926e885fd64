package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

type geminiClassifier struct {
	client    *genai.Client
	modelName string
	log       *logrus.Logger
}

// NewGeminiClassifier is the alternate inference provider, selected with
// INFERENCE_PROVIDER=gemini. Same contract as the Cerebras client.
func NewGeminiClassifier(log *logrus.Logger) (IClassifier, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClassifier{
		client:    client,
		modelName: modelName,
		log:       log,
	}, nil
}

func (g *geminiClassifier) ClassifyIntention(ctx context.Context, gestureType string, features []float64, userContext string) (Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, classificationTimeout)
	defer cancel()

	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(150)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	prompt := buildClassificationPrompt(gestureType, features, userContext)

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Classification{}, fmt.Errorf("gemini API error: %w", err)
	}

	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return Classification{}, errors.New("no response from gemini")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return Classification{}, errors.New("unexpected response format from gemini")
	}

	var classification Classification
	if err := json.Unmarshal([]byte(stripCodeFence(string(text))), &classification); err != nil {
		return Classification{}, fmt.Errorf("failed to parse classification: %w", err)
	}
	classification.clamp()

	g.log.WithFields(logrus.Fields{
		"intention":  classification.Intention,
		"confidence": classification.Confidence,
	}).Info("Intention classified")

	return classification, nil
}

// Gemini wraps JSON replies in markdown fences even when told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
