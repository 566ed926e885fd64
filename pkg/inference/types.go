package inference

import (
	"context"
	"fmt"
	"strings"
)

// Classification is produced exactly once per gesture and never mutated
// afterward. Text, when non-empty, is the provider's suggested utterance and
// overrides the static intention table.
type Classification struct {
	Intention  string  `json:"intention"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

// clamp pins provider-supplied confidence into [0, 1]; models occasionally
// report values outside the range they were asked for.
func (c *Classification) clamp() {
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
}

// IClassifier maps a gesture's feature vector to a communication intention.
// Implementations do not retry; the caller collapses any error to Sentinel.
type IClassifier interface {
	ClassifyIntention(ctx context.Context, gestureType string, features []float64, userContext string) (Classification, error)
}

// Sentinel is the degraded classification used when the inference provider
// is unreachable or returns garbage. The pipeline still completes with it.
func Sentinel() Classification {
	return Classification{
		Intention:  "unknown",
		Confidence: 0.0,
		Text:       "Unable to process gesture",
	}
}

const systemInstruction = "You are an AI that classifies gesture intentions for assistive communication. Respond with JSON only."

func buildClassificationPrompt(gestureType string, features []float64, userContext string) string {
	if userContext == "" {
		userContext = "None"
	}

	parts := make([]string, 0, len(features))
	for _, f := range features {
		parts = append(parts, fmt.Sprintf("%g", f))
	}

	return fmt.Sprintf(`Classify this gesture into a communication intention:

Gesture Type: %s
Features: [%s]
Context: %s

Common intentions:
- "yes" / "no" / "maybe"
- "help" / "stop" / "continue"
- "hello" / "goodbye"
- "thank_you" / "please"
- "pain" / "discomfort" / "comfortable"
- "hungry" / "thirsty"
- "tired" / "alert"

Respond with JSON:
{
  "intention": "the_intention",
  "confidence": 0.0-1.0,
  "text": "Natural language text to speak"
}`, gestureType, strings.Join(parts, ", "), userContext)
}
