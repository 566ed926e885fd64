package inference

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New picks the inference provider from INFERENCE_PROVIDER. Cerebras is the
// default; gemini requires a configured API key and falls back on error.
func New(log *logrus.Logger) IClassifier {
	if os.Getenv("INFERENCE_PROVIDER") == "gemini" {
		classifier, err := NewGeminiClassifier(log)
		if err == nil {
			return classifier
		}
		log.Errorf("Failed to create Gemini classifier, falling back to Cerebras: %v", err)
	}

	return NewCerebrasClassifier(log)
}
