package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type ITTS interface {
	GenerateAudio(ctx context.Context, text string, voiceID string) ([]byte, error)
	DefaultVoiceID() string
}

type ttsClient struct {
	apiKey         string
	baseURL        string
	modelID        string
	defaultVoiceID string
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker
}

func New(log *logrus.Logger) ITTS {
	baseURL := os.Getenv("ELEVENLABS_API_URL")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}

	modelID := os.Getenv("ELEVENLABS_MODEL")
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}

	return &ttsClient{
		apiKey:         os.Getenv("ELEVENLABS_API_KEY"),
		baseURL:        baseURL,
		modelID:        modelID,
		defaultVoiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "elevenlabs",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("TTS circuit breaker state changed")
			},
		}),
	}
}

func (tts *ttsClient) DefaultVoiceID() string {
	return tts.defaultVoiceID
}

func (tts *ttsClient) GenerateAudio(ctx context.Context, text string, voiceID string) ([]byte, error) {
	url := fmt.Sprintf("%s/text-to-speech/%s", tts.baseURL, voiceID)

	requestBody := map[string]interface{}{
		"text":     text,
		"model_id": tts.modelID,
		"voice_settings": map[string]interface{}{
			"stability":         0.5,
			"similarity_boost":  0.8,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	audio, err := tts.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "audio/mpeg")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("xi-api-key", tts.apiKey)

		resp, err := tts.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ElevenLabs API error: %s", resp.Status)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	return audio.([]byte), nil
}
