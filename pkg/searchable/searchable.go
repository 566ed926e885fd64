package searchable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// GestureDocument is the flattened record shipped to the search index.
type GestureDocument struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	GestureType string  `json:"gesture_type"`
	Intention   string  `json:"intention"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	Timestamp   string  `json:"timestamp"`
}

// ISearchable indexes processed gestures and serves search over them.
// Indexing is fire-and-forget; a failed index never fails a pipeline.
type ISearchable interface {
	IndexGesture(ctx context.Context, doc GestureDocument) error
	SearchGestures(ctx context.Context, query string, userID string, limit int) ([]map[string]interface{}, error)
	GetAnalytics(ctx context.Context, userID string) (map[string]interface{}, error)
}

type searchableClient struct {
	apiKey     string
	apiURL     string
	indexName  string
	httpClient *http.Client
	log        *logrus.Logger
}

func New(log *logrus.Logger) ISearchable {
	indexName := os.Getenv("SEARCHABLE_INDEX_NAME")
	if indexName == "" {
		indexName = "gestures"
	}

	return &searchableClient{
		apiKey:     os.Getenv("SEARCHABLE_API_KEY"),
		apiURL:     os.Getenv("SEARCHABLE_API_URL"),
		indexName:  indexName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

func (s *searchableClient) IndexGesture(ctx context.Context, doc GestureDocument) error {
	url := fmt.Sprintf("%s/indexes/%s/documents", s.apiURL, s.indexName)

	var result interface{}
	if err := s.post(ctx, url, doc, &result); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"gesture_id": doc.ID,
	}).Debug("Gesture indexed")

	return nil
}

func (s *searchableClient) SearchGestures(ctx context.Context, query string, userID string, limit int) ([]map[string]interface{}, error) {
	url := fmt.Sprintf("%s/indexes/%s/search", s.apiURL, s.indexName)

	filters := map[string]interface{}{}
	if userID != "" {
		filters["user_id"] = userID
	}

	payload := map[string]interface{}{
		"query":   query,
		"filters": filters,
		"limit":   limit,
	}

	var result struct {
		Hits []map[string]interface{} `json:"hits"`
	}
	if err := s.post(ctx, url, payload, &result); err != nil {
		return nil, err
	}

	return result.Hits, nil
}

func (s *searchableClient) GetAnalytics(ctx context.Context, userID string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/indexes/%s/analytics?user_id=%s", s.apiURL, s.indexName, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searchable API error: %s", resp.Status)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *searchableClient) post(ctx context.Context, url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("searchable API error: %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}

	return nil
}
