package gesture

import "time"

// StreamFrame is one inbound websocket frame: a single gesture submission.
type StreamFrame struct {
	UserID      string                 `json:"user_id" validate:"required"`
	GestureType string                 `json:"gesture_type" validate:"required"`
	Data        map[string]interface{} `json:"data"`
}

// StreamResponse is the frame sent back after the pipeline completes.
type StreamResponse struct {
	GestureID        string  `json:"gesture_id"`
	Intention        string  `json:"intention"`
	Confidence       float64 `json:"confidence"`
	Text             string  `json:"text"`
	AudioURL         string  `json:"audio_url"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

type ProcessGestureRequest struct {
	GestureType string                 `json:"gesture_type" validate:"required"`
	Data        map[string]interface{} `json:"data"`
}

type GestureResponse struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id"`
	GestureType      string                 `json:"gesture_type"`
	Intention        string                 `json:"intention"`
	Confidence       float64                `json:"confidence"`
	GeneratedText    string                 `json:"generated_text"`
	AudioURL         string                 `json:"audio_url"`
	ProcessingTimeMs float64                `json:"processing_time_ms"`
	RawData          map[string]interface{} `json:"raw_data,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

type GestureHistoryResponse struct {
	Gestures []GestureResponse `json:"gestures"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type RegisterIntentionRequest struct {
	Intention string `json:"intention" validate:"required,min=1,max=64"`
	Text      string `json:"text" validate:"required,min=1,max=255"`
}

type IntentionsResponse struct {
	Intentions map[string]string `json:"intentions"`
}

type SearchResponse struct {
	Hits []map[string]interface{} `json:"hits"`
}
