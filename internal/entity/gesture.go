package entity

import "time"

// GestureRecord is the persisted aggregate for one fully processed gesture.
// Created once after the pipeline completes; immutable except for deletion
// by the owning user.
type GestureRecord struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id"`
	GestureType      string                 `json:"gesture_type"`
	RawData          map[string]interface{} `json:"raw_data"`
	Features         []float64              `json:"features"`
	Intention        string                 `json:"intention"`
	ConfidenceScore  float64                `json:"confidence_score"`
	GeneratedText    string                 `json:"generated_text"`
	AudioURL         string                 `json:"audio_url"`
	ProcessingTimeMs float64                `json:"processing_time_ms"`
	CreatedAt        time.Time              `json:"created_at"`
}
