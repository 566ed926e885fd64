package preprocessor

import "encoding/json"

// Normalization never fails: absent fields are defaulted so a malformed
// gesture is still processed. Validate is advisory only, used for logging.

type Handler interface {
	Normalize(raw map[string]interface{}) map[string]interface{}
	ExtractFeatures(normalized map[string]interface{}) []float64
	RequiredFields() []string
}

type IPreprocessor interface {
	Normalize(gestureType string, raw map[string]interface{}) map[string]interface{}
	ExtractFeatures(gestureType string, normalized map[string]interface{}) []float64
	Validate(gestureType string, raw map[string]interface{}) bool
}

type preprocessor struct {
	handlers map[string]Handler
}

func New() IPreprocessor {
	return &preprocessor{
		handlers: map[string]Handler{
			"blink":         &blinkHandler{},
			"tap":           &tapHandler{},
			"micro_gesture": &microGestureHandler{},
		},
	}
}

func (p *preprocessor) Normalize(gestureType string, raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		raw = map[string]interface{}{}
	}

	handler, ok := p.handlers[gestureType]
	if !ok {
		// Unknown types pass through unchanged.
		return raw
	}

	return handler.Normalize(raw)
}

func (p *preprocessor) ExtractFeatures(gestureType string, normalized map[string]interface{}) []float64 {
	handler, ok := p.handlers[gestureType]
	if !ok {
		return []float64{}
	}

	return handler.ExtractFeatures(normalized)
}

func (p *preprocessor) Validate(gestureType string, raw map[string]interface{}) bool {
	if len(raw) == 0 {
		return false
	}

	handler, ok := p.handlers[gestureType]
	if !ok {
		return true
	}

	for _, field := range handler.RequiredFields() {
		if _, present := raw[field]; !present {
			return false
		}
	}

	return true
}

type blinkHandler struct{}

func (h *blinkHandler) Normalize(raw map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"duration_ms": numberField(raw, "duration", 0),
		"intensity":   numberField(raw, "intensity", 0.5),
		"eye":         stringField(raw, "eye", "both"), // left, right, both
		"timestamp":   numberField(raw, "timestamp", 0),
	}
}

func (h *blinkHandler) ExtractFeatures(normalized map[string]interface{}) []float64 {
	eyeSignal := 0.5
	if stringField(normalized, "eye", "both") == "both" {
		eyeSignal = 1.0
	}

	return []float64{
		numberField(normalized, "duration_ms", 0) / 1000.0,
		numberField(normalized, "intensity", 0.5),
		eyeSignal,
	}
}

func (h *blinkHandler) RequiredFields() []string {
	return []string{"duration", "timestamp"}
}

type tapHandler struct{}

func (h *tapHandler) Normalize(raw map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"tap_count":   numberField(raw, "count", 1),
		"interval_ms": numberField(raw, "interval", 0),
		"pressure":    numberField(raw, "pressure", 0.5),
		"location":    stringField(raw, "location", "unknown"),
		"timestamp":   numberField(raw, "timestamp", 0),
	}
}

func (h *tapHandler) ExtractFeatures(normalized map[string]interface{}) []float64 {
	return []float64{
		numberField(normalized, "tap_count", 1),
		numberField(normalized, "interval_ms", 0) / 1000.0,
		numberField(normalized, "pressure", 0.5),
	}
}

func (h *tapHandler) RequiredFields() []string {
	return []string{"count", "timestamp"}
}

type microGestureHandler struct{}

func (h *microGestureHandler) Normalize(raw map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"gesture_name": stringField(raw, "name", "unknown"),
		"confidence":   numberField(raw, "confidence", 0.0),
		"keypoints":    sliceField(raw, "keypoints"),
		"timestamp":    numberField(raw, "timestamp", 0),
	}
}

func (h *microGestureHandler) ExtractFeatures(normalized map[string]interface{}) []float64 {
	return []float64{
		numberField(normalized, "confidence", 0.0),
		float64(len(sliceField(normalized, "keypoints"))),
	}
}

func (h *microGestureHandler) RequiredFields() []string {
	return []string{"name", "confidence", "timestamp"}
}

func numberField(data map[string]interface{}, key string, fallback float64) float64 {
	raw, ok := data[key]
	if !ok {
		return fallback
	}

	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return fallback
		}
		return f
	}

	return fallback
}

func stringField(data map[string]interface{}, key string, fallback string) string {
	raw, ok := data[key]
	if !ok {
		return fallback
	}

	v, ok := raw.(string)
	if !ok || v == "" {
		return fallback
	}

	return v
}

func sliceField(data map[string]interface{}, key string) []interface{} {
	raw, ok := data[key]
	if !ok {
		return []interface{}{}
	}

	v, ok := raw.([]interface{})
	if !ok {
		return []interface{}{}
	}

	return v
}
