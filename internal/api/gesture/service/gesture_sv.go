package gestureService

import (
	"context"
	"time"

	"ProjectGesture/internal/entity"
	contextPkg "ProjectGesture/pkg/context"
	"ProjectGesture/pkg/inference"
	"ProjectGesture/pkg/searchable"

	"github.com/sirupsen/logrus"
)

// indexTimeout bounds the fire-and-forget indexing call, which runs on a
// detached context so closing a connection never aborts it.
const indexTimeout = 30 * time.Second

// ProcessGesture runs one gesture through the full pipeline. No stage
// short-circuits the operation: classification, synthesis, caching and
// indexing all degrade to safe defaults, so a persisted record is produced
// even when every external dependency is down.
func (s *gestureService) ProcessGesture(ctx context.Context, userID string, gestureType string, rawData map[string]interface{}) (entity.GestureRecord, error) {
	requestID := contextPkg.GetRequestID(ctx)
	start := time.Now()

	if !s.preprocessor.Validate(gestureType, rawData) {
		s.log.WithFields(logrus.Fields{
			"request_id":   requestID,
			"gesture_type": gestureType,
		}).Warn("Invalid gesture data, processing with defaults")
	}

	normalized := s.preprocessor.Normalize(gestureType, rawData)
	features := s.preprocessor.ExtractFeatures(gestureType, normalized)

	classification, err := s.classifier.ClassifyIntention(ctx, gestureType, features, "")
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":   requestID,
			"gesture_type": gestureType,
			"error":        err.Error(),
		}).Error("Intention classification failed, using sentinel")
		classification = inference.Sentinel()
	}

	text := s.mapper.MapToText(classification.Intention, classification.Text)

	audioURL := s.synthesizer.Synthesize(ctx, text, "")

	gestureID, err := s.utils.NewULIDFromTimestamp(start)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate gesture ID")
		return entity.GestureRecord{}, err
	}

	record := entity.GestureRecord{
		ID:               gestureID,
		UserID:           userID,
		GestureType:      gestureType,
		RawData:          rawData,
		Features:         features,
		Intention:        classification.Intention,
		ConfidenceScore:  classification.Confidence,
		GeneratedText:    text,
		AudioURL:         audioURL,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		CreatedAt:        start,
	}

	repo, err := s.gestureRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.GestureRecord{}, err
	}

	if err := repo.Gestures.CreateGesture(ctx, record); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to persist gesture record")
		return entity.GestureRecord{}, err
	}

	go s.indexGesture(requestID, record)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"gesture_id": record.ID,
		"intention":  record.Intention,
	}).Info("Gesture processed")

	return record, nil
}

// indexGesture ships the record to the search collaborator. Failure is
// logged and never propagated.
func (s *gestureService) indexGesture(requestID string, record entity.GestureRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	doc := searchable.GestureDocument{
		ID:          record.ID,
		UserID:      record.UserID,
		GestureType: record.GestureType,
		Intention:   record.Intention,
		Text:        record.GeneratedText,
		Confidence:  record.ConfidenceScore,
		Timestamp:   record.CreatedAt.Format(time.RFC3339),
	}

	if err := s.searchable.IndexGesture(ctx, doc); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"gesture_id": record.ID,
			"error":      err.Error(),
		}).Error("Gesture indexing failed")
	}
}
