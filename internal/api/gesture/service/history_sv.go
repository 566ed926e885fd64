package gestureService

import (
	"context"
	"strings"

	"ProjectGesture/internal/api/gesture"
	"ProjectGesture/internal/entity"
	contextPkg "ProjectGesture/pkg/context"

	"github.com/sirupsen/logrus"
)

func (s *gestureService) GetGestureHistory(ctx context.Context, userID string, page, limit int) (*gesture.GestureHistoryResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.gestureRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit

	records, total, err := repo.Gestures.GetGesturesByUserID(ctx, userID, limit, offset)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get gesture history")
		return nil, err
	}

	gestures := make([]gesture.GestureResponse, 0, len(records))
	for _, record := range records {
		resp := makeGestureResponse(record)
		resp.AudioURL = s.presentAudioURL(requestID, record.AudioURL)
		gestures = append(gestures, resp)
	}

	return &gesture.GestureHistoryResponse{
		Gestures: gestures,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *gestureService) GetGestureByID(ctx context.Context, userID string, gestureID string) (*gesture.GestureResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.gestureRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	record, err := repo.Gestures.GetGestureByID(ctx, gestureID)
	if err != nil {
		return nil, err
	}

	// Records are owned; a foreign record reads as not found.
	if record.UserID != userID {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"gesture_id": gestureID,
		}).Warn("Gesture requested by non-owner")
		return nil, gesture.ErrGestureNotFound
	}

	resp := makeGestureResponse(record)
	resp.AudioURL = s.presentAudioURL(requestID, record.AudioURL)
	return &resp, nil
}

// presentAudioURL converts an S3-backed audio reference into a short-lived
// presigned URL. Local static references and presign failures are served
// as stored.
func (s *gestureService) presentAudioURL(requestID string, audioURL string) string {
	if s.s3Client == nil || audioURL == "" || !strings.HasPrefix(audioURL, "http") {
		return audioURL
	}

	signed, err := s.s3Client.PresignUrl(audioURL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to presign audio URL, serving stored reference")
		return audioURL
	}

	return signed
}

func (s *gestureService) DeleteGesture(ctx context.Context, userID string, gestureID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.gestureRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}
	defer repo.Rollback()

	record, err := repo.Gestures.GetGestureByID(ctx, gestureID)
	if err != nil {
		return err
	}

	if record.UserID != userID {
		return gesture.ErrGestureNotOwned
	}

	if err := repo.Gestures.DeleteGesture(ctx, gestureID); err != nil {
		return err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit gesture deletion")
		return err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"gesture_id": gestureID,
	}).Info("Gesture deleted")

	return nil
}

func (s *gestureService) SearchGestures(ctx context.Context, userID string, query string, limit int) (*gesture.SearchResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if limit < 1 || limit > 100 {
		limit = 20
	}

	hits, err := s.searchable.SearchGestures(ctx, query, userID, limit)
	if err != nil {
		// Search is a collaborator, not a dependency: degrade to empty.
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Gesture search failed, returning empty result")
		return &gesture.SearchResponse{Hits: []map[string]interface{}{}}, nil
	}

	if hits == nil {
		hits = []map[string]interface{}{}
	}

	return &gesture.SearchResponse{Hits: hits}, nil
}

func (s *gestureService) GetIntentions() *gesture.IntentionsResponse {
	return &gesture.IntentionsResponse{Intentions: s.mapper.All()}
}

func (s *gestureService) RegisterIntention(req gesture.RegisterIntentionRequest) {
	s.mapper.Register(req.Intention, req.Text)
}

func makeGestureResponse(record entity.GestureRecord) gesture.GestureResponse {
	return gesture.GestureResponse{
		ID:               record.ID,
		UserID:           record.UserID,
		GestureType:      record.GestureType,
		Intention:        record.Intention,
		Confidence:       record.ConfidenceScore,
		GeneratedText:    record.GeneratedText,
		AudioURL:         record.AudioURL,
		ProcessingTimeMs: record.ProcessingTimeMs,
		RawData:          record.RawData,
		CreatedAt:        record.CreatedAt,
	}
}
