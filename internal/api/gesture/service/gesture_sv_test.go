package gestureService

import (
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"ProjectGesture/internal/api/gesture"
	gestureRepository "ProjectGesture/internal/api/gesture/repository"
	"ProjectGesture/internal/entity"
	"ProjectGesture/pkg/inference"
	"ProjectGesture/pkg/intention"
	"ProjectGesture/pkg/preprocessor"
	"ProjectGesture/pkg/s3"
	"ProjectGesture/pkg/searchable"
	"ProjectGesture/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type fakeGestureStore struct {
	mu      sync.Mutex
	records map[string]entity.GestureRecord
}

func newFakeGestureStore() *fakeGestureStore {
	return &fakeGestureStore{records: map[string]entity.GestureRecord{}}
}

func (f *fakeGestureStore) CreateGesture(_ context.Context, record entity.GestureRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = record
	return nil
}

func (f *fakeGestureStore) GetGestureByID(_ context.Context, id string) (entity.GestureRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return entity.GestureRecord{}, gesture.ErrGestureNotFound
	}
	return record, nil
}

func (f *fakeGestureStore) GetGesturesByUserID(_ context.Context, userID string, limit, offset int) ([]entity.GestureRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var owned []entity.GestureRecord
	for _, record := range f.records {
		if record.UserID == userID {
			owned = append(owned, record)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	total := len(owned)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return owned[offset:end], total, nil
}

func (f *fakeGestureStore) DeleteGesture(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return gesture.ErrGestureNotFound
	}
	delete(f.records, id)
	return nil
}

type fakeRepository struct {
	store *fakeGestureStore
}

func (f *fakeRepository) NewClient(_ bool) (gestureRepository.Client, error) {
	return gestureRepository.Client{
		Gestures: f.store,
		Commit:   func() error { return nil },
		Rollback: func() error { return nil },
	}, nil
}

type fakeClassifier struct {
	result inference.Classification
	err    error
}

func (f *fakeClassifier) ClassifyIntention(_ context.Context, _ string, _ []float64, _ string) (inference.Classification, error) {
	if f.err != nil {
		return inference.Classification{}, f.err
	}
	return f.result, nil
}

type fakeSynthesizer struct {
	audioRef string
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _ string, _ string) string {
	return f.audioRef
}

type fakeSearchable struct {
	indexed chan searchable.GestureDocument
	hits    []map[string]interface{}
	err     error
}

func newFakeSearchable() *fakeSearchable {
	return &fakeSearchable{indexed: make(chan searchable.GestureDocument, 16)}
}

func (f *fakeSearchable) IndexGesture(_ context.Context, doc searchable.GestureDocument) error {
	f.indexed <- doc
	return nil
}

func (f *fakeSearchable) SearchGestures(_ context.Context, _ string, _ string, _ int) ([]map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *fakeSearchable) GetAnalytics(_ context.Context, _ string) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

type fakeS3 struct {
	presignErr error
}

func (f *fakeS3) UploadAudio(filename string, _ []byte) (string, error) {
	return "https://bucket.s3.amazonaws.com/audio_cache/" + filename, nil
}

func (f *fakeS3) PresignUrl(fileURL string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return fileURL + "?X-Amz-Signature=signed", nil
}

var _ s3.ItfS3 = (*fakeS3)(nil)

type serviceFixture struct {
	service    IGestureService
	store      *fakeGestureStore
	searchable *fakeSearchable
}

func newServiceFixture(classifier inference.IClassifier) *serviceFixture {
	return newServiceFixtureWithS3(classifier, nil)
}

func newServiceFixtureWithS3(classifier inference.IClassifier, s3Client s3.ItfS3) *serviceFixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := newFakeGestureStore()
	search := newFakeSearchable()

	svc := New(
		logger,
		&fakeRepository{store: store},
		preprocessor.New(),
		classifier,
		intention.NewMapper(logger),
		&fakeSynthesizer{audioRef: "/static/audio_cache/deadbeef.mp3"},
		search,
		s3Client,
		utils.New(),
	)

	return &serviceFixture{service: svc, store: store, searchable: search}
}

func TestProcessGesture(t *testing.T) {
	t.Run("full pipeline produces a persisted record", func(t *testing.T) {
		fx := newServiceFixture(&fakeClassifier{result: inference.Classification{
			Intention:  "help",
			Confidence: 0.92,
			Text:       "",
		}})

		record, err := fx.service.ProcessGesture(context.Background(), "user-1", "blink", map[string]interface{}{
			"duration":  400.0,
			"timestamp": 1700000000.0,
		})
		if err != nil {
			t.Fatalf("ProcessGesture() error = %v", err)
		}

		if record.ID == "" {
			t.Error("record ID is empty")
		}
		if record.Intention != "help" {
			t.Errorf("intention = %q, want help", record.Intention)
		}
		if record.GeneratedText != "I need help" {
			t.Errorf("generated text = %q, want table phrase", record.GeneratedText)
		}
		if record.AudioURL != "/static/audio_cache/deadbeef.mp3" {
			t.Errorf("audio URL = %q", record.AudioURL)
		}
		if len(record.Features) != 3 {
			t.Errorf("features = %v, want 3 blink features", record.Features)
		}
		if record.ProcessingTimeMs < 0 {
			t.Errorf("processing time = %v", record.ProcessingTimeMs)
		}

		if _, err := fx.store.GetGestureByID(context.Background(), record.ID); err != nil {
			t.Errorf("record not persisted: %v", err)
		}
	})

	t.Run("classifier text overrides the table", func(t *testing.T) {
		fx := newServiceFixture(&fakeClassifier{result: inference.Classification{
			Intention:  "thirsty",
			Confidence: 0.7,
			Text:       "Could I have some water please",
		}})

		record, err := fx.service.ProcessGesture(context.Background(), "user-1", "tap", map[string]interface{}{
			"count":     2,
			"timestamp": 1.0,
		})
		if err != nil {
			t.Fatalf("ProcessGesture() error = %v", err)
		}

		if record.GeneratedText != "Could I have some water please" {
			t.Errorf("generated text = %q, want classifier text verbatim", record.GeneratedText)
		}
	})

	t.Run("classifier failure degrades to sentinel", func(t *testing.T) {
		fx := newServiceFixture(&fakeClassifier{err: errors.New("provider unreachable")})

		record, err := fx.service.ProcessGesture(context.Background(), "user-1", "blink", map[string]interface{}{
			"duration":  100.0,
			"timestamp": 1.0,
		})
		if err != nil {
			t.Fatalf("ProcessGesture() error = %v, pipeline must not fail on classifier outage", err)
		}

		if record.Intention != "unknown" {
			t.Errorf("intention = %q, want unknown sentinel", record.Intention)
		}
		if record.ConfidenceScore != 0.0 {
			t.Errorf("confidence = %v, want 0", record.ConfidenceScore)
		}
		if record.GeneratedText != "Unable to process gesture" {
			t.Errorf("generated text = %q", record.GeneratedText)
		}
	})

	t.Run("malformed payload is still processed", func(t *testing.T) {
		fx := newServiceFixture(&fakeClassifier{result: inference.Classification{Intention: "unknown", Confidence: 0.1}})

		record, err := fx.service.ProcessGesture(context.Background(), "user-1", "blink", nil)
		if err != nil {
			t.Fatalf("ProcessGesture() error = %v", err)
		}
		if record.ID == "" {
			t.Error("record ID is empty")
		}
	})

	t.Run("record is shipped to the index", func(t *testing.T) {
		fx := newServiceFixture(&fakeClassifier{result: inference.Classification{Intention: "yes", Confidence: 0.9}})

		record, err := fx.service.ProcessGesture(context.Background(), "user-7", "tap", map[string]interface{}{
			"count":     1,
			"timestamp": 1.0,
		})
		if err != nil {
			t.Fatalf("ProcessGesture() error = %v", err)
		}

		select {
		case doc := <-fx.searchable.indexed:
			if doc.ID != record.ID || doc.UserID != "user-7" || doc.Intention != "yes" {
				t.Errorf("indexed document = %+v", doc)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("gesture was never indexed")
		}
	})
}

func TestGetGestureHistory(t *testing.T) {
	fx := newServiceFixture(&fakeClassifier{result: inference.Classification{Intention: "yes", Confidence: 0.9}})

	for i := 0; i < 5; i++ {
		if _, err := fx.service.ProcessGesture(context.Background(), "user-1", "tap", map[string]interface{}{
			"count":     1,
			"timestamp": float64(i),
		}); err != nil {
			t.Fatalf("seed gesture %d: %v", i, err)
		}
	}

	t.Run("returns owned records with totals", func(t *testing.T) {
		history, err := fx.service.GetGestureHistory(context.Background(), "user-1", 1, 3)
		if err != nil {
			t.Fatalf("GetGestureHistory() error = %v", err)
		}
		if history.Total != 5 {
			t.Errorf("total = %d, want 5", history.Total)
		}
		if len(history.Gestures) != 3 {
			t.Errorf("page size = %d, want 3", len(history.Gestures))
		}
	})

	t.Run("out-of-range paging params are clamped", func(t *testing.T) {
		history, err := fx.service.GetGestureHistory(context.Background(), "user-1", -2, 500)
		if err != nil {
			t.Fatalf("GetGestureHistory() error = %v", err)
		}
		if history.Page != 1 || history.Limit != 20 {
			t.Errorf("page/limit = %d/%d, want 1/20", history.Page, history.Limit)
		}
	})

	t.Run("other users see nothing", func(t *testing.T) {
		history, err := fx.service.GetGestureHistory(context.Background(), "user-2", 1, 10)
		if err != nil {
			t.Fatalf("GetGestureHistory() error = %v", err)
		}
		if history.Total != 0 {
			t.Errorf("total = %d, want 0", history.Total)
		}
	})
}

func TestGestureOwnership(t *testing.T) {
	fx := newServiceFixture(&fakeClassifier{result: inference.Classification{Intention: "yes", Confidence: 0.9}})

	record, err := fx.service.ProcessGesture(context.Background(), "owner", "tap", map[string]interface{}{
		"count":     1,
		"timestamp": 1.0,
	})
	if err != nil {
		t.Fatalf("seed gesture: %v", err)
	}

	t.Run("non-owner read looks like not found", func(t *testing.T) {
		_, err := fx.service.GetGestureByID(context.Background(), "intruder", record.ID)
		if !errors.Is(err, gesture.ErrGestureNotFound) {
			t.Errorf("error = %v, want ErrGestureNotFound", err)
		}
	})

	t.Run("non-owner delete is forbidden", func(t *testing.T) {
		err := fx.service.DeleteGesture(context.Background(), "intruder", record.ID)
		if !errors.Is(err, gesture.ErrGestureNotOwned) {
			t.Errorf("error = %v, want ErrGestureNotOwned", err)
		}
	})

	t.Run("owner delete removes the record", func(t *testing.T) {
		if err := fx.service.DeleteGesture(context.Background(), "owner", record.ID); err != nil {
			t.Fatalf("DeleteGesture() error = %v", err)
		}
		_, err := fx.service.GetGestureByID(context.Background(), "owner", record.ID)
		if !errors.Is(err, gesture.ErrGestureNotFound) {
			t.Errorf("error = %v after delete, want ErrGestureNotFound", err)
		}
	})
}

func TestSearchGestures(t *testing.T) {
	t.Run("returns collaborator hits", func(t *testing.T) {
		fx := newServiceFixture(&fakeClassifier{result: inference.Classification{Intention: "yes"}})
		fx.searchable.hits = []map[string]interface{}{{"id": "g1"}}

		result, err := fx.service.SearchGestures(context.Background(), "user-1", "water", 10)
		if err != nil {
			t.Fatalf("SearchGestures() error = %v", err)
		}
		if len(result.Hits) != 1 {
			t.Errorf("hits = %v", result.Hits)
		}
	})

	t.Run("collaborator outage degrades to empty", func(t *testing.T) {
		fx := newServiceFixture(&fakeClassifier{result: inference.Classification{Intention: "yes"}})
		fx.searchable.err = errors.New("index down")

		result, err := fx.service.SearchGestures(context.Background(), "user-1", "water", 10)
		if err != nil {
			t.Fatalf("SearchGestures() error = %v, want degraded empty result", err)
		}
		if len(result.Hits) != 0 {
			t.Errorf("hits = %v, want empty", result.Hits)
		}
	})
}

func TestIntentionRegistry(t *testing.T) {
	fx := newServiceFixture(&fakeClassifier{result: inference.Classification{Intention: "yes"}})

	before := len(fx.service.GetIntentions().Intentions)

	fx.service.RegisterIntention(gesture.RegisterIntentionRequest{
		Intention: "blanket",
		Text:      "I need a blanket",
	})

	after := fx.service.GetIntentions().Intentions
	if len(after) != before+1 {
		t.Errorf("intentions count = %d, want %d", len(after), before+1)
	}
	if after["blanket"] != "I need a blanket" {
		t.Errorf("registered phrase = %q", after["blanket"])
	}
}

func TestAudioURLPresigning(t *testing.T) {
	seedRecord := func(fx *serviceFixture, audioURL string) entity.GestureRecord {
		record := entity.GestureRecord{
			ID:        "01HSEED",
			UserID:    "user-1",
			AudioURL:  audioURL,
			CreatedAt: time.Now(),
		}
		if err := fx.store.CreateGesture(context.Background(), record); err != nil {
			t.Fatalf("seed record: %v", err)
		}
		return record
	}

	t.Run("history presigns S3-backed references", func(t *testing.T) {
		fx := newServiceFixtureWithS3(&fakeClassifier{result: inference.Classification{Intention: "yes"}}, &fakeS3{})
		seedRecord(fx, "https://bucket.s3.amazonaws.com/audio_cache/abc.mp3")

		history, err := fx.service.GetGestureHistory(context.Background(), "user-1", 1, 10)
		if err != nil {
			t.Fatalf("GetGestureHistory() error = %v", err)
		}
		if len(history.Gestures) != 1 {
			t.Fatalf("gestures = %d, want 1", len(history.Gestures))
		}
		if got := history.Gestures[0].AudioURL; !strings.Contains(got, "X-Amz-Signature") {
			t.Errorf("audio URL = %q, want presigned", got)
		}
	})

	t.Run("get by id presigns S3-backed references", func(t *testing.T) {
		fx := newServiceFixtureWithS3(&fakeClassifier{result: inference.Classification{Intention: "yes"}}, &fakeS3{})
		record := seedRecord(fx, "https://bucket.s3.amazonaws.com/audio_cache/abc.mp3")

		resp, err := fx.service.GetGestureByID(context.Background(), "user-1", record.ID)
		if err != nil {
			t.Fatalf("GetGestureByID() error = %v", err)
		}
		if !strings.Contains(resp.AudioURL, "X-Amz-Signature") {
			t.Errorf("audio URL = %q, want presigned", resp.AudioURL)
		}
	})

	t.Run("local static references are served as stored", func(t *testing.T) {
		fx := newServiceFixtureWithS3(&fakeClassifier{result: inference.Classification{Intention: "yes"}}, &fakeS3{})
		record := seedRecord(fx, "/static/audio_cache/abc.mp3")

		resp, err := fx.service.GetGestureByID(context.Background(), "user-1", record.ID)
		if err != nil {
			t.Fatalf("GetGestureByID() error = %v", err)
		}
		if resp.AudioURL != "/static/audio_cache/abc.mp3" {
			t.Errorf("audio URL = %q, want stored local reference", resp.AudioURL)
		}
	})

	t.Run("presign failure falls back to the stored reference", func(t *testing.T) {
		fx := newServiceFixtureWithS3(&fakeClassifier{result: inference.Classification{Intention: "yes"}}, &fakeS3{presignErr: errors.New("head object failed")})
		stored := "https://bucket.s3.amazonaws.com/audio_cache/abc.mp3"
		record := seedRecord(fx, stored)

		resp, err := fx.service.GetGestureByID(context.Background(), "user-1", record.ID)
		if err != nil {
			t.Fatalf("GetGestureByID() error = %v", err)
		}
		if resp.AudioURL != stored {
			t.Errorf("audio URL = %q, want stored reference on presign failure", resp.AudioURL)
		}
	})

	t.Run("no S3 client leaves references untouched", func(t *testing.T) {
		fx := newServiceFixture(&fakeClassifier{result: inference.Classification{Intention: "yes"}})
		stored := "https://bucket.s3.amazonaws.com/audio_cache/abc.mp3"
		record := seedRecord(fx, stored)

		resp, err := fx.service.GetGestureByID(context.Background(), "user-1", record.ID)
		if err != nil {
			t.Fatalf("GetGestureByID() error = %v", err)
		}
		if resp.AudioURL != stored {
			t.Errorf("audio URL = %q, want stored reference", resp.AudioURL)
		}
	})
}
