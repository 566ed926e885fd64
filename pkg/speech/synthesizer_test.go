package speech

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	redisPkg "ProjectGesture/pkg/redis"

	"github.com/sirupsen/logrus"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.entries[key]
	return value, ok
}

func (f *fakeCache) Set(_ context.Context, key string, value string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	f.sets++
}

func (f *fakeCache) Delete(_ context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
}

func (f *fakeCache) Exists(_ context.Context, key string) bool {
	_, ok := f.Get(context.Background(), key)
	return ok
}

var _ redisPkg.ICache = (*fakeCache)(nil)

type fakeTTS struct {
	mu    sync.Mutex
	calls int
	audio []byte
	err   error
}

func (f *fakeTTS) GenerateAudio(_ context.Context, _ string, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

func (f *fakeTTS) DefaultVoiceID() string {
	return "test-voice"
}

func newTestSynthesizer(t *testing.T, cache redisPkg.ICache, tts *fakeTTS) ISynthesizer {
	t.Helper()

	t.Setenv("AUDIO_CACHE_DIR", t.TempDir())

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return New(logger, cache, tts, nil)
}

func TestSynthesize(t *testing.T) {
	t.Run("generates and caches audio reference", func(t *testing.T) {
		cache := newFakeCache()
		tts := &fakeTTS{audio: []byte("mp3-bytes")}
		s := newTestSynthesizer(t, cache, tts)

		ref := s.Synthesize(context.Background(), "I need help", "")

		if !strings.HasPrefix(ref, "/static/audio_cache/") || !strings.HasSuffix(ref, ".mp3") {
			t.Errorf("Synthesize() = %q, want content-addressed static path", ref)
		}
		if cache.sets != 1 {
			t.Errorf("cache sets = %d, want 1", cache.sets)
		}

		fullPath := filepath.Join(os.Getenv("AUDIO_CACHE_DIR"), filepath.Base(ref))
		data, err := os.ReadFile(fullPath)
		if err != nil {
			t.Fatalf("audio file not written: %v", err)
		}
		if string(data) != "mp3-bytes" {
			t.Errorf("audio file content = %q", data)
		}
	})

	t.Run("cache hit skips the provider", func(t *testing.T) {
		cache := newFakeCache()
		tts := &fakeTTS{audio: []byte("mp3-bytes")}
		s := newTestSynthesizer(t, cache, tts)

		first := s.Synthesize(context.Background(), "I'm thirsty", "")
		second := s.Synthesize(context.Background(), "I'm thirsty", "")

		if first != second {
			t.Errorf("repeated synthesis differs: %q vs %q", first, second)
		}
		if tts.calls != 1 {
			t.Errorf("provider calls = %d, want 1", tts.calls)
		}
	})

	t.Run("identical text resolves to identical reference", func(t *testing.T) {
		tts := &fakeTTS{audio: []byte("mp3-bytes")}
		s := newTestSynthesizer(t, newFakeCache(), tts)
		other := newTestSynthesizer(t, newFakeCache(), tts)

		if a, b := s.Synthesize(context.Background(), "Yes", ""), other.Synthesize(context.Background(), "Yes", ""); a != b {
			t.Errorf("content addressing broken: %q vs %q", a, b)
		}
	})

	t.Run("voice preference changes the address", func(t *testing.T) {
		tts := &fakeTTS{audio: []byte("mp3-bytes")}
		s := newTestSynthesizer(t, newFakeCache(), tts)

		a := s.Synthesize(context.Background(), "Yes", "voice-a")
		b := s.Synthesize(context.Background(), "Yes", "voice-b")
		if a == b {
			t.Error("different voices should address different audio")
		}
	})

	t.Run("provider failure degrades to empty reference", func(t *testing.T) {
		cache := newFakeCache()
		tts := &fakeTTS{err: errors.New("upstream down")}
		s := newTestSynthesizer(t, cache, tts)

		if ref := s.Synthesize(context.Background(), "Hello", ""); ref != "" {
			t.Errorf("Synthesize() = %q, want empty on provider failure", ref)
		}
		if cache.sets != 0 {
			t.Errorf("failed synthesis must not populate the cache, sets = %d", cache.sets)
		}
	})
}
