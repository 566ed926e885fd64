package speech

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ProjectGesture/pkg/elevenlabs"
	redisPkg "ProjectGesture/pkg/redis"
	"ProjectGesture/pkg/s3"

	"github.com/sirupsen/logrus"
)

// audioCacheTTL is how long a synthesized audio reference stays cached.
const audioCacheTTL = 24 * time.Hour

const publicPathPrefix = "/static/audio_cache"

// ISynthesizer turns utterance text into a playable audio reference. It
// never fails: on any provider or filesystem error it returns an empty
// reference and the gesture is persisted with silent output.
type ISynthesizer interface {
	Synthesize(ctx context.Context, text string, voicePreference string) string
}

type synthesizer struct {
	cache    redisPkg.ICache
	tts      elevenlabs.ITTS
	s3Client s3.ItfS3
	audioDir string
	log      *logrus.Logger
}

func New(log *logrus.Logger, cache redisPkg.ICache, tts elevenlabs.ITTS, s3Client s3.ItfS3) ISynthesizer {
	audioDir := os.Getenv("AUDIO_CACHE_DIR")
	if audioDir == "" {
		audioDir = "./storage/static/audio_cache"
	}

	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		log.Errorf("Failed to create audio cache dir %s: %v", audioDir, err)
	}

	return &synthesizer{
		cache:    cache,
		tts:      tts,
		s3Client: s3Client,
		audioDir: audioDir,
		log:      log,
	}
}

func (s *synthesizer) Synthesize(ctx context.Context, text string, voicePreference string) string {
	voiceID := voicePreference
	if voiceID == "" {
		voiceID = s.tts.DefaultVoiceID()
	}

	cacheKey := "audio:" + contentHash(text, voiceID)

	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		s.log.WithFields(logrus.Fields{
			"text": truncate(text, 30),
		}).Debug("Audio cache hit")
		return cached
	}

	audio, err := s.tts.GenerateAudio(ctx, text, voiceID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"text":  truncate(text, 30),
			"error": err.Error(),
		}).Error("TTS generation failed")
		return ""
	}

	filename := contentHash(text, voiceID) + ".mp3"
	fullPath := filepath.Join(s.audioDir, filename)

	if err := os.WriteFile(fullPath, audio, 0o644); err != nil {
		s.log.WithFields(logrus.Fields{
			"path":  fullPath,
			"error": err.Error(),
		}).Error("Failed to write audio file")
		return ""
	}

	audioRef := fmt.Sprintf("%s/%s", publicPathPrefix, filename)

	// Offload to S3 when configured; the local file stays as origin.
	if s.s3Client != nil {
		if location, err := s.s3Client.UploadAudio(filename, audio); err != nil {
			s.log.WithFields(logrus.Fields{
				"file":  filename,
				"error": err.Error(),
			}).Warn("Failed to upload audio to S3, serving locally")
		} else {
			audioRef = location
		}
	}

	s.cache.Set(ctx, cacheKey, audioRef, audioCacheTTL)

	s.log.WithFields(logrus.Fields{
		"text":     truncate(text, 30),
		"voice_id": voiceID,
	}).Info("Audio generated")

	return audioRef
}

// contentHash addresses audio by what it says and who says it, so identical
// utterances resolve to the same cache slot across users.
func contentHash(text string, voiceID string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%s", text, voiceID)))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
