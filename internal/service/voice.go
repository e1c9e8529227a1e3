// Package service holds the business logic between the HTTP surface and
// the storage/inference boundaries.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/doantruong120699/voice-cloner-backend/internal/audiofile"
	"github.com/doantruong120699/voice-cloner-backend/internal/embedcache"
	"github.com/doantruong120699/voice-cloner-backend/internal/engine"
	"github.com/doantruong120699/voice-cloner-backend/internal/serr"
	"github.com/doantruong120699/voice-cloner-backend/internal/store"
)

// Voice orchestrates upload, registration, retrieval and synthesis of
// voice samples.
type Voice struct {
	store        store.Store
	embedder     engine.EmbeddingComputer
	synthesizer  engine.SpeechSynthesizer
	cache        embedcache.Cache
	uploadDir    string
	embeddingDir string
}

type VoiceConfig struct {
	Store       store.Store
	Embedder    engine.EmbeddingComputer
	Synthesizer engine.SpeechSynthesizer
	// Cache is optional; without it every synthesis recomputes the
	// embedding from the stored audio.
	Cache        embedcache.Cache
	UploadDir    string
	EmbeddingDir string
}

func NewVoice(cfg VoiceConfig) *Voice {
	if cfg.Store == nil {
		panic("store is required")
	}

	if cfg.Embedder == nil || cfg.Synthesizer == nil {
		panic("engine is required")
	}

	return &Voice{
		store:        cfg.Store,
		embedder:     cfg.Embedder,
		synthesizer:  cfg.Synthesizer,
		cache:        cfg.Cache,
		uploadDir:    cfg.UploadDir,
		embeddingDir: cfg.EmbeddingDir,
	}
}

type RegisterVoiceRequest struct {
	UserID      string
	Content     []byte
	Filename    string
	Name        *string
	Description *string
}

// Register saves the uploaded sample, computes its speaker embedding and
// persists the voice record. If the embedding fails the saved file is
// removed best-effort before the error is surfaced.
func (s *Voice) Register(ctx context.Context, r RegisterVoiceRequest) (store.Voice, error) {
	path, err := audiofile.Save(r.Content, r.Filename, s.uploadDir)
	if err != nil {
		return store.Voice{}, fmt.Errorf("save voice file: %w", err)
	}

	emb, err := s.embedder.ComputeEmbedding(ctx, path)
	if err != nil {
		s.cleanupFile(path)
		return store.Voice{}, serr.New(err, http.StatusInternalServerError,
			"failed to compute speaker embedding")
	}

	embeddingPath := s.embeddingPathFor(path)
	v, err := s.store.CreateVoice(ctx, store.CreateVoiceRequest{
		UserID:        r.UserID,
		Filename:      r.Filename,
		FilePath:      path,
		EmbeddingPath: &embeddingPath,
		Duration:      emb.Duration,
		SampleRate:    emb.SampleRate,
		Name:          r.Name,
		Description:   r.Description,
	})
	if err != nil {
		s.cleanupFile(path)
		return store.Voice{}, fmt.Errorf("create voice record: %w", err)
	}

	s.cacheEmbedding(ctx, v.ID, emb.Vector)
	return v, nil
}

// Get returns the voice record or a not-found error naming the id.
func (s *Voice) Get(ctx context.Context, voiceID string) (store.Voice, error) {
	v, err := s.store.GetVoice(ctx, voiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Voice{}, serr.New(err, http.StatusNotFound,
				"voice with id %q not found", voiceID)
		}

		return store.Voice{}, fmt.Errorf("get voice: %w", err)
	}

	return v, nil
}

// ListByUser returns the voices owned by the given user.
func (s *Voice) ListByUser(ctx context.Context, userID string) ([]store.Voice, error) {
	voices, err := s.store.ListVoicesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}

	return voices, nil
}

// Delete removes a voice owned by userID, along with its stored audio file
// (best effort).
func (s *Voice) Delete(ctx context.Context, voiceID, userID string) error {
	v, err := s.Get(ctx, voiceID)
	if err != nil {
		return err
	}

	if v.UserID != userID {
		return serr.New(nil, http.StatusForbidden, "voice does not belong to the authenticated user")
	}

	if _, err := s.store.DeleteVoice(ctx, voiceID); err != nil {
		return fmt.Errorf("delete voice: %w", err)
	}

	s.cleanupFile(v.FilePath)
	return nil
}

type SynthesizeRequest struct {
	VoiceID    string
	Text       string
	Format     string
	SampleRate int
}

// Synthesize produces audio for text in the given voice. The embedding is
// taken from the cache when present, otherwise re-derived from the stored
// audio sample.
func (s *Voice) Synthesize(ctx context.Context, r SynthesizeRequest) ([]byte, error) {
	v, err := s.Get(ctx, r.VoiceID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(r.Text)
	if text == "" {
		return nil, serr.New(nil, http.StatusInternalServerError,
			"speech synthesis failed: text cannot be empty")
	}

	vector, err := s.embeddingFor(ctx, v)
	if err != nil {
		return nil, err
	}

	audio, err := s.synthesizer.Synthesize(ctx, engine.SynthesisRequest{
		Vector:     vector,
		Text:       text,
		SampleRate: r.SampleRate,
		Format:     r.Format,
	})
	if err != nil {
		return nil, serr.New(err, http.StatusInternalServerError,
			"speech synthesis failed: %v", err)
	}

	return audio, nil
}

func (s *Voice) embeddingFor(ctx context.Context, v store.Voice) ([]float32, error) {
	if s.cache != nil {
		vector, err := s.cache.Get(ctx, v.ID)
		if err == nil {
			return vector, nil
		}
		if !errors.Is(err, embedcache.ErrMiss) {
			slog.Warn("embedding cache lookup failed", "voice_id", v.ID, "error", err)
		}
	}

	emb, err := s.embedder.ComputeEmbedding(ctx, v.FilePath)
	if err != nil {
		return nil, serr.New(err, http.StatusInternalServerError,
			"failed to compute speaker embedding")
	}

	s.cacheEmbedding(ctx, v.ID, emb.Vector)
	return emb.Vector, nil
}

func (s *Voice) cacheEmbedding(ctx context.Context, voiceID string, vector []float32) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Put(ctx, voiceID, vector); err != nil {
		slog.Warn("failed to cache embedding", "voice_id", voiceID, "error", err)
	}
}

// cleanupFile is the compensating action for a failed registration. Its
// own failure is logged, never surfaced.
func (s *Voice) cleanupFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove voice file", "path", path, "error", err)
	}
}

func (s *Voice) embeddingPathFor(audioPath string) string {
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(s.embeddingDir, stem+".emb")
}
