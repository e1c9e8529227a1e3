package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doantruong120699/voice-cloner-backend/internal/engine"
	"github.com/doantruong120699/voice-cloner-backend/internal/serr"
)

func newTestVoice(t *testing.T, st *fakeStore, eng *fakeEngine, cache *fakeCache) *Voice {
	t.Helper()

	cfg := VoiceConfig{
		Store:        st,
		Embedder:     eng,
		Synthesizer:  eng,
		UploadDir:    filepath.Join(t.TempDir(), "uploads"),
		EmbeddingDir: filepath.Join(t.TempDir(), "embeddings"),
	}
	if cache != nil {
		cfg.Cache = cache
	}
	return NewVoice(cfg)
}

func registerSample(t *testing.T, svc *Voice, userID string) (storeVoiceID string, filePath string) {
	t.Helper()

	v, err := svc.Register(t.Context(), RegisterVoiceRequest{
		UserID:   userID,
		Content:  []byte("RIFFdata"),
		Filename: "sample.wav",
	})
	require.NoError(t, err)
	return v.ID, v.FilePath
}

func TestRegister_SavesFileAndRecord(t *testing.T) {
	st := newFakeStore()
	eng := &fakeEngine{embedding: engine.Embedding{
		Vector:     []float32{0.1, 0.2},
		Duration:   f64ptr(1.5),
		SampleRate: intptr(22050),
	}}
	svc := newTestVoice(t, st, eng, nil)

	v, err := svc.Register(t.Context(), RegisterVoiceRequest{
		UserID:   "user-1",
		Content:  []byte("RIFFdata"),
		Filename: "sample.wav",
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", v.UserID)
	assert.Equal(t, "sample.wav", v.Filename)
	require.NotNil(t, v.Duration)
	assert.Equal(t, 1.5, *v.Duration)
	require.NotNil(t, v.SampleRate)
	assert.Equal(t, 22050, *v.SampleRate)
	require.NotNil(t, v.EmbeddingPath)
	assert.Equal(t, ".emb", filepath.Ext(*v.EmbeddingPath))

	data, err := os.ReadFile(v.FilePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFdata"), data)
}

func TestRegister_EmbeddingFailureRemovesFile(t *testing.T) {
	st := newFakeStore()
	eng := &fakeEngine{embedErr: errors.New("model exploded")}
	svc := newTestVoice(t, st, eng, nil)

	_, err := svc.Register(t.Context(), RegisterVoiceRequest{
		UserID:   "user-1",
		Content:  []byte("RIFFdata"),
		Filename: "sample.wav",
	})

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 500, sErr.StatusCode)
	assert.Equal(t, "failed to compute speaker embedding", sErr.Msg)

	entries, readErr := os.ReadDir(svc.uploadDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
	assert.Empty(t, st.voices)
}

func TestRegister_CachesEmbedding(t *testing.T) {
	cache := newFakeCache()
	eng := &fakeEngine{embedding: engine.Embedding{Vector: []float32{1, 2, 3}}}
	svc := newTestVoice(t, newFakeStore(), eng, cache)

	id, _ := registerSample(t, svc, "user-1")

	assert.Equal(t, []float32{1, 2, 3}, cache.entries[id])
}

func TestGet_UnknownVoice(t *testing.T) {
	svc := newTestVoice(t, newFakeStore(), &fakeEngine{}, nil)

	_, err := svc.Get(t.Context(), "nope")

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 404, sErr.StatusCode)
	assert.Contains(t, sErr.Msg, `"nope"`)
}

func TestDelete_RemovesRecordAndFile(t *testing.T) {
	st := newFakeStore()
	svc := newTestVoice(t, st, &fakeEngine{}, nil)
	id, path := registerSample(t, svc, "user-1")

	require.NoError(t, svc.Delete(t.Context(), id, "user-1"))

	assert.Empty(t, st.voices)
	assert.NoFileExists(t, path)
}

func TestDelete_WrongOwner(t *testing.T) {
	st := newFakeStore()
	svc := newTestVoice(t, st, &fakeEngine{}, nil)
	id, path := registerSample(t, svc, "user-1")

	err := svc.Delete(t.Context(), id, "user-2")

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 403, sErr.StatusCode)
	assert.Len(t, st.voices, 1)
	assert.FileExists(t, path)
}

func TestListByUser_FiltersOwnership(t *testing.T) {
	st := newFakeStore()
	svc := newTestVoice(t, st, &fakeEngine{}, nil)
	registerSample(t, svc, "user-1")
	registerSample(t, svc, "user-1")
	registerSample(t, svc, "user-2")

	voices, err := svc.ListByUser(t.Context(), "user-1")
	require.NoError(t, err)
	assert.Len(t, voices, 2)
}

func TestSynthesize_ReturnsAudio(t *testing.T) {
	eng := &fakeEngine{audio: []byte("wav-bytes")}
	svc := newTestVoice(t, newFakeStore(), eng, nil)
	id, _ := registerSample(t, svc, "user-1")

	audio, err := svc.Synthesize(t.Context(), SynthesizeRequest{
		VoiceID:    id,
		Text:       "hello world",
		Format:     engine.FormatWAV,
		SampleRate: 22050,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("wav-bytes"), audio)
}

func TestSynthesize_WhitespaceText(t *testing.T) {
	svc := newTestVoice(t, newFakeStore(), &fakeEngine{}, nil)
	id, _ := registerSample(t, svc, "user-1")

	_, err := svc.Synthesize(t.Context(), SynthesizeRequest{VoiceID: id, Text: "   "})

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 500, sErr.StatusCode)
	assert.Contains(t, sErr.Msg, "text cannot be empty")
}

func TestSynthesize_UnknownVoice(t *testing.T) {
	svc := newTestVoice(t, newFakeStore(), &fakeEngine{}, nil)

	_, err := svc.Synthesize(t.Context(), SynthesizeRequest{VoiceID: "missing", Text: "hi"})

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 404, sErr.StatusCode)
}

func TestSynthesize_CacheHitSkipsRecompute(t *testing.T) {
	cache := newFakeCache()
	eng := &fakeEngine{embedding: engine.Embedding{Vector: []float32{1}}, audio: []byte("a")}
	svc := newTestVoice(t, newFakeStore(), eng, cache)
	id, _ := registerSample(t, svc, "user-1")

	calls := eng.embedCalls
	_, err := svc.Synthesize(t.Context(), SynthesizeRequest{VoiceID: id, Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, calls, eng.embedCalls)
}

func TestSynthesize_CacheMissRecomputesAndBackfills(t *testing.T) {
	cache := newFakeCache()
	eng := &fakeEngine{embedding: engine.Embedding{Vector: []float32{7}}, audio: []byte("a")}
	svc := newTestVoice(t, newFakeStore(), eng, cache)
	id, _ := registerSample(t, svc, "user-1")

	delete(cache.entries, id)
	calls := eng.embedCalls

	_, err := svc.Synthesize(t.Context(), SynthesizeRequest{VoiceID: id, Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, calls+1, eng.embedCalls)
	assert.Equal(t, []float32{7}, cache.entries[id])
}

func TestSynthesize_EngineFailure(t *testing.T) {
	eng := &fakeEngine{synthErr: errors.New("gpu on fire")}
	svc := newTestVoice(t, newFakeStore(), eng, nil)
	id, _ := registerSample(t, svc, "user-1")

	_, err := svc.Synthesize(t.Context(), SynthesizeRequest{VoiceID: id, Text: "hi"})

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 500, sErr.StatusCode)
	assert.Contains(t, sErr.Msg, "speech synthesis failed")
	assert.Contains(t, sErr.Msg, "gpu on fire")
}

func f64ptr(f float64) *float64 { return &f }
func intptr(i int) *int         { return &i }
