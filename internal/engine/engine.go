// Package engine defines the capability boundary to the speech model. The
// orchestration layer depends on these interfaces only; a real model-serving
// implementation slots in without touching it.
package engine

import "context"

const (
	FormatWAV = "wav"
	FormatMP3 = "mp3"
)

// Embedding is a speaker embedding computed from an audio sample. Duration
// and SampleRate are optional metadata the extractor may report.
type Embedding struct {
	Vector     []float32
	Duration   *float64
	SampleRate *int
}

type SynthesisRequest struct {
	Vector     []float32
	Text       string
	SampleRate int
	Format     string
}

type EmbeddingComputer interface {
	ComputeEmbedding(ctx context.Context, audioPath string) (Embedding, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, r SynthesisRequest) ([]byte, error)
}
