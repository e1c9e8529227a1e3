package engine

import "context"

const stubEmbeddingSize = 256

// Stub is a placeholder engine: zero embedding, empty audio. It stands in
// until a model-serving backend implements the interfaces.
type Stub struct{}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) ComputeEmbedding(ctx context.Context, audioPath string) (Embedding, error) {
	return Embedding{Vector: make([]float32, stubEmbeddingSize)}, nil
}

func (s *Stub) Synthesize(ctx context.Context, r SynthesisRequest) ([]byte, error) {
	return []byte{}, nil
}
