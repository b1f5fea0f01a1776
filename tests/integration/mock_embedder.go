package integration

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/codesplice/codesplice/internal/embedder"
	"github.com/codesplice/codesplice/pkg/types"
)

// MockEmbedder is a deterministic embedder for tests. A non-zero TokenLimit
// makes it reject batches whose total character count exceeds the limit the
// way a real provider rejects over-limit payloads.
type MockEmbedder struct {
	dimension  int
	TokenLimit int
	calls      atomic.Int32
}

// NewMockEmbedder creates a mock embedder with the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// Calls reports how many EmbedBatch invocations the mock has served.
func (m *MockEmbedder) Calls() int {
	return int(m.calls.Load())
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]*embedder.Embedding, error) {
	m.calls.Add(1)
	if err := embedder.ValidateBatch(texts); err != nil {
		return nil, err
	}

	if m.TokenLimit > 0 {
		total := 0
		for _, t := range texts {
			total += len(t)
		}
		if total > m.TokenLimit {
			return nil, fmt.Errorf("mock provider rejected %d chars: %w", total, types.ErrTokenLimitExceeded)
		}
	}

	out := make([]*embedder.Embedding, len(texts))
	for i, text := range texts {
		out[i] = m.embed(text)
	}
	return out, nil
}

// embed derives a unit-length pseudo-random vector from the text hash.
func (m *MockEmbedder) embed(text string) *embedder.Embedding {
	hash := sha256.Sum256([]byte(text))
	vector := make([]float32, m.dimension)
	for i := range vector {
		idx := (i * 4) % 28
		val := binary.BigEndian.Uint32(hash[idx : idx+4])
		vector[i] = (float32(val)/float32(1<<32))*2 - 1
	}

	return &embedder.Embedding{
		Vector:    embedder.NormalizeVector(vector),
		Dimension: m.dimension,
		Provider:  "mock",
		Model:     "mock-v1",
		Hash:      embedder.ComputeHash(text),
	}
}

func (m *MockEmbedder) Dimension() int { return m.dimension }

func (m *MockEmbedder) Provider() string { return "mock" }

func (m *MockEmbedder) Model() string { return "mock-v1" }

func (m *MockEmbedder) Close() error { return nil }
