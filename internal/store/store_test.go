package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesplice/codesplice/internal/embedder"
	"github.com/codesplice/codesplice/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "codesplice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleChunks() []*types.Chunk {
	return []*types.Chunk{
		{
			Text: "func Add(a, b int) int { return a + b }",
			Metadata: types.ChunkMetadata{
				ChunkType:  types.ChunkFunction,
				SymbolName: "Add",
				Language:   types.LangGo,
				LineStart:  3,
				LineEnd:    3,
				Symbols:    []string{"Add"},
				Source:     "math.go",
			},
		},
		{
			Text: "class Greeter:\n    pass",
			Metadata: types.ChunkMetadata{
				ChunkType:  types.ChunkClass,
				SymbolName: "Greeter",
				Language:   types.LangPython,
				LineStart:  1,
				LineEnd:    2,
				Source:     "greeter.py",
			},
		},
	}
}

func TestStore_SaveChunksUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	chunks := sampleChunks()

	require.NoError(t, s.SaveChunks(ctx, chunks))

	// Saving the same content again must not duplicate rows.
	chunks[0].Metadata.LineStart = 10
	chunks[0].Metadata.LineEnd = 10
	require.NoError(t, s.SaveChunks(ctx, chunks))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 2, stats.Sources)
	assert.Equal(t, 0, stats.Embeddings)
}

func TestStore_SaveAndLoadEmbeddings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	chunks := sampleChunks()
	require.NoError(t, s.SaveChunks(ctx, chunks))

	embs := []*embedder.Embedding{
		{Vector: []float32{0.1, 0.2, 0.3}, Dimension: 3, Provider: "local", Model: "local-embeddings"},
		{Vector: []float32{0.4, 0.5, 0.6}, Dimension: 3, Provider: "local", Model: "local-embeddings"},
	}
	require.NoError(t, s.SaveEmbeddings(ctx, chunks, embs))

	got, err := s.GetEmbedding(ctx, ChunkKey(chunks[0]))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Embeddings)
}

func TestStore_SaveEmbeddingsCountMismatch(t *testing.T) {
	s := openTestStore(t)
	err := s.SaveEmbeddings(context.Background(), sampleChunks(), nil)
	assert.Error(t, err)
}

func TestStore_GetEmbeddingNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetEmbedding(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVectorRoundTrip(t *testing.T) {
	v := []float32{1.5, -2.25, 0, 3.14159}
	got, err := DecodeVector(EncodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
