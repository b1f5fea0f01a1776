package pipeline

import (
	"context"
	"fmt"

	"github.com/codesplice/codesplice/internal/embedder"
	"github.com/codesplice/codesplice/internal/store"
	"github.com/codesplice/codesplice/pkg/types"
)

// EmbedDispatcher embeds each sealed batch and optionally persists chunks
// and vectors. It propagates the embedder's token-limit errors untouched so
// the planner can split and retry.
type EmbedDispatcher struct {
	embedder embedder.Embedder
	store    *store.Store
}

// NewEmbedDispatcher creates the dispatcher. st may be nil for runs that
// only exercise the embedding side.
func NewEmbedDispatcher(e embedder.Embedder, st *store.Store) *EmbedDispatcher {
	return &EmbedDispatcher{embedder: e, store: st}
}

// Dispatch embeds one batch and writes the results.
func (d *EmbedDispatcher) Dispatch(ctx context.Context, batch *types.Batch) error {
	embs, err := d.embedder.EmbedBatch(ctx, batch.Texts())
	if err != nil {
		return err
	}

	if d.store == nil {
		return nil
	}
	if err := d.store.SaveChunks(ctx, batch.Chunks); err != nil {
		return fmt.Errorf("saving chunks for batch %s: %w", batch.ID, err)
	}
	if err := d.store.SaveEmbeddings(ctx, batch.Chunks, embs); err != nil {
		return fmt.Errorf("saving embeddings for batch %s: %w", batch.ID, err)
	}
	return nil
}
