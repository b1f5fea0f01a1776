package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/internal/token"
	"github.com/codesplice/codesplice/pkg/types"
)

// State tracks one batch through its lifecycle.
type State int

const (
	StateAccumulating State = iota
	StateSealed
	StateDispatching
	StateSucceeded
	StateOverflowed
)

func (s State) String() string {
	switch s {
	case StateAccumulating:
		return "accumulating"
	case StateSealed:
		return "sealed"
	case StateDispatching:
		return "dispatching"
	case StateSucceeded:
		return "succeeded"
	case StateOverflowed:
		return "overflowed"
	default:
		return "unknown"
	}
}

// Dispatcher receives sealed batches. A dispatcher that cannot accept a
// batch because of its token size must return an error wrapping
// types.ErrTokenLimitExceeded; any other error is treated as non-retryable.
type Dispatcher interface {
	Dispatch(ctx context.Context, batch *types.Batch) error
}

// ChunkFailure records one chunk that could not be dispatched after all
// retries. Failed chunks are reported, never silently dropped.
type ChunkFailure struct {
	Chunk   *types.Chunk
	BatchID string
	Err     error
}

// Result summarizes one planning run. ChunksSent plus the failure count
// always equals the number of chunks handed to PlanAndDispatch.
type Result struct {
	BatchesSent      int
	ChunksSent       int
	OversizedBatches int
	ChunksFailed     []ChunkFailure
}

// Planner packs chunks into token-budgeted batches and dispatches them in
// order. Planning is sequential; batch membership depends on the running
// token total across the whole chunk stream.
type Planner struct {
	cfg       *config.Config
	estimator token.Estimator
	disp      Dispatcher
	log       zerolog.Logger
}

// New creates a planner. The config must already be validated.
func New(cfg *config.Config, est token.Estimator, disp Dispatcher, log zerolog.Logger) *Planner {
	return &Planner{
		cfg:       cfg,
		estimator: est,
		disp:      disp,
		log:       log.With().Str("component", "planner").Logger(),
	}
}

// PlanAndDispatch consumes the chunk queue in order, sealing a batch
// whenever the next chunk would push the running estimate past
// MaxTokensPerBatch or the batch past EmbeddingBatchSize. A single chunk
// whose own estimate exceeds the ceiling ships as an oversized solo batch.
// Cancellation is checked between batches, never mid-dispatch.
func (p *Planner) PlanAndDispatch(ctx context.Context, chunks []*types.Chunk) (*Result, error) {
	res := &Result{}
	queue := make([]*types.Chunk, len(chunks))
	copy(queue, chunks)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		var batch *types.Batch
		batch, queue = p.accumulate(queue)

		if batch.Oversized {
			p.log.Warn().Str("batch_id", batch.ID).Int("estimated_tokens", batch.EstimatedTokens).
				Str("source", batch.Chunks[0].Metadata.Source).
				Msg("single chunk exceeds token ceiling, dispatching as oversized solo batch")
			res.OversizedBatches++
		}

		queue = p.dispatchSealed(ctx, batch, queue, res)
	}

	return res, ctx.Err()
}

// accumulate pulls chunks off the queue front into a new batch until the
// next chunk would overflow. It returns the sealed batch and the remaining
// queue; the batch is never empty.
func (p *Planner) accumulate(queue []*types.Chunk) (*types.Batch, []*types.Chunk) {
	batch := &types.Batch{ID: uuid.NewString()}

	for len(queue) > 0 {
		c := queue[0]
		est := p.estimator.Estimate(c.Text)

		if est > p.cfg.MaxTokensPerBatch && len(batch.Chunks) == 0 {
			// The one case where a batch may exceed the ceiling.
			batch.Chunks = append(batch.Chunks, c)
			batch.EstimatedTokens = est
			batch.Oversized = true
			return batch, queue[1:]
		}
		if batch.EstimatedTokens+est > p.cfg.MaxTokensPerBatch {
			break
		}
		if len(batch.Chunks) >= p.cfg.EmbeddingBatchSize {
			break
		}

		batch.Chunks = append(batch.Chunks, c)
		batch.EstimatedTokens += est
		queue = queue[1:]
	}

	p.log.Debug().Str("batch_id", batch.ID).Int("chunks", batch.Size()).
		Int("estimated_tokens", batch.EstimatedTokens).Str("state", StateSealed.String()).
		Msg("batch sealed")
	return batch, queue
}

// dispatchSealed runs one sealed batch through dispatch with halve-and-retry.
// On a token-limit error the batch is halved: the front half is retried and
// the remainder goes back to the queue front for reaccumulation. After
// MaxSplitRetries halvings the surviving batch is dispatched chunk by chunk.
// The updated queue is returned.
func (p *Planner) dispatchSealed(ctx context.Context, batch *types.Batch, queue []*types.Chunk, res *Result) []*types.Chunk {
	current := batch

	for attempt := 0; ; attempt++ {
		err := p.dispatchOnce(ctx, current)
		if err == nil {
			res.BatchesSent++
			res.ChunksSent += current.Size()
			p.log.Debug().Str("batch_id", current.ID).Str("state", StateSucceeded.String()).
				Msg("batch dispatched")
			return queue
		}

		if !errors.Is(err, types.ErrTokenLimitExceeded) {
			p.failBatch(current, err, res)
			return queue
		}

		p.log.Warn().Str("batch_id", current.ID).Int("attempt", attempt+1).
			Int("chunks", current.Size()).Str("state", StateOverflowed.String()).
			Msg("dispatcher rejected batch over token limit")

		if attempt >= p.cfg.MaxSplitRetries || current.Size() <= 1 {
			return p.dispatchPerChunk(ctx, current, queue, res)
		}

		half := current.Size() / 2
		remainder := current.Chunks[half:]
		queue = append(remainder, queue...)
		current = p.rebuild(current.Chunks[:half])
	}
}

// dispatchPerChunk is the escalation path after halving is exhausted: every
// chunk of the failed batch ships as its own batch, and chunks the
// dispatcher still rejects are recorded as failed.
func (p *Planner) dispatchPerChunk(ctx context.Context, batch *types.Batch, queue []*types.Chunk, res *Result) []*types.Chunk {
	p.log.Warn().Str("batch_id", batch.ID).Int("chunks", batch.Size()).
		Msg("escalating to per-chunk dispatch")

	for i, c := range batch.Chunks {
		if err := ctx.Err(); err != nil {
			// Undispatched chunks from this batch are recorded, and the
			// outer loop stops on the same cancellation.
			for _, rest := range batch.Chunks[i:] {
				res.ChunksFailed = append(res.ChunksFailed, ChunkFailure{Chunk: rest, BatchID: batch.ID, Err: err})
			}
			return queue
		}

		solo := p.rebuild([]*types.Chunk{c})
		if err := p.dispatchOnce(ctx, solo); err != nil {
			p.log.Error().Err(err).Str("batch_id", solo.ID).
				Str("source", c.Metadata.Source).Str("symbol", c.Metadata.SymbolName).
				Msg("chunk failed after per-chunk escalation")
			res.ChunksFailed = append(res.ChunksFailed, ChunkFailure{Chunk: c, BatchID: solo.ID, Err: err})
			continue
		}
		res.BatchesSent++
		res.ChunksSent++
	}
	return queue
}

// dispatchOnce hands one batch to the dispatcher under the dispatch timeout.
// A timed-out dispatch is retried once before the timeout is surfaced.
func (p *Planner) dispatchOnce(ctx context.Context, batch *types.Batch) error {
	var lastErr error
	for try := 0; try < 2; try++ {
		dctx, cancel := context.WithTimeout(ctx, p.cfg.DispatchTimeout)
		err := p.disp.Dispatch(dctx, batch)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		timedOut := errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
		if !timedOut {
			return err
		}
		p.log.Warn().Str("batch_id", batch.ID).Msg("dispatch timed out, requeueing once")
	}
	return fmt.Errorf("dispatch timed out after retry: %w", lastErr)
}

// failBatch records every chunk of a batch that hit a non-retryable error.
func (p *Planner) failBatch(batch *types.Batch, err error, res *Result) {
	p.log.Error().Err(err).Str("batch_id", batch.ID).Int("chunks", batch.Size()).
		Msg("batch failed with non-retryable error")
	for _, c := range batch.Chunks {
		res.ChunksFailed = append(res.ChunksFailed, ChunkFailure{Chunk: c, BatchID: batch.ID, Err: err})
	}
}

// rebuild seals a fresh batch over a chunk subset with a new ID and a
// recomputed estimate.
func (p *Planner) rebuild(chunks []*types.Chunk) *types.Batch {
	return &types.Batch{
		ID:              uuid.NewString(),
		Chunks:          chunks,
		EstimatedTokens: token.EstimateChunks(p.estimator, chunks),
	}
}
