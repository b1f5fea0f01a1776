package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/codesplice/codesplice/internal/chunker"
	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/internal/planner"
	"github.com/codesplice/codesplice/internal/token"
	"github.com/codesplice/codesplice/pkg/types"
)

// Report summarizes one ingestion run. Partial failures are recorded here,
// not raised; only configuration errors and cancellation abort a run.
type Report struct {
	RunID            string
	ChunksCreated    int
	BatchesSent      int
	DocumentsFailed  int
	ChunksFailed     int
	OversizedBatches int
	Errors           []string
	Duration         time.Duration
}

// Pipeline drives documents through chunking, batch planning, and dispatch.
type Pipeline struct {
	cfg       *config.Config
	estimator token.Estimator
	disp      planner.Dispatcher
	log       zerolog.Logger
}

// New validates the configuration and builds a pipeline. A validation error
// is fatal; the pipeline never runs on a partially valid config.
func New(cfg *config.Config, est token.Estimator, disp planner.Dispatcher, log zerolog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:       cfg,
		estimator: est,
		disp:      disp,
		log:       log.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Ingest chunks the documents, packs the chunks into batches, and dispatches
// them. Chunking fans out across a bounded worker pool; each worker owns its
// own chunker factory because parser instances are not shared across
// goroutines. Results merge in document order before the sequential planning
// phase, so batch membership is deterministic. Input documents are never
// mutated.
func (p *Pipeline) Ingest(ctx context.Context, docs []*types.Document) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	log := p.log.With().Str("run_id", report.RunID).Logger()
	log.Info().Int("documents", len(docs)).Msg("ingestion started")

	results := make([][]*types.Chunk, len(docs))
	docErrs := make([]error, len(docs))

	indices := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < p.cfg.Workers; w++ {
		g.Go(func() error {
			factory := chunker.NewFactory(p.cfg, log)
			defer factory.Close()

			for i := range indices {
				// Cancellation is honored between documents, never
				// mid-parse.
				if err := gctx.Err(); err != nil {
					return err
				}
				chunks, err := factory.ChunkDocument(docs[i])
				if err != nil {
					docErrs[i] = err
					continue
				}
				results[i] = chunks
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(indices)
		for i := range docs {
			select {
			case indices <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		report.Duration = time.Since(start)
		return report, err
	}

	// Stable document-order merge.
	var all []*types.Chunk
	for i, chunks := range results {
		if docErrs[i] != nil {
			report.DocumentsFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", docs[i].Path, docErrs[i]))
			continue
		}
		all = append(all, chunks...)
	}
	report.ChunksCreated = len(all)

	// Batch planning is sequential: membership depends on the running token
	// total across the whole stream.
	pl := planner.New(p.cfg, p.estimator, p.disp, log)
	res, err := pl.PlanAndDispatch(ctx, all)

	report.BatchesSent = res.BatchesSent
	report.OversizedBatches = res.OversizedBatches
	report.ChunksFailed = len(res.ChunksFailed)
	for _, f := range res.ChunksFailed {
		report.Errors = append(report.Errors,
			fmt.Sprintf("%s (batch %s): %v", f.Chunk.Metadata.Source, f.BatchID, f.Err))
	}
	report.Duration = time.Since(start)

	log.Info().Int("chunks_created", report.ChunksCreated).
		Int("batches_sent", report.BatchesSent).
		Int("documents_failed", report.DocumentsFailed).
		Int("chunks_failed", report.ChunksFailed).
		Dur("duration", report.Duration).
		Msg("ingestion finished")

	return report, err
}
