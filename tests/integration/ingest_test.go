package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/internal/pipeline"
	"github.com/codesplice/codesplice/internal/store"
	"github.com/codesplice/codesplice/internal/token"
	"github.com/codesplice/codesplice/pkg/types"
)

// IngestTestSuite runs the full pipeline over the fixture repository.
type IngestTestSuite struct {
	suite.Suite
	fixturesDir string
	ctx         context.Context
}

func (s *IngestTestSuite) SetupSuite() {
	s.ctx = context.Background()

	wd, err := os.Getwd()
	s.Require().NoError(err)
	s.fixturesDir = filepath.Join(filepath.Dir(wd), "testdata", "fixtures")

	_, err = os.Stat(s.fixturesDir)
	s.Require().NoError(err, "fixtures directory should exist")
}

func (s *IngestTestSuite) loadFixtures() []*types.Document {
	docs, err := pipeline.LoadDocuments(s.fixturesDir, pipeline.LoaderOptions{
		Repository: "warehouse/sample",
		Commit:     "deadbeef",
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(docs)
	return docs
}

func (s *IngestTestSuite) TestIngestFixtureRepository() {
	emb := NewMockEmbedder(64)
	st, err := store.Open(filepath.Join(s.T().TempDir(), "ingest.db"))
	s.Require().NoError(err)
	defer func() { _ = st.Close() }()

	p, err := pipeline.New(config.Default(), token.NewHeuristic(),
		pipeline.NewEmbedDispatcher(emb, st), zerolog.Nop())
	s.Require().NoError(err)

	report, err := p.Ingest(s.ctx, s.loadFixtures())
	s.Require().NoError(err)

	s.Zero(report.DocumentsFailed, "every fixture must chunk, broken ones via fallback")
	s.Zero(report.ChunksFailed)
	s.Greater(report.ChunksCreated, 5)
	s.GreaterOrEqual(report.BatchesSent, 1)

	stats, err := st.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(report.ChunksCreated, stats.Chunks)
	s.Equal(report.ChunksCreated, stats.Embeddings)
}

func (s *IngestTestSuite) TestMalformedFixtureFallsBack() {
	emb := NewMockEmbedder(16)
	p, err := pipeline.New(config.Default(), token.NewHeuristic(),
		pipeline.NewEmbedDispatcher(emb, nil), zerolog.Nop())
	s.Require().NoError(err)

	content, err := os.ReadFile(filepath.Join(s.fixturesDir, "legacy.js"))
	s.Require().NoError(err)

	report, err := p.Ingest(s.ctx, []*types.Document{{
		Path:     "legacy.js",
		Language: types.LangJavaScript,
		Content:  string(content),
	}})
	s.Require().NoError(err)

	s.Zero(report.DocumentsFailed)
	s.Greater(report.ChunksCreated, 0)
}

func (s *IngestTestSuite) TestTokenLimitTriggersHalving() {
	emb := NewMockEmbedder(16)
	// Well below the fixture total but above any single chunk, so halving
	// always converges without per-chunk failures.
	emb.TokenLimit = 2500

	p, err := pipeline.New(config.Default(), token.NewHeuristic(),
		pipeline.NewEmbedDispatcher(emb, nil), zerolog.Nop())
	s.Require().NoError(err)

	report, err := p.Ingest(s.ctx, s.loadFixtures())
	s.Require().NoError(err)

	s.GreaterOrEqual(report.BatchesSent, 2)
	s.Greater(emb.Calls(), report.BatchesSent, "rejected attempts precede successes")
	s.Zero(report.ChunksFailed, "halving splits batches until they fit; nothing is lost")
}

func (s *IngestTestSuite) TestReingestIsIdempotent() {
	emb := NewMockEmbedder(32)
	st, err := store.Open(filepath.Join(s.T().TempDir(), "reingest.db"))
	s.Require().NoError(err)
	defer func() { _ = st.Close() }()

	p, err := pipeline.New(config.Default(), token.NewHeuristic(),
		pipeline.NewEmbedDispatcher(emb, st), zerolog.Nop())
	s.Require().NoError(err)

	docs := s.loadFixtures()
	first, err := p.Ingest(s.ctx, docs)
	s.Require().NoError(err)
	second, err := p.Ingest(s.ctx, docs)
	s.Require().NoError(err)

	s.Equal(first.ChunksCreated, second.ChunksCreated)

	stats, err := st.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(first.ChunksCreated, stats.Chunks, "upsert by content hash must not duplicate")
}

func TestIngestTestSuite(t *testing.T) {
	suite.Run(t, new(IngestTestSuite))
}
