package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/internal/token"
	"github.com/codesplice/codesplice/pkg/types"
)

// recordingDispatcher captures dispatched batches; safe for concurrent use
// although the planner drives it sequentially.
type recordingDispatcher struct {
	mu      sync.Mutex
	batches []*types.Batch
	err     error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, batch *types.Batch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.batches = append(d.batches, batch)
	return nil
}

func (d *recordingDispatcher) chunkCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, b := range d.batches {
		n += b.Size()
	}
	return n
}

func goDoc(i int) *types.Document {
	return &types.Document{
		Path:     fmt.Sprintf("pkg/file_%03d.go", i),
		Language: types.LangGo,
		Content: fmt.Sprintf(`package pkg

// Handler%d does one thing.
func Handler%d() int {
	return %d
}
`, i, i, i),
	}
}

func TestPipeline_Ingest(t *testing.T) {
	disp := &recordingDispatcher{}
	p, err := New(config.Default(), token.NewHeuristic(), disp, zerolog.Nop())
	require.NoError(t, err)

	docs := []*types.Document{
		goDoc(0),
		{Path: "app.py", Language: types.LangPython, Content: "class A:\n    def m(self):\n        pass\n"},
		{Path: "empty.go", Language: types.LangGo, Content: ""},
		{Path: "data.txt", Content: "plain text notes\n"},
	}

	report, err := p.Ingest(context.Background(), docs)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.DocumentsFailed)
	assert.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "empty.go")
	assert.Greater(t, report.ChunksCreated, 0)
	assert.GreaterOrEqual(t, report.BatchesSent, 1)
	assert.Zero(t, report.ChunksFailed)

	// Every created chunk was dispatched.
	assert.Equal(t, report.ChunksCreated, disp.chunkCount())
}

func TestPipeline_PreservesDocumentOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 4
	disp := &recordingDispatcher{}
	p, err := New(cfg, token.NewHeuristic(), disp, zerolog.Nop())
	require.NoError(t, err)

	var docs []*types.Document
	for i := 0; i < 40; i++ {
		docs = append(docs, goDoc(i))
	}

	_, err = p.Ingest(context.Background(), docs)
	require.NoError(t, err)

	var sources []string
	for _, b := range disp.batches {
		for _, c := range b.Chunks {
			sources = append(sources, c.Metadata.Source)
		}
	}
	require.NotEmpty(t, sources)
	for i := 1; i < len(sources); i++ {
		assert.LessOrEqual(t, sources[i-1], sources[i])
	}
}

func TestPipeline_MalformedSourceFallsBack(t *testing.T) {
	disp := &recordingDispatcher{}
	p, err := New(config.Default(), token.NewHeuristic(), disp, zerolog.Nop())
	require.NoError(t, err)

	report, err := p.Ingest(context.Background(), []*types.Document{
		{Path: "broken.py", Language: types.LangPython, Content: "def broken(:\n    pass\n"},
	})
	require.NoError(t, err)

	assert.Zero(t, report.DocumentsFailed)
	assert.Greater(t, report.ChunksCreated, 0)
	require.NotEmpty(t, disp.batches)
	assert.Equal(t, types.ChunkFallback, disp.batches[0].Chunks[0].Metadata.ChunkType)
}

func TestPipeline_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ChunkOverlap = cfg.ChunkSize + 1

	_, err := New(cfg, token.NewHeuristic(), &recordingDispatcher{}, zerolog.Nop())
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestPipeline_Cancellation(t *testing.T) {
	disp := &recordingDispatcher{}
	p, err := New(config.Default(), token.NewHeuristic(), disp, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Ingest(ctx, []*types.Document{goDoc(0)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadDocuments(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write("main.go", "package main\n")
	write("lib/util.py", "x = 1\n")
	write("lib/util_test.go", "package lib\n")
	write("web/app.spec.js", "test()\n")
	write("README.md", "# readme\n")
	write("image.png", "binary")
	write("node_modules/dep/index.js", "module.exports = {}\n")
	write(".git/config", "[core]\n")

	docs, err := LoadDocuments(root, LoaderOptions{Repository: "example/repo", Commit: "abc123"})
	require.NoError(t, err)

	paths := make(map[string]types.Language)
	for _, d := range docs {
		paths[d.Path] = d.Language
		assert.Equal(t, "example/repo", d.Repository)
		assert.Equal(t, "abc123", d.Commit)
	}

	assert.Len(t, docs, 3)
	assert.Equal(t, types.LangGo, paths["main.go"])
	assert.Equal(t, types.LangPython, paths["lib/util.py"])
	assert.Equal(t, types.LangMarkdown, paths["README.md"])
}

func TestLoadDocuments_OversizedFileSkippedWithWarning(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "small.go"), []byte("package x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "huge.go"),
		[]byte("package x\n"+strings.Repeat("// padding\n", 20)), 0o644))

	var buf bytes.Buffer
	docs, err := LoadDocuments(root, LoaderOptions{
		MaxFileSize: 64,
		Log:         zerolog.New(&buf),
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "small.go", docs[0].Path)

	assert.Contains(t, buf.String(), "huge.go")
	assert.Contains(t, buf.String(), "skipping oversized file")
}

func TestLoadDocuments_IncludeTests(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "util_test.go"), []byte("package x\n"), 0o644))

	docs, err := LoadDocuments(root, LoaderOptions{IncludeTests: true})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "util_test.go", docs[0].Path)
}
