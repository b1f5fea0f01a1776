package chunker

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/pkg/types"
)

// ChunkerInfo describes one registered chunker for diagnostics output.
type ChunkerInfo struct {
	Name       string
	Extensions []string
}

// DocumentFailure records one document the factory could not chunk.
type DocumentFailure struct {
	Path string
	Err  error
}

// Factory routes documents to chunkers by file extension. Unknown extensions
// go to the fallback chunker, so every document yields chunks unless its
// content is empty.
type Factory struct {
	cfg      *config.Config
	registry map[string]Chunker
	fallback *Fallback
	enforcer *Enforcer
	log      zerolog.Logger
}

// NewFactory builds a factory with every language chunker registered. Pass
// cfg.UseStructural=false to route all source files through the fallback.
func NewFactory(cfg *config.Config, log zerolog.Logger) *Factory {
	fallback := NewFallback(cfg.ChunkSize, cfg.ChunkOverlap)
	f := &Factory{
		cfg:      cfg,
		registry: make(map[string]Chunker),
		fallback: fallback,
		enforcer: NewEnforcer(cfg.HardChunkCeiling),
		log:      log.With().Str("component", "chunker").Logger(),
	}

	if cfg.UseStructural {
		f.Register(NewGoChunker(cfg, fallback, log))
		f.Register(NewPythonChunker(cfg, fallback, log))
		f.Register(NewCSharpChunker(cfg, fallback, log))
		f.Register(NewJavaScriptChunker(cfg, fallback, log))
		f.Register(NewTypeScriptChunker(cfg, fallback, log))
	}
	f.Register(NewDocsChunker(cfg))
	return f
}

// Register maps the chunker's extensions to it. Later registrations win, so
// callers can override a built-in chunker for an extension.
func (f *Factory) Register(c Chunker) {
	for _, ext := range c.SupportedExtensions() {
		f.registry[strings.ToLower(ext)] = c
	}
}

// ChunkerFor returns the chunker that will handle the given path.
func (f *Factory) ChunkerFor(path string) Chunker {
	ext := strings.ToLower(filepath.Ext(path))
	if c, ok := f.registry[ext]; ok {
		return c
	}
	return f.fallback
}

// ChunkDocument chunks a single document and applies the hard size ceiling
// to the result.
func (f *Factory) ChunkDocument(doc *types.Document) ([]*types.Chunk, error) {
	c := f.ChunkerFor(doc.Path)
	chunks, err := c.ChunkDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("chunking %s with %s: %w", doc.Path, c.Name(), err)
	}
	return f.enforcer.Enforce(chunks), nil
}

// ChunkDocuments chunks a set of documents. A failed document is recorded
// and skipped; the remaining documents are still chunked.
func (f *Factory) ChunkDocuments(docs []*types.Document) ([]*types.Chunk, []DocumentFailure) {
	var (
		chunks   []*types.Chunk
		failures []DocumentFailure
	)
	for _, doc := range docs {
		out, err := f.ChunkDocument(doc)
		if err != nil {
			f.log.Error().Err(err).Str("path", doc.Path).Msg("document chunking failed")
			failures = append(failures, DocumentFailure{Path: doc.Path, Err: err})
			continue
		}
		chunks = append(chunks, out...)
	}
	return chunks, failures
}

// SupportedExtensions lists every registered extension, sorted.
func (f *Factory) SupportedExtensions() []string {
	exts := make([]string, 0, len(f.registry))
	for ext := range f.registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Chunkers reports the registered chunkers and their extensions.
func (f *Factory) Chunkers() []ChunkerInfo {
	byName := make(map[string][]string)
	for ext, c := range f.registry {
		byName[c.Name()] = append(byName[c.Name()], ext)
	}
	infos := make([]ChunkerInfo, 0, len(byName))
	for name, exts := range byName {
		sort.Strings(exts)
		infos = append(infos, ChunkerInfo{Name: name, Extensions: exts})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Close releases parser resources held by registered chunkers.
func (f *Factory) Close() {
	seen := make(map[Chunker]bool)
	for _, c := range f.registry {
		if seen[c] {
			continue
		}
		seen[c] = true
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
