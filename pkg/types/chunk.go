package types

import (
	"crypto/sha256"
	"errors"
)

// ChunkType classifies a chunk by the kind of source region it covers.
type ChunkType string

const (
	ChunkImportBlock ChunkType = "import_block"
	ChunkClass       ChunkType = "class"
	ChunkFunction    ChunkType = "function"
	ChunkMethod      ChunkType = "method"
	ChunkModuleDoc   ChunkType = "module_doc"
	ChunkStatements  ChunkType = "statement_block"
	ChunkDocSection  ChunkType = "doc_section"
	ChunkFallback    ChunkType = "fallback"
)

// ChunkMetadata carries attribution and typing for one chunk. Line numbers
// are 1-based and inclusive; for structurally chunked documents they come
// straight from parser element boundaries.
type ChunkMetadata struct {
	ChunkType    ChunkType
	SymbolName   string // primary symbol, empty for import/fallback chunks
	ParentSymbol string // enclosing class when a method was split out
	Language     Language
	LineStart    int
	LineEnd      int

	// ContainsDocumentation is true when the chunk includes a doc comment
	// or docstring.
	ContainsDocumentation bool

	// Symbols lists every named element the chunk covers, in source order.
	Symbols []string

	// Source identifies the originating document.
	Source     string
	Repository string
	Commit     string
}

// Chunk is a bounded text unit with metadata, the unit of embedding and
// retrieval. Chunks are immutable value objects once emitted; the size
// enforcer rewrites oversized chunks by replacing them with fragments.
type Chunk struct {
	Text     string
	Metadata ChunkMetadata
}

// Hash returns the SHA-256 hash of the chunk text, used for deduplication
// and embedding-cache keys.
func (c *Chunk) Hash() [32]byte {
	return sha256.Sum256([]byte(c.Text))
}

// Validate checks structural invariants of the chunk.
func (c *Chunk) Validate() error {
	if c.Text == "" {
		return errors.New("chunk text cannot be empty")
	}
	if c.Metadata.LineStart <= 0 || c.Metadata.LineEnd <= 0 {
		return errors.New("line numbers must be positive")
	}
	if c.Metadata.LineStart > c.Metadata.LineEnd {
		return errors.New("start line must be before or equal to end line")
	}
	if c.Metadata.Source == "" {
		return errors.New("source document reference is required")
	}
	return nil
}

// Batch is an ordered group of chunks dispatched together to the embedding
// collaborator. EstimatedTokens is the planner's estimate at seal time and
// must not exceed the configured ceiling, except for the documented
// single-oversized-chunk case.
type Batch struct {
	ID              string
	Chunks          []*Chunk
	EstimatedTokens int

	// Oversized marks the one permitted exception to the batch token
	// invariant: a single chunk whose own estimate exceeds the ceiling.
	Oversized bool
}

// Size returns the number of chunks in the batch.
func (b *Batch) Size() int {
	return len(b.Chunks)
}

// Texts returns the chunk texts in batch order, the shape the embedding
// collaborator consumes.
func (b *Batch) Texts() []string {
	out := make([]string, len(b.Chunks))
	for i, c := range b.Chunks {
		out[i] = c.Text
	}
	return out
}
