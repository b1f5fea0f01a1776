// Package store persists chunks and their embeddings in SQLite. It is the
// glue between the chunking core and later retrieval; the core itself never
// depends on it.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/codesplice/codesplice/internal/embedder"
	"github.com/codesplice/codesplice/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
    hash TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    repository TEXT,
    commit_sha TEXT,
    language TEXT,
    chunk_type TEXT NOT NULL,
    symbol_name TEXT,
    parent_symbol TEXT,
    line_start INTEGER NOT NULL,
    line_end INTEGER NOT NULL,
    contains_documentation INTEGER NOT NULL DEFAULT 0,
    symbols TEXT,
    text TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
CREATE INDEX IF NOT EXISTS idx_chunks_symbol ON chunks(symbol_name);

CREATE TABLE IF NOT EXISTS embeddings (
    chunk_hash TEXT PRIMARY KEY,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    vector BLOB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (chunk_hash) REFERENCES chunks(hash) ON DELETE CASCADE
);
`

// Store is a thin SQLite-backed chunk and embedding writer.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// ChunkKey returns the stable storage key for a chunk: the hex of its
// content hash.
func ChunkKey(c *types.Chunk) string {
	h := c.Hash()
	return hex.EncodeToString(h[:])
}

// SaveChunks upserts chunks by content hash inside one transaction.
// Re-ingesting unchanged content refreshes metadata without duplicating
// rows.
func (s *Store) SaveChunks(ctx context.Context, chunks []*types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (hash, source, repository, commit_sha, language, chunk_type,
			symbol_name, parent_symbol, line_start, line_end, contains_documentation, symbols, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			source = excluded.source,
			repository = excluded.repository,
			commit_sha = excluded.commit_sha,
			line_start = excluded.line_start,
			line_end = excluded.line_end,
			updated_at = ?`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, c := range chunks {
		m := c.Metadata
		_, err := stmt.ExecContext(ctx,
			ChunkKey(c), m.Source, m.Repository, m.Commit, string(m.Language), string(m.ChunkType),
			m.SymbolName, m.ParentSymbol, m.LineStart, m.LineEnd, m.ContainsDocumentation,
			strings.Join(m.Symbols, ","), c.Text, now)
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", m.Source, err)
		}
	}

	return tx.Commit()
}

// SaveEmbeddings stores one embedding per chunk, matched by index. The
// chunks must already be saved.
func (s *Store) SaveEmbeddings(ctx context.Context, chunks []*types.Chunk, embs []*embedder.Embedding) error {
	if len(chunks) != len(embs) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embs))
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (chunk_hash, provider, model, dimension, vector)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chunk_hash) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			dimension = excluded.dimension,
			vector = excluded.vector`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, c := range chunks {
		emb := embs[i]
		_, err := stmt.ExecContext(ctx,
			ChunkKey(c), emb.Provider, emb.Model, emb.Dimension, EncodeVector(emb.Vector))
		if err != nil {
			return fmt.Errorf("upsert embedding for %s: %w", c.Metadata.Source, err)
		}
	}

	return tx.Commit()
}

// GetEmbedding loads the stored vector for a chunk key.
func (s *Store) GetEmbedding(ctx context.Context, key string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE chunk_hash = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("embedding %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return DecodeVector(blob)
}

// Stats summarizes the store contents.
type Stats struct {
	Chunks     int
	Embeddings int
	Sources    int
}

// GetStats counts stored chunks, embeddings, and distinct source files.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	row := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM chunks),
		       (SELECT COUNT(*) FROM embeddings),
		       (SELECT COUNT(DISTINCT source) FROM chunks)`)
	if err := row.Scan(&st.Chunks, &st.Embeddings, &st.Sources); err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	return st, nil
}

// EncodeVector serializes a float32 vector as little-endian bytes.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector deserializes a vector produced by EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
