// Package config defines the chunking and batching configuration surface.
// Settings are loaded once at pipeline start and are read-only thereafter.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/codesplice/codesplice/pkg/types"
)

// Defaults for all tunables. Every setting can be overridden through the
// environment (CODESPLICE_* variables) or programmatically before Validate.
const (
	DefaultChunkSize          = 1500
	DefaultChunkOverlap       = 200
	DefaultMaxChunkSize       = 2000
	DefaultHardChunkCeiling   = 8000
	DefaultMaxTokensPerBatch  = 250_000
	DefaultEmbeddingBatchSize = 100
	DefaultMaxSplitRetries    = 3
	DefaultDispatchTimeout    = 60 * time.Second
)

// ExtensionConfig holds per-extension chunking overrides. Zero values fall
// back to the global defaults at lookup time.
type ExtensionConfig struct {
	MaxChunkSize               int  `validate:"gte=0"`
	ChunkOverlap               int  `validate:"gte=0"`
	PreserveTypeBoundaries     bool // keep whole classes in one chunk when they fit
	PreserveFunctionBoundaries bool // never cut inside a function below the hard ceiling
	IncludeDocstrings          bool // emit module docstrings as their own chunks
}

// Config is the process-wide chunking configuration. It is constructed
// explicitly, validated once, and passed by reference into the factory,
// planner, and pipeline; nothing mutates it after initialization.
type Config struct {
	// Fallback sliding-window settings.
	ChunkSize    int `validate:"gt=0"`
	ChunkOverlap int `validate:"gte=0"`

	// UseStructural selects structural chunking for supported extensions.
	// When false every document takes the fallback path.
	UseStructural bool

	// HardChunkCeiling is the absolute character limit enforced on every
	// chunk regardless of per-extension settings.
	HardChunkCeiling int `validate:"gt=0"`

	// Batch planning.
	MaxTokensPerBatch  int           `validate:"gt=0"`
	EmbeddingBatchSize int           `validate:"gt=0"`
	MaxSplitRetries    int           `validate:"gte=0"`
	DispatchTimeout    time.Duration `validate:"gt=0"`

	// Workers bounds the chunking worker pool. Defaults to NumCPU.
	Workers int `validate:"gt=0"`

	// Extensions maps a file extension (with leading dot) to its overrides.
	Extensions map[string]ExtensionConfig
}

// Default returns a Config populated with documented defaults, including
// per-extension overrides for the supported source languages.
func Default() *Config {
	return &Config{
		ChunkSize:          DefaultChunkSize,
		ChunkOverlap:       DefaultChunkOverlap,
		UseStructural:      true,
		HardChunkCeiling:   DefaultHardChunkCeiling,
		MaxTokensPerBatch:  DefaultMaxTokensPerBatch,
		EmbeddingBatchSize: DefaultEmbeddingBatchSize,
		MaxSplitRetries:    DefaultMaxSplitRetries,
		DispatchTimeout:    DefaultDispatchTimeout,
		Workers:            runtime.NumCPU(),
		Extensions: map[string]ExtensionConfig{
			".go":  defaultSourceExtension(),
			".py":  defaultSourceExtension(),
			".cs":  defaultSourceExtension(),
			".js":  defaultSourceExtension(),
			".jsx": defaultSourceExtension(),
			".mjs": defaultSourceExtension(),
			".ts":  defaultSourceExtension(),
			".tsx": defaultSourceExtension(),
		},
	}
}

func defaultSourceExtension() ExtensionConfig {
	return ExtensionConfig{
		MaxChunkSize:               DefaultMaxChunkSize,
		ChunkOverlap:               0, // structural chunks never overlap
		PreserveTypeBoundaries:     true,
		PreserveFunctionBoundaries: true,
		IncludeDocstrings:          true,
	}
}

// FromEnv builds a Config from defaults overridden by CODESPLICE_*
// environment variables.
func FromEnv() *Config {
	cfg := Default()
	cfg.ChunkSize = envInt("CODESPLICE_CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = envInt("CODESPLICE_CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.UseStructural = envBool("CODESPLICE_USE_STRUCTURAL", cfg.UseStructural)
	cfg.HardChunkCeiling = envInt("CODESPLICE_HARD_CHUNK_CEILING", cfg.HardChunkCeiling)
	cfg.MaxTokensPerBatch = envInt("CODESPLICE_MAX_TOKENS_PER_BATCH", cfg.MaxTokensPerBatch)
	cfg.EmbeddingBatchSize = envInt("CODESPLICE_EMBEDDING_BATCH_SIZE", cfg.EmbeddingBatchSize)
	cfg.MaxSplitRetries = envInt("CODESPLICE_MAX_SPLIT_RETRIES", cfg.MaxSplitRetries)
	cfg.DispatchTimeout = envDuration("CODESPLICE_DISPATCH_TIMEOUT", cfg.DispatchTimeout)
	cfg.Workers = envInt("CODESPLICE_WORKERS", cfg.Workers)
	return cfg
}

// Extension returns the effective settings for an extension. A zero
// MaxChunkSize on a known extension is back-filled from DefaultMaxChunkSize;
// a zero ChunkOverlap stays zero since structural chunks do not overlap.
// Unknown extensions get fallback settings.
func (c *Config) Extension(ext string) ExtensionConfig {
	ec, ok := c.Extensions[ext]
	if !ok {
		return ExtensionConfig{
			MaxChunkSize: c.ChunkSize,
			ChunkOverlap: c.ChunkOverlap,
		}
	}
	if ec.MaxChunkSize == 0 {
		ec.MaxChunkSize = DefaultMaxChunkSize
	}
	return ec
}

// Validate checks the configuration and returns an error wrapping
// types.ErrConfiguration on the first violation. Callers treat any error
// as fatal; the pipeline never runs with a partially valid config.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", types.ErrConfiguration, err)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			types.ErrConfiguration, c.ChunkOverlap, c.ChunkSize)
	}
	for ext, ec := range c.Extensions {
		if ec.MaxChunkSize > c.HardChunkCeiling {
			return fmt.Errorf("%w: extension %s max_chunk_size (%d) exceeds hard ceiling (%d)",
				types.ErrConfiguration, ext, ec.MaxChunkSize, c.HardChunkCeiling)
		}
		if ec.ChunkOverlap > 0 && ec.MaxChunkSize > 0 && ec.ChunkOverlap >= ec.MaxChunkSize {
			return fmt.Errorf("%w: extension %s chunk_overlap (%d) must be smaller than max_chunk_size (%d)",
				types.ErrConfiguration, ext, ec.ChunkOverlap, ec.MaxChunkSize)
		}
	}
	if c.ChunkSize > c.HardChunkCeiling {
		return fmt.Errorf("%w: chunk_size (%d) exceeds hard ceiling (%d)",
			types.ErrConfiguration, c.ChunkSize, c.HardChunkCeiling)
	}
	return nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
