// Package pipeline orchestrates an ingestion run: load documents, chunk
// them across a bounded worker pool, merge in document order, and hand the
// chunk stream to the batch planner for dispatch.
//
// Chunking is embarrassingly parallel; each worker holds its own chunker
// factory (and therefore its own parser instances). Planning is sequential.
// A run always finishes with a Report; per-document and per-chunk failures
// are recorded in it rather than aborting the run.
package pipeline
