// Package embedder generates vector embeddings for chunk batches.
//
// Providers implement the Embedder interface against the Jina AI and OpenAI
// embeddings APIs; a deterministic local provider serves tests and offline
// runs. HTTP calls retry with exponential backoff, except token-limit
// rejections, which are surfaced immediately as types.ErrTokenLimitExceeded
// for the batch planner to handle. Successful embeddings are cached in
// memory by content hash with LRU eviction.
package embedder
