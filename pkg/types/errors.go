package types

import "errors"

// Domain errors shared across the chunking and batching core.
var (
	// ErrTokenLimitExceeded is returned by the embedding collaborator when
	// a dispatched batch exceeds the provider's real token limit despite
	// local estimation. The batch planner recovers with halve-and-retry.
	ErrTokenLimitExceeded = errors.New("embedding token limit exceeded")

	// ErrConfiguration marks invalid settings. Fatal at pipeline startup.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrEmptyDocument indicates a document with no content was submitted.
	ErrEmptyDocument = errors.New("document has no content")
)
