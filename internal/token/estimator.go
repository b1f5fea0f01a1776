// Package token estimates the embedding-API token cost of chunks. Estimates
// feed the batch planner's ceiling, so estimators must be conservative:
// overestimating wastes a little batch capacity, underestimating causes
// token-limit rejections at dispatch time.
package token

import (
	"github.com/codesplice/codesplice/pkg/types"
)

// CharsPerToken is the heuristic character-to-token ratio. Code tokenizes
// denser than prose; 3.5 chars/token overestimates slightly against
// cl100k_base on typical source files, which is the side to err on.
const CharsPerToken = 3.5

// Estimator approximates the token cost of text for the embedding API.
type Estimator interface {
	Estimate(text string) int
}

// Heuristic is a deterministic, language-agnostic character-ratio estimator.
// The zero value is usable.
type Heuristic struct{}

// NewHeuristic creates the default estimator.
func NewHeuristic() Heuristic { return Heuristic{} }

// Estimate returns ceil(len/CharsPerToken). Empty text estimates to zero.
func (Heuristic) Estimate(text string) int {
	if text == "" {
		return 0
	}
	est := int(float64(len(text))/CharsPerToken) + 1
	return est
}

// EstimateChunks sums an estimator over a set of chunks.
func EstimateChunks(est Estimator, chunks []*types.Chunk) int {
	total := 0
	for _, c := range chunks {
		total += est.Estimate(c.Text)
	}
	return total
}
