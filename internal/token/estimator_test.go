package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codesplice/codesplice/pkg/types"
)

func TestHeuristic_EmptyIsZero(t *testing.T) {
	assert.Equal(t, 0, NewHeuristic().Estimate(""))
}

func TestHeuristic_Deterministic(t *testing.T) {
	est := NewHeuristic()
	text := strings.Repeat("func main() {}\n", 50)
	assert.Equal(t, est.Estimate(text), est.Estimate(text))
}

func TestHeuristic_ConservativeAgainstCharRatio(t *testing.T) {
	// A chunk of n chars must never estimate below n/4, the common
	// chars-per-token rule of thumb for code.
	est := NewHeuristic()
	text := strings.Repeat("a", 1000)
	assert.GreaterOrEqual(t, est.Estimate(text), 250)
}

func TestHeuristic_Monotonic(t *testing.T) {
	est := NewHeuristic()
	short := est.Estimate("let x = 1;")
	long := est.Estimate("let x = 1;\nlet y = 2;\nlet z = x + y;")
	assert.Greater(t, long, short)
}

func TestEstimateChunks_Sums(t *testing.T) {
	est := NewHeuristic()
	chunks := []*types.Chunk{
		{Text: strings.Repeat("x", 350)},
		{Text: strings.Repeat("y", 700)},
	}
	total := EstimateChunks(est, chunks)
	assert.Equal(t, est.Estimate(chunks[0].Text)+est.Estimate(chunks[1].Text), total)
}

func TestNewEstimator_FallsBackToHeuristic(t *testing.T) {
	// An unknown encoding name must still yield a working estimator.
	est := NewEstimator("definitely-not-an-encoding")
	assert.Greater(t, est.Estimate("some text"), 0)
}
