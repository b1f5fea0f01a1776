package token

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// safetyMargin pads exact BPE counts. Embedding providers count a few
// request-framing tokens per input that the encoder does not see.
const safetyMargin = 1.08

// Tiktoken estimates token counts with a real BPE encoding, padded by a
// small margin to stay conservative. It is safe for concurrent use; the
// underlying encoder is read-only after construction.
type Tiktoken struct {
	encodingName string
	tke          *tiktoken.Tiktoken
}

// NewTiktoken creates an estimator for the given encoding or model name.
// Empty selects cl100k_base.
func NewTiktoken(modelOrEncoding string) (*Tiktoken, error) {
	if modelOrEncoding == "" {
		modelOrEncoding = defaultEncoding
	}

	tke, err := tiktoken.GetEncoding(modelOrEncoding)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(modelOrEncoding)
		if err != nil {
			return nil, fmt.Errorf("no encoding for %q: %w", modelOrEncoding, err)
		}
	}

	return &Tiktoken{encodingName: modelOrEncoding, tke: tke}, nil
}

// Encoding returns the encoding or model name in use.
func (t *Tiktoken) Encoding() string { return t.encodingName }

// Estimate returns the padded BPE token count.
func (t *Tiktoken) Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := len(t.tke.Encode(text, nil, nil))
	return int(float64(n)*safetyMargin) + 1
}

// NewEstimator returns a Tiktoken estimator when the encoding can be
// initialized (the BPE tables may need a network fetch on first use) and
// falls back to the heuristic otherwise.
func NewEstimator(modelOrEncoding string) Estimator {
	if t, err := NewTiktoken(modelOrEncoding); err == nil {
		return t
	}
	return NewHeuristic()
}
