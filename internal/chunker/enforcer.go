package chunker

import (
	"strings"

	"github.com/codesplice/codesplice/pkg/types"
)

// Enforcer applies the hard chunk ceiling, a last-resort safety net
// independent of any configured target size. Compliant chunks pass through
// untouched, so enforcement is idempotent.
type Enforcer struct {
	ceiling int
}

// NewEnforcer creates an enforcer with the given absolute character ceiling.
func NewEnforcer(ceiling int) *Enforcer {
	return &Enforcer{ceiling: ceiling}
}

// Enforce splits every oversized chunk at line boundaries below the ceiling
// and returns the resulting chunk stream in order.
func (e *Enforcer) Enforce(chunks []*types.Chunk) []*types.Chunk {
	out := make([]*types.Chunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, e.enforceOne(c)...)
	}
	return out
}

// enforceOne splits one chunk. Each fragment carries the original metadata
// with its line span adjusted; a single line longer than the ceiling is cut
// mid-line, in which case adjacent fragments share that line number.
func (e *Enforcer) enforceOne(c *types.Chunk) []*types.Chunk {
	if len(c.Text) <= e.ceiling {
		return []*types.Chunk{c}
	}

	var frags []*types.Chunk
	text := c.Text
	line := c.Metadata.LineStart

	for len(text) > 0 {
		cut := len(text)
		if cut > e.ceiling {
			cut = e.ceiling
			if i := strings.LastIndexByte(text[:cut], '\n'); i > 0 {
				cut = i + 1
			}
		}

		frag := text[:cut]
		span := strings.Count(frag, "\n")

		meta := c.Metadata
		meta.LineStart = line
		if strings.HasSuffix(frag, "\n") {
			// The trailing newline ends this fragment's last line; any next
			// fragment starts on a fresh line.
			meta.LineEnd = line + span - 1
			line = line + span
		} else {
			meta.LineEnd = line + span
			line = meta.LineEnd
		}

		frags = append(frags, &types.Chunk{Text: frag, Metadata: meta})
		text = text[cut:]
	}

	return frags
}
