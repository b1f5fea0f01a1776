package chunker

import (
	"sort"
	"strings"

	"github.com/codesplice/codesplice/pkg/types"
)

// breakLookback is how far back from a cut point the fallback splitter
// searches for a line or paragraph boundary before cutting mid-line.
const breakLookback = 200

// Fallback splits documents with a fixed-size sliding window and character
// overlap. It is used when no structural chunker exists for a file type or
// when structural chunking fails.
//
// Guarantee: every window after the first starts exactly overlap characters
// before the previous window's end, so concatenating the first chunk with
// each later chunk's text past the overlap reconstructs the document.
type Fallback struct {
	size    int
	overlap int
}

// NewFallback creates a fallback chunker. size must exceed overlap; config
// validation enforces that before a pipeline starts.
func NewFallback(size, overlap int) *Fallback {
	return &Fallback{size: size, overlap: overlap}
}

func (f *Fallback) Name() string                  { return "fallback" }
func (f *Fallback) SupportedExtensions() []string { return nil }

// ChunkDocument splits the document content into overlapping windows,
// preferring to break at a newline near the cut point when one exists past
// the overlap region.
func (f *Fallback) ChunkDocument(doc *types.Document) ([]*types.Chunk, error) {
	content := doc.Content
	if content == "" {
		return nil, types.ErrEmptyDocument
	}

	var chunks []*types.Chunk
	lineAt := newLineCounter(content)

	start := 0
	for start < len(content) {
		end := start + f.size
		if end >= len(content) {
			end = len(content)
		} else {
			end = f.breakPoint(content, start, end)
		}

		text := content[start:end]
		chunks = append(chunks, &types.Chunk{
			Text: text,
			Metadata: types.ChunkMetadata{
				ChunkType:  types.ChunkFallback,
				Language:   doc.Language,
				LineStart:  lineAt(start),
				LineEnd:    lineAt(end - 1),
				Source:     doc.Path,
				Repository: doc.Repository,
				Commit:     doc.Commit,
			},
		})

		if end >= len(content) {
			break
		}
		start = end - f.overlap
	}

	return chunks, nil
}

// Reconstruct rebuilds the original text from fallback chunks by dropping
// each later chunk's overlap prefix. It is the inverse of ChunkDocument.
func (f *Fallback) Reconstruct(chunks []*types.Chunk) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i == 0 {
			sb.WriteString(c.Text)
			continue
		}
		sb.WriteString(c.Text[f.overlap:])
	}
	return sb.String()
}

// breakPoint moves a cut back to the nearest newline within the lookback
// window. The adjusted end always stays more than overlap characters past
// start, so window progress and the constant-overlap invariant hold.
func (f *Fallback) breakPoint(content string, start, end int) int {
	floor := end - breakLookback
	if min := start + f.overlap + 1; floor < min {
		floor = min
	}
	if floor >= end {
		return end
	}
	if i := strings.LastIndexByte(content[floor:end], '\n'); i >= 0 {
		return floor + i + 1 // cut after the newline
	}
	return end
}

// newLineCounter returns a function mapping a byte offset to its 1-based
// line number. Newline positions are indexed once so overlapping windows can
// query offsets in any order.
func newLineCounter(content string) func(int) int {
	var newlines []int
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			newlines = append(newlines, i)
		}
	}
	return func(offset int) int {
		line := sort.SearchInts(newlines, offset)
		return line + 1
	}
}
