package parser

import (
	"github.com/codesplice/codesplice/pkg/types"
)

// Parser converts raw source text into an ordered tree of named code
// elements. Implementations are not required to be safe for concurrent use;
// each pipeline worker owns its own parser instances.
type Parser interface {
	// Parse builds the element tree for a document. A *types.StructuralError
	// is returned when no usable tree can be built; callers branch to
	// fallback chunking on it explicitly.
	Parse(doc *types.Document) (*types.ParseResult, error)

	// Language reports the language this parser handles.
	Language() types.Language

	// Close releases parser resources. Safe to call more than once.
	Close()
}

// sortElements orders top-level elements by start line. Grammar traversal
// already yields source order; this keeps the contract explicit in one place.
func sortElements(elems []types.CodeElement) []types.CodeElement {
	for i := 1; i < len(elems); i++ {
		for j := i; j > 0 && elems[j].StartLine < elems[j-1].StartLine; j-- {
			elems[j], elems[j-1] = elems[j-1], elems[j]
		}
	}
	return elems
}
