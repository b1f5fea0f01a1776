package types

import "fmt"

// ParseResult represents the output of structurally parsing a source file.
// The element tree is ordered by start line.
type ParseResult struct {
	Language Language

	// ModuleDoc is the file-level docstring or header comment, if one exists.
	ModuleDoc *CodeElement

	// Elements holds top-level elements in source order. Class elements
	// carry their methods as children.
	Elements []CodeElement
}

// TopLevelCount returns the number of top-level elements.
func (pr *ParseResult) TopLevelCount() int {
	return len(pr.Elements)
}

// Imports returns the top-level import elements in source order.
func (pr *ParseResult) Imports() []CodeElement {
	var out []CodeElement
	for i := range pr.Elements {
		if pr.Elements[i].Kind == ElementImport {
			out = append(out, pr.Elements[i])
		}
	}
	return out
}

// StructuralError reports that a structural parser could not build a usable
// element tree. It is an explicit branch point, not a recoverable warning:
// the owning chunker delegates the whole document to fallback chunking.
type StructuralError struct {
	Path   string
	Reason string
	Err    error // underlying parser error, may be nil
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structural parse of %s failed: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("structural parse of %s failed: %s", e.Path, e.Reason)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// NewStructuralError builds a StructuralError for the given document path.
func NewStructuralError(path, reason string, err error) *StructuralError {
	return &StructuralError{Path: path, Reason: reason, Err: err}
}
