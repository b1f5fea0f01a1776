package types

// ElementKind classifies a node in a parsed element tree.
type ElementKind string

const (
	ElementImport    ElementKind = "import"
	ElementClass     ElementKind = "class"
	ElementFunction  ElementKind = "function"
	ElementMethod    ElementKind = "method"
	ElementStatement ElementKind = "statement"
	ElementDocstring ElementKind = "docstring"
)

// CodeElement is a named region of source produced by a structural parser.
// Line numbers are 1-based and inclusive, taken directly from the parser so
// that downstream source attribution stays exact. Elements are owned by the
// parse invocation that created them and discarded after chunk emission.
type CodeElement struct {
	Kind       ElementKind
	Name       string // empty for imports and statements
	ParentName string // enclosing class/namespace name, if any

	StartLine int
	EndLine   int

	// HasDocumentation is true when a doc comment or docstring immediately
	// precedes (or, for Python, opens) the element.
	HasDocumentation bool

	// Children holds nested elements, e.g. the methods of a class.
	Children []CodeElement
}

// LineSpan returns the number of lines the element covers.
func (e *CodeElement) LineSpan() int {
	return e.EndLine - e.StartLine + 1
}

// MethodNames returns the names of child elements of kind method.
func (e *CodeElement) MethodNames() []string {
	var names []string
	for i := range e.Children {
		if e.Children[i].Kind == ElementMethod && e.Children[i].Name != "" {
			names = append(names, e.Children[i].Name)
		}
	}
	return names
}
