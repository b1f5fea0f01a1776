// Package parser converts raw source text into ordered trees of named code
// elements (imports, classes, functions, methods, statements).
//
// One parser exists per supported language. Go uses the standard go/ast
// toolchain; Python, C#, JavaScript, and TypeScript use Tree-sitter
// grammars. All parsers satisfy the same Parser interface and report
// failure as *types.StructuralError, which the language chunkers treat as
// the explicit signal to delegate the whole document to fallback chunking.
//
// Parsers are not safe for concurrent use. Each pipeline worker constructs
// its own parser instances and closes them when done:
//
//	p := parser.NewPythonParser()
//	defer p.Close()
//
//	result, err := p.Parse(doc)
//	var serr *types.StructuralError
//	if errors.As(err, &serr) {
//	    // take the fallback path
//	}
//
// Line numbers in the resulting elements are 1-based, inclusive, and exact;
// downstream source attribution depends on them.
package parser
