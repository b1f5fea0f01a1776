package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codesplice/codesplice/pkg/types"
)

// extractFunc maps a parsed syntax tree onto the element tree for one
// grammar.
type extractFunc func(root *sitter.Node, src []byte) ([]types.CodeElement, *types.CodeElement)

// tsParser wraps a Tree-sitter parser for one language. Instances own the
// underlying C parser object and must not be shared across goroutines.
type tsParser struct {
	lang    types.Language
	parser  *sitter.Parser
	extract extractFunc
	closed  bool
}

func newTSParser(lang types.Language, grammar *sitter.Language, extract extractFunc) *tsParser {
	p := sitter.NewParser()
	p.SetLanguage(grammar)
	return &tsParser{lang: lang, parser: p, extract: extract}
}

func (p *tsParser) Language() types.Language { return p.lang }

func (p *tsParser) Close() {
	if !p.closed {
		p.parser.Close()
		p.closed = true
	}
}

// Parse builds the element tree. Malformed input surfaces as a
// *types.StructuralError so the chunker can take the fallback branch; we
// deliberately do not chunk from a tree containing ERROR nodes, since its
// element boundaries are unreliable.
func (p *tsParser) Parse(doc *types.Document) (*types.ParseResult, error) {
	if doc.Content == "" {
		return nil, types.NewStructuralError(doc.Path, "empty document", nil)
	}

	src := []byte(doc.Content)
	tree, err := p.parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, types.NewStructuralError(doc.Path, "parser failure", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, types.NewStructuralError(doc.Path, "no syntax tree produced", nil)
	}
	if root.HasError() {
		return nil, types.NewStructuralError(doc.Path, "syntax error", nil)
	}

	elems, moduleDoc := p.extract(root, src)
	if len(elems) == 0 && moduleDoc == nil {
		return nil, types.NewStructuralError(doc.Path, "no structural elements found", nil)
	}

	return &types.ParseResult{
		Language:  p.lang,
		ModuleDoc: moduleDoc,
		Elements:  sortElements(elems),
	}, nil
}

// nodeText returns the source text covered by a node.
func nodeText(n *sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

// startLine and endLine convert Tree-sitter 0-based rows to 1-based lines.
func startLine(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }
func endLine(n *sitter.Node) int   { return int(n.EndPoint().Row) + 1 }

// childByType returns the first named child of the given type.
func childByType(n *sitter.Node, childType string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == childType {
			return child
		}
	}
	return nil
}

// childText returns the text of the first child of the given type.
func childText(n *sitter.Node, childType string, src []byte) string {
	if c := childByType(n, childType); c != nil {
		return nodeText(c, src)
	}
	return ""
}

// docComment reports whether prev is a comment directly abutting line, and
// extends the element start to cover it. Used by grammars whose doc comments
// precede the declaration.
func docComment(prev *sitter.Node, declStart int) (int, bool) {
	if prev == nil || prev.Type() != "comment" {
		return declStart, false
	}
	if endLine(prev)+1 < declStart {
		return declStart, false
	}
	return startLine(prev), true
}
