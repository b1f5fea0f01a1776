package parser

import (
	"go/ast"
	goparser "go/parser"
	"go/token"

	"github.com/codesplice/codesplice/pkg/types"
)

// GoParser handles AST-based parsing of Go source using the standard
// go/parser toolchain.
type GoParser struct {
	fset *token.FileSet
}

// NewGoParser creates a new Go structural parser.
func NewGoParser() *GoParser {
	return &GoParser{fset: token.NewFileSet()}
}

func (p *GoParser) Language() types.Language { return types.LangGo }

// Close is a no-op; go/parser holds no external resources.
func (p *GoParser) Close() {}

// Parse builds the element tree for a Go document. Methods surface as
// top-level elements tagged with their receiver type, since Go methods are
// lexically separate from the type declaration.
func (p *GoParser) Parse(doc *types.Document) (*types.ParseResult, error) {
	if doc.Content == "" {
		return nil, types.NewStructuralError(doc.Path, "empty document", nil)
	}

	file, err := goparser.ParseFile(p.fset, doc.Path, doc.Content, goparser.ParseComments)
	if err != nil {
		return nil, types.NewStructuralError(doc.Path, "syntax error", err)
	}

	result := &types.ParseResult{Language: types.LangGo}

	if file.Doc != nil {
		result.ModuleDoc = &types.CodeElement{
			Kind:             types.ElementDocstring,
			StartLine:        p.line(file.Doc.Pos()),
			EndLine:          p.line(file.Doc.End()),
			HasDocumentation: true,
		}
	}

	var elems []types.CodeElement
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			elems = append(elems, p.funcElement(d))
		case *ast.GenDecl:
			if el, ok := p.genDeclElement(d); ok {
				elems = append(elems, el)
			}
		}
	}

	result.Elements = sortElements(elems)
	return result, nil
}

// funcElement extracts a function or method declaration. The span starts at
// the doc comment when one is attached so emitted chunks carry it.
func (p *GoParser) funcElement(d *ast.FuncDecl) types.CodeElement {
	el := types.CodeElement{
		Name:      d.Name.Name,
		StartLine: p.declStart(d.Pos(), d.Doc),
		EndLine:   p.line(d.End()),
	}
	el.HasDocumentation = d.Doc != nil

	if d.Recv != nil && len(d.Recv.List) > 0 {
		el.Kind = types.ElementMethod
		el.ParentName = receiverTypeName(d.Recv.List[0].Type)
	} else {
		el.Kind = types.ElementFunction
	}
	return el
}

// genDeclElement extracts import, type, const, and var declarations.
func (p *GoParser) genDeclElement(d *ast.GenDecl) (types.CodeElement, bool) {
	el := types.CodeElement{
		StartLine:        p.declStart(d.Pos(), d.Doc),
		EndLine:          p.line(d.End()),
		HasDocumentation: d.Doc != nil,
	}

	switch d.Tok {
	case token.IMPORT:
		el.Kind = types.ElementImport
		return el, true
	case token.TYPE:
		for _, spec := range d.Specs {
			if ts, ok := spec.(*ast.TypeSpec); ok {
				el.Kind = types.ElementClass
				el.Name = ts.Name.Name
				if ts.Doc != nil {
					el.HasDocumentation = true
				}
				return el, true
			}
		}
		return el, false
	case token.CONST, token.VAR:
		el.Kind = types.ElementStatement
		return el, true
	}
	return el, false
}

// declStart returns the start line of a declaration, extended upward to
// cover an attached doc comment.
func (p *GoParser) declStart(pos token.Pos, doc *ast.CommentGroup) int {
	if doc != nil {
		return p.line(doc.Pos())
	}
	return p.line(pos)
}

func (p *GoParser) line(pos token.Pos) int {
	return p.fset.Position(pos).Line
}

// receiverTypeName extracts the receiver type name from a method receiver.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr: // generic receiver
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	}
	return ""
}
