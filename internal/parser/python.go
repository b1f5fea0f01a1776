package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/codesplice/codesplice/pkg/types"
)

// NewPythonParser creates a structural parser for Python source.
func NewPythonParser() Parser {
	return newTSParser(types.LangPython, python.GetLanguage(), extractPython)
}

// extractPython walks the module-level statements. A leading string
// expression becomes the module docstring; classes carry their methods as
// children.
func extractPython(root *sitter.Node, src []byte) ([]types.CodeElement, *types.CodeElement) {
	var (
		elems     []types.CodeElement
		moduleDoc *types.CodeElement
	)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)

		switch node.Type() {
		case "expression_statement":
			if str := childByType(node, "string"); str != nil && moduleDoc == nil && len(elems) == 0 {
				moduleDoc = &types.CodeElement{
					Kind:             types.ElementDocstring,
					StartLine:        startLine(node),
					EndLine:          endLine(node),
					HasDocumentation: true,
				}
				continue
			}
			elems = append(elems, pyStatement(node))

		case "import_statement", "import_from_statement", "future_import_statement":
			elems = append(elems, types.CodeElement{
				Kind:      types.ElementImport,
				StartLine: startLine(node),
				EndLine:   endLine(node),
			})

		case "function_definition":
			elems = append(elems, pyFunction(node, src, ""))

		case "class_definition":
			elems = append(elems, pyClass(node, src))

		case "decorated_definition":
			if el, ok := pyDecorated(node, src); ok {
				elems = append(elems, el)
			}

		case "comment":
			// Comments between statements carry no structure of their own.

		default:
			elems = append(elems, pyStatement(node))
		}
	}

	return elems, moduleDoc
}

func pyStatement(node *sitter.Node) types.CodeElement {
	return types.CodeElement{
		Kind:      types.ElementStatement,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}
}

func pyFunction(node *sitter.Node, src []byte, parent string) types.CodeElement {
	kind := types.ElementFunction
	if parent != "" {
		kind = types.ElementMethod
	}
	return types.CodeElement{
		Kind:             kind,
		Name:             childText(node, "identifier", src),
		ParentName:       parent,
		StartLine:        startLine(node),
		EndLine:          endLine(node),
		HasDocumentation: pyHasDocstring(node),
	}
}

func pyClass(node *sitter.Node, src []byte) types.CodeElement {
	name := childText(node, "identifier", src)
	el := types.CodeElement{
		Kind:             types.ElementClass,
		Name:             name,
		StartLine:        startLine(node),
		EndLine:          endLine(node),
		HasDocumentation: pyHasDocstring(node),
	}

	body := childByType(node, "block")
	if body == nil {
		return el
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "function_definition":
			el.Children = append(el.Children, pyFunction(child, src, name))
		case "decorated_definition":
			if inner := childByType(child, "function_definition"); inner != nil {
				m := pyFunction(inner, src, name)
				m.StartLine = startLine(child) // span includes decorators
				el.Children = append(el.Children, m)
			}
		}
	}
	return el
}

// pyDecorated unwraps a decorated function or class, keeping the decorator
// lines inside the element span.
func pyDecorated(node *sitter.Node, src []byte) (types.CodeElement, bool) {
	if inner := childByType(node, "function_definition"); inner != nil {
		el := pyFunction(inner, src, "")
		el.StartLine = startLine(node)
		return el, true
	}
	if inner := childByType(node, "class_definition"); inner != nil {
		el := pyClass(inner, src)
		el.StartLine = startLine(node)
		return el, true
	}
	return types.CodeElement{}, false
}

// pyHasDocstring reports whether a def/class body opens with a string
// literal.
func pyHasDocstring(node *sitter.Node) bool {
	body := childByType(node, "block")
	if body == nil || body.NamedChildCount() == 0 {
		return false
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" {
		return false
	}
	return childByType(first, "string") != nil
}
