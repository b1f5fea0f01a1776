package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/codesplice/codesplice/pkg/types"
)

// NewCSharpParser creates a structural parser for C# source.
func NewCSharpParser() Parser {
	return newTSParser(types.LangCSharp, csharp.GetLanguage(), extractCSharp)
}

// extractCSharp walks the compilation unit. Types declared inside namespaces
// surface as top-level class elements tagged with the namespace name, so the
// chunkers see one flat list regardless of namespace style.
func extractCSharp(root *sitter.Node, src []byte) ([]types.CodeElement, *types.CodeElement) {
	var elems []types.CodeElement
	walkCSharpScope(root, src, "", &elems)
	return elems, nil
}

func walkCSharpScope(scope *sitter.Node, src []byte, namespace string, elems *[]types.CodeElement) {
	var prev *sitter.Node
	for i := 0; i < int(scope.NamedChildCount()); i++ {
		node := scope.NamedChild(i)

		switch node.Type() {
		case "using_directive":
			*elems = append(*elems, types.CodeElement{
				Kind:      types.ElementImport,
				StartLine: startLine(node),
				EndLine:   endLine(node),
			})

		case "namespace_declaration":
			name := csNamespaceName(node, src, namespace)
			if body := childByType(node, "declaration_list"); body != nil {
				walkCSharpScope(body, src, name, elems)
			}

		case "file_scoped_namespace_declaration":
			name := csNamespaceName(node, src, namespace)
			// Members of a file-scoped namespace are siblings of the
			// declaration inside the same node.
			walkCSharpScope(node, src, name, elems)

		case "class_declaration", "struct_declaration", "interface_declaration",
			"record_declaration", "enum_declaration":
			*elems = append(*elems, csType(node, src, namespace, prev))

		case "global_statement":
			*elems = append(*elems, types.CodeElement{
				Kind:      types.ElementStatement,
				StartLine: startLine(node),
				EndLine:   endLine(node),
			})
		}
		prev = node
	}
}

func csNamespaceName(node *sitter.Node, src []byte, outer string) string {
	name := childText(node, "qualified_name", src)
	if name == "" {
		name = childText(node, "identifier", src)
	}
	if outer != "" && name != "" {
		return outer + "." + name
	}
	if name == "" {
		return outer
	}
	return name
}

func csType(node *sitter.Node, src []byte, namespace string, prev *sitter.Node) types.CodeElement {
	name := childText(node, "identifier", src)
	start, hasDoc := docComment(prev, startLine(node))

	el := types.CodeElement{
		Kind:             types.ElementClass,
		Name:             name,
		ParentName:       namespace,
		StartLine:        start,
		EndLine:          endLine(node),
		HasDocumentation: hasDoc,
	}

	body := childByType(node, "declaration_list")
	if body == nil {
		return el
	}

	var prevMember *sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_declaration", "constructor_declaration", "destructor_declaration",
			"operator_declaration":
			mStart, mDoc := docComment(prevMember, startLine(member))
			el.Children = append(el.Children, types.CodeElement{
				Kind:             types.ElementMethod,
				Name:             csMemberName(member, src),
				ParentName:       name,
				StartLine:        mStart,
				EndLine:          endLine(member),
				HasDocumentation: mDoc,
			})
		}
		prevMember = member
	}
	return el
}

func csMemberName(member *sitter.Node, src []byte) string {
	// Constructors and methods both carry a plain identifier; operators use
	// a token child.
	if name := childText(member, "identifier", src); name != "" {
		return name
	}
	return childText(member, "operator", src)
}
