package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	tstype "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codesplice/codesplice/pkg/types"
)

// NewJavaScriptParser creates a structural parser for JavaScript and JSX.
func NewJavaScriptParser() Parser {
	return newTSParser(types.LangJavaScript, javascript.GetLanguage(), extractJS)
}

// NewTypeScriptParser creates a structural parser for TypeScript. The
// TypeScript grammar is a superset of the JavaScript one, so extraction is
// shared.
func NewTypeScriptParser() Parser {
	return newTSParser(types.LangTypeScript, tstype.GetLanguage(), extractJS)
}

// extractJS walks program-level statements. Export wrappers are unwrapped
// with the export keyword kept inside the element span, so emitted chunks
// show whether a symbol is part of the module surface.
func extractJS(root *sitter.Node, src []byte) ([]types.CodeElement, *types.CodeElement) {
	var (
		elems     []types.CodeElement
		moduleDoc *types.CodeElement
		prev      *sitter.Node
	)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)

		if node.Type() == "comment" {
			// A block comment before any code is the file header.
			if moduleDoc == nil && len(elems) == 0 && isJSDoc(node, src) {
				moduleDoc = &types.CodeElement{
					Kind:             types.ElementDocstring,
					StartLine:        startLine(node),
					EndLine:          endLine(node),
					HasDocumentation: true,
				}
			}
			prev = node
			continue
		}

		if el, ok := jsElement(node, src, prev); ok {
			elems = append(elems, el)
		}
		prev = node
	}

	return elems, moduleDoc
}

func jsElement(node *sitter.Node, src []byte, prev *sitter.Node) (types.CodeElement, bool) {
	switch node.Type() {
	case "import_statement":
		return types.CodeElement{
			Kind:      types.ElementImport,
			StartLine: startLine(node),
			EndLine:   endLine(node),
		}, true

	case "export_statement":
		// Unwrap the exported declaration; keep the export keyword in span.
		for i := 0; i < int(node.NamedChildCount()); i++ {
			inner := node.NamedChild(i)
			if el, ok := jsElement(inner, src, prev); ok {
				el.StartLine = startLine(node)
				if s, doc := docComment(prev, startLine(node)); doc {
					el.StartLine = s
					el.HasDocumentation = true
				}
				return el, true
			}
		}
		// Bare re-export: treat as a statement.
		return types.CodeElement{
			Kind:      types.ElementStatement,
			StartLine: startLine(node),
			EndLine:   endLine(node),
		}, true

	case "function_declaration", "generator_function_declaration":
		start, hasDoc := docComment(prev, startLine(node))
		return types.CodeElement{
			Kind:             types.ElementFunction,
			Name:             childText(node, "identifier", src),
			StartLine:        start,
			EndLine:          endLine(node),
			HasDocumentation: hasDoc,
		}, true

	case "class_declaration", "abstract_class_declaration":
		return jsClass(node, src, prev), true

	case "interface_declaration", "enum_declaration", "type_alias_declaration":
		start, hasDoc := docComment(prev, startLine(node))
		return types.CodeElement{
			Kind:             types.ElementClass,
			Name:             jsTypeName(node, src),
			StartLine:        start,
			EndLine:          endLine(node),
			HasDocumentation: hasDoc,
		}, true

	case "lexical_declaration", "variable_declaration":
		if name, ok := jsArrowFunctionName(node, src); ok {
			start, hasDoc := docComment(prev, startLine(node))
			return types.CodeElement{
				Kind:             types.ElementFunction,
				Name:             name,
				StartLine:        start,
				EndLine:          endLine(node),
				HasDocumentation: hasDoc,
			}, true
		}
		return types.CodeElement{
			Kind:      types.ElementStatement,
			StartLine: startLine(node),
			EndLine:   endLine(node),
		}, true

	case "expression_statement":
		return types.CodeElement{
			Kind:      types.ElementStatement,
			StartLine: startLine(node),
			EndLine:   endLine(node),
		}, true
	}

	return types.CodeElement{}, false
}

func jsClass(node *sitter.Node, src []byte, prev *sitter.Node) types.CodeElement {
	name := jsTypeName(node, src)
	start, hasDoc := docComment(prev, startLine(node))

	el := types.CodeElement{
		Kind:             types.ElementClass,
		Name:             name,
		StartLine:        start,
		EndLine:          endLine(node),
		HasDocumentation: hasDoc,
	}

	body := childByType(node, "class_body")
	if body == nil {
		return el
	}

	var prevMember *sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() == "method_definition" {
			mStart, mDoc := docComment(prevMember, startLine(member))
			el.Children = append(el.Children, types.CodeElement{
				Kind:             types.ElementMethod,
				Name:             childText(member, "property_identifier", src),
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

func jsTypeName(node *sitter.Node, src []byte) string {
	if name := childText(node, "type_identifier", src); name != "" {
		return name
	}
	return childText(node, "identifier", src)
}

// jsArrowFunctionName reports the declared name when a const/let/var binds a
// function or arrow function.
func jsArrowFunctionName(node *sitter.Node, src []byte) (string, bool) {
	declarator := childByType(node, "variable_declarator")
	if declarator == nil {
		return "", false
	}
	value := declarator.ChildByFieldName("value")
	if value == nil {
		return "", false
	}
	switch value.Type() {
	case "arrow_function", "function", "function_expression", "generator_function":
		return childText(declarator, "identifier", src), true
	}
	return "", false
}

// isJSDoc reports whether a comment is a block comment (/* ... */).
func isJSDoc(node *sitter.Node, src []byte) bool {
	text := nodeText(node, src)
	return len(text) >= 4 && text[0] == '/' && text[1] == '*'
}
