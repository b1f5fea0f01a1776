package types

// Language identifies the source language of a document, when known.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangCSharp     Language = "csharp"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangMarkdown   Language = "markdown"
	LangUnknown    Language = ""
)

// Document is an immutable input to the chunking core. Content is assumed
// to be UTF-8 text; the upstream loader owns encoding detection.
type Document struct {
	// Content is the full file text.
	Content string

	// Path is the repository-relative file path.
	Path string

	// Language is an optional hint from the loader. When empty, the
	// chunking factory selects a chunker by file extension alone.
	Language Language

	// Source metadata, carried through to chunk metadata untouched.
	Repository string
	Branch     string
	Commit     string
}

// LineCount returns the number of lines in the document content.
func (d *Document) LineCount() int {
	if d.Content == "" {
		return 0
	}
	n := 1
	for _, r := range d.Content {
		if r == '\n' {
			n++
		}
	}
	return n
}
