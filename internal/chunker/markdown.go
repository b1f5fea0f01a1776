package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/pkg/types"
)

// markdownSeparators orders split preferences for prose files: headings
// first, then paragraphs, sentences, and finally raw fallbacks.
var markdownSeparators = []string{
	"\n# ", "\n## ", "\n### ", "\n#### ",
	"\n\n",
	". ", "! ", "? ",
	"\n", " ", "",
}

// Docs chunks documentation files (Markdown, plain text) with a recursive
// character splitter. Prose has no element tree, so line attribution is
// best-effort: each section is located in the source to recover its span.
type Docs struct {
	splitter textsplitter.RecursiveCharacter
}

// NewDocsChunker creates the documentation chunker from the global fallback
// sizing settings.
func NewDocsChunker(cfg *config.Config) *Docs {
	return &Docs{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
			textsplitter.WithSeparators(markdownSeparators),
		),
	}
}

func (d *Docs) Name() string { return "docs" }

func (d *Docs) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".txt", ".rst"}
}

// ChunkDocument splits the document into prose sections.
func (d *Docs) ChunkDocument(doc *types.Document) ([]*types.Chunk, error) {
	if doc.Content == "" {
		return nil, types.ErrEmptyDocument
	}

	sections, err := d.splitter.SplitText(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", doc.Path, err)
	}

	lineAt := newLineCounter(doc.Content)
	totalLines := strings.Count(doc.Content, "\n") + 1
	cursor := 0

	var chunks []*types.Chunk
	for _, section := range sections {
		text := strings.TrimSpace(section)
		if text == "" {
			continue
		}

		lineStart, lineEnd := 1, totalLines
		if idx := strings.Index(doc.Content[cursor:], text); idx >= 0 {
			off := cursor + idx
			lineStart = lineAt(off)
			lineEnd = lineAt(off + len(text) - 1)
			cursor = off
		}

		chunks = append(chunks, &types.Chunk{
			Text: text,
			Metadata: types.ChunkMetadata{
				ChunkType:  types.ChunkDocSection,
				Language:   types.LangMarkdown,
				LineStart:  lineStart,
				LineEnd:    lineEnd,
				Source:     doc.Path,
				Repository: doc.Repository,
				Commit:     doc.Commit,
			},
		})
	}
	return chunks, nil
}
