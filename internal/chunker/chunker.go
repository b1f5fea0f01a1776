package chunker

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/internal/parser"
	"github.com/codesplice/codesplice/pkg/types"
)

// Chunker divides one document into ordered chunks with metadata.
type Chunker interface {
	ChunkDocument(doc *types.Document) ([]*types.Chunk, error)
	SupportedExtensions() []string
	Name() string
}

// structural chunks a document along the element tree its parser produces.
// One instance exists per language per worker; the parser inside is not
// shared across goroutines.
type structural struct {
	name     string
	language types.Language
	parser   parser.Parser
	exts     []string
	cfg      *config.Config
	fallback *Fallback
	log      zerolog.Logger
}

func newStructural(name string, lang types.Language, p parser.Parser, exts []string,
	cfg *config.Config, fallback *Fallback, log zerolog.Logger) *structural {
	return &structural{
		name:     name,
		language: lang,
		parser:   p,
		exts:     exts,
		cfg:      cfg,
		fallback: fallback,
		log:      log.With().Str("chunker", name).Logger(),
	}
}

// NewGoChunker creates the structural chunker for Go files.
func NewGoChunker(cfg *config.Config, fallback *Fallback, log zerolog.Logger) Chunker {
	return newStructural("go", types.LangGo, parser.NewGoParser(), []string{".go"}, cfg, fallback, log)
}

// NewPythonChunker creates the structural chunker for Python files.
func NewPythonChunker(cfg *config.Config, fallback *Fallback, log zerolog.Logger) Chunker {
	return newStructural("python", types.LangPython, parser.NewPythonParser(), []string{".py"}, cfg, fallback, log)
}

// NewCSharpChunker creates the structural chunker for C# files.
func NewCSharpChunker(cfg *config.Config, fallback *Fallback, log zerolog.Logger) Chunker {
	return newStructural("csharp", types.LangCSharp, parser.NewCSharpParser(), []string{".cs"}, cfg, fallback, log)
}

// NewJavaScriptChunker creates the structural chunker for JavaScript and JSX
// files.
func NewJavaScriptChunker(cfg *config.Config, fallback *Fallback, log zerolog.Logger) Chunker {
	return newStructural("javascript", types.LangJavaScript, parser.NewJavaScriptParser(),
		[]string{".js", ".jsx", ".mjs"}, cfg, fallback, log)
}

// NewTypeScriptChunker creates the structural chunker for TypeScript files.
func NewTypeScriptChunker(cfg *config.Config, fallback *Fallback, log zerolog.Logger) Chunker {
	return newStructural("typescript", types.LangTypeScript, parser.NewTypeScriptParser(),
		[]string{".ts", ".tsx"}, cfg, fallback, log)
}

func (s *structural) Name() string                  { return s.name }
func (s *structural) SupportedExtensions() []string { return s.exts }

// Close releases the underlying parser.
func (s *structural) Close() { s.parser.Close() }

// ChunkDocument parses the document and emits chunks along element
// boundaries. A structural parse failure delegates the whole document to the
// fallback chunker; there is no partial fallback.
func (s *structural) ChunkDocument(doc *types.Document) ([]*types.Chunk, error) {
	result, err := s.parser.Parse(doc)
	if err != nil {
		var serr *types.StructuralError
		if errors.As(err, &serr) {
			s.log.Debug().Str("path", doc.Path).Str("reason", serr.Reason).
				Msg("structural parse failed, using fallback chunking")
			return s.fallback.ChunkDocument(doc)
		}
		return nil, err
	}

	settings := s.cfg.Extension(strings.ToLower(filepath.Ext(doc.Path)))
	b := &builder{
		doc:      doc,
		language: s.language,
		lines:    strings.Split(doc.Content, "\n"),
		settings: settings,
	}
	b.build(result)
	return b.chunks, nil
}

// builder accumulates chunks for one document. It is scoped to a single
// ChunkDocument call.
type builder struct {
	doc      *types.Document
	language types.Language
	lines    []string
	settings config.ExtensionConfig
	chunks   []*types.Chunk
}

func (b *builder) build(result *types.ParseResult) {
	if b.settings.IncludeDocstrings && result.ModuleDoc != nil {
		b.emit(b.slice(result.ModuleDoc.StartLine, result.ModuleDoc.EndLine), types.ChunkMetadata{
			ChunkType:             types.ChunkModuleDoc,
			LineStart:             result.ModuleDoc.StartLine,
			LineEnd:               result.ModuleDoc.EndLine,
			ContainsDocumentation: true,
		})
	}

	b.buildImports(result.Imports())

	var group []types.CodeElement
	for _, el := range result.Elements {
		switch el.Kind {
		case types.ElementImport:
			// Already coalesced into the leading import block.

		case types.ElementClass:
			b.flushGroup(group)
			group = nil
			b.buildClass(el)

		case types.ElementMethod:
			// Top-level methods (Go receivers) always stand alone so the
			// parent tag stays attached.
			b.flushGroup(group)
			group = nil
			b.emitElement(el, types.ChunkMethod)

		case types.ElementFunction:
			if b.settings.PreserveFunctionBoundaries {
				b.flushGroup(group)
				group = nil
				b.emitElement(el, types.ChunkFunction)
				continue
			}
			group = b.appendToGroup(group, el)

		case types.ElementStatement, types.ElementDocstring:
			group = b.appendToGroup(group, el)
		}
	}
	b.flushGroup(group)
}

// buildImports coalesces all import elements into a leading import block.
// When the joined text would exceed the chunk size it spills into
// continuation chunks; imports are never truncated.
func (b *builder) buildImports(imports []types.CodeElement) {
	if len(imports) == 0 {
		return
	}

	var (
		texts     []string
		segLen    int
		startLine = imports[0].StartLine
		endLine   = imports[0].EndLine
	)

	flush := func() {
		if len(texts) == 0 {
			return
		}
		b.emit(strings.Join(texts, "\n"), types.ChunkMetadata{
			ChunkType: types.ChunkImportBlock,
			LineStart: startLine,
			LineEnd:   endLine,
		})
		texts = nil
		segLen = 0
	}

	for _, imp := range imports {
		text := b.slice(imp.StartLine, imp.EndLine)
		if segLen > 0 && segLen+len(text)+1 > b.settings.MaxChunkSize {
			flush()
			startLine = imp.StartLine
		}
		if len(texts) == 0 {
			startLine = imp.StartLine
		}
		texts = append(texts, text)
		segLen += len(text) + 1
		endLine = imp.EndLine
	}
	flush()
}

// buildClass emits a class either whole or split per method. A class that
// fits the size ceiling (and has type boundaries preserved) becomes one
// chunk; otherwise each method becomes its own chunk tagged with the parent
// symbol and the class chunk is reduced to signature plus documentation.
func (b *builder) buildClass(el types.CodeElement) {
	text := b.slice(el.StartLine, el.EndLine)

	if b.settings.PreserveTypeBoundaries && len(text) <= b.settings.MaxChunkSize {
		b.emit(text, types.ChunkMetadata{
			ChunkType:             types.ChunkClass,
			SymbolName:            el.Name,
			ParentSymbol:          el.ParentName,
			LineStart:             el.StartLine,
			LineEnd:               el.EndLine,
			ContainsDocumentation: b.classHasDoc(el),
			Symbols:               append([]string{el.Name}, el.MethodNames()...),
		})
		return
	}

	if len(el.Children) == 0 {
		// Oversized class with nothing to split on: emit whole, the size
		// enforcer owns the last-resort split.
		b.emitElement(el, types.ChunkClass)
		return
	}

	// Signature chunk: class header, documentation, and fields up to the
	// first method.
	sigEnd := el.Children[0].StartLine - 1
	if sigEnd < el.StartLine {
		sigEnd = el.StartLine
	}
	b.emit(b.slice(el.StartLine, sigEnd), types.ChunkMetadata{
		ChunkType:             types.ChunkClass,
		SymbolName:            el.Name,
		ParentSymbol:          el.ParentName,
		LineStart:             el.StartLine,
		LineEnd:               sigEnd,
		ContainsDocumentation: el.HasDocumentation,
		Symbols:               []string{el.Name},
	})

	for _, m := range el.Children {
		b.emit(b.slice(m.StartLine, m.EndLine), types.ChunkMetadata{
			ChunkType:             types.ChunkMethod,
			SymbolName:            m.Name,
			ParentSymbol:          el.Name,
			LineStart:             m.StartLine,
			LineEnd:               m.EndLine,
			ContainsDocumentation: m.HasDocumentation,
			Symbols:               []string{m.Name},
		})
	}
}

// appendToGroup adds an element to the contiguous group, flushing first when
// the group would overflow the size ceiling.
func (b *builder) appendToGroup(group []types.CodeElement, el types.CodeElement) []types.CodeElement {
	if len(group) > 0 {
		if b.groupSize(group)+len(b.slice(el.StartLine, el.EndLine)) > b.settings.MaxChunkSize {
			b.flushGroup(group)
			return []types.CodeElement{el}
		}
	}
	return append(group, el)
}

func (b *builder) groupSize(group []types.CodeElement) int {
	return len(b.slice(group[0].StartLine, group[len(group)-1].EndLine))
}

// flushGroup emits one chunk covering a contiguous run of functions and
// statements. Chunk type follows the strongest member: a group containing a
// function is a function chunk, otherwise a statement block.
func (b *builder) flushGroup(group []types.CodeElement) {
	if len(group) == 0 {
		return
	}

	meta := types.ChunkMetadata{
		ChunkType: types.ChunkStatements,
		LineStart: group[0].StartLine,
		LineEnd:   group[len(group)-1].EndLine,
	}
	for _, el := range group {
		if el.HasDocumentation {
			meta.ContainsDocumentation = true
		}
		if el.Name != "" {
			meta.Symbols = append(meta.Symbols, el.Name)
		}
		if el.Kind == types.ElementFunction && meta.ChunkType != types.ChunkFunction {
			meta.ChunkType = types.ChunkFunction
			meta.SymbolName = el.Name
		}
	}

	b.emit(b.slice(meta.LineStart, meta.LineEnd), meta)
}

// emitElement emits one element as a standalone chunk. An element larger
// than the configured chunk size is emitted oversized rather than truncated;
// the size enforcer splits it at the hard ceiling if needed.
func (b *builder) emitElement(el types.CodeElement, ct types.ChunkType) {
	meta := types.ChunkMetadata{
		ChunkType:             ct,
		SymbolName:            el.Name,
		ParentSymbol:          el.ParentName,
		LineStart:             el.StartLine,
		LineEnd:               el.EndLine,
		ContainsDocumentation: el.HasDocumentation,
	}
	if el.Name != "" {
		meta.Symbols = []string{el.Name}
	}
	b.emit(b.slice(el.StartLine, el.EndLine), meta)
}

func (b *builder) emit(text string, meta types.ChunkMetadata) {
	if text == "" {
		return
	}
	meta.Language = b.language
	meta.Source = b.doc.Path
	meta.Repository = b.doc.Repository
	meta.Commit = b.doc.Commit
	b.chunks = append(b.chunks, &types.Chunk{Text: text, Metadata: meta})
}

// slice extracts the text of an inclusive 1-based line range.
func (b *builder) slice(start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(b.lines) {
		end = len(b.lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(b.lines[start-1:end], "\n")
}

// classHasDoc reports whether the class or any of its methods carries
// documentation, for the whole-class chunk case.
func (b *builder) classHasDoc(el types.CodeElement) bool {
	if el.HasDocumentation {
		return true
	}
	for i := range el.Children {
		if el.Children[i].HasDocumentation {
			return true
		}
	}
	return false
}
