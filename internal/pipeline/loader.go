package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/codesplice/codesplice/pkg/types"
)

// LoaderOptions controls repository walking.
type LoaderOptions struct {
	Repository   string
	Commit       string
	IncludeTests bool
	MaxFileSize  int64          // bytes; 0 means 1 MiB
	Log          zerolog.Logger // skipped-file warnings; zero value discards
}

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"bin":          true,
	"obj":          true,
	"dist":         true,
	"__pycache__":  true,
}

// languageByExt maps extensions to the language tag carried on documents.
// Extensions outside this map still load; they take the fallback chunking
// path downstream.
var languageByExt = map[string]types.Language{
	".go":       types.LangGo,
	".py":       types.LangPython,
	".cs":       types.LangCSharp,
	".js":       types.LangJavaScript,
	".jsx":      types.LangJavaScript,
	".mjs":      types.LangJavaScript,
	".ts":       types.LangTypeScript,
	".tsx":      types.LangTypeScript,
	".md":       types.LangMarkdown,
	".markdown": types.LangMarkdown,
}

// loadExts limits the walk to file types worth embedding.
var loadExts = map[string]bool{
	".go": true, ".py": true, ".cs": true,
	".js": true, ".jsx": true, ".mjs": true, ".ts": true, ".tsx": true,
	".md": true, ".markdown": true, ".txt": true, ".rst": true,
}

// LoadDocuments walks a repository root and builds Documents with paths
// relative to the root. Hidden and build directories are skipped; content is
// assumed to be UTF-8 text.
func LoadDocuments(root string, opts LoaderOptions) ([]*types.Document, error) {
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = 1 << 20
	}

	var docs []*types.Document
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !loadExts[ext] {
			return nil
		}
		if !opts.IncludeTests && isTestFile(path) {
			return nil
		}
		if info.Size() > maxSize {
			opts.Log.Warn().
				Str("path", path).
				Int64("bytes", info.Size()).
				Int64("max_bytes", maxSize).
				Msg("skipping oversized file")
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		docs = append(docs, &types.Document{
			Content:    string(content),
			Path:       filepath.ToSlash(rel),
			Language:   languageByExt[ext],
			Repository: opts.Repository,
			Commit:     opts.Commit,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func isTestFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, "_test.go") {
		return true
	}
	if strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py") {
		return true
	}
	return strings.Contains(base, ".test.") || strings.Contains(base, ".spec.")
}
