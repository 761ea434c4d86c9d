package documents

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Metadata records where a document came from. Source is the path relative to
// the scanned root, using forward slashes.
type Metadata struct {
	Source   string
	Filename string
}

// Document is one loaded file, normalized to plain text.
type Document struct {
	Text     string
	Metadata Metadata
}

// Loader discovers supported files under a root directory and extracts their
// text. Extraction failures on individual files are logged and skipped so one
// malformed file cannot abort a multi-document scan.
type Loader struct {
	logger *log.Logger
}

func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{logger: logger}
}

// LoadDir walks root recursively and returns a Document for every supported
// file whose extracted text is non-empty. Files that extract to whitespace
// only are skipped silently. Output order follows the walk and is not part of
// the contract.
func (l *Loader) LoadDir(root string) ([]Document, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}

	docs := make([]Document, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		format := DetectFormat(path)
		if format == FormatUnknown {
			return nil
		}

		text, extractErr := ExtractText(path, format)
		if extractErr != nil {
			l.logger.Printf("skip %s: %v", path, extractErr)
			return nil
		}
		if strings.TrimSpace(text) == "" {
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}

		docs = append(docs, Document{
			Text: text,
			Metadata: Metadata{
				Source:   filepath.ToSlash(relPath),
				Filename: d.Name(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk data directory: %w", err)
	}

	return docs, nil
}
