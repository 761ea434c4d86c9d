// Package documents discovers source files and normalizes them to plain text
// with provenance metadata.
package documents

import (
	"path/filepath"
	"strings"
)

// Format enumerates supported document payload formats.
type Format string

const (
	// FormatUnknown represents an unsupported or undetected format.
	FormatUnknown Format = ""
	// FormatText represents plain text documents.
	FormatText Format = "text"
	// FormatMarkdown represents Markdown documents.
	FormatMarkdown Format = "markdown"
	// FormatPDF represents PDF documents.
	FormatPDF Format = "pdf"
	// FormatDOCX represents Office Open XML word-processing documents.
	FormatDOCX Format = "docx"
)

// DetectFormat infers a document format from the provided path's extension.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt":
		return FormatText
	case ".md", ".markdown":
		return FormatMarkdown
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	default:
		return FormatUnknown
	}
}
