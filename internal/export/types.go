// Package export renders function documents to PDF and DOCX.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Request contains parameters for an export operation
type Request struct {
	DocumentID      int64
	Format          Format
	IncludeGlossary bool
}

// DocumentInfo holds the metadata rendered into the export header.
type DocumentInfo struct {
	DocumentID  int64
	Title       string
	ProjectID   int64
	ProjectName string
	NodePath    string
	EditorName  string
	EditedAt    time.Time
}

// GlossaryTerm is one appendix entry.
type GlossaryTerm struct {
	Term       string
	Definition string
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrContentUnavailable indicates document content could not be loaded for export.
	ErrContentUnavailable = errors.New("export content unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
