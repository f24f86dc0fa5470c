package export

import (
	"context"
	"fmt"
	"html/template"
)

// DataStore defines the data access the export service needs.
type DataStore interface {
	GetDocumentInfo(ctx context.Context, documentID int64) (DocumentInfo, error)
	GetDocumentContent(ctx context.Context, documentID int64) (interface{}, error)
	ListGlossaryTerms(ctx context.Context, projectID int64) ([]GlossaryTerm, error)
}

// Service provides document export functionality
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	info, err := s.store.GetDocumentInfo(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("get document info: %w", err)
	}

	content, err := s.store.GetDocumentContent(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	data := TemplateData{
		Title:       info.Title,
		ProjectName: info.ProjectName,
		NodePath:    info.NodePath,
		ContentHTML: template.HTML(TipTapToHTML(content)),
		Author:      info.EditorName,
		UpdatedAt:   info.EditedAt,
		Glossary:    []GlossaryTerm{},
	}

	if req.IncludeGlossary {
		terms, err := s.store.ListGlossaryTerms(ctx, info.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("list glossary terms: %w", err)
		}
		data.Glossary = terms
	}

	html, err := RenderDocumentHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(ctx, html, info.Title)
	case FormatDOCX:
		return exportDOCX(ctx, html, info.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
