package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/a3tai/pdf-form-viewer/internal/logging"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/extraction"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/fetch"
)

// ErrInvalidDocument is returned when the fetched bytes cannot be read as a
// PDF form.
var ErrInvalidDocument = errors.New("invalid document")

// Source supplies the bytes of the single document the service works on.
type Source interface {
	Fetch(ctx context.Context) (*fetch.Result, error)
	URL() string
}

// Service handles the source document by orchestrating fetching,
// validation and extraction
type Service struct {
	source    Source
	validator *Validator
	extractor *extraction.Extractor
	logger    *slog.Logger
}

// NewService creates a new PDF service with all components
func NewService(source Source, maxFileSize int64, logger *slog.Logger) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &Service{
		source:    source,
		validator: NewValidator(maxFileSize),
		extractor: extraction.NewExtractor(logger),
		logger:    logger,
	}, nil
}

// SourceURL returns the URL of the document.
func (s *Service) SourceURL() string {
	return s.source.URL()
}

// LoadDocument fetches the document and base64-encodes it for embedding.
// The bytes are not parsed; decoding happens in the browser.
func (s *Service) LoadDocument(ctx context.Context) (*Payload, error) {
	result, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if !s.validator.HasPDFHeader(result.Data) {
		s.logger.Warn("upstream document has no PDF header",
			"url", result.URL,
			"content_type", result.ContentType,
		)
	}

	return &Payload{
		URL:         result.URL,
		Base64:      base64.StdEncoding.EncodeToString(result.Data),
		Size:        result.Size,
		ContentType: result.ContentType,
		FetchedAt:   result.FetchedAt,
	}, nil
}

// Inspect fetches, validates and extracts the document structure.
func (s *Service) Inspect(ctx context.Context) (*Inspection, error) {
	result, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.inspect(result)
	if err != nil {
		return nil, err
	}

	return &Inspection{
		URL:      result.URL,
		Size:     result.Size,
		Document: doc,
	}, nil
}

// Validate fetches the document and reports whether it opens as a PDF.
func (s *Service) Validate(ctx context.Context) (*ValidationResult, error) {
	result, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.validator.Validate(result.Data), nil
}

// Info returns page and field statistics for the document.
func (s *Service) Info(ctx context.Context) (*DocumentInfo, error) {
	result, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.inspect(result)
	if err != nil {
		return nil, err
	}

	info := &DocumentInfo{
		URL:         result.URL,
		Size:        result.Size,
		ContentType: result.ContentType,
		Pages:       doc.PageCount(),
		PageSizes:   make([]PageSize, 0, doc.PageCount()),
		FieldCounts: doc.CountByType(),
		FetchedAt:   result.FetchedAt,
	}
	for _, p := range doc.Pages {
		info.PageSizes = append(info.PageSizes, PageSize{Number: p.Number, Width: p.Width, Height: p.Height})
	}

	return info, nil
}

func (s *Service) inspect(result *fetch.Result) (*extraction.Document, error) {
	validation := s.validator.Validate(result.Data)
	if !validation.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, validation.Message)
	}

	doc, err := s.extractor.Extract(bytes.NewReader(result.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract form fields: %w", ErrInvalidDocument, err)
	}

	if doc.PageCount() != validation.Pages {
		s.logger.Debug("page count mismatch between parsers",
			"validator", validation.Pages,
			"extractor", doc.PageCount(),
		)
	}

	return doc, nil
}
