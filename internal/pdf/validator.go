package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfHeader is the magic every PDF file starts with.
var pdfHeader = []byte("%PDF-")

var (
	// ErrEmptyDocument is returned for zero-length input.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrNotPDF is returned when the data lacks a PDF header.
	ErrNotPDF = errors.New("document is not a PDF")
)

// Validator handles PDF validation of in-memory documents
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// Validate reports whether data is a readable PDF. Problems with the
// document are reported in the result, not as an error.
func (v *Validator) Validate(data []byte) *ValidationResult {
	pages, err := v.validateBytes(data)
	if err != nil {
		return &ValidationResult{Valid: false, Message: err.Error()}
	}
	return &ValidationResult{Valid: true, Pages: pages}
}

// HasPDFHeader performs a quick check of the leading magic bytes.
func (v *Validator) HasPDFHeader(data []byte) bool {
	// Readers accept leading junk within the first 1024 bytes.
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, pdfHeader)
}

// validateBytes opens data with ledongthuc/pdf and returns the page count.
func (v *Validator) validateBytes(data []byte) (pages int, err error) {
	if len(data) == 0 {
		return 0, ErrEmptyDocument
	}

	if int64(len(data)) > v.maxFileSize {
		return 0, fmt.Errorf("document too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize)
	}

	if !v.HasPDFHeader(data) {
		return 0, ErrNotPDF
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = fmt.Errorf("invalid PDF file: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}

	pages = reader.NumPage()
	if pages == 0 {
		return 0, fmt.Errorf("invalid PDF file: no pages")
	}

	return pages, nil
}
