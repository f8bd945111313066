package pdf

import (
	"time"

	"github.com/a3tai/pdf-form-viewer/internal/pdf/extraction"
)

// Payload is the fetched document ready to embed in a page.
type Payload struct {
	URL         string    `json:"url"`
	Base64      string    `json:"base64"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ValidationResult represents the result of a PDF validation operation
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// Inspection is the fetched document together with its extracted structure.
type Inspection struct {
	URL      string               `json:"url"`
	Size     int64                `json:"size"`
	Document *extraction.Document `json:"document"`
}

// PageSize is the size of one page in PDF points.
type PageSize struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentInfo summarises the source document.
type DocumentInfo struct {
	URL         string                       `json:"url"`
	Size        int64                        `json:"size"`
	ContentType string                       `json:"content_type,omitempty"`
	Pages       int                          `json:"pages"`
	PageSizes   []PageSize                   `json:"page_sizes"`
	FieldCounts map[extraction.FieldType]int `json:"field_counts"`
	FetchedAt   time.Time                    `json:"fetched_at"`
}
