package viewer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultTitle is the heading and document title of the viewer page.
const DefaultTitle = "Fillable PDF Viewer"

// PageData is the input of the viewer page template.
type PageData struct {
	Title          string
	PDFBase64      template.JS
	Size           int64
	Scale          float64
	PDFJSURL       string
	PDFJSWorkerURL string
	PDFLibURL      string
}

// EncodedPDF returns b64 as a quoted JavaScript string literal that the
// template emits verbatim. Any character outside the standard base64
// alphabet makes it return false.
func EncodedPDF(b64 string) (template.JS, bool) {
	for i := 0; i < len(b64); i++ {
		c := b64[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+', c == '/', c == '=':
		default:
			return "", false
		}
	}
	return template.JS(`"` + b64 + `"`), true
}

// Renderer executes the embedded viewer page template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render returns the viewer page for data.
func (r *Renderer) Render(data PageData) ([]byte, error) {
	if data.Title == "" {
		data.Title = DefaultTitle
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "index.html.tmpl", data); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}
