package viewer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/a3tai/pdf-form-viewer/internal/overlay"
	"github.com/a3tai/pdf-form-viewer/internal/pdf"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/fetch"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/pdftest"
)

func formPDF() []byte {
	return pdftest.New().
		AddPage(600, 800).
		AddPage(600, 800).
		AddField(pdftest.Field{
			Name:    "FirstName",
			Type:    "Tx",
			Value:   "Ada",
			Widgets: []pdftest.Widget{{Page: 1, Rect: [4]float64{100, 700, 300, 720}}},
		}).
		AddField(pdftest.Field{
			Name:    "Citizen",
			Type:    "Btn",
			Value:   "Yes",
			Widgets: []pdftest.Widget{{Page: 2, Rect: [4]float64{50, 50, 62, 62}}},
		}).
		Bytes()
}

func defaultOptions() Options {
	return Options{
		Scale:          1.5,
		PDFJSURL:       "https://cdn.example.com/pdf.min.js",
		PDFJSWorkerURL: "https://cdn.example.com/pdf.worker.min.js",
		PDFLibURL:      "https://cdn.example.com/pdf-lib.min.js",
	}
}

// newTestHandler wires a real pdf.Service to an upstream test server.
func newTestHandler(t *testing.T, upstream http.HandlerFunc) http.Handler {
	t.Helper()

	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)

	service, err := pdf.NewService(fetch.New(ts.URL+"/form.pdf"), 1<<20, nil)
	require.NoError(t, err)

	h, err := NewHandler(service, defaultOptions(), nil)
	require.NoError(t, err)
	return h.Routes()
}

func servePDF(data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(data)
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	if match(n) {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAll(c, match)...)
	}
	return out
}

func element(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func inlineScript(t *testing.T, doc *html.Node) string {
	t.Helper()
	for _, s := range findAll(doc, element("script")) {
		if attr(s, "src") == "" && s.FirstChild != nil {
			return s.FirstChild.Data
		}
	}
	t.Fatal("inline script not found")
	return ""
}

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(nil, defaultOptions(), nil)
	assert.Error(t, err)

	service, err := pdf.NewService(fetch.New("https://example.com/a.pdf"), 1024, nil)
	require.NoError(t, err)

	_, err = NewHandler(service, Options{}, nil)
	assert.Error(t, err)

	h, err := NewHandler(service, defaultOptions(), nil)
	require.NoError(t, err)
	assert.NotNil(t, h.Routes())
}

func TestHandler_Index(t *testing.T) {
	data := formPDF()
	h := newTestHandler(t, servePDF(data))

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	doc, err := html.Parse(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)

	titles := findAll(doc, element("title"))
	require.Len(t, titles, 1)
	assert.Equal(t, DefaultTitle, titles[0].FirstChild.Data)

	var sources []string
	for _, s := range findAll(doc, element("script")) {
		if src := attr(s, "src"); src != "" {
			sources = append(sources, src)
		}
	}
	opts := defaultOptions()
	assert.Equal(t, []string{opts.PDFJSURL, opts.PDFJSWorkerURL, opts.PDFLibURL}, sources)

	containers := findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == "pdf-container"
	})
	require.Len(t, containers, 1)
	assert.Equal(t, "wrapper", attr(containers[0].Parent, "class"))
	assert.Equal(t, fmt.Sprint(len(data)), attr(containers[0], "data-source-size"))

	script := inlineScript(t, doc)
	encoded := base64.StdEncoding.EncodeToString(data)
	assert.Contains(t, script, `atob("`+encoded+`")`)
	assert.Contains(t, script, "annotationMode: 2")
	assert.Contains(t, script, "<p>Failed to load PDF.</p>")
	assert.Contains(t, script, "console.error")
	assert.Contains(t, script, `=== "Yes"`)
	assert.Contains(t, script, "viewport.height - rect[3] * scale")
	assert.Regexp(t, `const scale = \s*1\.5\s*;`, script)
}

func TestHandler_IndexUpstreamFailure(t *testing.T) {
	tests := []struct {
		name     string
		upstream http.HandlerFunc
	}{
		{
			name: "not found",
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
		},
		{
			name: "server error",
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name:     "empty body",
			upstream: func(w http.ResponseWriter, _ *http.Request) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.upstream)

			rec := get(t, h, "/")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, FetchErrorBody, rec.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestHandler_IndexUnreachableUpstream(t *testing.T) {
	ts := httptest.NewServer(servePDF(formPDF()))
	url := ts.URL
	ts.Close()

	service, err := pdf.NewService(fetch.New(url), 1<<20, nil)
	require.NoError(t, err)
	h, err := NewHandler(service, defaultOptions(), nil)
	require.NoError(t, err)

	rec := get(t, h.Routes(), "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, FetchErrorBody, rec.Body.String())
}

func TestHandler_UnknownPath(t *testing.T) {
	h := newTestHandler(t, servePDF(formPDF()))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/other").Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_Preflight(t *testing.T) {
	h := newTestHandler(t, servePDF(formPDF()))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_Fields(t *testing.T) {
	h := newTestHandler(t, servePDF(formPDF()))

	rec := get(t, h, "/api/fields")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp FieldsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 1.5, resp.Scale)
	assert.Equal(t, 2, resp.Controls)
	require.Len(t, resp.Pages, 2)

	first := resp.Pages[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "page-1-canvas", first.CanvasID)
	assert.Equal(t, 1200.0, first.Viewport.Height)
	require.Len(t, first.Controls, 1)

	text := first.Controls[0]
	assert.Equal(t, overlay.KindText, text.Kind)
	assert.Equal(t, "Ada", text.Value)
	assert.Equal(t, overlay.Box{Left: 150, Top: 120, Width: 300, Height: 30}, text.Box)

	second := resp.Pages[1]
	require.Len(t, second.Controls, 1)
	assert.Equal(t, overlay.KindCheckbox, second.Controls[0].Kind)
	assert.True(t, second.Controls[0].Checked)
}

func TestHandler_FieldsErrors(t *testing.T) {
	t.Run("upstream failure", func(t *testing.T) {
		h := newTestHandler(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		rec := get(t, h, "/api/fields")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Error fetching PDF"}`, rec.Body.String())
	})

	t.Run("not a pdf", func(t *testing.T) {
		h := newTestHandler(t, servePDF([]byte("<html>maintenance</html>")))

		rec := get(t, h, "/api/fields")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"error":"Error reading PDF form"}`, rec.Body.String())
	})
}

func TestHandler_Health(t *testing.T) {
	h := newTestHandler(t, servePDF(formPDF()))

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

type failingService struct{}

func (failingService) LoadDocument(context.Context) (*pdf.Payload, error) {
	return &pdf.Payload{Base64: "not base64!"}, nil
}

func (failingService) Inspect(context.Context) (*pdf.Inspection, error) {
	return nil, errors.New("boom")
}

func TestHandler_IndexRejectsUnsafePayload(t *testing.T) {
	h, err := NewHandler(failingService{}, defaultOptions(), nil)
	require.NoError(t, err)

	rec := get(t, h.Routes(), "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, FetchErrorBody, rec.Body.String())
}
