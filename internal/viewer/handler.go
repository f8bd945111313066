package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/a3tai/pdf-form-viewer/internal/logging"
	"github.com/a3tai/pdf-form-viewer/internal/overlay"
	"github.com/a3tai/pdf-form-viewer/internal/pdf"
)

// FetchErrorBody is the plain-text body returned when the document cannot
// be retrieved.
const FetchErrorBody = "Error fetching PDF"

// DocumentService is the part of pdf.Service the HTTP surface needs.
type DocumentService interface {
	LoadDocument(ctx context.Context) (*pdf.Payload, error)
	Inspect(ctx context.Context) (*pdf.Inspection, error)
}

// Options controls the rendered page.
type Options struct {
	Title          string
	Scale          float64
	PDFJSURL       string
	PDFJSWorkerURL string
	PDFLibURL      string
}

// Handler serves the viewer page and its JSON companion endpoints.
type Handler struct {
	service  DocumentService
	renderer *Renderer
	opts     Options
	logger   *slog.Logger
}

// NewHandler creates a handler for service.
func NewHandler(service DocumentService, opts Options, logger *slog.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("service cannot be nil")
	}
	if opts.Scale <= 0 {
		return nil, errors.New("scale must be positive")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	return &Handler{
		service:  service,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Routes returns the handler tree with CORS and request logging applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /api/fields", h.handleFields)
	mux.HandleFunc("GET /healthz", h.handleHealth)

	return h.logRequests(allowAnyOrigin(mux))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	payload, err := h.service.LoadDocument(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch document", "error", err)
		writeFetchError(w)
		return
	}

	encoded, ok := EncodedPDF(payload.Base64)
	if !ok {
		h.logger.Error("document payload is not standard base64", "url", payload.URL)
		writeFetchError(w)
		return
	}

	body, err := h.renderer.Render(PageData{
		Title:          h.opts.Title,
		PDFBase64:      encoded,
		Size:           payload.Size,
		Scale:          h.opts.Scale,
		PDFJSURL:       h.opts.PDFJSURL,
		PDFJSWorkerURL: h.opts.PDFJSWorkerURL,
		PDFLibURL:      h.opts.PDFLibURL,
	})
	if err != nil {
		h.logger.Error("failed to render viewer page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// FieldsResponse is the body of GET /api/fields.
type FieldsResponse struct {
	URL      string             `json:"url"`
	Scale    float64            `json:"scale"`
	Pages    []overlay.PageView `json:"pages"`
	Controls int                `json:"controls"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleFields(w http.ResponseWriter, r *http.Request) {
	inspection, err := h.service.Inspect(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		message := FetchErrorBody
		if errors.Is(err, pdf.ErrInvalidDocument) {
			status = http.StatusUnprocessableEntity
			message = "Error reading PDF form"
		}
		h.logger.Error("failed to inspect document", "error", err, "status", status)
		writeJSON(w, status, errorResponse{Error: message})
		return
	}

	views := overlay.Build(inspection.Document, h.opts.Scale)
	writeJSON(w, http.StatusOK, FieldsResponse{
		URL:      logging.RedactURL(inspection.URL),
		Scale:    h.opts.Scale,
		Pages:    views,
		Controls: overlay.Count(views),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeFetchError writes FetchErrorBody with no trailing newline.
func writeFetchError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, FetchErrorBody)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
