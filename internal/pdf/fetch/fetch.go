// Package fetch retrieves the source PDF document over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/a3tai/pdf-form-viewer/internal/logging"
)

const (
	defaultMaxBodySize = 50 * 1024 * 1024 // 50MB
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "pdf-form-viewer/1.0"
)

var (
	// ErrTooLarge is returned when the upstream body exceeds the size limit.
	ErrTooLarge = errors.New("document exceeds maximum size")

	// ErrEmptyBody is returned when the upstream responds with no content.
	ErrEmptyBody = errors.New("document is empty")
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s responded with status %d", logging.RedactURL(e.URL), e.StatusCode)
}

// Result is a fetched document.
type Result struct {
	URL         string
	Data        []byte
	ContentType string
	Size        int64
	FetchedAt   time.Time
	Duration    time.Duration
}

// Fetcher downloads a single fixed document.
type Fetcher struct {
	url         string
	client      *http.Client
	userAgent   string
	maxBodySize int64
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize limits the number of bytes read from the upstream.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher for url.
func New(url string, opts ...Option) *Fetcher {
	f := &Fetcher{
		url:         url,
		client:      http.DefaultClient,
		userAgent:   defaultUserAgent,
		maxBodySize: defaultMaxBodySize,
		timeout:     defaultTimeout,
		logger:      logging.Discard(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// URL returns the document URL.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch performs one GET of the document and returns its bytes.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: f.url, StatusCode: resp.StatusCode}
	}

	if resp.ContentLength > f.maxBodySize {
		return nil, fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, resp.ContentLength, f.maxBodySize)
	}

	// Read one byte past the limit to detect oversized bodies without a
	// Content-Length header.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document body: %w", err)
	}
	if int64(len(data)) > f.maxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBodySize)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}

	result := &Result{
		URL:         f.url,
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		FetchedAt:   start,
		Duration:    time.Since(start),
	}

	f.logger.Debug("fetched document",
		"url", f.url,
		"status", resp.StatusCode,
		"bytes", result.Size,
		"content_type", result.ContentType,
		"duration", result.Duration,
	)

	return result, nil
}
