package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	body := []byte("%PDF-1.7\nbinary\x00\xff\n%%EOF\n")

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	f := New(server.URL, WithUserAgent("viewer-test"))
	result, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, body, result.Data)
	assert.Equal(t, int64(len(body)), result.Size)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, server.URL, result.URL)
	assert.Equal(t, "viewer-test", gotUA)
	assert.False(t, result.FetchedAt.IsZero())
}

func TestFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		opts    []Option
		check   func(t *testing.T, err error)
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyBody)
			},
		},
		{
			name: "declared length over limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", strconv.Itoa(64))
				_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
			},
			opts: []Option{WithMaxBodySize(16)},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTooLarge)
			},
		},
		{
			name: "streamed body over limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				flusher := w.(http.Flusher)
				for i := 0; i < 4; i++ {
					_, _ = w.Write(bytes.Repeat([]byte("b"), 8))
					flusher.Flush()
				}
			},
			opts: []Option{WithMaxBodySize(16)},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTooLarge)
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			opts: []Option{WithTimeout(50 * time.Millisecond)},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := New(server.URL, tt.opts...).Fetch(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestFetcher_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url).Fetch(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestStatusError_RedactsURL(t *testing.T) {
	err := &StatusError{URL: "https://user:pw@example.com/form.pdf?sig=abc", StatusCode: 403}
	assert.Equal(t, "upstream https://example.com/form.pdf responded with status 403", err.Error())
}
