package pdf

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-form-viewer/internal/pdf/extraction"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/fetch"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/pdftest"
)

type stubSource struct {
	data  []byte
	err   error
	calls int
}

func (s *stubSource) Fetch(_ context.Context) (*fetch.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &fetch.Result{
		URL:         s.URL(),
		Data:        s.data,
		ContentType: "application/pdf",
		Size:        int64(len(s.data)),
		FetchedAt:   time.Now(),
	}, nil
}

func (s *stubSource) URL() string {
	return "https://example.com/form.pdf"
}

func formPDF() []byte {
	return pdftest.New().
		AddPage(612, 792).
		AddPage(595, 842).
		AddField(pdftest.Field{
			Name:    "Name",
			Type:    "Tx",
			Widgets: []pdftest.Widget{{Page: 1, Rect: [4]float64{10, 10, 110, 30}}},
		}).
		AddField(pdftest.Field{
			Name:    "Agree",
			Type:    "Btn",
			Value:   "Yes",
			Widgets: []pdftest.Widget{{Page: 2, Rect: [4]float64{10, 40, 22, 52}}},
		}).
		Bytes()
}

func TestNewService(t *testing.T) {
	_, err := NewService(nil, 1024, nil)
	assert.Error(t, err)

	svc, err := NewService(&stubSource{}, 1024, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/form.pdf", svc.SourceURL())
}

func TestService_LoadDocument(t *testing.T) {
	data := []byte("%PDF-1.7 \x00\x01\x02\xff")
	svc, err := NewService(&stubSource{data: data}, 1024, nil)
	require.NoError(t, err)

	payload, err := svc.LoadDocument(context.Background())
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(payload.Base64)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
	assert.Equal(t, int64(len(data)), payload.Size)
	assert.Equal(t, "https://example.com/form.pdf", payload.URL)
}

func TestService_LoadDocumentFetchError(t *testing.T) {
	upstreamErr := errors.New("connection refused")
	svc, err := NewService(&stubSource{err: upstreamErr}, 1024, nil)
	require.NoError(t, err)

	_, err = svc.LoadDocument(context.Background())
	assert.ErrorIs(t, err, upstreamErr)
}

func TestService_Inspect(t *testing.T) {
	source := &stubSource{data: formPDF()}
	svc, err := NewService(source, 1024*1024, nil)
	require.NoError(t, err)

	inspection, err := svc.Inspect(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, inspection.Document.PageCount())
	annotations := inspection.Document.Annotations()
	require.Len(t, annotations, 2)
	assert.Equal(t, "Name", annotations[0].FieldName)
	assert.Equal(t, 1, annotations[0].Page)
	assert.Equal(t, "Agree", annotations[1].FieldName)
	assert.Equal(t, 2, annotations[1].Page)
	assert.Equal(t, 1, source.calls)
}

func TestService_InspectInvalidDocument(t *testing.T) {
	svc, err := NewService(&stubSource{data: []byte("<html></html>")}, 1024, nil)
	require.NoError(t, err)

	_, err = svc.Inspect(context.Background())
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestService_Info(t *testing.T) {
	svc, err := NewService(&stubSource{data: formPDF()}, 1024*1024, nil)
	require.NoError(t, err)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, info.Pages)
	require.Len(t, info.PageSizes, 2)
	assert.InDelta(t, 595, info.PageSizes[1].Width, 0.001)
	assert.InDelta(t, 842, info.PageSizes[1].Height, 0.001)
	assert.Equal(t, 1, info.FieldCounts[extraction.FieldTypeText])
	assert.Equal(t, 1, info.FieldCounts[extraction.FieldTypeButton])
	assert.Equal(t, "application/pdf", info.ContentType)
}

func TestService_Validate(t *testing.T) {
	svc, err := NewService(&stubSource{data: formPDF()}, 1024*1024, nil)
	require.NoError(t, err)

	result, err := svc.Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 2, result.Pages)

	svc, err = NewService(&stubSource{data: []byte("plain text")}, 1024, nil)
	require.NoError(t, err)

	result, err = svc.Validate(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Message)
}
