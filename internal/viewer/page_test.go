package viewer

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodedPDF(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"JVBERi0xLjcK", true},
		{"ab+/cd==", true},
		{"", true},
		{`abc"</script>`, false},
		{"abc\\u0022", false},
		{"abc def", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := EncodedPDF(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, template.JS(`"`+tt.in+`"`), got)
			}
		})
	}
}

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	encoded, ok := EncodedPDF("JVBE+/==")
	require.True(t, ok)

	body, err := r.Render(PageData{
		Title:          "Custom <Title>",
		PDFBase64:      encoded,
		Scale:          2,
		PDFJSURL:       "https://cdn.example.com/pdf.js",
		PDFJSWorkerURL: "https://cdn.example.com/pdf.worker.js",
	})
	require.NoError(t, err)

	page := string(body)
	assert.Contains(t, page, "<title>Custom &lt;Title&gt;</title>")
	assert.Contains(t, page, `atob("JVBE+/==")`)
	assert.Contains(t, page, `<script src="https://cdn.example.com/pdf.js"></script>`)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
}
