package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/a3tai/pdf-form-viewer/internal/config"
	"github.com/a3tai/pdf-form-viewer/internal/logging"
	"github.com/a3tai/pdf-form-viewer/internal/overlay"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/extraction"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/fetch"
)

// options holds the parsed command line.
type options struct {
	format  string
	scale   float64
	layout  bool
	verbose bool
	timeout time.Duration
	source  string
}

// ExtractionResult represents the complete result of form extraction
type ExtractionResult struct {
	Source         string                  `json:"source"`
	Success        bool                    `json:"success"`
	PageCount      int                     `json:"page_count"`
	FieldCount     int                     `json:"field_count"`
	Annotations    []extraction.Annotation `json:"annotations"`
	Layout         []overlay.PageView      `json:"layout,omitempty"`
	Error          string                  `json:"error,omitempty"`
	ExtractionTime string                  `json:"extraction_time,omitempty"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("pdf-extract-forms", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.Float64Var(&opts.scale, "scale", config.DefaultScale, "Render scale used for the overlay layout")
	fs.BoolVar(&opts.layout, "layout", false, "Include the overlay layout of each page")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output")
	fs.DurationVar(&opts.timeout, "timeout", config.DefaultFetchTimeout, "Timeout when the source is a URL")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "USAGE:")
		fmt.Fprintln(stderr, "  pdf-extract-forms [OPTIONS] <pdf_file_or_url>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "OPTIONS:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("exactly one PDF file or URL is required")
	}
	if opts.format != "text" && opts.format != "json" {
		return nil, fmt.Errorf("unsupported output format: %s", opts.format)
	}
	if opts.scale <= 0 {
		return nil, fmt.Errorf("scale must be positive")
	}

	opts.source = fs.Arg(0)
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := logging.New(stderr, level)

	data, source, err := readSource(ctx, opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	start := time.Now()
	result := &ExtractionResult{Source: source}

	doc, err := extraction.NewExtractor(logger).Extract(bytes.NewReader(data))
	if err != nil {
		result.Error = err.Error()
	} else {
		result.Success = true
		result.PageCount = doc.PageCount()
		result.Annotations = doc.Annotations()
		result.FieldCount = len(result.Annotations)
		if opts.layout {
			result.Layout = overlay.Build(doc, opts.scale)
		}
	}
	result.ExtractionTime = time.Since(start).String()

	if opts.format == "json" {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintf(stderr, "Error outputting results: %v\n", err)
			return 1
		}
	} else {
		outputText(stdout, result)
	}

	if !result.Success {
		return 1
	}
	return 0
}

// readSource loads a local file, or fetches the document when source is an
// http(s) URL.
func readSource(ctx context.Context, opts *options, logger *slog.Logger) ([]byte, string, error) {
	if isURL(opts.source) {
		f := fetch.New(opts.source, fetch.WithTimeout(opts.timeout), fetch.WithLogger(logger))
		result, err := f.Fetch(ctx)
		if err != nil {
			return nil, "", err
		}
		logger.Debug("fetched document", "url", result.URL, "size", result.Size, "duration", result.Duration)
		return result.Data, logging.RedactURL(result.URL), nil
	}

	absPath, err := filepath.Abs(opts.source)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", absPath, err)
	}
	logger.Debug("read document", "path", absPath, "size", len(data))
	return data, absPath, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func outputText(w io.Writer, result *ExtractionResult) {
	if !result.Success {
		fmt.Fprintf(w, "Form extraction failed: %s\n", result.Error)
		return
	}

	if result.FieldCount == 0 {
		fmt.Fprintf(w, "No form fields detected in %s (%d pages)\n", result.Source, result.PageCount)
		return
	}

	fmt.Fprintf(w, "Extracted %d form fields from %s (%d pages)\n\n", result.FieldCount, result.Source, result.PageCount)

	for i, a := range result.Annotations {
		fmt.Fprintf(w, "[%d] %s\n", i+1, a.FieldName)
		fmt.Fprintf(w, "    Type: %s\n", describeType(a))
		if a.FieldValue != "" {
			fmt.Fprintf(w, "    Value: %s\n", a.FieldValue)
		}
		fmt.Fprintf(w, "    Page: %d\n", a.Page)
		fmt.Fprintf(w, "    Position: (%.1f, %.1f) to (%.1f, %.1f)\n", a.Rect[0], a.Rect[1], a.Rect[2], a.Rect[3])

		properties := []string{}
		if a.Required {
			properties = append(properties, "Required")
		}
		if a.ReadOnly {
			properties = append(properties, "ReadOnly")
		}
		if len(properties) > 0 {
			fmt.Fprintf(w, "    Properties: %v\n", properties)
		}
		if len(a.Options) > 0 {
			fmt.Fprintf(w, "    Options: %d\n", len(a.Options))
			for _, o := range a.Options {
				fmt.Fprintf(w, "      %s = %s\n", o.ExportValue, o.DisplayValue)
			}
		}
		if a.MaxLen > 0 {
			fmt.Fprintf(w, "    Max Length: %d\n", a.MaxLen)
		}
		fmt.Fprintln(w)
	}

	for _, v := range result.Layout {
		fmt.Fprintf(w, "Page %d layout (%gx%g px):\n", v.Number, v.Viewport.Width, v.Viewport.Height)
		for _, c := range v.Controls {
			fmt.Fprintf(w, "    %-8s %s  %s\n", c.Kind, c.Name, c.Box.Style())
		}
	}
}

func describeType(a extraction.Annotation) string {
	switch {
	case a.RadioButton:
		return string(a.FieldType) + " (radio)"
	case a.PushButton:
		return string(a.FieldType) + " (pushbutton)"
	case a.CheckBox:
		return string(a.FieldType) + " (checkbox)"
	case a.Combo:
		return string(a.FieldType) + " (combo)"
	case a.FieldType == extraction.FieldTypeChoice:
		return string(a.FieldType) + " (list)"
	default:
		return string(a.FieldType)
	}
}
