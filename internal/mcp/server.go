package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf-form-viewer/internal/config"
	"github.com/a3tai/pdf-form-viewer/internal/descriptions"
	"github.com/a3tai/pdf-form-viewer/internal/logging"
	"github.com/a3tai/pdf-form-viewer/internal/overlay"
	"github.com/a3tai/pdf-form-viewer/internal/pdf"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/extraction"
)

// DocumentService is the part of pdf.Service exposed as tools.
type DocumentService interface {
	Inspect(ctx context.Context) (*pdf.Inspection, error)
	Info(ctx context.Context) (*pdf.DocumentInfo, error)
	Validate(ctx context.Context) (*pdf.ValidationResult, error)
	SourceURL() string
}

// toolInfo describes a registered tool for pdf_server_info.
type toolInfo struct {
	Name        string
	Description string
	Parameters  string
}

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService DocumentService
	mcpServer  *server.MCPServer
	tools      []toolInfo
	logger     *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService DocumentService, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if pdfService == nil {
		return nil, errors.New("pdfService cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

func (s *Server) addTool(tool mcp.Tool, parameters string, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.tools = append(s.tools, toolInfo{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  parameters,
	})
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.addTool(mcp.NewTool(
		descriptions.FormFieldsTool,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.FormFieldsTool)),
		mcp.WithNumber("page",
			mcp.Description("Only list controls of this 1-based page (all pages if omitted)"),
		),
		mcp.WithNumber("scale",
			mcp.Description("Render scale used for positions (configured scale if omitted)"),
		),
	), "page (optional), scale (optional)", s.handleFormFields)

	s.addTool(mcp.NewTool(
		descriptions.DocumentInfoTool,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.DocumentInfoTool)),
	), "none", s.handleDocumentInfo)

	s.addTool(mcp.NewTool(
		descriptions.ValidateDocumentTool,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ValidateDocumentTool)),
	), "none", s.handleValidateDocument)

	s.addTool(mcp.NewTool(
		descriptions.ServerInfoTool,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ServerInfoTool)),
	), "none", s.handleServerInfo)
}

func numberArg(request mcp.CallToolRequest, name string) (float64, bool, error) {
	raw, ok := request.GetArguments()[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, false, fmt.Errorf("argument %q must be a number", name)
	}
	return v, true, nil
}

func (s *Server) handleFormFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scale := s.config.Scale
	if v, ok, err := numberArg(request, "scale"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	} else if ok {
		if v <= 0 {
			return mcp.NewToolResultError("scale must be positive"), nil
		}
		scale = v
	}

	page := 0
	if v, ok, err := numberArg(request, "page"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	} else if ok {
		page = int(v)
	}

	inspection, err := s.pdfService.Inspect(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	views := overlay.Build(inspection.Document, scale)
	if page != 0 {
		if page < 1 || page > len(views) {
			return mcp.NewToolResultError(
				fmt.Sprintf("page %d out of range (document has %d pages)", page, len(views))), nil
		}
		views = views[page-1 : page]
	}

	return mcp.NewToolResultText(s.formatFormFields(inspection.URL, scale, views)), nil
}

func (s *Server) handleDocumentInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.pdfService.Info(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatDocumentInfo(info)), nil
}

func (s *Server) handleValidateDocument(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.Validate(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	source := logging.RedactURL(s.pdfService.SourceURL())
	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF at %s is valid and readable (%d pages)", source, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", source, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Source: %s\n", logging.RedactURL(s.pdfService.SourceURL()))
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Render Scale: %g\n", s.config.Scale)

	text += "\nAvailable Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		tool, ok := s.registeredTool(name)
		if !ok {
			continue
		}
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", firstLine(tool.Description))
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	return mcp.NewToolResultText(text), nil
}

func (s *Server) registeredTool(name string) (toolInfo, bool) {
	for _, tool := range s.tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return toolInfo{}, false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Formatting methods
func (s *Server) formatFormFields(url string, scale float64, views []overlay.PageView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Form fields of %s (scale %g)\n", logging.RedactURL(url), scale)
	fmt.Fprintf(&b, "Total controls: %d\n", overlay.Count(views))

	for _, v := range views {
		fmt.Fprintf(&b, "\nPage %d (%gx%g px, canvas %s): %d control(s)\n",
			v.Number, v.Viewport.Width, v.Viewport.Height, v.CanvasID, len(v.Controls))
		for i, c := range v.Controls {
			fmt.Fprintf(&b, "%d. %s [%s]", i+1, c.Name, c.Kind)
			switch c.Kind {
			case overlay.KindCheckbox, overlay.KindRadio:
				fmt.Fprintf(&b, " checked=%t", c.Checked)
			default:
				if c.Value != "" {
					fmt.Fprintf(&b, " value=%q", c.Value)
				}
			}
			if c.ReadOnly {
				b.WriteString(" read-only")
			}
			fmt.Fprintf(&b, "\n   %s\n", c.Box.Style())
			if len(c.Options) > 0 {
				labels := make([]string, 0, len(c.Options))
				for _, o := range c.Options {
					labels = append(labels, o.Label)
				}
				fmt.Fprintf(&b, "   options: %s\n", strings.Join(labels, ", "))
			}
		}
	}

	return b.String()
}

func (s *Server) formatDocumentInfo(info *pdf.DocumentInfo) string {
	text := "PDF Document Information\n"
	text += fmt.Sprintf("Source: %s\n", logging.RedactURL(info.URL))
	text += fmt.Sprintf("Size: %d bytes\n", info.Size)
	if info.ContentType != "" {
		text += fmt.Sprintf("Content Type: %s\n", info.ContentType)
	}
	text += fmt.Sprintf("Pages: %d\n", info.Pages)

	for _, p := range info.PageSizes {
		text += fmt.Sprintf("  Page %d: %gx%g pt\n", p.Number, p.Width, p.Height)
	}

	types := make([]string, 0, len(info.FieldCounts))
	for t := range info.FieldCounts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	total := 0
	text += "Form Fields:\n"
	for _, t := range types {
		n := info.FieldCounts[extraction.FieldType(t)]
		total += n
		text += fmt.Sprintf("  %s: %d\n", t, n)
	}
	text += fmt.Sprintf("  Total: %d\n", total)

	return text
}

// Run serves MCP over the process stdin and stdout until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams until ctx is done or in is exhausted.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP server in stdio mode",
		"name", s.config.ServerName,
		"version", s.config.Version,
		"url", s.pdfService.SourceURL(),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
