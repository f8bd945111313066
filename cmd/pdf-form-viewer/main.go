package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/pdf-form-viewer/internal/config"
	"github.com/a3tai/pdf-form-viewer/internal/logging"
	"github.com/a3tai/pdf-form-viewer/internal/mcp"
	"github.com/a3tai/pdf-form-viewer/internal/pdf"
	"github.com/a3tai/pdf-form-viewer/internal/pdf/fetch"
	"github.com/a3tai/pdf-form-viewer/internal/viewer"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process logger. In stdio mode stdout carries the
// MCP protocol, so everything goes to stderr and only errors are logged
// unless debug is enabled.
func setupLogging(cfg *config.Config, stderr io.Writer) *slog.Logger {
	level := cfg.LogLevel
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		level = "error"
	}
	return logging.New(stderr, level)
}

// newService wires the fetcher and the document service.
func newService(cfg *config.Config, logger *slog.Logger) (*pdf.Service, error) {
	fetcher := fetch.New(cfg.SourceURL,
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxBodySize(cfg.MaxFileSize),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(logger),
	)
	return pdf.NewService(fetcher, cfg.MaxFileSize, logger)
}

// newViewerServer builds the HTTP server for server mode.
func newViewerServer(cfg *config.Config, service *pdf.Service, logger *slog.Logger) (*viewer.Server, error) {
	handler, err := viewer.NewHandler(service, viewer.Options{
		Scale:          cfg.Scale,
		PDFJSURL:       cfg.PDFJSURL,
		PDFJSWorkerURL: cfg.PDFJSWorkerURL,
		PDFLibURL:      cfg.PDFLibURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create viewer: %w", err)
	}
	return viewer.NewServer(cfg.Address(), handler.Routes(), cfg.FetchTimeout, logger), nil
}

// runner is satisfied by both the viewer and the MCP server.
type runner interface {
	Run(ctx context.Context) error
}

// run blocks until r stops or ctx is canceled.
func run(ctx context.Context, r runner, logger *slog.Logger) error {
	if err := r.Run(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		logger.Info("server stopped successfully")
	}
	return nil
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, os.Stderr)
	logger.Debug("starting with configuration", "config", cfg.String())

	service, err := newService(cfg, logger)
	if err != nil {
		logger.Error("failed to create PDF service", "error", err)
		os.Exit(1)
	}

	var srv runner
	if cfg.IsServerMode() {
		srv, err = newViewerServer(cfg, service, logger)
	} else {
		srv, err = mcp.NewServer(cfg, service, logger)
	}
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, srv, logger); err != nil {
		logger.Error("server error", "error", err)
		stop()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "PDF Form Viewer\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
