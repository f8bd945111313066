package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort         = 3000
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 50 * 1024 * 1024 // 50MB
	DefaultFetchTimeout = 30 * time.Second
	DefaultScale        = 1.5
	DefaultSourceURL    = "https://www.uscis.gov/sites/default/files/document/forms/i-9.pdf"
	DefaultUserAgent    = "pdf-form-viewer/1.0"

	// Client-side libraries
	DefaultPDFJSURL       = "https://cdnjs.cloudflare.com/ajax/libs/pdf.js/3.3.122/pdf.min.js"
	DefaultPDFJSWorkerURL = "https://cdnjs.cloudflare.com/ajax/libs/pdf.js/3.3.122/pdf.worker.min.js"
	DefaultPDFLibURL      = "https://unpkg.com/pdf-lib"

	envPrefix = "PDF_VIEWER"
)

// Validation errors returned by Config.Validate.
var (
	ErrInvalidMode        = errors.New("mode must be either 'stdio' or 'server'")
	ErrInvalidPort        = errors.New("port must be between 1 and 65535")
	ErrEmptySourceURL     = errors.New("source URL cannot be empty")
	ErrInvalidSourceURL   = errors.New("source URL must be an absolute http or https URL")
	ErrInvalidTimeout     = errors.New("fetch timeout must be positive")
	ErrInvalidMaxFileSize = errors.New("maximum file size must be positive")
	ErrInvalidScale       = errors.New("scale must be positive")
)

// ErrVersionRequested is returned by LoadFromFlags when a version flag is present.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the PDF form viewer
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Source document
	SourceURL    string
	FetchTimeout time.Duration
	MaxFileSize  int64 // Maximum PDF size in bytes
	UserAgent    string

	// Rendering
	Scale          float64
	PDFJSURL       string
	PDFJSWorkerURL string
	PDFLibURL      string

	// Application configuration
	ConfigFile string
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModeServer,
		Host:           DefaultHost,
		Port:           DefaultPort,
		SourceURL:      DefaultSourceURL,
		FetchTimeout:   DefaultFetchTimeout,
		MaxFileSize:    DefaultMaxFileSize,
		UserAgent:      DefaultUserAgent,
		Scale:          DefaultScale,
		PDFJSURL:       DefaultPDFJSURL,
		PDFJSWorkerURL: DefaultPDFJSWorkerURL,
		PDFLibURL:      DefaultPDFLibURL,
		Version:        "1.0.0",
		ServerName:     "pdf-form-viewer",
		LogLevel:       DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := readConfigFile(); err != nil {
		return nil, err
	}

	populateConfigFromViper(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("url", cfg.SourceURL)
	viper.SetDefault("timeout", cfg.FetchTimeout)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("useragent", cfg.UserAgent)
	viper.SetDefault("scale", cfg.Scale)
	viper.SetDefault("pdfjs", cfg.PDFJSURL)
	viper.SetDefault("pdfjsworker", cfg.PDFJSWorkerURL)
	viper.SetDefault("pdflib", cfg.PDFLibURL)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("config", "")
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'server' for the HTTP viewer, 'stdio' for MCP standard I/O")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("url", cfg.SourceURL, "URL of the PDF document to serve")
	pflag.Duration("timeout", cfg.FetchTimeout, "Timeout for fetching the PDF document")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF size in bytes")
	pflag.String("useragent", cfg.UserAgent, "User-Agent sent to the upstream server")
	pflag.Float64("scale", cfg.Scale, "Zoom factor used to render pages")
	pflag.String("pdfjs", cfg.PDFJSURL, "URL of the pdf.js script")
	pflag.String("pdfjsworker", cfg.PDFJSWorkerURL, "URL of the pdf.js worker script")
	pflag.String("pdflib", cfg.PDFLibURL, "URL of the pdf-lib script")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("config", "", "Optional configuration file (yaml, toml or json)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "url", "timeout", "maxfilesize", "useragent",
		"scale", "pdfjs", "pdfjsworker", "pdflib", "loglevel", "config",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Form Viewer - serves a remote PDF with fillable form overlays\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          # viewer on 127.0.0.1:3000\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --url=https://example.com/form.pdf       # serve another document\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio                             # MCP stdio mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDF_VIEWER_MODE        Run mode\n")
		fmt.Fprintf(os.Stderr, "  PDF_VIEWER_HOST        Server host\n")
		fmt.Fprintf(os.Stderr, "  PDF_VIEWER_PORT        Server port\n")
		fmt.Fprintf(os.Stderr, "  PDF_VIEWER_URL         PDF document URL\n")
		fmt.Fprintf(os.Stderr, "  PDF_VIEWER_TIMEOUT     Fetch timeout\n")
		fmt.Fprintf(os.Stderr, "  PDF_VIEWER_SCALE       Render scale\n")
		fmt.Fprintf(os.Stderr, "  PDF_VIEWER_LOGLEVEL    Log level\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// readConfigFile merges the optional configuration file into viper
func readConfigFile() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.SourceURL = viper.GetString("url")
	cfg.FetchTimeout = viper.GetDuration("timeout")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.UserAgent = viper.GetString("useragent")
	cfg.Scale = viper.GetFloat64("scale")
	cfg.PDFJSURL = viper.GetString("pdfjs")
	cfg.PDFJSWorkerURL = viper.GetString("pdfjsworker")
	cfg.PDFLibURL = viper.GetString("pdflib")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.ConfigFile = viper.GetString("config")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return ErrInvalidMode
	}

	// Port only matters when listening
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return ErrInvalidPort
	}

	if c.SourceURL == "" {
		return ErrEmptySourceURL
	}
	u, err := url.Parse(c.SourceURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSourceURL
	}

	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}

	if c.Scale <= 0 {
		return ErrInvalidScale
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, FetchTimeout: %s, MaxFileSize: %d, Scale: %g, LogLevel: %s}",
		c.Mode, c.Host, c.Port, c.FetchTimeout, c.MaxFileSize, c.Scale, c.LogLevel)
}

// IsServerMode returns true if the viewer runs as an HTTP server
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the viewer runs as an MCP stdio server
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
