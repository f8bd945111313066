// Package logging builds the structured logger used across the viewer.
//
// Loggers are plain *slog.Logger values backed by a RedactingHandler, which
// strips credentials from URL attributes before they reach the output. The
// upstream document URL may carry signed query parameters or userinfo, and
// it is logged on every fetch.
//
//	logger := logging.New(os.Stderr, "debug")
//	logger.Info("fetched document", "url", "https://user:pw@host/form.pdf?sig=abc")
//	// url=https://host/form.pdf
package logging
