package hfsync

import (
	"net/http"
	"time"
)

// Timeout constants for registry traffic. Metadata requests are small and
// bounded; file transfers may legitimately run for hours, so only the
// connection setup and inter-chunk stalls are bounded.
const (
	// DefaultMetadataTimeout caps one metadata request end to end.
	DefaultMetadataTimeout = 30 * time.Second

	// DefaultConnectTimeout caps connection establishment for file
	// transfers.
	DefaultConnectTimeout = 60 * time.Second

	// DefaultStallTimeout caps the gap between successive body reads
	// during a file transfer.
	DefaultStallTimeout = 60 * time.Second

	// DefaultRequestDelay is the pause after each metadata fetch.
	DefaultRequestDelay = 250 * time.Millisecond

	// DownloadChunkSize is the copy buffer size for streaming bodies.
	DownloadChunkSize = 1 << 20
)

// SyncerOption configures a Syncer.
type SyncerOption func(*syncerConfig)

// syncerConfig holds configuration for Syncer construction.
type syncerConfig struct {
	// httpClient is used for all registry requests.
	httpClient HTTPClient

	// logger receives diagnostic log messages.
	logger Logger

	// uploader overrides the object-storage sink. Defaults to a no-op
	// sink, or a minio-backed one when Config.ObjectStore is set.
	uploader ObjectUploader
}

// WithHTTPClient sets a custom HTTP client for registry requests.
// Useful for testing with mock servers or customizing timeouts.
// If not set, a client with the default transfer timeouts is used.
func WithHTTPClient(client HTTPClient) SyncerOption {
	return func(c *syncerConfig) {
		c.httpClient = client
	}
}

// WithLogger sets a logger for diagnostic output.
// If not set, logging is disabled.
func WithLogger(logger Logger) SyncerOption {
	return func(c *syncerConfig) {
		c.logger = logger
	}
}

// WithUploader sets a custom object-storage sink, overriding the one
// derived from Config.ObjectStore. Useful for testing.
func WithUploader(u ObjectUploader) SyncerOption {
	return func(c *syncerConfig) {
		c.uploader = u
	}
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

// runConfig holds per-run settings.
type runConfig struct {
	// progressFn is called with transfer progress updates.
	progressFn ProgressFunc
}

// WithProgress sets a callback for transfer progress updates.
func WithProgress(fn ProgressFunc) RunOption {
	return func(c *runConfig) {
		c.progressFn = fn
	}
}

// HTTPClient is the interface for HTTP operations.
// *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// Logger is the interface for diagnostic logging.
// Compatible with slog, zap, logrus, and other structured loggers.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}
