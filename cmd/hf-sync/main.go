// Command hf-sync downloads model weight files for a batch of repository
// identifiers, with resumable transfers, deduplication and optional
// mirroring to a second directory or S3-compatible bucket.
//
// Configuration is loaded from the environment (a .env file is honored):
//   - HUGGINGFACE_TOKEN: bearer token for private/gated repositories (optional)
//   - HF_SYNC_REGISTRY_URL: registry base URL (default https://huggingface.co)
//   - HF_SYNC_CACHE_DIR: metadata cache directory (optional)
//   - S3_ENDPOINT, S3_BUCKET, S3_PREFIX, S3_ACCESS_KEY, S3_SECRET_KEY,
//     S3_REGION: object-store mirror defaults, overridable by flags
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	hfsync "github.com/scottjoyner/hf-sync"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidConfig indicates unusable configuration or arguments.
	ExitInvalidConfig = 2

	// ExitMetadata indicates a repository listing could not be fetched.
	ExitMetadata = 3

	// ExitAuthDenied indicates the registry refused access to a file.
	ExitAuthDenied = 4

	// ExitTransport indicates a network failure during a transfer.
	ExitTransport = 5

	// ExitStorage indicates a filesystem operation failed.
	ExitStorage = 6
)

func main() {
	// A missing .env is fine; real environment variables win either way.
	_ = godotenv.Load()

	cfg := hfsync.Config{
		RegistryURL: os.Getenv("HF_SYNC_REGISTRY_URL"),
		Token:       os.Getenv("HUGGINGFACE_TOKEN"),
		CacheDir:    os.Getenv("HF_SYNC_CACHE_DIR"),
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cmd := hfsync.NewCommand(cfg, hfsync.WithLogger(logger))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFromError(err))
	}
}

// exitCodeFromError maps error kinds to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, hfsync.ErrInvalidConfig):
		return ExitInvalidConfig
	case errors.Is(err, hfsync.ErrMetadataUnavailable):
		return ExitMetadata
	case errors.Is(err, hfsync.ErrAuthDenied):
		return ExitAuthDenied
	case errors.Is(err, hfsync.ErrTransport):
		return ExitTransport
	case errors.Is(err, hfsync.ErrStorageError):
		return ExitStorage
	default:
		return ExitGeneralError
	}
}
