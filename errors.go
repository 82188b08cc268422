package hfsync

import "errors"

// Sentinel errors for sync operations.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrUnresolvable indicates a row yielded no canonical repository id.
	ErrUnresolvable = errors.New("hfsync: row did not resolve to a repository id")

	// ErrMetadataUnavailable indicates the registry listing could not be
	// fetched (404 or transport failure). The repository is skipped.
	ErrMetadataUnavailable = errors.New("hfsync: repository metadata unavailable")

	// ErrAuthDenied indicates the registry answered 401 or 403 for a file.
	// Usually means the repository is gated and no valid token was supplied.
	ErrAuthDenied = errors.New("hfsync: access denied by registry")

	// ErrTransport indicates an unexpected HTTP status or connection
	// failure during a file transfer.
	ErrTransport = errors.New("hfsync: transfer failed")

	// ErrNoMatch indicates the pattern policy selected no files. Only
	// surfaced when Config.StrictSelect is set.
	ErrNoMatch = errors.New("hfsync: no listed file matched the pattern policy")

	// ErrStorageError indicates a filesystem operation failed.
	ErrStorageError = errors.New("hfsync: storage error")

	// ErrMirrorError indicates a mirror replication or upload failed.
	// Never fatal to the owning repository.
	ErrMirrorError = errors.New("hfsync: mirror error")

	// ErrInvalidConfig indicates the engine configuration is unusable,
	// such as an explicitly requested object store with missing
	// credentials. Returned before any transfer begins.
	ErrInvalidConfig = errors.New("hfsync: invalid configuration")
)
