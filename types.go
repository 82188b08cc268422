package hfsync

import "time"

// Row is one normalized input record, mapping field names to raw string
// values. Recognized fields are "repo_id", "model_id", "url" and
// "model_name"; any may be absent or empty.
type Row map[string]string

// Config configures the sync engine.
type Config struct {
	// RegistryURL is the base URL of the model registry.
	// Defaults to "https://huggingface.co" if empty.
	RegistryURL string

	// OutputRoot is the directory tree that receives downloaded files.
	OutputRoot string

	// MirrorRoot, if non-empty, is a secondary directory that receives a
	// hardlink (or copy) of every finalized file.
	MirrorRoot string

	// CacheDir stores one JSON metadata file per repository. If empty, a
	// platform-appropriate default is used. Can also be set via the
	// HF_SYNC_CACHE_DIR environment variable.
	CacheDir string

	// Revision is the branch, tag or commit files are resolved from.
	// Defaults to "main" if empty.
	Revision string

	// Patterns selects which listed files to transfer: "weights", "all",
	// or a comma-separated glob list. Defaults to "weights" if empty.
	Patterns string

	// Token is a bearer credential attached to all registry requests when
	// present. Its absence only disables private/gated repository access.
	Token string

	// RequestDelay is the pause applied after each metadata fetch to
	// respect registry rate limits.
	RequestDelay time.Duration

	// DryRun reports the selected file set without transferring bodies.
	DryRun bool

	// Manifest enables per-repo manifest.json emission with SHA-256
	// digests of every finalized file.
	Manifest bool

	// StrictSelect counts a repository whose listing matched no pattern
	// as a failure instead of a vacuous success.
	StrictSelect bool

	// ObjectStore, if non-nil, mirrors finalized files to an
	// S3-compatible bucket. Invalid settings here fail NewSyncer.
	ObjectStore *ObjectStoreConfig
}

// ObjectStoreConfig describes an S3-compatible mirror target.
type ObjectStoreConfig struct {
	// Endpoint is the host[:port] of the object store.
	Endpoint string

	// Bucket receives the uploaded objects.
	Bucket string

	// Prefix is prepended to every object key: prefix/org/name/file.
	Prefix string

	// AccessKey and SecretKey are the static credentials.
	AccessKey string
	SecretKey string

	// Region defaults to "us-east-1" if empty.
	Region string

	// UseSSL enables TLS to the endpoint.
	UseSSL bool

	// InsecureSkipVerify disables TLS certificate verification. Intended
	// for in-cluster endpoints with self-signed service certificates.
	InsecureSkipVerify bool
}

// FileEntry is one file listed in a repository's catalog.
type FileEntry struct {
	// Path is the file's path relative to the repository root.
	Path string

	// Size is the advertised size in bytes, or 0 when the registry
	// omitted it. Advisory only - registries may misreport.
	Size int64
}

// ArtifactListing is the file catalog of one repository at one revision.
type ArtifactListing struct {
	// RepoID is the canonical "org/name" id the listing belongs to.
	RepoID string

	// Entries are the listed files, in registry order.
	Entries []FileEntry
}

// Summary aggregates the outcome of one Run.
type Summary struct {
	// OKModels is the number of repositories whose selected files all
	// transferred (or would transfer, in dry-run mode).
	OKModels int `json:"ok_models"`

	// FailedModels counts unresolvable rows, metadata failures and
	// repositories with at least one failed file transfer.
	FailedModels int `json:"failed_models"`

	// UniqueProcessed is the number of distinct canonical ids seen.
	UniqueProcessed int `json:"unique_processed"`
}

// Manifest records the finalized files of one repository.
type Manifest struct {
	// Repo is the canonical repository id.
	Repo string `json:"repo"`

	// Files lists every file that reached the final path this run.
	Files []ManifestEntry `json:"files"`
}

// ManifestEntry is one finalized file with its content digest.
type ManifestEntry struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Progress reports transfer progress for one file.
type Progress struct {
	// RepoID identifies the repository being synced.
	RepoID string

	// File is the path of the file being transferred.
	File string

	// BytesTotal is the expected total size, or 0 when unknown.
	BytesTotal int64

	// BytesDone is the bytes present on disk so far, including any
	// resumed prefix from a previous run.
	BytesDone int64

	// Done is true on the final event for this file.
	Done bool
}

// ProgressFunc receives Progress events during Run. It may be invoked
// frequently and must be cheap; it is never called concurrently for the
// same file.
type ProgressFunc func(Progress)
