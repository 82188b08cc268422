package hfsync

import (
	"context"
	"net/http"
	"os"
)

// DefaultRegistryURL is used when Config.RegistryURL is empty.
const DefaultRegistryURL = "https://huggingface.co"

// Syncer drives batches of identifier rows through resolution, metadata
// lookup, file selection, download and mirroring.
// All methods are safe for concurrent use. For CLI integration, use
// NewCommand instead.
type Syncer interface {
	// Run processes a batch of rows and returns aggregate counts. Rows
	// resolving to the same repository are processed once. Per-row and
	// per-file failures are counted, not returned; Run only errors on
	// context cancellation.
	Run(ctx context.Context, rows []Row, opts ...RunOption) (Summary, error)

	// Resolve returns the canonical repository id for one row, or
	// ErrUnresolvable. Pure function of the row; no network access.
	Resolve(row Row) (string, error)

	// Listing returns the (possibly cached) file catalog for a
	// repository, filtered by the configured pattern policy.
	Listing(ctx context.Context, repoID string) ([]FileEntry, error)
}

// Ensure syncer implements Syncer interface.
var _ Syncer = (*syncer)(nil)

// NewSyncer creates a Syncer with the given configuration.
// Configuration errors, including an explicitly requested object store
// with missing credentials, fail here - before any transfer begins.
func NewSyncer(cfg Config, opts ...SyncerOption) (Syncer, error) {
	if cfg.RegistryURL == "" {
		cfg.RegistryURL = DefaultRegistryURL
	}
	if cfg.Revision == "" {
		cfg.Revision = "main"
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("HUGGINGFACE_TOKEN")
	}

	patterns, err := ParsePatternPolicy(cfg.Patterns)
	if err != nil {
		return nil, err
	}

	scfg := &syncerConfig{}
	for _, opt := range opts {
		opt(scfg)
	}
	if scfg.httpClient == nil {
		scfg.httpClient = &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: DefaultConnectTimeout,
			},
		}
	}
	if scfg.uploader == nil {
		if cfg.ObjectStore != nil {
			up, err := newMinioUploader(cfg.ObjectStore)
			if err != nil {
				return nil, err
			}
			scfg.uploader = up
		} else {
			scfg.uploader = noopUploader{}
		}
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	registry := newRegistryClient(cfg.RegistryURL, cfg.Token, scfg.httpClient, scfg.logger)

	delay := cfg.RequestDelay
	if delay == 0 {
		delay = DefaultRequestDelay
	}
	catalog, err := newCatalogCache(registry, store, delay, scfg.logger)
	if err != nil {
		return nil, err
	}

	return &syncer{
		cfg:      cfg,
		patterns: patterns,
		storage:  store,
		resolver: newResolver(),
		catalog:  catalog,
		download: newDownloader(registry, store, scfg.logger),
		mirror:   newMirrorWriter(store, scfg.uploader, cfg.Manifest, scfg.logger),
		logger:   scfg.logger,
	}, nil
}

