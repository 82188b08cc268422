package hfsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// memCacheSize bounds the in-process listing cache. Listings are small;
// the bound only matters for very large batches.
const memCacheSize = 1024

// modelMetadata is the subset of the registry's model document we consume.
// The raw document is persisted as-is; only siblings are extracted.
type modelMetadata struct {
	Siblings []siblingEntry `json:"siblings"`
}

// siblingEntry is one file record inside a model document. The registry
// may omit the size.
type siblingEntry struct {
	RFilename string `json:"rfilename"`
	Size      int64  `json:"size"`
}

// catalogCache fetches and caches per-repository file listings. Entries
// live in three layers: an in-process LRU, one JSON file per repository on
// disk, and the registry itself. A corrupt disk entry is treated as a miss
// and refetched.
type catalogCache struct {
	registry *registryClient
	storage  *storage

	// delay is applied after each registry fetch to respect rate limits.
	delay time.Duration

	// mem holds listings already parsed this process.
	mem *lru.Cache[string, *ArtifactListing]

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// newCatalogCache creates a catalog cache over the given registry client
// and storage layout.
func newCatalogCache(registry *registryClient, storage *storage, delay time.Duration, logger Logger) (*catalogCache, error) {
	mem, err := lru.New[string, *ArtifactListing](memCacheSize)
	if err != nil {
		return nil, err
	}
	return &catalogCache{
		registry: registry,
		storage:  storage,
		delay:    delay,
		mem:      mem,
		logger:   logger,
	}, nil
}

// listing returns the file catalog for a repository. The raw registry
// response is persisted to disk before the parsed listing is returned, so
// later runs never re-query the registry for the same repository.
// Returns ErrMetadataUnavailable when the registry answers 404 or the
// transport fails; the caller decides whether that skips the repository.
func (c *catalogCache) listing(ctx context.Context, repoID string) (*ArtifactListing, error) {
	if l, ok := c.mem.Get(repoID); ok {
		return l, nil
	}

	if data, ok := c.storage.readCacheEntry(repoID); ok {
		if l, err := parseListing(repoID, data); err == nil {
			c.mem.Add(repoID, l)
			return l, nil
		}
		// Corrupt cache entry: treat as a miss and refetch.
		if c.logger != nil {
			c.logger.Warn("corrupt metadata cache entry, refetching", "repo", repoID)
		}
	}

	data, err := c.registry.fetchModelMetadata(ctx, repoID)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("metadata fetch failed", "repo", repoID, "error", err)
		}
		return nil, err
	}

	// Persist the raw response before returning so a crash after this
	// point never loses the fetch.
	if werr := c.storage.writeCacheEntry(repoID, data); werr != nil {
		if c.logger != nil {
			c.logger.Warn("failed to persist metadata cache entry", "repo", repoID, "error", werr)
		}
	}

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l, err := parseListing(repoID, data)
	if err != nil {
		return nil, fmt.Errorf("parsing metadata for %s: %v: %w", repoID, err, ErrMetadataUnavailable)
	}
	c.mem.Add(repoID, l)
	return l, nil
}

// parseListing normalizes a raw model document into an ArtifactListing,
// dropping sibling records without a file name.
func parseListing(repoID string, data []byte) (*ArtifactListing, error) {
	var meta modelMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	entries := make([]FileEntry, 0, len(meta.Siblings))
	for _, s := range meta.Siblings {
		if s.RFilename == "" {
			continue
		}
		entries = append(entries, FileEntry{Path: s.RFilename, Size: s.Size})
	}

	return &ArtifactListing{RepoID: repoID, Entries: entries}, nil
}
