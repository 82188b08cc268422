package hfsync

import (
	"context"
	"errors"
	"sync"
)

// syncer is the concrete implementation of the Syncer interface.
type syncer struct {
	// cfg holds the engine configuration.
	cfg Config

	// patterns is the expanded pattern policy.
	patterns []string

	// storage handles local filesystem operations.
	storage *storage

	// resolver turns rows into canonical repository ids.
	resolver *resolver

	// catalog fetches and caches per-repository listings.
	catalog *catalogCache

	// download transfers individual files.
	download *downloader

	// mirror replicates finalized files and accumulates manifests.
	mirror *mirrorWriter

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// Resolve returns the canonical repository id for one row.
func (s *syncer) Resolve(row Row) (string, error) {
	return s.resolver.resolve(row)
}

// Listing returns the repository's catalog filtered by the configured
// pattern policy.
func (s *syncer) Listing(ctx context.Context, repoID string) ([]FileEntry, error) {
	l, err := s.catalog.listing(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return selectEntries(l.Entries, s.patterns), nil
}

// Run processes a batch of rows: resolve, dedup, list, select, download,
// mirror. A repository's aggregate success is the logical AND over its
// file downloads; mirror and manifest failures only warn. In dry-run mode
// the selected set is reported through the logger and no file bodies move.
func (s *syncer) Run(ctx context.Context, rows []Row, opts ...RunOption) (Summary, error) {
	rcfg := &runConfig{}
	for _, opt := range opts {
		opt(rcfg)
	}

	var sum Summary

	// The dedup set is synchronized so the loop body can be dispatched to
	// workers without two of them ever processing the same repository.
	var seenMu sync.Mutex
	seen := make(map[string]struct{})

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		repoID, err := s.resolver.resolve(row)
		if err != nil {
			sum.FailedModels++
			if s.logger != nil {
				s.logger.Warn("skipping unresolvable row", "row", row)
			}
			continue
		}

		// The dedup decision is committed before any work is dispatched.
		seenMu.Lock()
		_, dup := seen[repoID]
		if !dup {
			seen[repoID] = struct{}{}
		}
		seenMu.Unlock()
		if dup {
			continue
		}
		sum.UniqueProcessed++

		if s.syncRepo(ctx, repoID, rcfg.progressFn) {
			sum.OKModels++
		} else {
			sum.FailedModels++
		}
	}

	if s.logger != nil {
		s.logger.Info("sync complete",
			"ok", sum.OKModels, "failed", sum.FailedModels, "unique", sum.UniqueProcessed)
	}
	return sum, nil
}

// syncRepo processes one deduplicated repository and reports its aggregate
// success.
func (s *syncer) syncRepo(ctx context.Context, repoID string, progressFn ProgressFunc) bool {
	listing, err := s.catalog.listing(ctx, repoID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("skipping repository, no metadata", "repo", repoID, "error", err)
		}
		return false
	}

	files := selectEntries(listing.Entries, s.patterns)
	if len(files) == 0 {
		// Whether an empty selection is a failure is a policy choice;
		// the default treats it as a vacuous success.
		if s.cfg.StrictSelect {
			if s.logger != nil {
				s.logger.Warn("no files matched the pattern policy", "repo", repoID,
					"listed", len(listing.Entries), "error", ErrNoMatch)
			}
			return false
		}
		if s.logger != nil {
			s.logger.Warn("no files matched the pattern policy", "repo", repoID,
				"listed", len(listing.Entries))
		}
		return true
	}

	if s.cfg.DryRun {
		for _, f := range files {
			if s.logger != nil {
				s.logger.Info("would download", "repo", repoID, "file", f.Path, "size", f.Size)
			}
		}
		return true
	}

	ok := true
	var manifestEntries []ManifestEntry
	for _, f := range files {
		if err := s.download.fetchFile(ctx, repoID, f, s.cfg.Revision, progressFn); err != nil {
			ok = false
			s.logFileError(repoID, f.Path, err)
			// Other files in the repository are still attempted.
			continue
		}

		entry, err := s.mirror.replicate(ctx, repoID, f.Path, s.storage.destPath(repoID, f.Path))
		if err != nil {
			// Manifest bookkeeping failures warn but never flip the
			// repository's success flag.
			if s.logger != nil {
				s.logger.Warn("manifest entry failed", "repo", repoID, "file", f.Path, "error", err)
			}
			continue
		}
		if s.cfg.Manifest {
			manifestEntries = append(manifestEntries, entry)
		}
	}

	if s.cfg.Manifest && len(manifestEntries) > 0 {
		if err := s.mirror.writeManifest(ctx, repoID, manifestEntries); err != nil {
			if s.logger != nil {
				s.logger.Warn("manifest write failed", "repo", repoID, "error", err)
			}
		}
	}

	return ok
}

// logFileError classifies a download failure for diagnostics.
func (s *syncer) logFileError(repoID, file string, err error) {
	if s.logger == nil {
		return
	}
	switch {
	case errors.Is(err, ErrAuthDenied):
		s.logger.Warn("access denied, token required?", "repo", repoID, "file", file)
	default:
		s.logger.Warn("download failed", "repo", repoID, "file", file, "error", err)
	}
}
