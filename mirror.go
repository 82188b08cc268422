package hfsync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// manifestName is the per-repo manifest file written under the repository's
// output directory.
const manifestName = "manifest.json"

// mirrorWriter replicates finalized files to the configured secondary
// destinations and accumulates integrity manifests. Every failure in here
// is a warning by policy: mirrors never flip a model's success flag.
type mirrorWriter struct {
	storage  *storage
	uploader ObjectUploader

	// manifest enables per-repo manifest accumulation.
	manifest bool

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// newMirrorWriter creates a mirror writer. uploader must be non-nil; use
// noopUploader when no object store is configured.
func newMirrorWriter(storage *storage, uploader ObjectUploader, manifest bool, logger Logger) *mirrorWriter {
	return &mirrorWriter{
		storage:  storage,
		uploader: uploader,
		manifest: manifest,
		logger:   logger,
	}
}

// replicate handles one file that reached its final path: hardlink or copy
// into the mirror tree when one is configured, and upload to the object
// store. The returned manifest entry carries the file's content digest when
// manifests are enabled.
func (m *mirrorWriter) replicate(ctx context.Context, repoID, filename, finalPath string) (ManifestEntry, error) {
	var entry ManifestEntry

	if m.storage.mirrorRoot != "" {
		dst := m.storage.mirrorPath(repoID, filename)
		if err := m.storage.linkOrCopy(finalPath, dst); err != nil {
			m.warn("mirror copy failed", repoID, filename, err)
		}
	}

	if err := m.uploader.Upload(ctx, objectKey(repoID, filename), finalPath); err != nil {
		m.warn("object upload failed", repoID, filename, err)
	}

	if !m.manifest {
		return entry, nil
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return entry, fmt.Errorf("%w: stat %s: %v", ErrStorageError, finalPath, err)
	}
	digest, err := sha256File(finalPath)
	if err != nil {
		return entry, err
	}
	entry = ManifestEntry{
		Path:   path.Join(repoID, filename),
		Size:   info.Size(),
		SHA256: digest,
	}
	return entry, nil
}

// writeManifest persists the accumulated manifest under the repository's
// output directory and uploads it alongside the files when an object store
// is configured.
func (m *mirrorWriter) writeManifest(ctx context.Context, repoID string, entries []ManifestEntry) error {
	mf := Manifest{Repo: repoID, Files: entries}
	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshaling manifest: %v", ErrStorageError, err)
	}

	dest := filepath.Join(m.storage.outputRoot, filepath.FromSlash(repoID), manifestName)
	if err := m.storage.atomicWrite(dest, data); err != nil {
		return err
	}

	if err := m.uploader.Upload(ctx, objectKey(repoID, manifestName), dest); err != nil {
		m.warn("manifest upload failed", repoID, manifestName, err)
	}
	return nil
}

func (m *mirrorWriter) warn(msg, repoID, filename string, err error) {
	if m.logger != nil {
		m.logger.Warn(msg, "repo", repoID, "file", filename, "error", err)
	}
}

// sha256File computes the hex-encoded SHA-256 digest of a file by
// streaming its contents.
func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", ErrStorageError, path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: hashing %s: %v", ErrStorageError, path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
