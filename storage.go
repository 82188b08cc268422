package hfsync

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLockTimeout is the default timeout for acquiring file locks.
const DefaultLockTimeout = 30 * time.Second

// PartSuffix marks an in-flight temp file next to its final path.
const PartSuffix = ".part"

// storage handles all local filesystem operations: the output tree, the
// optional mirror tree and the metadata cache directory.
type storage struct {
	// outputRoot receives downloaded files, one subtree per repository.
	outputRoot string

	// mirrorRoot is the secondary tree, or empty when mirroring is off.
	mirrorRoot string

	// cacheDir holds one JSON metadata file per repository.
	cacheDir string

	// lockTimeout is the maximum duration to wait for file lock acquisition.
	lockTimeout time.Duration
}

// newStorage creates a storage instance and ensures the root directories
// exist. The cache directory falls back to HF_SYNC_CACHE_DIR and then a
// platform default when cfg.CacheDir is empty.
func newStorage(cfg Config) (*storage, error) {
	if cfg.OutputRoot == "" {
		return nil, fmt.Errorf("%w: OutputRoot is required", ErrInvalidConfig)
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = os.Getenv("HF_SYNC_CACHE_DIR")
	}
	if cacheDir == "" {
		def, err := getDefaultCacheDir("hf-sync")
		if err != nil {
			return nil, fmt.Errorf("%w: resolving default cache dir: %v", ErrStorageError, err)
		}
		cacheDir = def
	}

	s := &storage{
		outputRoot:  cfg.OutputRoot,
		mirrorRoot:  cfg.MirrorRoot,
		cacheDir:    cacheDir,
		lockTimeout: DefaultLockTimeout,
	}

	for _, dir := range []string{s.outputRoot, s.cacheDir} {
		if err := s.ensureDir(dir); err != nil {
			return nil, err
		}
	}
	if s.mirrorRoot != "" {
		if err := s.ensureDir(s.mirrorRoot); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// cacheKey maps a repository id to a filesystem-safe cache file name.
// The separator is replaced so "org/name" becomes "org__name.json".
func cacheKey(repoID string) string {
	return strings.ReplaceAll(repoID, "/", "__") + ".json"
}

// cachePath returns the metadata cache file for a repository.
func (s *storage) cachePath(repoID string) string {
	return filepath.Join(s.cacheDir, cacheKey(repoID))
}

// destPath returns the final path for a file in the output tree.
func (s *storage) destPath(repoID, filename string) string {
	return filepath.Join(s.outputRoot, filepath.FromSlash(repoID), filepath.FromSlash(filename))
}

// mirrorPath returns the destination in the mirror tree.
func (s *storage) mirrorPath(repoID, filename string) string {
	return filepath.Join(s.mirrorRoot, filepath.FromSlash(repoID), filepath.FromSlash(filename))
}

// partPath returns the temp path for an in-flight transfer.
func partPath(dest string) string {
	return dest + PartSuffix
}

// ensureDir creates a directory and all parent directories if they don't exist.
func (s *storage) ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %v", ErrStorageError, path, err)
	}
	return nil
}

// atomicWrite writes data to a file using write-then-rename for atomicity.
func (s *storage) atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrStorageError, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write temp file: %v", ErrStorageError, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // cleanup on failure
		return fmt.Errorf("%w: failed to rename temp file: %v", ErrStorageError, err)
	}

	return nil
}

// writeCacheEntry persists a raw metadata document under the cache key.
// A cross-process file lock guards the write so concurrent invocations on
// the same cache directory never interleave.
func (s *storage) writeCacheEntry(repoID string, data []byte) error {
	path := s.cachePath(repoID)

	lock, err := newFileLock(path+".lock", s.lockTimeout)
	if err != nil {
		return fmt.Errorf("%w: failed to create cache lock: %v", ErrStorageError, err)
	}
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("%w: failed to acquire cache lock: %v", ErrStorageError, err)
	}
	defer lock.Unlock()

	return s.atomicWrite(path, data)
}

// readCacheEntry returns the cached raw metadata for a repository.
// Returns (nil, false) when no entry exists.
func (s *storage) readCacheEntry(repoID string) ([]byte, bool) {
	data, err := os.ReadFile(s.cachePath(repoID))
	if err != nil {
		return nil, false
	}
	return data, true
}

// linkOrCopy replicates src to dst, preferring a hardlink and falling back
// to a byte copy when linking fails (cross-filesystem, permissions). An
// existing destination is never overwritten.
func (s *storage) linkOrCopy(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: failed to create mirror directory: %v", ErrMirrorError, err)
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorError, err)
	}
	return nil
}

// copyFile copies src to dst through a temp file so a partially written
// mirror never looks complete.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
