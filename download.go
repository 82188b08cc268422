package hfsync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// downloader transfers listed files into the output tree. One file at a
// time; resumability across separate invocations is the retry mechanism,
// so there is no retry loop in here.
type downloader struct {
	// registry issues the streamed file requests.
	registry *registryClient

	// storage owns path layout and the atomic-rename discipline.
	storage *storage

	// stallTimeout bounds the gap between successive body reads. Large
	// transfers have no overall deadline.
	stallTimeout time.Duration

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// newDownloader creates a downloader over the given registry and storage.
func newDownloader(registry *registryClient, storage *storage, logger Logger) *downloader {
	return &downloader{
		registry:     registry,
		storage:      storage,
		stallTimeout: DefaultStallTimeout,
		logger:       logger,
	}
}

// fetchFile downloads (or resumes) one file via the /resolve endpoint.
//
// The transfer state is derived from the filesystem on every call: a
// present final path short-circuits, a present ".part" temp file becomes a
// byte-range resume, and anything else starts from zero. The body streams
// into the temp file in fixed-size chunks and the temp file is atomically
// renamed into place on completion, so an interruption at any point leaves
// a valid resumable state.
//
// The advertised size is advisory: a mismatch after the transfer is logged
// but the file is still committed, because registries may misreport sizes.
func (d *downloader) fetchFile(ctx context.Context, repoID string, entry FileEntry, revision string, progressFn ProgressFunc) error {
	dest := d.storage.destPath(repoID, entry.Path)
	tmp := partPath(dest)

	if err := d.storage.ensureDir(filepath.Dir(dest)); err != nil {
		return err
	}

	// Idempotent short-circuit: the file is already Complete.
	if info, err := os.Stat(dest); err == nil {
		if entry.Size == 0 || info.Size() == entry.Size {
			d.report(progressFn, repoID, entry, info.Size(), true)
			return nil
		}
		// Size disagrees with the listing; transfer again into the temp
		// path and rename over the stale final file.
	}

	var resumeFrom int64
	if info, err := os.Stat(tmp); err == nil {
		resumeFrom = info.Size()
	}

	// Bound inter-chunk stalls without imposing an overall deadline.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stall := time.AfterFunc(d.stallTimeout, cancel)
	defer stall.Stop()

	resp, err := d.registry.openFile(ctx, repoID, revision, entry.Path, resumeFrom)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusRequestedRangeNotSatisfiable:
		// The temp file is already complete from the server's view.
		if err := os.Rename(tmp, dest); err != nil {
			return fmt.Errorf("%w: finalizing %s: %v", ErrStorageError, dest, err)
		}
		d.report(progressFn, repoID, entry, resumeFrom, true)
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s/%s: status %d: %w", repoID, entry.Path, resp.StatusCode, ErrAuthDenied)
	case http.StatusOK:
		// Server ignored the range request; restart from offset zero.
		resumeFrom = 0
	case http.StatusPartialContent:
		// Append at the current offset.
	default:
		return fmt.Errorf("%s/%s: status %d: %w", repoID, entry.Path, resp.StatusCode, ErrTransport)
	}

	if err := d.streamBody(resp.Body, tmp, resumeFrom, func(written int64) {
		stall.Reset(d.stallTimeout)
		d.report(progressFn, repoID, entry, resumeFrom+written, false)
	}); err != nil {
		// The partial temp file stays behind for the next invocation.
		return err
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrStorageError, tmp, err)
	}
	if entry.Size > 0 && info.Size() != entry.Size {
		if d.logger != nil {
			d.logger.Warn("size mismatch, committing anyway",
				"repo", repoID, "file", entry.Path,
				"got", info.Size(), "expected", entry.Size)
		}
	}

	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("%w: finalizing %s: %v", ErrStorageError, dest, err)
	}

	d.report(progressFn, repoID, entry, info.Size(), true)
	return nil
}

// streamBody copies the response body into the temp file in fixed-size
// chunks. A zero offset truncates any stale temp content; a positive one
// appends. onWrite receives the cumulative bytes written this call.
func (d *downloader) streamBody(body io.Reader, tmp string, offset int64, onWrite func(int64)) error {
	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(tmp, flags, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrStorageError, tmp, err)
	}

	var written int64
	reader := &progressReader{reader: body, onProgress: func(delta int64) {
		written += delta
		onWrite(written)
	}}

	buf := make([]byte, DownloadChunkSize)
	_, copyErr := io.CopyBuffer(f, reader, buf)
	closeErr := f.Close()

	if copyErr != nil {
		return fmt.Errorf("streaming %s: %v: %w", tmp, copyErr, ErrTransport)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrStorageError, tmp, closeErr)
	}
	return nil
}

// report emits a progress event when a callback is configured.
func (d *downloader) report(fn ProgressFunc, repoID string, entry FileEntry, done int64, final bool) {
	if fn == nil {
		return
	}
	fn(Progress{
		RepoID:     repoID,
		File:       entry.Path,
		BytesTotal: entry.Size,
		BytesDone:  done,
		Done:       final,
	})
}

// progressReader wraps an io.Reader and reports progress as bytes are read.
type progressReader struct {
	reader     io.Reader
	onProgress func(delta int64)
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 && pr.onProgress != nil {
		pr.onProgress(int64(n))
	}
	return
}
