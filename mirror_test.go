package hfsync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingUploader captures every upload for assertions.
type recordingUploader struct {
	keys  []string
	paths []string
	err   error
}

func (r *recordingUploader) Upload(_ context.Context, key, localPath string) error {
	r.keys = append(r.keys, key)
	r.paths = append(r.paths, localPath)
	return r.err
}

func writeFinal(t *testing.T, s *storage, repoID, filename, content string) string {
	t.Helper()
	dest := s.destPath(repoID, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0755))
	require.NoError(t, os.WriteFile(dest, []byte(content), 0644))
	return dest
}

func TestReplicate(t *testing.T) {
	t.Run("mirrors into secondary tree", func(t *testing.T) {
		s := newTestStorage(t)
		final := writeFinal(t, s, "org/model", "config.json", `{"a":1}`)
		m := newMirrorWriter(s, noopUploader{}, false, nil)

		_, err := m.replicate(context.Background(), "org/model", "config.json", final)
		require.NoError(t, err)

		data, err := os.ReadFile(s.mirrorPath("org/model", "config.json"))
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(data))
	})

	t.Run("uploads to object store", func(t *testing.T) {
		s := newTestStorage(t)
		final := writeFinal(t, s, "org/model", "model.safetensors", "weights")
		up := &recordingUploader{}
		m := newMirrorWriter(s, up, false, nil)

		_, err := m.replicate(context.Background(), "org/model", "model.safetensors", final)
		require.NoError(t, err)
		require.Len(t, up.keys, 1)
		assert.Equal(t, "org/model/model.safetensors", up.keys[0])
		assert.Equal(t, final, up.paths[0])
	})

	t.Run("upload failure is not fatal", func(t *testing.T) {
		s := newTestStorage(t)
		final := writeFinal(t, s, "org/model", "model.bin", "weights")
		up := &recordingUploader{err: errors.New("bucket gone")}
		m := newMirrorWriter(s, up, true, nil)

		entry, err := m.replicate(context.Background(), "org/model", "model.bin", final)
		require.NoError(t, err)
		assert.Equal(t, "org/model/model.bin", entry.Path)
	})

	t.Run("manifest entry carries digest and size", func(t *testing.T) {
		s := newTestStorage(t)
		content := "deterministic payload"
		final := writeFinal(t, s, "org/model", "model.bin", content)
		m := newMirrorWriter(s, noopUploader{}, true, nil)

		entry, err := m.replicate(context.Background(), "org/model", "model.bin", final)
		require.NoError(t, err)

		sum := sha256.Sum256([]byte(content))
		assert.Equal(t, "org/model/model.bin", entry.Path)
		assert.Equal(t, int64(len(content)), entry.Size)
		assert.Equal(t, hex.EncodeToString(sum[:]), entry.SHA256)
	})

	t.Run("manifest disabled returns zero entry", func(t *testing.T) {
		s := newTestStorage(t)
		final := writeFinal(t, s, "org/model", "model.bin", "weights")
		m := newMirrorWriter(s, noopUploader{}, false, nil)

		entry, err := m.replicate(context.Background(), "org/model", "model.bin", final)
		require.NoError(t, err)
		assert.Zero(t, entry)
	})
}

func TestWriteManifest(t *testing.T) {
	s := newTestStorage(t)
	up := &recordingUploader{}
	m := newMirrorWriter(s, up, true, nil)

	entries := []ManifestEntry{
		{Path: "org/model/config.json", Size: 7, SHA256: "aa"},
		{Path: "org/model/model.bin", Size: 4096, SHA256: "bb"},
	}
	require.NoError(t, m.writeManifest(context.Background(), "org/model", entries))

	data, err := os.ReadFile(filepath.Join(s.outputRoot, "org", "model", manifestName))
	require.NoError(t, err)

	var mf Manifest
	require.NoError(t, json.Unmarshal(data, &mf))
	assert.Equal(t, "org/model", mf.Repo)
	assert.Equal(t, entries, mf.Files)

	require.Len(t, up.keys, 1)
	assert.Equal(t, "org/model/manifest.json", up.keys[0])
}

func TestSha256File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	digest, err := sha256File(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", digest)

	_, err = sha256File(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrStorageError)
}
