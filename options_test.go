package hfsync

import (
	"log/slog"
	"net/http"
	"os"
	"testing"
)

func TestSyncerOptions(t *testing.T) {
	recorder := &recordingUploader{}
	client := &http.Client{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := &syncerConfig{}
	for _, opt := range []SyncerOption{
		WithHTTPClient(client),
		WithLogger(logger),
		WithUploader(recorder),
	} {
		opt(cfg)
	}

	if cfg.httpClient != HTTPClient(client) {
		t.Error("WithHTTPClient not applied")
	}
	if cfg.logger != Logger(logger) {
		t.Error("WithLogger not applied")
	}
	if cfg.uploader != ObjectUploader(recorder) {
		t.Error("WithUploader not applied")
	}
}

func TestRunOptions(t *testing.T) {
	var called bool
	cfg := &runConfig{}
	WithProgress(func(Progress) { called = true })(cfg)

	if cfg.progressFn == nil {
		t.Fatal("WithProgress not applied")
	}
	cfg.progressFn(Progress{})
	if !called {
		t.Error("progress callback not invoked")
	}
}
