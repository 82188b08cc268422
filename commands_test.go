package hfsync

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRows(t *testing.T) {
	t.Run("header maps columns to fields", func(t *testing.T) {
		path := writeCSV(t, "repo_id,model_name,notes\norg/alpha,,first\n,org/beta,\n")

		rows, err := readRows(path)
		if err != nil {
			t.Fatalf("readRows() error = %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("len(rows) = %d, want 2", len(rows))
		}
		if rows[0]["repo_id"] != "org/alpha" || rows[0]["notes"] != "first" {
			t.Errorf("rows[0] = %v", rows[0])
		}
		if _, ok := rows[0]["model_name"]; ok {
			t.Error("empty cell must be absent, not empty string")
		}
		if rows[1]["model_name"] != "org/beta" {
			t.Errorf("rows[1] = %v", rows[1])
		}
	})

	t.Run("ragged records tolerated", func(t *testing.T) {
		path := writeCSV(t, "repo_id,notes\norg/alpha\norg/beta,extra,spill\n")

		rows, err := readRows(path)
		if err != nil {
			t.Fatalf("readRows() error = %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("len(rows) = %d, want 2", len(rows))
		}
		if _, ok := rows[1]["spill"]; ok {
			t.Error("cell beyond the header must be dropped")
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := readRows(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
			t.Error("readRows() on missing file succeeded")
		}
	})

	t.Run("rows with only empty cells dropped", func(t *testing.T) {
		path := writeCSV(t, "repo_id,notes\n,\norg/alpha,\n")

		rows, err := readRows(path)
		if err != nil {
			t.Fatalf("readRows() error = %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("len(rows) = %d, want 1", len(rows))
		}
	})
}

func TestResolveCommand(t *testing.T) {
	path := writeCSV(t, "repo_id,url\norg/alpha,\n,https://huggingface.co/org/beta/tree/main\n,\n")

	t.Run("plain output", func(t *testing.T) {
		cmd := NewCommand(Config{})
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"resolve", "--input", path})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "org/alpha") || !strings.Contains(got, "org/beta") {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("json output", func(t *testing.T) {
		cmd := NewCommand(Config{})
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"--json", "resolve", "--input", path})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		got := out.String()
		if !strings.Contains(got, `"repo_id": "org/beta"`) {
			t.Errorf("output = %q", got)
		}
	})
}

func TestSyncCommandDryRun(t *testing.T) {
	reg := &fakeRegistry{repos: map[string]map[string]string{
		"org/alpha": {"model.safetensors": "weights"},
	}}
	_, cfg := newTestSyncer(t, reg, nil)

	csvPath := writeCSV(t, "repo_id\norg/alpha\norg/alpha\n")

	cmd := NewCommand(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"sync",
		"--input", csvPath,
		"--dry-run",
		"--out-dir", cfg.OutputRoot,
		"--cache-dir", cfg.CacheDir,
		"--patterns", "all",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Models OK: 1") || !strings.Contains(got, "Unique models processed: 1") {
		t.Errorf("summary output = %q", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputRoot, "org", "alpha", "model.safetensors")); !os.IsNotExist(err) {
		t.Error("dry run must not write files")
	}
}

func TestSyncCommandFailureExit(t *testing.T) {
	reg := &fakeRegistry{repos: map[string]map[string]string{}}
	_, cfg := newTestSyncer(t, reg, nil)

	csvPath := writeCSV(t, "repo_id\norg/gone\n")

	cmd := NewCommand(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"sync",
		"--input", csvPath,
		"--quiet",
		"--out-dir", cfg.OutputRoot,
		"--cache-dir", cfg.CacheDir,
	})

	if err := cmd.Execute(); err == nil {
		t.Error("Execute() succeeded, want error when models fail")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.bytes); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
