package hfsync

import (
	"errors"
	"testing"
)

func TestResolveRow(t *testing.T) {
	tests := []struct {
		name    string
		row     Row
		want    string
		wantErr bool
	}{
		{
			name: "explicit repo_id",
			row:  Row{"repo_id": "acme/foo"},
			want: "acme/foo",
		},
		{
			name: "explicit model_id",
			row:  Row{"model_id": "acme/bar"},
			want: "acme/bar",
		},
		{
			name: "repo_id trimmed",
			row:  Row{"repo_id": "  /acme/foo/ "},
			want: "acme/foo",
		},
		{
			name: "repo_id without separator is skipped",
			row:  Row{"repo_id": "justaname"},
			wantErr: true,
		},
		{
			name: "url with two segments",
			row:  Row{"url": "https://huggingface.co/acme/foo"},
			want: "acme/foo",
		},
		{
			name: "url with tree suffix keeps first two segments",
			row:  Row{"url": "https://huggingface.co/acme/foo/tree/main"},
			want: "acme/foo",
		},
		{
			name: "url query and fragment stripped",
			row:  Row{"url": "https://huggingface.co/acme/foo?some=param#files"},
			want: "acme/foo",
		},
		{
			name:    "url with one segment",
			row:     Row{"url": "https://huggingface.co/acme"},
			wantErr: true,
		},
		{
			name: "model_name with separator",
			row:  Row{"model_name": "acme/foo"},
			want: "acme/foo",
		},
		{
			name:    "model_name without separator",
			row:     Row{"model_name": "foo"},
			wantErr: true,
		},
		{
			name: "repo_id wins over url",
			row:  Row{"repo_id": "acme/foo", "url": "https://huggingface.co/other/repo"},
			want: "acme/foo",
		},
		{
			name: "url wins over model_name",
			row:  Row{"url": "https://huggingface.co/acme/foo", "model_name": "other/repo"},
			want: "acme/foo",
		},
		{
			name:    "empty row",
			row:     Row{},
			wantErr: true,
		},
		{
			name:    "garbage url",
			row:     Row{"url": "::not a url::"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRow(tt.row)
			if tt.wantErr {
				if !errors.Is(err, ErrUnresolvable) {
					t.Errorf("ResolveRow() error = %v, want ErrUnresolvable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveRow() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveRow() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolverStrategyOrder(t *testing.T) {
	r := newResolver()

	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.name
	}

	want := []string{"explicit-id", "registry-url", "model-name"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("strategy order = %v, want %v", names, want)
		}
	}
}

func TestSanitizeRepoID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme/foo", "acme/foo"},
		{" acme/foo ", "acme/foo"},
		{"/acme/foo/", "acme/foo"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeRepoID(tt.in); got != tt.want {
			t.Errorf("sanitizeRepoID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
