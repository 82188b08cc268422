package hfsync

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
)

// NewCommand creates a Cobra command tree for artifact syncing.
// The returned command can be used standalone or added to a parent CLI's
// root command.
//
// Commands provided:
//   - sync --input models.csv [--out-dir DIR] [--dry-run] [--manifest] ...
//   - resolve --input models.csv
//   - list <org/name>
//
// Global flags: --json, --quiet, --verbose
func NewCommand(base Config, opts ...SyncerOption) *cobra.Command {
	var (
		jsonOutput bool
		quiet      bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:          "hf-sync",
		Short:        "Sync model weight files from a registry",
		Long:         "Resolve repository ids from a batch of rows, fetch their file listings, and download the selected files with resume support, optional mirroring and integrity manifests.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	cmd.AddCommand(syncCmd(base, opts, &jsonOutput, &quiet, &verbose))
	cmd.AddCommand(resolveCmd(&jsonOutput))
	cmd.AddCommand(listCmd(base, opts, &jsonOutput))

	return cmd
}

// bindConfigFlags registers the shared engine flags onto a subcommand,
// seeded with the base config's values as defaults.
func bindConfigFlags(cmd *cobra.Command, cfg *Config) {
	f := cmd.Flags()
	f.StringVar(&cfg.OutputRoot, "out-dir", defaultStr(cfg.OutputRoot, "hf_models"), "Root folder for downloaded files")
	f.StringVar(&cfg.MirrorRoot, "copy-dir", cfg.MirrorRoot, "Optional second directory to hardlink (or copy) each file into")
	f.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Metadata cache directory (default: platform cache dir)")
	f.StringVar(&cfg.Revision, "revision", defaultStr(cfg.Revision, "main"), "Branch, tag or commit to resolve files from")
	f.StringVar(&cfg.Patterns, "patterns", defaultStr(cfg.Patterns, "weights"), `File selection: "weights", "all", or comma-separated globs`)
	f.DurationVar(&cfg.RequestDelay, "sleep", cfg.RequestDelay, "Pause between metadata fetches")
	f.BoolVar(&cfg.StrictSelect, "strict-select", cfg.StrictSelect, "Count a repository with no matching files as failed")
}

// bindObjectStoreFlags registers the s3-* flags; an endpoint or bucket
// value activates the object-store mirror.
func bindObjectStoreFlags(cmd *cobra.Command, store *ObjectStoreConfig) {
	f := cmd.Flags()
	f.StringVar(&store.Endpoint, "s3-endpoint", os.Getenv("S3_ENDPOINT"), "S3-compatible endpoint (host[:port]) for object mirroring")
	f.StringVar(&store.Bucket, "s3-bucket", os.Getenv("S3_BUCKET"), "Bucket receiving mirrored objects")
	f.StringVar(&store.Prefix, "s3-prefix", os.Getenv("S3_PREFIX"), "Key prefix prepended to org/name/file")
	f.StringVar(&store.AccessKey, "s3-access-key", os.Getenv("S3_ACCESS_KEY"), "Object store access key")
	f.StringVar(&store.SecretKey, "s3-secret-key", os.Getenv("S3_SECRET_KEY"), "Object store secret key")
	f.StringVar(&store.Region, "s3-region", defaultStr(os.Getenv("S3_REGION"), "us-east-1"), "Object store region")
	f.BoolVar(&store.UseSSL, "s3-secure", true, "Use TLS to the object store")
	f.BoolVar(&store.InsecureSkipVerify, "s3-insecure-skip-verify", false, "Skip TLS certificate verification")
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func syncCmd(base Config, opts []SyncerOption, jsonOutput, quiet, verbose *bool) *cobra.Command {
	cfg := base
	var (
		input string
		store ObjectStoreConfig
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download the selected files for every row in a batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(input)
			if err != nil {
				return err
			}

			if store.Endpoint != "" || store.Bucket != "" {
				cfg.ObjectStore = &store
			}
			s, err := NewSyncer(cfg, opts...)
			if err != nil {
				return err
			}

			var runOpts []RunOption
			if !*quiet && !cfg.DryRun {
				runOpts = append(runOpts, WithProgress(newBarProgress(cmd.OutOrStdout())))
			}

			sum, err := s.Run(cmd.Context(), rows, runOpts...)
			if err != nil {
				return err
			}

			if *jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(),
					"Done. Models OK: %d | Models with issues: %d | Unique models processed: %d\n",
					sum.OKModels, sum.FailedModels, sum.UniqueProcessed)
			}
			if sum.FailedModels > 0 {
				return fmt.Errorf("%d of %d models failed", sum.FailedModels, sum.UniqueProcessed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "models.csv", "CSV batch of identifier rows")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "List what would be downloaded without fetching files")
	cmd.Flags().BoolVar(&cfg.Manifest, "manifest", false, "Write per-repo manifest.json (and upload it if an object store is configured)")
	bindConfigFlags(cmd, &cfg)
	bindObjectStoreFlags(cmd, &store)
	return cmd
}

func resolveCmd(jsonOutput *bool) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the canonical repository id for every row, without network access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(input)
			if err != nil {
				return err
			}

			type resolved struct {
				Row    Row    `json:"row"`
				RepoID string `json:"repo_id,omitempty"`
				Error  string `json:"error,omitempty"`
			}

			out := make([]resolved, 0, len(rows))
			for _, row := range rows {
				id, err := ResolveRow(row)
				r := resolved{Row: row, RepoID: id}
				if err != nil {
					r.Error = err.Error()
				}
				out = append(out, r)
			}

			if *jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			for _, r := range out {
				if r.Error != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "unresolved\t%v\n", map[string]string(r.Row))
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.RepoID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "models.csv", "CSV batch of identifier rows")
	return cmd
}

func listCmd(base Config, opts []SyncerOption, jsonOutput *bool) *cobra.Command {
	cfg := base

	cmd := &cobra.Command{
		Use:   "list <org/name>",
		Short: "Show a repository's selected file set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.ObjectStore = nil
			s, err := NewSyncer(cfg, opts...)
			if err != nil {
				return err
			}

			files, err := s.Listing(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if *jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(files)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSIZE")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%s\n", f.Path, formatSize(f.Size))
			}
			return tw.Flush()
		},
	}

	bindConfigFlags(cmd, &cfg)
	return cmd
}

// readRows loads a CSV batch into normalized rows. The first record is the
// header; empty cells are dropped so resolution strategies see absent
// fields, not empty strings.
func readRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading input header: %w", err)
	}

	var rows []Row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		row := make(Row, len(header))
		for i, v := range rec {
			if i >= len(header) || v == "" {
				continue
			}
			row[header[i]] = v
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// newBarProgress renders per-file download progress with a pb bar. Files
// transfer sequentially, so one bar is live at a time.
func newBarProgress(w io.Writer) ProgressFunc {
	var (
		bar     *pb.ProgressBar
		current string
	)
	return func(p Progress) {
		key := p.RepoID + "/" + p.File
		if bar == nil || key != current {
			if bar != nil {
				bar.Finish()
			}
			current = key
			bar = pb.Full.Start64(p.BytesTotal)
			bar.SetWriter(w)
			bar.Set(pb.Bytes, true)
			bar.Set("prefix", key+" ")
			bar.SetRefreshRate(200 * time.Millisecond)
		}
		if p.BytesTotal > 0 && bar.Total() != p.BytesTotal {
			bar.SetTotal(p.BytesTotal)
		}
		bar.SetCurrent(p.BytesDone)
		if p.Done {
			bar.Finish()
			bar = nil
		}
	}
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
