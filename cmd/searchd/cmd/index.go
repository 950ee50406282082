package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nilsyn/searchd/internal/pipeline"
)

type indexOptions struct {
	session         string
	mode            string
	chunkSize       int
	overlap         int
	maxFileSizeMB   int
	includePatterns []string
	excludePatterns []string
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index PATH",
		Short: "Index a directory tree into a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.session, "session", "", "session id to index into (required)")
	cmd.Flags().StringVar(&opts.mode, "mode", "create", "indexing mode: create, append, replace")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "chunk size in characters (defaults to the configured indexing.chunk_size)")
	cmd.Flags().IntVar(&opts.overlap, "overlap", 0, "chunk overlap in characters (defaults to the configured indexing.overlap)")
	cmd.Flags().IntVar(&opts.maxFileSizeMB, "max-file-size-mb", 0, "skip files larger than this (defaults to the configured indexing.max_file_size_mb)")
	cmd.Flags().StringSliceVar(&opts.includePatterns, "include", nil, "glob patterns to include (repeatable; defaults to the configured indexing.include_patterns)")
	cmd.Flags().StringSliceVar(&opts.excludePatterns, "exclude", nil, "glob patterns to exclude (repeatable; defaults to the configured indexing.exclude_patterns)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runIndex(cmd *cobra.Command, rootPath string, opts indexOptions) error {
	mgr, cfg, err := sessionManager()
	if err != nil {
		printErr(cmd, err)
		return err
	}

	chunkSize := opts.chunkSize
	if chunkSize <= 0 {
		chunkSize = cfg.Indexing.ChunkSize
	}
	overlap := opts.overlap
	if overlap <= 0 {
		overlap = cfg.Indexing.Overlap
	}
	maxSize := cfg.Indexing.MaxFileSizeBytes()
	if opts.maxFileSizeMB > 0 {
		maxSize = int64(opts.maxFileSizeMB) * 1024 * 1024
	}
	include := opts.includePatterns
	if len(include) == 0 {
		include = cfg.Indexing.IncludePatterns
	}
	exclude := opts.excludePatterns
	if len(exclude) == 0 {
		exclude = cfg.Indexing.ExcludePatterns
	}

	requestID := uuid.NewString()
	slog.Info("index_request", "request_id", requestID, "session_id", opts.session, "mode", opts.mode)

	result, err := pipeline.New(mgr).Run(cmd.Context(), pipeline.Request{
		SessionID:        opts.session,
		RootPath:         rootPath,
		IncludePatterns:  include,
		ExcludePatterns:  exclude,
		ChunkSize:        chunkSize,
		Overlap:          overlap,
		MaxFileSizeBytes: maxSize,
		Mode:             pipeline.Mode(opts.mode),
	})
	if err != nil {
		slog.Error("index_request_failed", "request_id", requestID, "error", err.Error())
		printErr(cmd, err)
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	s := styles(cmd)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, s.Header.Render(fmt.Sprintf("Indexed session %q", opts.session)))
	fmt.Fprintf(out, "%s %d\n", s.Label.Render("files indexed:"), result.FilesIndexed)
	fmt.Fprintf(out, "%s %d\n", s.Label.Render("chunks created:"), result.ChunksCreated)
	fmt.Fprintf(out, "%s %d\n", s.Label.Render("bytes indexed:"), result.BytesIndexed)
	fmt.Fprintf(out, "%s %dms\n", s.Label.Render("duration:"), result.DurationMs)
	if len(result.Errors) > 0 {
		fmt.Fprintln(out, s.Warning.Render(fmt.Sprintf("%d file error(s):", len(result.Errors))))
		for _, fe := range result.Errors {
			fmt.Fprintf(out, "  %s: %s\n", fe.Path, fe.Message)
		}
	}
	return nil
}
