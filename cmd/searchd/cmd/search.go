package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nilsyn/searchd/internal/search"
)

type searchOptions struct {
	session string
	limit   int
	format  string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search a session's indexed text",
		Long: `Search a session's indexed text.

A query term may be scoped to a field with a "field:" prefix (path, lang,
content); unscoped terms search content. Example:

  searchd search --session s1 'lang:go "fn authenticate"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.session, "session", "", "session id to search (required)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "maximum number of results (defaults to the configured search.default_k, clamped to search.max_k)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	mgr, cfg, err := sessionManager()
	if err != nil {
		printErr(cmd, err)
		return err
	}

	requestID := uuid.NewString()
	slog.Info("search_request", "request_id", requestID, "session_id", opts.session, "query", query)

	svc := search.New(mgr, 0, cfg.Search)
	results, err := svc.Execute(cmd.Context(), search.Request{
		SessionID: opts.session,
		Query:     query,
		TopK:      opts.limit,
	})
	if err != nil {
		slog.Error("search_request_failed", "request_id", requestID, "error", err.Error())
		printErr(cmd, err)
		return err
	}
	slog.Info("search_request_complete", "request_id", requestID, "result_count", len(results))

	if flagJSON || opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Results   []search.Result `json:"results"`
			TotalHits int             `json:"total_hits"`
		}{Results: results, TotalHits: len(results)})
	}

	s := styles(cmd)
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, s.Dim.Render("no results"))
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%s %s %s\n",
			s.Label.Render(fmt.Sprintf("%d.", i+1)),
			s.Header.Render(fmt.Sprintf("%s:%d", r.FilePath, r.ChunkIndex)),
			s.Dim.Render(fmt.Sprintf("score=%.4f lang=%s", r.Score, r.Language)))
		fmt.Fprintln(out, "   "+r.Snippet)
	}
	return nil
}
