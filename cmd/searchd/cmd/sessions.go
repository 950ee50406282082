package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List or remove sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSessionsList(cmd)
		},
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsRmCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every session and its indexing counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSessionsList(cmd)
		},
	}
}

func newSessionsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm SESSION",
		Short: "Delete a session and its index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := sessionManager()
			if err != nil {
				printErr(cmd, err)
				return err
			}
			if err := mgr.DeleteSession(args[0]); err != nil {
				printErr(cmd, err)
				return err
			}
			s := styles(cmd)
			fmt.Fprintln(cmd.OutOrStdout(), s.Success.Render(fmt.Sprintf("removed session %q", args[0])))
			return nil
		},
	}
}

func runSessionsList(cmd *cobra.Command) error {
	mgr, _, err := sessionManager()
	if err != nil {
		printErr(cmd, err)
		return err
	}

	ids, err := mgr.ListSessions()
	if err != nil {
		printErr(cmd, err)
		return err
	}

	if flagJSON {
		type row struct {
			SessionID     string `json:"session_id"`
			FilesIndexed  int    `json:"files_indexed"`
			ChunksCreated int    `json:"chunks_created"`
			BytesIndexed  int64  `json:"bytes_indexed"`
		}
		rows := make([]row, 0, len(ids))
		for _, id := range ids {
			meta, err := mgr.GetMetadata(id)
			if err != nil {
				continue
			}
			rows = append(rows, row{id, meta.FilesIndexed, meta.ChunksCreated, meta.BytesIndexed})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, styles(cmd).Dim.Render("no sessions"))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tFILES\tCHUNKS\tBYTES\tUPDATED")
	for _, id := range ids {
		meta, err := mgr.GetMetadata(id)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
			id, meta.FilesIndexed, meta.ChunksCreated, meta.BytesIndexed,
			meta.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
