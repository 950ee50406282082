package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nilsyn/searchd/internal/validate"
)

func newValidateCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "validate SESSION",
		Short: "Check a session's metadata against its index, optionally repairing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], repair)
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "rewrite metadata counters from the index when inconsistent and safe to do so")
	return cmd
}

func runValidate(cmd *cobra.Command, id string, repair bool) error {
	mgr, _, err := sessionManager()
	if err != nil {
		printErr(cmd, err)
		return err
	}

	v := validate.New(mgr)
	report, err := v.Check(cmd.Context(), id)
	if err != nil {
		printErr(cmd, err)
		return err
	}

	if repair && !report.IsConsistent {
		report, err = v.Repair(cmd.Context(), report)
		if err != nil {
			printErr(cmd, err)
			return err
		}
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	s := styles(cmd)
	out := cmd.OutOrStdout()
	status := s.Success.Render("consistent")
	if !report.IsConsistent {
		status = s.Warning.Render("inconsistent")
	}
	fmt.Fprintf(out, "%s %s: %s\n", s.Header.Render("session"), id, status)
	fmt.Fprintf(out, "%s metadata=%d actual=%d\n", s.Label.Render("chunks:"), report.MetadataChunks, report.ActualChunks)
	fmt.Fprintf(out, "%s metadata=%d actual=%d\n", s.Label.Render("bytes:"), report.MetadataSize, report.ActualSize)
	if report.Repaired {
		fmt.Fprintln(out, s.Success.Render("repaired"))
	}
	return nil
}
