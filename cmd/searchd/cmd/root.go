// Package cmd provides the searchd CLI commands: index, search, sessions,
// and validate, each a thin caller of the internal/* library packages.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nilsyn/searchd/internal/cli"
	"github.com/nilsyn/searchd/internal/config"
	searcherr "github.com/nilsyn/searchd/internal/errors"
	"github.com/nilsyn/searchd/internal/logging"
	"github.com/nilsyn/searchd/internal/storage"
	"github.com/nilsyn/searchd/pkg/version"
)

// Global flags, bound on the root command and read by every subcommand.
var (
	flagDataDir  string
	flagJSON     bool
	flagNoColor  bool
	loggingClean func()
)

// NewRootCmd builds the searchd command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "searchd",
		Short:         "Session-isolated full-text code search",
		Long:          `searchd indexes a source tree into a session-isolated BM25 inverted index and serves field-scoped text search over it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if loggingClean != nil {
				loggingClean()
			}
			return nil
		},
	}
	cmd.SetVersionTemplate("searchd version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "override the configured storage.index_dir")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON instead of a styled summary")
	cmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable styled output even on a terminal")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func setupLogging() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := logging.Setup(logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.FilePath,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxFiles:      cfg.Logging.MaxFiles,
		WriteToStderr: cfg.Logging.WriteToStderr,
	})
	if err != nil {
		return err
	}
	loggingClean = cleanup
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the three-tier configuration and applies the --data-dir
// override, which takes precedence over everything else since it is a
// deliberate per-invocation choice, not an ambient setting.
func loadConfig() (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.Storage.IndexDir = flagDataDir
	}
	return cfg, nil
}

// sessionManager builds a storage.Manager rooted at the resolved
// configuration's index directory.
func sessionManager() (*storage.Manager, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	mgr, err := storage.NewManager(cfg.Storage.IndexDir)
	if err != nil {
		return nil, nil, err
	}
	return mgr, cfg, nil
}

// styles returns the output style set for cmd, honoring --no-color and
// NO_COLOR/terminal detection.
func styles(cmd *cobra.Command) cli.Styles {
	out := cmd.OutOrStdout()
	noColor := flagNoColor || cli.DetectNoColor(out)
	return cli.GetStyles(noColor)
}

// printErr renders err to cmd's error stream: JSON when --json is set,
// otherwise the styled CLI format searcherr already knows how to produce.
func printErr(cmd *cobra.Command, err error) {
	if flagJSON {
		data, jerr := searcherr.FormatJSON(err)
		if jerr == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), string(data))
			return
		}
	}
	s := styles(cmd)
	fmt.Fprint(cmd.ErrOrStderr(), s.Error.Render(searcherr.FormatForCLI(err)))
}
