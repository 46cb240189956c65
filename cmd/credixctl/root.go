package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/credix/internal/domain"
	"github.com/opensource-finance/credix/internal/repository"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	dbPath     string
	outcomeLog string
	debug      bool
	cfg        *domain.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "credixctl",
		Short:         "Operate the Credix intervention service",
		Long:          "Loads customer datasets, inspects risk and plans, and runs alert scans against a Credix database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			opts.cfg = domain.ConfigFromEnv(os.Getenv)
			if opts.dbPath != "" {
				opts.cfg.Repository.SQLitePath = opts.dbPath
			}
			if opts.outcomeLog != "" {
				opts.cfg.Intervention.OutcomeLogPath = opts.outcomeLog
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", os.Getenv("CREDIX_DB_PATH"), "SQLite database path")
	root.PersistentFlags().StringVar(&opts.outcomeLog, "outcome-log", os.Getenv("CREDIX_OUTCOME_LOG"), "intervention outcome log path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newImportCmd(opts),
		newRiskCmd(opts),
		newPlansCmd(opts),
		newEngagementCmd(opts),
		newScanCmd(opts),
		newCutoffCmd(opts),
	)
	return root
}

func (o *globalOptions) openRepo() (*repository.SQLRepository, error) {
	repo, err := repository.New(o.cfg.Repository)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
