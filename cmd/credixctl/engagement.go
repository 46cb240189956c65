package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/credix/internal/domain"
	"github.com/opensource-finance/credix/internal/outcome"
)

func newEngagementCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "engagement",
		Short: "Summarise the intervention outcome log",
		Long:  "Counts distinct customers per status. Legacy text lines are read alongside JSON lines.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.cfg.Intervention.OutcomeLogPath

			f, err := os.Open(path)
			if errors.Is(err, fs.ErrNotExist) {
				return printJSON(cmd.OutOrStdout(), &domain.EngagementSummary{StatusCounts: map[string]int{}})
			}
			if err != nil {
				return fmt.Errorf("open outcome log: %w", err)
			}
			defer f.Close()

			return printJSON(cmd.OutOrStdout(), outcome.Summarize(f))
		},
	}
}
