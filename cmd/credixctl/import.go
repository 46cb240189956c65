package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/credix/internal/repository"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	var masterPath string

	cmd := &cobra.Command{
		Use:   "import <dataset.csv>",
		Short: "Load the scored customer dataset",
		Long:  "Imports the risk dataset CSV and optionally merges contact details from the customer master.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open dataset: %w", err)
			}
			defer f.Close()

			stats, err := repository.ImportDataset(cmd.Context(), repo, f)
			if err != nil {
				return fmt.Errorf("import dataset: %w", err)
			}
			result := map[string]any{"dataset": stats}

			if masterPath != "" {
				mf, err := os.Open(masterPath)
				if err != nil {
					return fmt.Errorf("open master: %w", err)
				}
				defer mf.Close()

				mstats, err := repository.ImportMaster(cmd.Context(), repo, mf)
				if err != nil {
					return fmt.Errorf("import master: %w", err)
				}
				result["master"] = mstats
			}

			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&masterPath, "master", "", "customer master CSV with contact details")
	return cmd
}
