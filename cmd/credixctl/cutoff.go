package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/credix/internal/risk"
)

func newCutoffCmd(opts *globalOptions) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "cutoff",
		Short: "Back-test a PD cutoff against labelled customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 || threshold > 1 {
				return fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
			}

			repo, err := opts.openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			customers, err := repo.ListCustomers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list customers: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), risk.Cutoff(customers, threshold))
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "reject customers with PD at or above this value")
	return cmd
}
