package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/credix/internal/risk"
)

func newRiskCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "risk <customer-id>",
		Short: "Classify one customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			c, err := repo.GetCustomer(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load customer %s: %w", args[0], err)
			}

			classifier, err := risk.NewClassifier()
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]any{
				"assessment": classifier.Assess(c),
				"priority":   risk.Prioritize(c),
			})
		},
	}
}
