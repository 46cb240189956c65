package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/credix/internal/domain"
	"github.com/opensource-finance/credix/internal/plans"
)

func newPlansCmd(_ *globalOptions) *cobra.Command {
	var band string
	p := plans.DefaultParams()

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Show the plan catalog for a risk band",
		Example: `  credixctl plans --band Moderate
  credixctl plans --band High --emi 20000 --tenure 36`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, ok := domain.ParseRiskBand(band)
			if !ok {
				return fmt.Errorf("unknown band %q: want Low, Moderate or High", band)
			}
			return printJSON(cmd.OutOrStdout(), plans.GetPlans(b, p))
		},
	}

	cmd.Flags().StringVar(&band, "band", string(domain.RiskModerate), "risk band: Low, Moderate or High")
	cmd.Flags().IntVar(&p.EMI, "emi", p.EMI, "current EMI")
	cmd.Flags().IntVar(&p.Tenure, "tenure", p.Tenure, "current tenure in months")
	cmd.Flags().IntVar(&p.Income, "income", p.Income, "monthly income")
	cmd.Flags().IntVar(&p.Expenses, "expenses", p.Expenses, "monthly expenses")
	return cmd
}
