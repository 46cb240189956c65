package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/credix/internal/intervention"
	"github.com/opensource-finance/credix/internal/notify"
	"github.com/opensource-finance/credix/internal/outcome"
	"github.com/opensource-finance/credix/internal/risk"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Alert the highest-risk customers",
		Long:  "Dispatches intervention alerts to the customers with the highest probability of default.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			repo, err := opts.openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			outcomes, err := outcome.Open(opts.cfg.Intervention.OutcomeLogPath)
			if err != nil {
				return err
			}
			defer outcomes.Close()

			classifier, err := risk.NewClassifier()
			if err != nil {
				return err
			}

			notifier, err := notify.NewFromConfig(opts.cfg.Notification)
			if err != nil {
				return err
			}

			svc := intervention.NewService(intervention.ConfigFrom(opts.cfg), classifier, repo, nil, outcomes, notifier, nil)
			result, err := svc.ScanAndAlert(ctx, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 3, "number of customers to alert")
	return cmd
}
