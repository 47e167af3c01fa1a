package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cvforge-ai/cvforge/pkg/config"
	"github.com/cvforge-ai/cvforge/pkg/journal"
	"github.com/cvforge-ai/cvforge/pkg/ledger"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Inspect daily budgets",
	}

	var (
		userID string
		tier   string
	)
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show a user's budget for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if tier == "" {
				tier = cfg.Budget.DefaultTier
			}

			j, err := journal.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			led := ledger.New(cfg.Budget.TierLimits, j, nil)
			status, err := led.Status(context.Background(), userID, tier)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tTIER\tDAY\tLIMIT\tSPENT\tREMAINING")
			fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t$%.4f\t$%.4f\n",
				status.UserID, status.Tier, status.Day,
				status.LimitUSD, status.SpentUSD, status.RemainingUSD)
			return w.Flush()
		},
	}
	statusCmd.Flags().StringVar(&userID, "user", "", "user ID")
	statusCmd.Flags().StringVar(&tier, "tier", "", "subscription tier (defaults to budget.default_tier)")
	_ = statusCmd.MarkFlagRequired("user")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "cvforge.yaml", "path to config file")
	cmd.AddCommand(statusCmd)
	return cmd
}
