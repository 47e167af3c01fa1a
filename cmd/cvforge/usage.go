package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cvforge-ai/cvforge/pkg/audit"
	"github.com/cvforge-ai/cvforge/pkg/config"
	"github.com/cvforge-ai/cvforge/pkg/journal"
)

func newUsageCmd() *cobra.Command {
	var (
		configPath string
		userID     string
		calls      bool
		requestID  string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show journaled charges, or the provider call log with --calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()

			if calls {
				return printCalls(ctx, cfg, requestID, limit)
			}

			j, err := journal.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			summaries, err := j.Summary(ctx, userID)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tMODEL\tREQUESTS\tTOKENS\tCOST")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t$%.4f\n",
					s.UserID, s.Model, s.RequestCount, s.TotalTokens, s.TotalCostUSD)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "cvforge.yaml", "path to config file")
	cmd.Flags().StringVar(&userID, "user", "", "filter by user ID")
	cmd.Flags().BoolVar(&calls, "calls", false, "show the provider call log instead of charges")
	cmd.Flags().StringVar(&requestID, "request", "", "filter the call log by request ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum call log rows")
	return cmd
}

func printCalls(ctx context.Context, cfg *config.Config, requestID string, limit int) error {
	if !cfg.Audit.Enabled {
		fmt.Println("Call log is disabled.")
		return nil
	}

	logger, err := audit.New(cfg.Audit.DBPath, 0)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	records, err := logger.Query(ctx, audit.QueryOpts{RequestID: requestID, Limit: limit})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No provider calls found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tREQUEST\tPROVIDER\tMODEL\tTASK\tSTATUS\tKIND\tLATENCY MS\tTOKENS\tCOST")
	for _, r := range records {
		kind := r.ErrorKind
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t$%.4f\n",
			r.CreatedAt.Format("2006-01-02T15:04:05"), r.RequestID, r.Provider, r.Model,
			r.Task, r.Status, kind, r.LatencyMs, r.TotalTokens, r.CostUSD)
	}
	return w.Flush()
}
