package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cvforge-ai/cvforge/pkg/config"
)

func newModelsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List configured model profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if len(cfg.Models) == 0 {
				fmt.Println("No models configured.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPROVIDER\tTASKS\tQUALITY\tLATENCY\tEMBED $/1K\tPROMPT $/1K\tCOMPLETION $/1K")
			for _, m := range cfg.Models {
				tasks := make([]string, len(m.Tasks))
				for i, t := range m.Tasks {
					tasks[i] = string(t)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.5f\t%.5f\t%.5f\n",
					m.ID, m.Provider, strings.Join(tasks, ","), m.QualityTier, m.Latency,
					m.EmbedCostPer1K, m.PromptCostPer1K, m.CompletionCostPer1K)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "cvforge.yaml", "path to config file")
	return cmd
}
