package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "cvforge",
		Short:   "Budget-guarded CV tailoring across LLM providers",
		Version: version,
	}

	root.AddCommand(
		newTailorCmd(),
		newModelsCmd(),
		newBudgetCmd(),
		newUsageCmd(),
		newCacheCmd(),
		newMCPCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
