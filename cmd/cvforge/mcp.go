package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/cvforge-ai/cvforge/pkg/config"
	"github.com/cvforge-ai/cvforge/pkg/logging"
	"github.com/cvforge-ai/cvforge/pkg/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve read-only ops tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := logging.New(true, debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.NewServer(mcp.Deps{
				Ledger:      a.ledger,
				Journal:     a.journal,
				Cache:       a.cache,
				Breakers:    a.breakers,
				Profiles:    cfg.Profiles(),
				DefaultTier: cfg.Budget.DefaultTier,
			})

			logger.Info("mcp server listening on stdio")
			err = server.NewStdioServer(srv).Listen(ctx, os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "cvforge.yaml", "path to config file")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}
