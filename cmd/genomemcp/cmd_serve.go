package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/httpapi"
	"github.com/genomemcp/genomemcp/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing every genomics capability
as a tool. Logs go to stderr so the transport stays clean.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := mcpserver.NewServer(a.registry, version, a.logger.Named("mcp"))
		a.logger.Info("starting MCP server over stdio", zap.Int("tools", len(a.registry.Names())))
		return srv.Run(ctx)
	}),
}

var httpFlags struct {
	addr    string
	noAgent bool
}

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		deps := httpapi.Deps{
			Tools:  a.registry,
			Store:  db,
			Health: a.health,
			Logger: a.logger,
		}
		if !httpFlags.noAgent {
			l, err := a.loop(cmd, nil)
			if err != nil {
				return err
			}
			deps.Runner = l
		}
		addr := a.cfg.HTTPAddr
		if cmd.Flags().Changed("addr") {
			addr = httpFlags.addr
		}
		return httpapi.New(deps).Listen(ctx, addr)
	}),
}

func init() {
	httpCmd.Flags().StringVar(&httpFlags.addr, "addr", ":8080", "Listen address")
	httpCmd.Flags().BoolVar(&httpFlags.noAgent, "no-agent", false, "Disable /api/ask (no model backend needed)")
}
