package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rotalsp/pkg/mcp"
	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes these tools:
  - rotation_validate: Validate a rotation profile and return findings
  - rotation_describe: Document an expression, option, action or spell
  - rotation_names: Search spell names or find near misses`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			ctx := cobraCmd.Context()

			rt, err := setup(ctx, opts, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer rt.close()

			red, err := observability.NewREDMetrics(rt.providers.Meter)
			if err != nil {
				return err
			}

			go func() {
				watchErr := rt.engine.WatchNames(ctx)
				if watchErr != nil {
					rt.providers.Logger.Warn("name source watcher stopped", "error", watchErr)
				}
			}()

			srv := mcp.NewServer(rt.engine, mcp.ServerDeps{
				Logger:  rt.providers.Logger,
				Metrics: red,
				Tracer:  rt.providers.Tracer,
			})

			return srv.Run(ctx)
		},
	}
}
