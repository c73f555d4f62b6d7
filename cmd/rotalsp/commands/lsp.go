package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rotalsp/pkg/lsp"
	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
)

// NewLSPCommand creates the language server command.
func NewLSPCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the rotation profile language server (stdio)",
		Long: `Start a Language Server Protocol server on stdin/stdout.

The server publishes diagnostics for every opened or changed profile, answers
hover and completion requests, and supports the rotalsp.reloadNames command.
Logs go to stderr.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			ctx := cobraCmd.Context()

			rt, err := setup(ctx, opts, observability.ModeLSP)
			if err != nil {
				return err
			}
			defer rt.close()

			go func() {
				watchErr := rt.engine.WatchNames(ctx)
				if watchErr != nil {
					rt.providers.Logger.Warn("name source watcher stopped", "error", watchErr)
				}
			}()

			return lsp.NewServer(rt.engine, rt.providers.Logger).Run(ctx)
		},
	}
}
