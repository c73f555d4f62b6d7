// Package main provides the entry point for the rotalsp CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rotalsp/cmd/rotalsp/commands"
	"github.com/Sumatoshi-tech/rotalsp/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "rotalsp",
		Short: "Editor assistance for rotation profiles",
		Long: `rotalsp validates rotation profiles and serves editor assistance for
their action expressions.

Commands:
  lsp       Language server over stdio
  mcp       MCP server over stdio
  check     Validate profiles from the command line
  describe  Document a DSL token
  names     Query and compile the spell name dictionary`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a config file")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewLSPCommand(opts))
	rootCmd.AddCommand(commands.NewMCPCommand(opts))
	rootCmd.AddCommand(commands.NewCheckCommand(opts))
	rootCmd.AddCommand(commands.NewDescribeCommand(opts))
	rootCmd.AddCommand(commands.NewNamesCommand(opts))
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		// Findings were already printed.
		if !errors.Is(err, commands.ErrFindings) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		return 1
	}

	return 0
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rotalsp %s (commit: %s, built: %s)\n", version.Resolve(), version.Commit, version.Date)
		},
	}
}
