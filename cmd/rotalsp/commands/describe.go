package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
)

// ErrNoDocumentation is returned when a token has no documentation.
var ErrNoDocumentation = errors.New("no documentation")

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(opts *GlobalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "describe <token>",
		Short: "Show documentation for a DSL token",
		Long: `Show the documentation for an expression token, step option,
special action or spell name.

Examples:
  rotalsp describe buff.remains
  rotalsp describe target_if
  rotalsp describe "Frost Nova"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			rt, err := setup(cobraCmd.Context(), opts, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer rt.close()

			doc, ok := rt.engine.Describe(cobraCmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("%w for %q", ErrNoDocumentation, args[0])
			}

			out := cobraCmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				return enc.Encode(doc)
			}

			_, err = fmt.Fprintln(out, doc.Markdown())

			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the documentation as JSON")

	return cmd
}
