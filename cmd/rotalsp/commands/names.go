package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rotalsp/pkg/engine"
	"github.com/Sumatoshi-tech/rotalsp/pkg/names"
	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
	"github.com/Sumatoshi-tech/rotalsp/pkg/safeconv"
)

// NewNamesCommand creates the names command group.
func NewNamesCommand(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Query and compile the spell name dictionary",
	}

	cmd.AddCommand(newNamesSearchCommand(opts))
	cmd.AddCommand(newNamesSimilarCommand(opts))
	cmd.AddCommand(newNamesCompileCommand(opts))

	return cmd
}

func newNamesSearchCommand(opts *GlobalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "search <prefix>",
		Short:         "List spell names starting with a prefix",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return withEngine(cobraCmd, opts, func(eng *engine.Engine) error {
				return writeNameTable(cobraCmd.OutOrStdout(), eng.SearchNames(args[0], limit))
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of names (0 for no limit)")

	return cmd
}

func newNamesSimilarCommand(opts *GlobalOptions) *cobra.Command {
	var distance int

	cmd := &cobra.Command{
		Use:           "similar <name>",
		Short:         "List spell names within an edit distance of a name",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return withEngine(cobraCmd, opts, func(eng *engine.Engine) error {
				return writeNameTable(cobraCmd.OutOrStdout(), eng.SimilarNames(args[0], distance))
			})
		},
	}

	cmd.Flags().IntVar(&distance, "distance", 0, "maximum edit distance (0 for the configured distance)")

	return cmd
}

func newNamesCompileCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <out>",
		Short: "Compile the configured name sources into a snapshot",
		Long: `Load every configured spell name source and write the merged table
as a compressed snapshot. Snapshots load faster than CSV sources and can be
listed in names.sources like any other file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return withEngine(cobraCmd, opts, func(eng *engine.Engine) error {
				if !eng.Names().Loaded() {
					return fmt.Errorf("%w: %s", engine.ErrNoNameSources, eng.LoadNotice())
				}

				records := eng.Names().Records()

				err := names.WriteSnapshotFile(args[0], records)
				if err != nil {
					return err
				}

				info, err := os.Stat(args[0])
				if err != nil {
					return fmt.Errorf("stat snapshot: %w", err)
				}

				_, err = fmt.Fprintf(cobraCmd.OutOrStdout(), "Wrote %s names to %s (%s)\n",
					humanize.Comma(int64(len(records))), args[0], humanize.Bytes(safeconv.ClampUint64(info.Size())))

				return err
			})
		},
	}
}

func withEngine(cobraCmd *cobra.Command, opts *GlobalOptions, fn func(*engine.Engine) error) error {
	rt, err := setup(cobraCmd.Context(), opts, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer rt.close()

	return fn(rt.engine)
}

func writeNameTable(out io.Writer, records []names.Record) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.AppendHeader(table.Row{"ID", "Name"})

	for _, rec := range records {
		tbl.AppendRow(table.Row{strconv.FormatInt(rec.ID, 10), rec.Name})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d", len(records))})
	tbl.Render()

	return nil
}
