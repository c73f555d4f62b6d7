package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rotalsp/pkg/engine"
	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
	"github.com/Sumatoshi-tech/rotalsp/pkg/textutil"
	"github.com/Sumatoshi-tech/rotalsp/pkg/validate"
)

const (
	formatText = "text"
	formatJSON = "json"

	stdinArg = "-"
)

var (
	// ErrFindings is returned when a checked profile has error findings, or
	// warnings under --strict.
	ErrFindings = errors.New("profile check failed")
	// ErrUnknownFormat indicates an unsupported --format value.
	ErrUnknownFormat = errors.New("format must be text or json")
	// ErrBinaryInput indicates a file that does not look like text.
	ErrBinaryInput = errors.New("input looks binary")
)

type checkOptions struct {
	format  string
	strict  bool
	color   bool
	noColor bool
}

// fileReport is the findings of one checked file.
type fileReport struct {
	Path     string             `json:"path"`
	Lines    int                `json:"lines"`
	Findings []validate.Finding `json:"findings"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(opts *GlobalOptions) *cobra.Command {
	var checkOpts checkOptions

	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate rotation profiles",
		Long: `Validate one or more rotation profiles and print their findings.

Use "-" to read a profile from stdin. The command exits with status 1 when a
profile has errors, or warnings with --strict.

Examples:
  rotalsp check profiles/mage_fire.yaml
  rotalsp check --format json profiles/*.yaml
  cat profile.yaml | rotalsp check -`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			if checkOpts.format != formatText && checkOpts.format != formatJSON {
				return fmt.Errorf("%w: %q", ErrUnknownFormat, checkOpts.format)
			}

			rt, err := setup(cobraCmd.Context(), opts, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer rt.close()

			return runCheck(cobraCmd, rt.engine, args, checkOpts)
		},
	}

	cmd.Flags().StringVar(&checkOpts.format, "format", formatText, "output format: text or json")
	cmd.Flags().BoolVar(&checkOpts.strict, "strict", false, "fail on warnings as well as errors")
	cmd.Flags().BoolVar(&checkOpts.color, "color", false, "force colored output")
	cmd.Flags().BoolVar(&checkOpts.noColor, "no-color", false, "disable colored output")

	return cmd
}

func runCheck(cobraCmd *cobra.Command, eng *engine.Engine, paths []string, opts checkOptions) error {
	ctx := cobraCmd.Context()
	reports := make([]fileReport, 0, len(paths))

	for _, path := range paths {
		text, err := readProfile(path, cobraCmd.InOrStdin())
		if err != nil {
			return err
		}

		findings := eng.Validate(ctx, engine.ParseDocument(text))
		if findings == nil {
			findings = []validate.Finding{}
		}

		reports = append(reports, fileReport{
			Path:     path,
			Lines:    textutil.CountLines([]byte(text)),
			Findings: findings,
		})
	}

	out := cobraCmd.OutOrStdout()

	var err error
	if opts.format == formatJSON {
		err = writeJSONReports(out, reports)
	} else {
		err = writeTextReports(out, reports, newPalette(opts.color, opts.noColor), eng.LoadNotice())
	}

	if err != nil {
		return err
	}

	return checkOutcome(reports, opts.strict)
}

func readProfile(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)

	if path == stdinArg {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	if textutil.IsBinary(data) {
		return "", fmt.Errorf("%w: %s", ErrBinaryInput, path)
	}

	return string(data), nil
}

func checkOutcome(reports []fileReport, strict bool) error {
	for _, report := range reports {
		if validate.Count(report.Findings, validate.SeverityError) > 0 {
			return ErrFindings
		}

		if strict && validate.Count(report.Findings, validate.SeverityWarning) > 0 {
			return ErrFindings
		}
	}

	return nil
}

func writeJSONReports(out io.Writer, reports []fileReport) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	err := enc.Encode(reports)
	if err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}

	return nil
}

// palette colors findings by severity.
type palette struct {
	severity map[validate.Severity]*color.Color
	path     *color.Color
	faint    *color.Color
}

func newPalette(force, disable bool) palette {
	enabled := !color.NoColor

	switch {
	case disable:
		enabled = false
	case force:
		enabled = true
	}

	pal := palette{
		severity: map[validate.Severity]*color.Color{
			validate.SeverityError:   color.New(color.FgRed, color.Bold),
			validate.SeverityWarning: color.New(color.FgYellow),
			validate.SeverityInfo:    color.New(color.FgCyan),
		},
		path:  color.New(color.Bold),
		faint: color.New(color.Faint),
	}

	for _, c := range pal.all() {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return pal
}

func (p palette) all() []*color.Color {
	out := []*color.Color{p.path, p.faint}
	for _, c := range p.severity {
		out = append(out, c)
	}

	return out
}

func writeTextReports(out io.Writer, reports []fileReport, pal palette, notice string) error {
	if notice != "" {
		_, err := pal.faint.Fprintf(out, "note: %s\n", notice)
		if err != nil {
			return fmt.Errorf("write notice: %w", err)
		}
	}

	var errorsTotal, warningsTotal, infosTotal, linesTotal int

	for _, report := range reports {
		for _, finding := range report.Findings {
			_, err := fmt.Fprintf(out, "%s:%d:%d: %s: %s %s\n",
				pal.path.Sprint(report.Path),
				finding.Line+1,
				finding.Start+1,
				pal.severity[finding.Severity].Sprint(finding.Severity),
				finding.Message,
				pal.faint.Sprintf("[%s]", finding.Code),
			)
			if err != nil {
				return fmt.Errorf("write findings: %w", err)
			}
		}

		linesTotal += report.Lines
		errorsTotal += validate.Count(report.Findings, validate.SeverityError)
		warningsTotal += validate.Count(report.Findings, validate.SeverityWarning)
		infosTotal += validate.Count(report.Findings, validate.SeverityInfo)
	}

	_, err := fmt.Fprintf(out, "%s %s, %s %s, %s %s in %s %s (%s %s)\n",
		humanize.Comma(int64(errorsTotal)), plural(errorsTotal, "error"),
		humanize.Comma(int64(warningsTotal)), plural(warningsTotal, "warning"),
		humanize.Comma(int64(infosTotal)), plural(infosTotal, "info"),
		humanize.Comma(int64(len(reports))), plural(len(reports), "file"),
		humanize.Comma(int64(linesTotal)), plural(linesTotal, "line"),
	)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}

	return word + "s"
}
