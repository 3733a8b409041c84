// Package report renders comparison results for people and scripts.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	"github.com/FocuswithJustin/bpcmp/core/compare"
)

// Process exit statuses.
const (
	// ExitPass means the outputs are equivalent.
	ExitPass = 0
	// ExitMismatch means the outputs were compared and differ.
	ExitMismatch = 1
	// ExitFatal means an output could not be opened or read.
	ExitFatal = 2
	// ExitConfig means the command line or profile was invalid.
	ExitConfig = 3
)

// ExitCode maps a result to the process exit status.
func ExitCode(res *compare.Result) int {
	if res.Pass() {
		return ExitPass
	}
	return ExitMismatch
}

// Reporter writes human-readable comparison output.
type Reporter struct {
	out       io.Writer
	verbosity compare.Verbosity

	bold   *color.Color
	red    *color.Color
	yellow *color.Color
	blue   *color.Color
}

// New creates a Reporter. colorize should be true only when out is a terminal.
func New(out io.Writer, colorize bool, verbosity compare.Verbosity) *Reporter {
	paint := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &Reporter{
		out:       out,
		verbosity: verbosity,
		bold:      paint(color.Bold),
		red:       paint(color.FgRed, color.Bold),
		yellow:    paint(color.FgYellow, color.Bold),
		blue:      paint(color.FgBlue, color.Bold),
	}
}

// Header prints the banner and the effective settings.
func (r *Reporter) Header(left, right string, cfg compare.Config) {
	fmt.Fprintln(r.out, r.bold.Sprint("bpcmp: ADIOS2 bp output comparison utility"))
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "ADIOS2 bp output 1: %s\n", left)
	fmt.Fprintf(r.out, "ADIOS2 bp output 2: %s\n", right)
	fmt.Fprintf(r.out, "Absolute tolerance: %e\n", cfg.AbsTol)
	fmt.Fprintf(r.out, "Relative tolerance: %e\n", cfg.RelTol)
	fmt.Fprintf(r.out, "Verbose output level: %d (%s)\n", int(cfg.Verbosity), cfg.Verbosity)
	if cfg.EqualNaN {
		fmt.Fprintln(r.out, "NaN values compare equal")
	}
	if len(cfg.IgnoreAtts) > 0 {
		fmt.Fprintf(r.out, "Ignored attributes: %s\n", strings.Join(cfg.IgnoreAtts, ", "))
	}
	if len(cfg.IgnoreVars) > 0 {
		fmt.Fprintf(r.out, "Ignored variables: %s\n", strings.Join(cfg.IgnoreVars, ", "))
	}
	fmt.Fprintln(r.out)
}

// Render prints one line per outcome worth reporting at the configured
// verbosity: nothing when silent, differences at errors-only, and every
// outcome with per-element detail at full.
func (r *Reporter) Render(res *compare.Result) {
	if r.verbosity == compare.Silent {
		return
	}
	for _, o := range res.Outcomes {
		r.outcome(res, o)
	}
	if r.verbosity == compare.Full {
		for _, o := range res.Skipped {
			r.line(r.blue, "SKIP:", o, "is ignored")
		}
	}
}

func (r *Reporter) outcome(res *compare.Result, o compare.Outcome) {
	switch o.Status {
	case compare.Match:
		if r.verbosity == compare.Full {
			r.line(r.blue, "PASS:", o, "is the same in both outputs")
		}
	case compare.OnlyInLeft:
		r.line(r.yellow, "NO"+noun(o.Entry)+":", o,
			fmt.Sprintf("found in %s but not %s", res.LeftPath, res.RightPath))
	case compare.OnlyInRight:
		r.line(r.yellow, "NO"+noun(o.Entry)+":", o,
			fmt.Sprintf("found in %s but not %s", res.RightPath, res.LeftPath))
	case compare.Mismatch:
		switch o.Reason {
		case compare.ShapeDiffers:
			r.line(r.red, "SHAPE:", o, fmt.Sprintf("has inconsistent shapes: %s = %s and %s = %s",
				res.LeftPath, bp.FormatShape(o.LeftShape), res.RightPath, bp.FormatShape(o.RightShape)))
		case compare.TypeDiffers:
			r.line(r.red, "TYPE:", o, fmt.Sprintf("has inconsistent types: %s = %s and %s = %s",
				res.LeftPath, o.LeftKind, res.RightPath, o.RightKind))
		case compare.ReadFailed:
			r.line(r.red, "READ:", o, fmt.Sprintf("could not be read: %v", o.Err))
		default:
			r.line(r.red, "DIFF:", o, r.diffSummary(res, o))
			r.details(o)
		}
	}
}

func (r *Reporter) diffSummary(res *compare.Result, o compare.Outcome) string {
	if o.Total == 1 {
		return fmt.Sprintf("has differences: %s = %s and %s = %s",
			res.LeftPath, o.FirstLeft, res.RightPath, o.FirstRight)
	}
	msg := fmt.Sprintf("has differences in %d of %d elements, first at %s (%s vs %s)",
		o.Count, o.Total, bp.FormatIndex(o.First), o.FirstLeft, o.FirstRight)
	if o.LeftKind.Class() != bp.ClassString {
		msg += fmt.Sprintf(", max difference: %g", o.MaxAbsDiff)
	}
	return msg
}

func (r *Reporter) details(o compare.Outcome) {
	if r.verbosity != compare.Full || o.Total == 1 {
		return
	}
	for _, d := range o.Differences {
		fmt.Fprintf(r.out, "       %-12s %s  vs  %s\n", bp.FormatIndex(d.Index), d.Left, d.Right)
	}
	if o.Truncated {
		fmt.Fprintf(r.out, "       ... %d more differences not shown\n", o.Count-len(o.Differences))
	}
}

func (r *Reporter) line(c *color.Color, label string, o compare.Outcome, msg string) {
	fmt.Fprintf(r.out, "%s %s %s %s\n",
		c.Sprintf("%-6s", label), entryTitle(o.Entry), c.Sprint(o.Name), msg)
}

// Summary prints the tallies and the verdict line.
func (r *Reporter) Summary(res *compare.Result) {
	c := res.Counts()
	fmt.Fprintf(r.out, "\nCompared: %d, mismatched: %d, skipped: %d, only in one output: %d\n",
		c.Compared, c.Mismatched, c.Skipped, c.OneSided)
	if res.Pass() {
		fmt.Fprintln(r.out, r.bold.Sprintf("%s and %s are identical", res.LeftPath, res.RightPath))
		return
	}
	fmt.Fprintln(r.out, r.bold.Sprintf("%d differences found between %s and %s",
		res.Differences(), res.LeftPath, res.RightPath))
}

// Fatal prints an error that stopped the comparison before any report.
func (r *Reporter) Fatal(err error) {
	fmt.Fprintln(r.out, r.red.Sprintf("ERROR: %v", err))
}

func entryTitle(e compare.Entry) string {
	if e == compare.Variable {
		return "Variable"
	}
	return "Attribute"
}

func noun(e compare.Entry) string {
	if e == compare.Variable {
		return "VAR"
	}
	return "ATT"
}
