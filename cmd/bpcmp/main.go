// Package main provides bpcmp, which compares two ADIOS2 bp outputs.
//
// Usage:
//
//	bpcmp out1.bp out2.bp [-v LEVEL] [-r RTOL] [-a ATOL]
//	      [--ignore-atts NAME...] [--ignore-vars NAME...]
//
// The second output is the reference: relative tolerances scale with its
// values. Exit status is 0 when the outputs match, 1 when they differ, 2 when
// an output cannot be opened and 3 for invalid options.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	"github.com/FocuswithJustin/bpcmp/core/compare"
	"github.com/FocuswithJustin/bpcmp/core/report"
	"github.com/FocuswithJustin/bpcmp/internal/logging"
	"github.com/FocuswithJustin/bpcmp/internal/profile"

	// Register the storage engines
	_ "github.com/FocuswithJustin/bpcmp/internal/engines"
)

// CLI is the bpcmp command line.
type CLI struct {
	Profile kong.ConfigFlag `name:"profile" placeholder:"FILE" help:"Load option defaults from an XML tolerance profile."`

	Output1 string `arg:"" name:"bpout1" help:"ADIOS2 bp output number 1 (actual)."`
	Output2 string `arg:"" name:"bpout2" help:"ADIOS2 bp output number 2 (reference)."`

	Verbose    int      `short:"v" default:"0" placeholder:"LEVEL" help:"Verbose output: (0,1,2) to report (nothing, errors only, everything)."`
	Rtol       float64  `short:"r" default:"0" help:"Relative tolerance (default is zero)."`
	Atol       float64  `short:"a" default:"0" help:"Absolute tolerance (default is zero)."`
	IgnoreAtts []string `name:"ignore-atts" placeholder:"NAME" help:"Attributes to ignore."`
	IgnoreVars []string `name:"ignore-vars" placeholder:"NAME" help:"Variables to ignore."`
	EqualNaN   bool     `name:"equal-nan" help:"Treat NaN values at the same position as equal."`
	MaxReport  int      `name:"max-report" default:"0" placeholder:"N" help:"Report at most N differing elements per variable at level 2 (0 reports all)."`

	Engine       string `placeholder:"NAME" help:"Force a storage engine (${engines}) instead of detecting one."`
	Bpls         string `placeholder:"PATH" help:"bpls executable used by the bpls engine."`
	Adios2Config string `name:"adios2-config" placeholder:"FILE" help:"ADIOS2 runtime XML configuration for the adios2 engine."`

	NoColor   bool   `name:"no-color" help:"Disable colored output."`
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Diagnostic log level (${enum})."`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Diagnostic log format (${enum})."`
}

// Validate rejects bad options before any output is opened.
func (c *CLI) Validate() error {
	_, err := c.Config()
	return err
}

// Config returns the comparison settings.
func (c *CLI) Config() (compare.Config, error) {
	v, err := compare.ParseVerbosity(c.Verbose)
	if err != nil {
		return compare.Config{}, err
	}
	cfg := compare.Config{
		RelTol:      c.Rtol,
		AbsTol:      c.Atol,
		Verbosity:   v,
		IgnoreAtts:  c.IgnoreAtts,
		IgnoreVars:  c.IgnoreVars,
		EqualNaN:    c.EqualNaN,
		MaxReported: c.MaxReport,
	}
	return cfg, cfg.Validate()
}

func (c *CLI) openOptions() bp.Options {
	return bp.Options{Engine: c.Engine, BplsPath: c.Bpls, ConfigFile: c.Adios2Config}
}

// kongExit carries an exit status requested by kong (for --help) out of Parse.
type kongExit int

func run(args []string, stdout, stderr io.Writer, terminal bool) (code int) {
	var cli CLI
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(kongExit)
			if !ok {
				panic(r)
			}
			code = int(e)
		}
	}()

	parser, err := kong.New(&cli,
		kong.Name("bpcmp"),
		kong.Description("bpcmp utility for comparing ADIOS2 bp output"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Writers(stdout, stderr),
		kong.Exit(func(status int) { panic(kongExit(status)) }),
		kong.Configuration(profile.Loader, ".bpcmp.xml", "~/.bpcmp.xml"),
		kong.Vars{"engines": enginesList()},
	)
	if err != nil {
		fmt.Fprintf(stderr, "bpcmp: error: %v\n", err)
		return report.ExitConfig
	}
	if _, err := parser.Parse(normalizeArgs(args)); err != nil {
		fmt.Fprintf(stderr, "bpcmp: error: %v\n", err)
		return report.ExitConfig
	}

	level, _ := logging.ParseLevel(cli.LogLevel)
	format, _ := logging.ParseFormat(cli.LogFormat)
	logging.InitLogger(stderr, level, format)

	cfg, err := cli.Config()
	if err != nil {
		fmt.Fprintf(stderr, "bpcmp: error: %v\n", err)
		return report.ExitConfig
	}

	rep := report.New(stdout, terminal && !cli.NoColor, cfg.Verbosity)
	rep.Header(cli.Output1, cli.Output2, cfg)

	left, err := bp.Open(cli.Output1, cli.openOptions())
	if err != nil {
		rep.Fatal(err)
		return report.ExitFatal
	}
	defer left.Close()

	right, err := bp.Open(cli.Output2, cli.openOptions())
	if err != nil {
		rep.Fatal(err)
		return report.ExitFatal
	}
	defer right.Close()

	res := compare.Compare(left, right, cfg)
	rep.Render(res)
	rep.Summary(res)
	return report.ExitCode(res)
}

func enginesList() string {
	return strings.Join(bp.Engines(), ", ")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, isatty.IsTerminal(os.Stdout.Fd())))
}
