// Package main provides bpdump, which prints the contents of an ADIOS2 bp
// output and can store them as a reference snapshot for bpcmp.
//
// Usage:
//
//	bpdump out.bp
//	bpdump out.bp --data --digest
//	bpdump out.bp --snapshot golden.bpsnap
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	"github.com/FocuswithJustin/bpcmp/core/bp/snapshot"
	"github.com/FocuswithJustin/bpcmp/core/dump"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
	"github.com/FocuswithJustin/bpcmp/core/report"
	"github.com/FocuswithJustin/bpcmp/internal/logging"

	// Register the storage engines
	_ "github.com/FocuswithJustin/bpcmp/internal/engines"
)

// CLI is the bpdump command line.
type CLI struct {
	Output string `arg:"" name:"bpout" help:"Path to the ADIOS2 bp output."`

	Data     bool   `short:"d" help:"Print the full contents of variables."`
	Digest   bool   `help:"Print the BLAKE3 digest of every entry."`
	Snapshot string `placeholder:"FILE" type:"path" help:"Also store the contents as a snapshot file for bpcmp."`
	Width    int    `default:"32" placeholder:"N" help:"Width of the name column."`

	Engine       string `placeholder:"NAME" help:"Force a storage engine (${engines}) instead of detecting one."`
	Bpls         string `placeholder:"PATH" help:"bpls executable used by the bpls engine."`
	Adios2Config string `name:"adios2-config" placeholder:"FILE" help:"ADIOS2 runtime XML configuration for the adios2 engine."`

	NoColor  bool   `name:"no-color" help:"Disable colored output."`
	LogLevel string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Diagnostic log level (${enum})."`
}

// Validate rejects a width too narrow to hold any name.
func (c *CLI) Validate() error {
	if c.Width < 1 {
		return bperrors.NewValidation("width", strconv.Itoa(c.Width), "must be at least 1")
	}
	return nil
}

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
		kong.Name("bpdump"),
		kong.Description("bpdump utility for dumping ADIOS2 bp output content"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Writers(stdout, stderr),
		kong.Exit(func(status int) { panic(kongExit(status)) }),
		kong.Vars{"engines": strings.Join(bp.Engines(), ", ")},
	)
	if err != nil {
		fmt.Fprintf(stderr, "bpdump: error: %v\n", err)
		return report.ExitConfig
	}
	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintf(stderr, "bpdump: error: %v\n", err)
		return report.ExitConfig
	}

	level, _ := logging.ParseLevel(cli.LogLevel)
	logging.InitLogger(stderr, level, logging.FormatText)

	bold := color.New(color.Bold)
	red := color.New(color.FgRed, color.Bold)
	if terminal && !cli.NoColor {
		bold.EnableColor()
		red.EnableColor()
	} else {
		bold.DisableColor()
		red.DisableColor()
	}

	fmt.Fprintln(stdout, bold.Sprint("bpdump: ADIOS2 bp dump utility"))
	fmt.Fprintln(stdout)

	c, err := bp.Open(cli.Output, bp.Options{
		Engine:     cli.Engine,
		BplsPath:   cli.Bpls,
		ConfigFile: cli.Adios2Config,
	})
	if err != nil {
		fmt.Fprintln(stdout, red.Sprintf("ERROR: %v", err))
		return report.ExitFatal
	}
	defer c.Close()

	opts := dump.Options{Data: cli.Data, Digest: cli.Digest, Width: cli.Width}
	if err := dump.Dump(stdout, c, opts); err != nil {
		fmt.Fprintln(stdout, red.Sprintf("ERROR: %v", err))
		return report.ExitFatal
	}

	if cli.Snapshot != "" {
		id, err := snapshot.Write(cli.Snapshot, c)
		if err != nil {
			fmt.Fprintln(stdout, red.Sprintf("ERROR: %v", err))
			return report.ExitFatal
		}
		fmt.Fprintf(stdout, "Snapshot %s written to %s\n", id, cli.Snapshot)
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, isatty.IsTerminal(os.Stdout.Fd())))
}
