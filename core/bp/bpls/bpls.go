// Package bpls reads bp outputs through the bpls utility shipped with ADIOS2.
//
// The engine lists a container once with "bpls -la" and dumps each entry on
// demand with "bpls -d". Floating point data is dumped with enough digits to
// round-trip. bpls runs with LC_ALL=C so number formatting does not depend on
// the caller's locale.
package bpls

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
	"github.com/FocuswithJustin/bpcmp/internal/logging"
)

// EngineName is the name used with --engine.
const EngineName = "bpls"

// Priority places bpls after engines that decode bp natively.
const Priority = 10

// EnvTool names the environment variable that overrides the bpls path.
const EnvTool = "BPLS"

// DefaultTimeout bounds a single bpls invocation.
const DefaultTimeout = 5 * time.Minute

// Runner executes tool with args and returns its standard output.
type Runner func(ctx context.Context, tool string, args ...string) ([]byte, error)

// Engine is the bpls storage engine.
type Engine struct {
	// Run executes bpls. Nil means ExecRunner.
	Run Runner
	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration
	// LookPath resolves the tool name. Nil means exec.LookPath.
	LookPath func(string) (string, error)
}

func init() {
	bp.Register(&Engine{}, Priority)
}

func (e *Engine) Name() string { return EngineName }

// Detect accepts anything that looks like a bp output.
func (e *Engine) Detect(path string, _ bp.Options) bool {
	return bp.IsBPPath(path)
}

// Open lists path with bpls.
func (e *Engine) Open(path string, opts bp.Options) (bp.Container, error) {
	tool, err := e.tool(opts)
	if err != nil {
		return nil, bperrors.NewOpen(path, EngineName, err)
	}
	c := &container{
		path:    path,
		tool:    tool,
		run:     e.runner(),
		timeout: e.timeout(),
		vars:    make(map[string]*entry),
		attrs:   make(map[string]*entry),
	}
	out, err := c.exec("-la", path)
	if err != nil {
		return nil, bperrors.NewOpen(path, EngineName, err)
	}
	entries, err := parseListing(path, out)
	if err != nil {
		return nil, bperrors.NewOpen(path, EngineName, err)
	}
	for _, ent := range entries {
		if ent.attr {
			c.attrs[ent.name] = ent
		} else {
			c.vars[ent.name] = ent
		}
	}
	return c, nil
}

func (e *Engine) tool(opts bp.Options) (string, error) {
	name := opts.BplsPath
	if name == "" {
		name = os.Getenv(EnvTool)
	}
	if name == "" {
		name = "bpls"
	}
	look := e.LookPath
	if look == nil {
		look = exec.LookPath
	}
	p, err := look(name)
	if err != nil {
		return "", bperrors.Wrapf(err, "bpls utility %q not found", name)
	}
	return p, nil
}

func (e *Engine) runner() Runner {
	if e.Run != nil {
		return e.Run
	}
	return ExecRunner
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

// ExecRunner runs tool as a child process in the C locale. A non-zero exit
// status is an error carrying the tool's stderr.
func ExecRunner(ctx context.Context, tool string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	logging.ToolInvocation(tool, args, time.Since(start), err)
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			return nil, bperrors.Wrapf(err, "%s: %s", tool, msg)
		}
		return nil, bperrors.Wrapf(err, "%s failed", tool)
	}
	return stdout.Bytes(), nil
}

type container struct {
	path    string
	tool    string
	run     Runner
	timeout time.Duration
	vars    map[string]*entry
	attrs   map[string]*entry
}

func (c *container) exec(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.run(ctx, c.tool, args...)
}

func (c *container) Path() string   { return c.path }
func (c *container) Engine() string { return EngineName }

func (c *container) VariableNames() []string  { return names(c.vars) }
func (c *container) AttributeNames() []string { return names(c.attrs) }

func (c *container) ReadVariable(name string) (bp.Value, error) {
	ent, ok := c.vars[name]
	if !ok {
		return bp.Value{}, bperrors.NewRead("variable", name, c.path, bperrors.ErrNotFound)
	}
	return c.read("variable", ent)
}

func (c *container) ReadAttribute(name string) (bp.Value, error) {
	ent, ok := c.attrs[name]
	if !ok {
		return bp.Value{}, bperrors.NewRead("attribute", name, c.path, bperrors.ErrNotFound)
	}
	if ent.kindErr != nil {
		return bp.Value{}, bperrors.NewRead("attribute", name, c.path, ent.kindErr)
	}
	// The listing prints floating point attributes with the default
	// precision, so those are dumped again at full precision.
	if ent.kind.Class() != bp.ClassFloat {
		return c.build("attribute", ent, ent.values)
	}
	return c.read("attribute", ent)
}

func (c *container) read(what string, ent *entry) (bp.Value, error) {
	if ent.kindErr != nil {
		return bp.Value{}, bperrors.NewRead(what, ent.name, c.path, ent.kindErr)
	}
	args := []string{"-d"}
	if what == "attribute" {
		args = append(args, "-a")
	}
	if f := floatFormat(ent.kind); f != "" {
		args = append(args, "-f", f)
	}
	args = append(args, c.path, ent.name)
	out, err := c.exec(args...)
	if err != nil {
		return bp.Value{}, bperrors.NewRead(what, ent.name, c.path, err)
	}
	fields, err := parseDump(c.path, ent.name, what == "attribute", out)
	if err != nil {
		return bp.Value{}, bperrors.NewRead(what, ent.name, c.path, err)
	}
	return c.build(what, ent, fields)
}

func (c *container) build(what string, ent *entry, fields []string) (bp.Value, error) {
	v, err := bp.ParseElements(ent.kind, ent.shape(), fields)
	if err != nil {
		return bp.Value{}, bperrors.NewRead(what, ent.name, c.path,
			parseError("bpls dump", c.path, ent.name, err))
	}
	return v, nil
}

// Close is a no-op; bpls holds no handle between invocations.
func (c *container) Close() error { return nil }

// floatFormat returns a printf format that round-trips kind k, or "" for
// non floating point kinds, which bpls prints exactly by default.
func floatFormat(k bp.Kind) string {
	switch k {
	case bp.Float32:
		return "%.9g"
	case bp.Float64:
		return "%.17g"
	}
	return ""
}

func names(m map[string]*entry) []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
