package bpls

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
)

const listing = `
  double    temp        {2, 3} = 0.5 / 9.5
  int32_t   step        scalar = 4
  float     time        3*scalar = 0.1 / 0.3
  string    title       attr   = "run one"
  double    dt          attr   = 0.01
  int64_t   sizes       attr   = {10, 20, 30}
  long double  wide     scalar = 1
  uint8_t   group/flag  scalar = 1
`

// fakeBpls answers the invocations the engine makes with canned output.
type fakeBpls struct {
	outputs map[string]string
	calls   []string
	err     error
}

func (f *fakeBpls) run(_ context.Context, tool string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if f.err != nil {
		return nil, f.err
	}
	out, ok := f.outputs[key]
	if !ok {
		return nil, errors.New("unexpected invocation: " + key)
	}
	return []byte(out), nil
}

func newEngine(f *fakeBpls) *Engine {
	return &Engine{
		Run:      f.run,
		LookPath: func(name string) (string, error) { return "/opt/adios2/bin/" + name, nil },
	}
}

func openFake(t *testing.T, f *fakeBpls) bp.Container {
	t.Helper()
	c, err := newEngine(f).Open("out.bp", bp.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func TestOpenListsEntries(t *testing.T) {
	f := &fakeBpls{outputs: map[string]string{"-la out.bp": listing}}
	c := openFake(t, f)

	wantVars := []string{"group/flag", "step", "temp", "time", "wide"}
	if got := c.VariableNames(); strings.Join(got, ",") != strings.Join(wantVars, ",") {
		t.Errorf("VariableNames = %v, want %v", got, wantVars)
	}
	wantAtts := []string{"dt", "sizes", "title"}
	if got := c.AttributeNames(); strings.Join(got, ",") != strings.Join(wantAtts, ",") {
		t.Errorf("AttributeNames = %v, want %v", got, wantAtts)
	}
	if c.Engine() != EngineName {
		t.Errorf("Engine = %q", c.Engine())
	}
}

func TestReadVariable(t *testing.T) {
	f := &fakeBpls{outputs: map[string]string{
		"-la out.bp": listing,
		"-d -f %.17g out.bp temp": `  double    temp        {2, 3}
    (0,0)    0.5 1.0000000000000002 2
    (1,0)    -nan inf 9.5
`,
		"-d out.bp step": "  int32_t   step   scalar = 4\n",
		"-d -f %.9g out.bp time": `  float     time   3*scalar
    (0)    0.100000001 0.200000003 0.300000012
`,
	}}
	c := openFake(t, f)

	temp, err := c.ReadVariable("temp")
	if err != nil {
		t.Fatalf("ReadVariable(temp): %v", err)
	}
	if temp.Kind != bp.Float64 || bp.FormatShape(temp.Shape) != "{2, 3}" {
		t.Fatalf("temp = %s %s", temp.Kind, bp.FormatShape(temp.Shape))
	}
	if temp.Float(1) != 1.0000000000000002 {
		t.Errorf("temp[1] = %v, precision lost", temp.Float(1))
	}
	if !math.IsNaN(temp.Float(3)) || !math.IsInf(temp.Float(4), 1) {
		t.Errorf("temp specials = %v %v", temp.Float(3), temp.Float(4))
	}

	step, err := c.ReadVariable("step")
	if err != nil {
		t.Fatalf("ReadVariable(step): %v", err)
	}
	if !step.IsScalar() || step.Kind != bp.Int32 || step.Format(0) != "4" {
		t.Errorf("step = %s %v", step.Kind, step)
	}

	tm, err := c.ReadVariable("time")
	if err != nil {
		t.Fatalf("ReadVariable(time): %v", err)
	}
	if bp.FormatShape(tm.Shape) != "{3}" || tm.Kind != bp.Float32 {
		t.Errorf("multi-step scalar = %s %s", tm.Kind, bp.FormatShape(tm.Shape))
	}
	if tm.Float(2) != float64(float32(0.3)) {
		t.Errorf("time[2] = %v", tm.Float(2))
	}
}

func TestReadAttribute(t *testing.T) {
	f := &fakeBpls{outputs: map[string]string{
		"-la out.bp":               listing,
		// -a also dumps a variable that shares the attribute's name.
		"-d -a -f %.17g out.bp dt": "  double    dt    attr   = 0.01000000000000000021\n" +
			"  double    dt    {2}\n    (0)    7 8\n",
	}}
	c := openFake(t, f)

	title, err := c.ReadAttribute("title")
	if err != nil {
		t.Fatalf("ReadAttribute(title): %v", err)
	}
	if title.Str(0) != "run one" {
		t.Errorf("title = %q", title.Str(0))
	}

	sizes, err := c.ReadAttribute("sizes")
	if err != nil {
		t.Fatalf("ReadAttribute(sizes): %v", err)
	}
	if bp.FormatShape(sizes.Shape) != "{3}" || sizes.Format(2) != "30" {
		t.Errorf("sizes = %v", sizes)
	}

	dt, err := c.ReadAttribute("dt")
	if err != nil {
		t.Fatalf("ReadAttribute(dt): %v", err)
	}
	if dt.Float(0) != 0.01 {
		t.Errorf("dt = %v", dt.Float(0))
	}
	// Non-float attributes come from the listing alone.
	for _, call := range f.calls {
		if strings.HasSuffix(call, " title") || strings.HasSuffix(call, " sizes") {
			t.Errorf("unexpected dump call %q", call)
		}
	}
}

func TestReadErrors(t *testing.T) {
	f := &fakeBpls{outputs: map[string]string{
		"-la out.bp":           listing,
		"-d out.bp group/flag": "  uint8_t   group/flag  scalar = 300\n",
	}}
	c := openFake(t, f)

	tests := []struct {
		name   string
		read   func() error
		target error
	}{
		{"missing", func() error { _, err := c.ReadVariable("nope"); return err }, bperrors.ErrNotFound},
		{"long double", func() error { _, err := c.ReadVariable("wide"); return err }, bperrors.ErrUnsupported},
		{"out of range", func() error { _, err := c.ReadVariable("group/flag"); return err }, nil},
		{"tool failure", func() error { _, err := c.ReadVariable("temp"); return err }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			if err == nil {
				t.Fatal("expected error")
			}
			var re *bperrors.ReadError
			if !errors.As(err, &re) {
				t.Fatalf("error %T is not a ReadError: %v", err, err)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error %v does not match %v", err, tt.target)
			}
		})
	}
}

func TestOpenFailures(t *testing.T) {
	t.Run("tool missing", func(t *testing.T) {
		e := &Engine{LookPath: func(string) (string, error) { return "", errors.New("not in PATH") }}
		_, err := e.Open("out.bp", bp.Options{})
		var oe *bperrors.OpenError
		if !errors.As(err, &oe) {
			t.Fatalf("expected OpenError, got %v", err)
		}
	})
	t.Run("bpls fails", func(t *testing.T) {
		f := &fakeBpls{err: errors.New("bpls: file not found")}
		_, err := newEngine(f).Open("out.bp", bp.Options{})
		var oe *bperrors.OpenError
		if !errors.As(err, &oe) {
			t.Fatalf("expected OpenError, got %v", err)
		}
	})
	t.Run("garbled listing", func(t *testing.T) {
		f := &fakeBpls{outputs: map[string]string{"-la out.bp": "double temp {2, \n"}}
		_, err := newEngine(f).Open("out.bp", bp.Options{})
		var pe *bperrors.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ParseError, got %v", err)
		}
	})
}

func TestToolResolution(t *testing.T) {
	var looked string
	e := &Engine{LookPath: func(name string) (string, error) { looked = name; return name, nil }}

	t.Setenv(EnvTool, "/env/bpls")
	if _, err := e.tool(bp.Options{}); err != nil || looked != "/env/bpls" {
		t.Errorf("env override: looked up %q, err %v", looked, err)
	}
	if _, err := e.tool(bp.Options{BplsPath: "/flag/bpls"}); err != nil || looked != "/flag/bpls" {
		t.Errorf("flag override: looked up %q, err %v", looked, err)
	}
	t.Setenv(EnvTool, "")
	if _, err := e.tool(bp.Options{}); err != nil || looked != "bpls" {
		t.Errorf("default: looked up %q, err %v", looked, err)
	}
}

func TestFloatFormat(t *testing.T) {
	tests := []struct {
		kind bp.Kind
		want string
	}{
		{bp.Float32, "%.9g"},
		{bp.Float64, "%.17g"},
		{bp.Int64, ""},
		{bp.String, ""},
	}
	for _, tt := range tests {
		if got := floatFormat(tt.kind); got != tt.want {
			t.Errorf("floatFormat(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
