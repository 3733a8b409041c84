package profile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
)

func TestParse(t *testing.T) {
	doc := `<?xml version="1.0"?>
<bpcmp>
  <rtol> 1e-6 </rtol>
  <verbose>2</verbose>
  <ignore-atts>
    <name>date</name>
    <name> hostname </name>
  </ignore-atts>
  <ignore-vars>wall_time,cpu_time</ignore-vars>
</bpcmp>`
	p, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := map[string]string{
		"rtol":        "1e-6",
		"verbose":     "2",
		"ignore-atts": "date,hostname",
		"ignore-vars": "wall_time,cpu_time",
	}
	for flag, want := range tests {
		got, ok := p.Lookup(flag)
		if !ok || got != want {
			t.Errorf("Lookup(%q) = %q, %v; want %q", flag, got, ok, want)
		}
	}
	if _, ok := p.Lookup("atol"); ok {
		t.Error("unset flag reported as set")
	}
	want := []string{"ignore-atts", "ignore-vars", "rtol", "verbose"}
	if got := p.Settings(); !reflect.DeepEqual(got, want) {
		t.Errorf("Settings = %v, want %v", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":  "<bpcmp><rtol>1</bpcmp>",
		"wrong root": "<config><rtol>1</rtol></config>",
		"empty":      "",
		"duplicate":  "<bpcmp><rtol>1</rtol><rtol>2</rtol></bpcmp>",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			var pe *bperrors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
		})
	}
}

type cli struct {
	Profile    kong.ConfigFlag `name:"profile"`
	Verbose    int             `short:"v" default:"1"`
	Rtol       float64         `short:"r" default:"0"`
	IgnoreAtts []string        `name:"ignore-atts"`
}

func writeProfile(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bpcmp.xml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestKongIntegration(t *testing.T) {
	path := writeProfile(t, `<bpcmp>
  <verbose>2</verbose>
  <rtol>0.001</rtol>
  <ignore-atts><name>date</name><name>host</name></ignore-atts>
</bpcmp>`)

	t.Run("profile applies", func(t *testing.T) {
		var c cli
		parser, err := kong.New(&c, kong.Configuration(Loader))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := parser.Parse([]string{"--profile", path}); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if c.Verbose != 2 || c.Rtol != 0.001 || !reflect.DeepEqual(c.IgnoreAtts, []string{"date", "host"}) {
			t.Errorf("got %+v", c)
		}
	})

	t.Run("command line wins", func(t *testing.T) {
		var c cli
		parser, err := kong.New(&c, kong.Configuration(Loader))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := parser.Parse([]string{"--profile", path, "-v", "0"}); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if c.Verbose != 0 || c.Rtol != 0.001 {
			t.Errorf("got %+v", c)
		}
	})

	t.Run("default search path", func(t *testing.T) {
		var c cli
		parser, err := kong.New(&c, kong.Configuration(Loader, path))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := parser.Parse(nil); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if c.Verbose != 2 {
			t.Errorf("Verbose = %d, want 2", c.Verbose)
		}
	})

	t.Run("unknown setting", func(t *testing.T) {
		var c cli
		parser, err := kong.New(&c, kong.Configuration(Loader))
		if err != nil {
			t.Fatal(err)
		}
		p, err := Parse(strings.NewReader(`<bpcmp><tolerance>1</tolerance><rtol>1</rtol></bpcmp>`))
		if err != nil {
			t.Fatal(err)
		}
		err = p.Validate(parser.Model)
		var ve *bperrors.ValidationError
		if !errors.As(err, &ve) || ve.Value != "tolerance" {
			t.Errorf("expected unknown setting error, got %v", err)
		}
	})
}
