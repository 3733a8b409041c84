package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	"github.com/FocuswithJustin/bpcmp/core/bp/snapshot"
	"github.com/FocuswithJustin/bpcmp/core/report"
)

func fixture(t *testing.T) string {
	t.Helper()
	m := bp.NewMemory("run.bp").
		SetAttribute("T/units", bp.Scalar("K")).
		SetAttribute("title", bp.Scalar("heat")).
		SetVariable("T", bp.Array(1.5, 2.5))
	path := filepath.Join(t.TempDir(), "run.bpsnap")
	if _, err := snapshot.Write(path, m); err != nil {
		t.Fatalf("snapshot.Write: %v", err)
	}
	return path
}

func runDump(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr, false)
	if stderr.Len() > 0 {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return code, stdout.String()
}

func TestRunListing(t *testing.T) {
	code, out := runDump(t, fixture(t), "--width", "12")
	if code != 0 {
		t.Fatalf("exit = %d\n%s", code, out)
	}
	want := "bpdump: ADIOS2 bp dump utility\n\n" +
		"T/units     K\n" +
		"T           double {2}\n\n" +
		"title       heat\n\n"
	if out != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestRunData(t *testing.T) {
	code, out := runDump(t, fixture(t), "-d", "--digest")
	if code != 0 {
		t.Fatalf("exit = %d\n%s", code, out)
	}
	if !strings.Contains(out, "[1.5 2.5]") {
		t.Errorf("data not printed:\n%s", out)
	}
	if !strings.Contains(out, "blake3 ") {
		t.Errorf("digest not printed:\n%s", out)
	}
}

func TestRunSnapshotRoundTrip(t *testing.T) {
	src := fixture(t)
	dst := filepath.Join(t.TempDir(), "copy.bpsnap")
	code, out := runDump(t, src, "--snapshot", dst)
	if code != 0 {
		t.Fatalf("exit = %d\n%s", code, out)
	}
	if !strings.Contains(out, "written to "+dst) {
		t.Errorf("missing snapshot line:\n%s", out)
	}

	s, err := snapshot.Open(dst)
	if err != nil {
		t.Fatalf("snapshot.Open: %v", err)
	}
	defer s.Close()
	if s.Info().Source != src || s.Info().Engine != snapshot.EngineName {
		t.Errorf("Info = %+v", s.Info())
	}
	if got := s.VariableNames(); len(got) != 1 || got[0] != "T" {
		t.Errorf("VariableNames = %v", got)
	}
}

func TestRunErrors(t *testing.T) {
	tests := map[string]struct {
		args []string
		code int
	}{
		"missing path":   {[]string{filepath.Join(t.TempDir(), "nope.bp")}, report.ExitFatal},
		"no arguments":   {nil, report.ExitConfig},
		"zero width":     {[]string{"x.bp", "--width", "0"}, report.ExitConfig},
		"unknown engine": {[]string{fixture(t), "--engine", "hdf5"}, report.ExitFatal},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if code, out := runDump(t, tt.args...); code != tt.code {
				t.Errorf("exit = %d, want %d\n%s", code, tt.code, out)
			}
		})
	}
}
