package snapshot

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	"github.com/FocuswithJustin/bpcmp/core/compare"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
	"github.com/FocuswithJustin/bpcmp/core/sqlite"
	"github.com/FocuswithJustin/bpcmp/internal/logging"
)

func sample() *bp.Memory {
	return bp.NewMemory("run.bp").
		SetAttribute("title", bp.Scalar("heat equation")).
		SetAttribute("levels", bp.Array(int16(1), int16(-2), int16(3))).
		SetVariable("temp", bp.MustNew([]uint64{2, 2}, []float64{1.5, math.NaN(), math.Inf(-1), 4})).
		SetVariable("step", bp.Scalar(uint64(math.MaxUint64))).
		SetVariable("labels", bp.Array("a", "", "c"))
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ref.bpsnap")
	id, err := Write(path, sample())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("id %q is not a uuid: %v", id, err)
	}
	return path
}

func TestWriteAndRead(t *testing.T) {
	path := writeSample(t)
	src := sample()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if got, want := s.VariableNames(), src.VariableNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("VariableNames = %v, want %v", got, want)
	}
	if got, want := s.AttributeNames(), src.AttributeNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("AttributeNames = %v, want %v", got, want)
	}

	for _, name := range src.VariableNames() {
		want, _ := src.ReadVariable(name)
		got, err := s.ReadVariable(name)
		if err != nil {
			t.Errorf("ReadVariable(%s): %v", name, err)
			continue
		}
		if bp.Digest(got) != bp.Digest(want) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	for _, name := range src.AttributeNames() {
		want, _ := src.ReadAttribute(name)
		got, err := s.ReadAttribute(name)
		if err != nil {
			t.Errorf("ReadAttribute(%s): %v", name, err)
			continue
		}
		if bp.Digest(got) != bp.Digest(want) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}

	info := s.Info()
	if info.Source != "run.bp" || info.Engine != "memory" || info.Format != FormatVersion {
		t.Errorf("Info = %+v", info)
	}
}

func TestOpenLogsDriver(t *testing.T) {
	path := writeSample(t)

	var buf bytes.Buffer
	logging.InitLogger(&buf, logging.LevelDebug, logging.FormatText)
	defer logging.InitLogger(os.Stderr, logging.LevelWarn, logging.FormatText)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	out := buf.String()
	for _, want := range []string{"snapshot opened", "driver=" + sqlite.DriverName(), "id=" + s.Info().ID} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestCreatedTimestamp(t *testing.T) {
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)) }

	path := writeSample(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if got := s.Info().Created; got != "2024-03-01T11:00:00Z" {
		t.Errorf("Created = %q", got)
	}
}

func TestDetect(t *testing.T) {
	path := writeSample(t)
	other := filepath.Join(t.TempDir(), "md.idx")
	if err := os.WriteFile(other, []byte("not a database"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := Engine{}
	if !e.Detect(path, bp.Options{}) {
		t.Error("snapshot not detected")
	}
	if e.Detect(other, bp.Options{}) {
		t.Error("plain file detected as snapshot")
	}
	if e.Detect(filepath.Join(t.TempDir(), "missing"), bp.Options{}) {
		t.Error("missing file detected as snapshot")
	}
}

func TestReadDetectsCorruption(t *testing.T) {
	path := writeSample(t)

	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	blob, err := compress(bp.Encode(bp.MustNew([]uint64{2, 2}, []float64{1.5, 0, 0, 4})))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE entries SET data = ? WHERE name = 'temp'`, blob); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_, err = s.ReadVariable("temp")
	var re *bperrors.ReadError
	if !errors.As(err, &re) || !errors.Is(err, bperrors.ErrCorrupt) {
		t.Fatalf("expected corrupt ReadError, got %v", err)
	}
	if _, err := s.ReadVariable("step"); err != nil {
		t.Errorf("untouched entry failed: %v", err)
	}
}

func TestReadRejectsCorruptShape(t *testing.T) {
	path := writeSample(t)

	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE entries SET shape = '18446744073709551615' WHERE name = 'temp'`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_, err = s.ReadVariable("temp")
	var re *bperrors.ReadError
	if !errors.As(err, &re) {
		t.Fatalf("expected ReadError, got %v", err)
	}

	res := compare.Compare(sample(), s, compare.Config{Verbosity: compare.ErrorsOnly})
	o, ok := res.Lookup(compare.Variable, "temp")
	if !ok || o.Status != compare.Mismatch || o.Reason != compare.ReadFailed {
		t.Errorf("outcome = %+v, want read mismatch", o)
	}
	if o, _ := res.Lookup(compare.Variable, "step"); o.Status != compare.Match {
		t.Errorf("step outcome = %+v, want match", o)
	}
}

func TestReadMissing(t *testing.T) {
	s, err := Open(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.ReadAttribute("nope"); !errors.Is(err, bperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRejectsOtherDatabases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE unrelated (x INTEGER)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	_, err = Open(path)
	var oe *bperrors.OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OpenError, got %v", err)
	}
}

// failing is a container whose variables cannot be read.
type failing struct{ *bp.Memory }

func (f failing) ReadVariable(name string) (bp.Value, error) {
	return bp.Value{}, bperrors.NewRead("variable", name, f.Path(), errors.New("disk on fire"))
}

func TestWriteAbortsOnReadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.bpsnap")
	if _, err := Write(path, failing{sample()}); err == nil {
		t.Fatal("expected error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("partial files left behind: %v", entries)
	}
}

func TestShapeText(t *testing.T) {
	for _, shape := range [][]uint64{nil, {7}, {2, 3, 4}} {
		got, err := parseShape(formatShape(shape))
		if err != nil {
			t.Fatalf("parseShape: %v", err)
		}
		if len(got) != len(shape) || (len(shape) > 0 && !reflect.DeepEqual(got, shape)) {
			t.Errorf("shape %v came back as %v", shape, got)
		}
	}
	if _, err := parseShape("2,x"); err == nil {
		t.Error("expected error for malformed shape")
	}
}
