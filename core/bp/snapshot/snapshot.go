// Package snapshot stores the contents of a bp container in a single SQLite
// file and serves it back as a container.
//
// A snapshot is written by "bpdump --snapshot" and compared like any other
// output, so a regression suite can keep a compact golden reference without
// shipping the original bp directory. Each entry is stored as the
// xz-compressed canonical encoding of its value together with the BLAKE3
// digest of that value; the digest is verified on every read.
package snapshot

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
	"github.com/FocuswithJustin/bpcmp/core/sqlite"
	"github.com/FocuswithJustin/bpcmp/internal/logging"
)

// EngineName is the name used with --engine.
const EngineName = "snapshot"

// Priority puts snapshot detection ahead of the bp engines: a snapshot is
// recognised by content, not by name.
const Priority = 100

// FormatVersion is the schema version written to the meta table.
const FormatVersion = "1"

// sqliteMagic starts every SQLite database file.
const sqliteMagic = "SQLite format 3\x00"

const schema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE entries (
	kind   TEXT NOT NULL CHECK (kind IN ('variable', 'attribute')),
	name   TEXT NOT NULL,
	type   TEXT NOT NULL,
	shape  TEXT NOT NULL,
	data   BLOB NOT NULL,
	digest TEXT NOT NULL,
	PRIMARY KEY (kind, name)
);
`

// Info is the provenance recorded in a snapshot.
type Info struct {
	ID      string
	Source  string
	Engine  string
	Created string
	Format  string
}

// Engine opens snapshot files.
type Engine struct{}

func init() {
	bp.Register(Engine{}, Priority)
}

func (Engine) Name() string { return EngineName }

// Detect reports whether path is a SQLite file.
func (Engine) Detect(path string, _ bp.Options) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return string(head) == sqliteMagic
}

// Open opens the snapshot at path read-only and loads its index.
func (Engine) Open(path string, _ bp.Options) (bp.Container, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type item struct {
	kind   bp.Kind
	shape  []uint64
	digest string
}

// Snapshot is an open snapshot file.
type Snapshot struct {
	path  string
	db    *sql.DB
	info  Info
	vars  map[string]item
	attrs map[string]item
}

// Open opens the snapshot at path read-only.
func Open(path string) (*Snapshot, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, bperrors.NewOpen(path, EngineName, err)
	}
	s := &Snapshot{
		path:  path,
		db:    db,
		vars:  make(map[string]item),
		attrs: make(map[string]item),
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, bperrors.NewOpen(path, EngineName, err)
	}
	driver := sqlite.GetInfo()
	logging.Debug("snapshot opened",
		"path", path,
		"id", s.info.ID,
		"source", s.info.Source,
		"driver", driver.DriverName,
		"driver_type", driver.DriverType,
	)
	return s, nil
}

func (s *Snapshot) load() error {
	meta := make(map[string]string)
	rows, err := s.db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return bperrors.Wrap(err, "read snapshot metadata")
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return err
		}
		meta[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	s.info = Info{
		ID:      meta["id"],
		Source:  meta["source"],
		Engine:  meta["engine"],
		Created: meta["created"],
		Format:  meta["format"],
	}
	if s.info.Format != FormatVersion {
		return bperrors.NewUnsupported("snapshot format", strconv.Quote(s.info.Format))
	}

	rows, err = s.db.Query(`SELECT kind, name, type, shape, digest FROM entries`)
	if err != nil {
		return bperrors.Wrap(err, "read snapshot index")
	}
	defer rows.Close()
	for rows.Next() {
		var kind, name, typ, shape, digest string
		if err := rows.Scan(&kind, &name, &typ, &shape, &digest); err != nil {
			return err
		}
		k, err := bp.ParseKind(typ)
		if err != nil {
			return err
		}
		dims, err := parseShape(shape)
		if err != nil {
			return &bperrors.ParseError{Format: "snapshot shape", Path: s.path, Message: name, Err: err}
		}
		it := item{kind: k, shape: dims, digest: digest}
		if kind == "attribute" {
			s.attrs[name] = it
		} else {
			s.vars[name] = it
		}
	}
	return rows.Err()
}

// Info returns the provenance of the snapshot.
func (s *Snapshot) Info() Info { return s.info }

func (s *Snapshot) Path() string   { return s.path }
func (s *Snapshot) Engine() string { return EngineName }

func (s *Snapshot) VariableNames() []string  { return names(s.vars) }
func (s *Snapshot) AttributeNames() []string { return names(s.attrs) }

func (s *Snapshot) ReadVariable(name string) (bp.Value, error) {
	return s.read("variable", name, s.vars)
}

func (s *Snapshot) ReadAttribute(name string) (bp.Value, error) {
	return s.read("attribute", name, s.attrs)
}

func (s *Snapshot) read(kind, name string, index map[string]item) (bp.Value, error) {
	it, ok := index[name]
	if !ok {
		return bp.Value{}, bperrors.NewRead(kind, name, s.path, bperrors.ErrNotFound)
	}
	var blob []byte
	err := s.db.QueryRow(`SELECT data FROM entries WHERE kind = ? AND name = ?`, kind, name).Scan(&blob)
	if err != nil {
		return bp.Value{}, bperrors.NewRead(kind, name, s.path, err)
	}
	raw, err := decompress(blob)
	if err != nil {
		return bp.Value{}, bperrors.NewRead(kind, name, s.path, err)
	}
	v, err := bp.Decode(it.kind, it.shape, raw)
	if err != nil {
		return bp.Value{}, bperrors.NewRead(kind, name, s.path, err)
	}
	if got := bp.Digest(v); got != it.digest {
		return bp.Value{}, bperrors.NewRead(kind, name, s.path,
			bperrors.Wrapf(bperrors.ErrCorrupt, "digest %s, recorded %s", got, it.digest))
	}
	return v, nil
}

// Close releases the database handle.
func (s *Snapshot) Close() error {
	return s.db.Close()
}

func compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, bperrors.Wrap(err, "failed to create xz writer")
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, bperrors.Wrap(err, "failed to create xz reader")
	}
	return io.ReadAll(r)
}

func formatShape(shape []uint64) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.FormatUint(d, 10)
	}
	return strings.Join(parts, ",")
}

func parseShape(s string) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]uint64, len(parts))
	for i, p := range parts {
		d, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, err
		}
		shape[i] = d
	}
	return shape, nil
}

func names(m map[string]item) []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
