package snapshot

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
	"github.com/FocuswithJustin/bpcmp/core/sqlite"
	"github.com/FocuswithJustin/bpcmp/internal/logging"
)

// now is replaced in tests.
var now = time.Now

// Write stores every attribute and variable of c in a new snapshot at path
// and returns its id. The file is written beside path and renamed into place,
// so an existing snapshot is only replaced by a complete one. Any entry that
// cannot be read aborts the write.
func Write(path string, c bp.Container) (string, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return "", bperrors.Wrap(err, "failed to create snapshot file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	id := uuid.New().String()
	if err := write(tmpPath, id, c); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", bperrors.Wrap(err, "failed to move snapshot into place")
	}
	logging.Info("snapshot written",
		"path", path,
		"id", id,
		"source", c.Path(),
		"variables", len(c.VariableNames()),
		"attributes", len(c.AttributeNames()),
	)
	return id, nil
}

func write(path, id string, c bp.Container) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.Exec(schema); err != nil {
		return bperrors.Wrap(err, "failed to create snapshot schema")
	}
	meta := [][2]string{
		{"id", id},
		{"source", c.Path()},
		{"engine", c.Engine()},
		{"created", now().UTC().Format(time.RFC3339)},
		{"format", FormatVersion},
	}
	for _, kv := range meta {
		if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return err
		}
	}

	insert, err := tx.Prepare(`INSERT INTO entries (kind, name, type, shape, data, digest) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	store := func(kind, name string, v bp.Value) error {
		blob, err := compress(bp.Encode(v))
		if err != nil {
			return err
		}
		_, err = insert.Exec(kind, name, v.Kind.String(), formatShape(v.Shape), blob, bp.Digest(v))
		return err
	}
	for _, name := range c.AttributeNames() {
		v, err := c.ReadAttribute(name)
		if err != nil {
			return err
		}
		if err := store("attribute", name, v); err != nil {
			return bperrors.Wrapf(err, "failed to store attribute %s", name)
		}
	}
	for _, name := range c.VariableNames() {
		v, err := c.ReadVariable(name)
		if err != nil {
			return err
		}
		if err := store("variable", name, v); err != nil {
			return bperrors.Wrapf(err, "failed to store variable %s", name)
		}
	}
	return tx.Commit()
}
