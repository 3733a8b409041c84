// Package sqlite opens the SQLite databases that hold bp snapshots.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite, no cgo required
//   - CGO (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open and OpenReadOnly instead of sql.Open so the registered driver
// name always matches the build.
package sqlite

import (
	"database/sql"
	"strings"
)

// DriverName returns the database/sql driver name of this build.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO reports whether the cgo driver is linked in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens or creates the database at path for writing.
func Open(path string) (*sql.DB, error) {
	return open(path, "rwc")
}

// OpenReadOnly opens an existing database without write access.
func OpenReadOnly(path string) (*sql.DB, error) {
	return open(path, "ro")
}

// uriEscaper escapes the characters SQLite URI filenames reserve.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func open(path, mode string) (*sql.DB, error) {
	dsn := "file:" + uriEscaper.Replace(path) + "?mode=" + mode
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps writes on one handle.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Info describes the linked SQLite driver.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns the driver configuration of this build.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
