// Package sqliteexternal links the cgo SQLite driver used for bp snapshots.
//
// It is imported by core/sqlite when building with the cgo_sqlite tag:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/...
//
// Default builds use the pure Go modernc.org/sqlite driver instead, which
// keeps bpcmp a single static binary. The cgo driver is faster on large
// snapshots and matches the SQLite library found on HPC systems.
package sqliteexternal
