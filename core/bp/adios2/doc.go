// Package adios2 reads bp outputs through the ADIOS2 C library.
//
// The engine is only compiled with the adios2 build tag and cgo enabled:
//
//	CGO_CFLAGS="-I$ADIOS2_DIR/include" CGO_LDFLAGS="-L$ADIOS2_DIR/lib" \
//	    go build -tags adios2 ./cmd/...
//
// Without the tag the package is empty and bp outputs are read through the
// bpls engine instead. When both are linked in, this engine is preferred.
package adios2
