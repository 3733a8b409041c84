// Package engines links every storage engine into a binary.
//
// Import it for side effects from main packages:
//
//	import _ "github.com/FocuswithJustin/bpcmp/internal/engines"
//
// The adios2 engine registers only in builds with the adios2 tag.
package engines

import (
	_ "github.com/FocuswithJustin/bpcmp/core/bp/adios2"
	_ "github.com/FocuswithJustin/bpcmp/core/bp/bpls"
	_ "github.com/FocuswithJustin/bpcmp/core/bp/snapshot"
)
