// Package bp defines the read interface to ADIOS2 bp output containers and
// the typed values read from them.
//
// Decoding the bp format is delegated to storage engines registered with
// Register; Open picks the first engine that recognises a path. Engines live
// in subpackages and register themselves from init functions, so binaries
// import them for side effects (see internal/engines).
package bp

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
	"github.com/FocuswithJustin/bpcmp/internal/logging"
)

// Container is a read-only handle to one output location.
type Container interface {
	// Path returns the location the container was opened from.
	Path() string
	// Engine returns the name of the engine serving the container.
	Engine() string
	// VariableNames returns the variable names, sorted.
	VariableNames() []string
	// AttributeNames returns the attribute names, sorted.
	AttributeNames() []string
	// ReadVariable reads the full value of a variable, across all steps.
	ReadVariable(name string) (Value, error)
	// ReadAttribute reads the value of an attribute.
	ReadAttribute(name string) (Value, error)
	// Close releases the handle.
	Close() error
}

// Options tune how a container is opened.
type Options struct {
	// Engine forces a specific engine by name instead of detection.
	Engine string
	// BplsPath is the bpls executable used by the bpls engine.
	BplsPath string
	// ConfigFile is an ADIOS2 runtime XML configuration for the adios2 engine.
	ConfigFile string
}

// Engine opens containers of one storage flavour.
type Engine interface {
	// Name identifies the engine on the command line.
	Name() string
	// Detect reports whether the engine can serve path.
	Detect(path string, opts Options) bool
	// Open opens path. Errors should be *errors.OpenError.
	Open(path string, opts Options) (Container, error)
}

type registration struct {
	engine   Engine
	priority int
}

// registry holds all engines, highest priority first.
var registry []registration

// Register adds an engine. Engines with higher priority are tried first.
func Register(e Engine, priority int) {
	registry = append(registry, registration{engine: e, priority: priority})
	sort.SliceStable(registry, func(i, j int) bool {
		return registry[i].priority > registry[j].priority
	})
}

// Engines returns the registered engine names in detection order.
func Engines() []string {
	names := make([]string, len(registry))
	for i, r := range registry {
		names[i] = r.engine.Name()
	}
	return names
}

// LookupEngine returns the engine registered under name.
func LookupEngine(name string) (Engine, bool) {
	for _, r := range registry {
		if r.engine.Name() == name {
			return r.engine, true
		}
	}
	return nil, false
}

// ClearRegistry removes all engines (for testing).
func ClearRegistry() {
	registry = nil
}

// Open opens the container at path. Any failure is an *errors.OpenError.
func Open(path string, opts Options) (Container, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, bperrors.NewOpen(path, opts.Engine, err)
	}

	var e Engine
	if opts.Engine != "" {
		var ok bool
		if e, ok = LookupEngine(opts.Engine); !ok {
			return nil, bperrors.NewOpen(path, opts.Engine,
				bperrors.NewUnsupported("engine", "available engines: "+strings.Join(Engines(), ", ")))
		}
	} else {
		for _, r := range registry {
			if r.engine.Detect(path, opts) {
				e = r.engine
				break
			}
		}
		if e == nil {
			return nil, bperrors.NewOpen(path, "",
				bperrors.NewUnsupported("container", "no engine recognises this path"))
		}
	}
	logging.EngineSelected(path, e.Name(), opts.Engine != "")

	c, err := e.Open(path, opts)
	if err != nil {
		var oe *bperrors.OpenError
		if bperrors.As(err, &oe) {
			return nil, err
		}
		return nil, bperrors.NewOpen(path, e.Name(), err)
	}
	logging.ContainerOpened(path, e.Name(), len(c.VariableNames()), len(c.AttributeNames()))
	return c, nil
}

// IsBPPath reports whether path looks like an ADIOS2 bp output: a BP4/BP5
// directory holding md.idx, or a BP3 file with a .bp suffix.
func IsBPPath(path string) bool {
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	if st.IsDir() {
		_, err := os.Stat(filepath.Join(path, "md.idx"))
		return err == nil
	}
	return strings.HasSuffix(path, ".bp")
}
