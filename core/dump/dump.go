// Package dump prints the contents of a bp container for people.
package dump

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
	"github.com/FocuswithJustin/bpcmp/internal/logging"
)

// DefaultWidth is the column the value starts at.
const DefaultWidth = 32

// Suffixes of annotation entries printed beneath the entry they describe.
var annotations = []string{"/description", "/units"}

// Options control what Dump prints.
type Options struct {
	// Data prints the full contents of variables instead of type and shape.
	Data bool
	// Digest adds the BLAKE3 digest of every entry.
	Digest bool
	// Width is the name column width; zero means DefaultWidth.
	Width int
}

type key struct {
	name string
	attr bool
}

// Dump writes one block per attribute and variable of c, sorted by name.
// Read failures are printed in place and returned joined once the listing
// is complete.
func Dump(w io.Writer, c bp.Container, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	d := &dumper{w: w, c: c, opts: opts, present: make(map[string]key)}

	var keys []key
	for _, n := range c.AttributeNames() {
		keys = append(keys, key{name: n, attr: true})
	}
	for _, n := range c.VariableNames() {
		keys = append(keys, key{name: n})
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].attr && !keys[j].attr
	})
	for _, k := range keys {
		if _, seen := d.present[k.name]; !seen {
			d.present[k.name] = k
		}
	}

	last := ""
	for i, k := range keys {
		if d.isAnnotation(k.name) {
			continue
		}
		if i == 0 || k.name != last {
			for _, suffix := range annotations {
				if a, ok := d.present[k.name+suffix]; ok {
					d.entry(a, false)
				}
			}
		}
		last = k.name
		d.entry(k, true)
		fmt.Fprintln(w)
	}
	return bperrors.Join(d.errs...)
}

type dumper struct {
	w       io.Writer
	c       bp.Container
	opts    Options
	present map[string]key
	errs    []error
}

// isAnnotation reports whether name describes another entry that exists.
// Annotations without a parent are printed as ordinary entries.
func (d *dumper) isAnnotation(name string) bool {
	for _, suffix := range annotations {
		if parent, ok := strings.CutSuffix(name, suffix); ok {
			if _, exists := d.present[parent]; exists {
				return true
			}
		}
	}
	return false
}

func (d *dumper) entry(k key, main bool) {
	var v bp.Value
	var err error
	if k.attr {
		v, err = d.c.ReadAttribute(k.name)
	} else {
		v, err = d.c.ReadVariable(k.name)
	}
	if err != nil {
		entry := "variable"
		if k.attr {
			entry = "attribute"
		}
		logging.EntryReadError(entry, k.name, d.c.Path(), err)
		d.errs = append(d.errs, err)
		d.line(k.name, "<read error: "+err.Error()+">")
		return
	}

	switch {
	case k.attr || !main || d.opts.Data:
		d.line(k.name, v.String())
	default:
		d.line(k.name, v.Kind.String()+" "+bp.FormatShape(v.Shape))
	}
	if d.opts.Digest {
		d.line("", "blake3 "+bp.Digest(v))
	}
}

func (d *dumper) line(name, text string) {
	fmt.Fprintf(d.w, "%-*s%s\n", d.opts.Width, name, text)
}
