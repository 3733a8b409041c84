// Package profile loads tolerance profiles for bpcmp.
//
// A profile is a small XML document whose elements are named after the
// command line flags they set:
//
//	<bpcmp>
//	  <rtol>1e-6</rtol>
//	  <verbose>1</verbose>
//	  <ignore-atts>
//	    <name>date</name>
//	    <name>hostname</name>
//	  </ignore-atts>
//	</bpcmp>
//
// List flags take either <name> children or a comma separated text value.
// Flags given on the command line override the profile.
package profile

import (
	"io"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
)

// Root is the document element of a profile.
const Root = "bpcmp"

var (
	settingsExpr = xpath.MustCompile("/" + Root + "/*")
	namesExpr    = xpath.MustCompile("name")
)

// Profile maps flag names to their textual values.
type Profile struct {
	values map[string]string
}

// Parse reads a profile document.
func Parse(r io.Reader) (*Profile, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &bperrors.ParseError{Format: "profile", Message: "malformed XML", Err: err}
	}
	root := xmlquery.FindOne(doc, "/*")
	if root == nil || root.Data != Root {
		found := ""
		if root != nil {
			found = root.Data
		}
		return nil, &bperrors.ParseError{Format: "profile",
			Message: "document element must be <" + Root + ">, found <" + found + ">"}
	}

	p := &Profile{values: make(map[string]string)}
	for _, n := range xmlquery.QuerySelectorAll(doc, settingsExpr) {
		if _, dup := p.values[n.Data]; dup {
			return nil, &bperrors.ParseError{Format: "profile", Message: "<" + n.Data + "> given twice"}
		}
		p.values[n.Data] = value(n)
	}
	return p, nil
}

func value(n *xmlquery.Node) string {
	names := xmlquery.QuerySelectorAll(n, namesExpr)
	if len(names) == 0 {
		return strings.TrimSpace(n.InnerText())
	}
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = strings.TrimSpace(name.InnerText())
	}
	return strings.Join(parts, ",")
}

// Lookup returns the value set for a flag.
func (p *Profile) Lookup(flag string) (string, bool) {
	v, ok := p.values[flag]
	return v, ok
}

// Settings returns the names of the flags the profile sets, sorted.
func (p *Profile) Settings() []string {
	out := make([]string, 0, len(p.values))
	for k := range p.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate rejects settings that do not name a flag of app.
func (p *Profile) Validate(app *kong.Application) error {
	known := make(map[string]bool)
	for _, f := range app.Flags {
		known[f.Name] = true
	}
	for _, name := range p.Settings() {
		if !known[name] {
			return bperrors.NewValidation("profile setting", name, "no such option")
		}
	}
	return nil
}

// Resolve supplies the profile value of flag, if any.
func (p *Profile) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	v, ok := p.values[flag.Name]
	if !ok {
		return nil, nil
	}
	return v, nil
}

// Loader is a kong.ConfigurationLoader for profile documents.
func Loader(r io.Reader) (kong.Resolver, error) {
	p, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return p, nil
}

var _ kong.ConfigurationLoader = Loader
