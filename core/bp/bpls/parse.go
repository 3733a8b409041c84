package bpls

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
)

// listingLine is one entry header as printed by bpls, for example
//
//	double    temp      3*{10, 20} = 0.5 / 9.5
//	int32_t   step      scalar = 4
//	string    title     attr   = "run"
//
//nolint:govet // participle grammar tags are not standard struct tags
type listingLine struct {
	Type   string     `@Word`
	Name   string     `@Word`
	Steps  *string    `( @Word "*" )?`
	Attr   bool       `( @"attr"`
	Scalar bool       `| @"scalar"`
	Dims   []string   `| "{" @Word ( "," @Word )* "}" )`
	Value  *valueExpr `( "=" @@ )?`
}

// valueExpr is the text after "=": an array, a single value, or a
// min / max pair.
//
//nolint:govet // participle grammar tags are not standard struct tags
type valueExpr struct {
	Array []string `  "{" ( @(String | Word) ( "," @(String | Word) )* )? "}"`
	First *string  `| @(String | Word)`
	Max   *string  `  ( "/" @Word )?`
}

// dataRow is one line of a bpls data dump: an index tuple followed by the
// elements starting at that index.
//
//nolint:govet // participle grammar tags are not standard struct tags
type dataRow struct {
	Index  []string `"(" @Word ( "," @Word )* ")"`
	Values []string `@(String | Word)*`
}

// bplsLexer tokenises bpls output. Slashes stay inside words so that
// hierarchical names like "group/var" lex as one token; a lone "/" between
// min and max lexes as its own word.
var bplsLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Punct", Pattern: `[{}(),=*]`},
	{Name: "Word", Pattern: `[^\s{}(),="*]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var (
	listingParser = participle.MustBuild[listingLine](
		participle.Lexer(bplsLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	rowParser = participle.MustBuild[dataRow](
		participle.Lexer(bplsLexer),
		participle.Elide("Whitespace"),
	)
)

// multiWordTypes are the bpls type spellings containing spaces. They are
// joined before lexing so the type stays a single token.
var multiWordTypes = []string{
	"unsigned long long int",
	"long long int",
	"unsigned long int",
	"long int",
	"unsigned int",
	"unsigned short",
	"unsigned char",
	"signed char",
	"long double",
	"float complex",
	"double complex",
}

func joinType(line string) string {
	for _, t := range multiWordTypes {
		if strings.HasPrefix(line, t+" ") {
			return strings.ReplaceAll(t, " ", "_") + line[len(t):]
		}
	}
	return line
}

func splitType(word string) string {
	for _, t := range multiWordTypes {
		if word == strings.ReplaceAll(t, " ", "_") {
			return t
		}
	}
	return word
}

// entry is what the listing says about one variable or attribute.
type entry struct {
	name     string
	typeName string
	kind     bp.Kind
	kindErr  error
	attr     bool
	steps    uint64
	dims     []uint64
	// values holds the listed value of an attribute.
	values []string
}

// shape returns the full shape of the entry, with a leading step axis when
// the variable has more than one step.
func (e *entry) shape() []uint64 {
	if e.steps > 1 {
		return append([]uint64{e.steps}, e.dims...)
	}
	return append([]uint64(nil), e.dims...)
}

// parseListing parses the output of "bpls -la".
func parseListing(path string, out []byte) ([]*entry, error) {
	var entries []*entry
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "File info:") {
			continue
		}
		e, err := parseHeader(line)
		if err != nil {
			return nil, parseError("bpls listing", path,
				"line "+strconv.Itoa(lineNo)+": "+line, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, parseError("bpls listing", path, "read output", err)
	}
	return entries, nil
}

func parseHeader(line string) (*entry, error) {
	parsed, err := listingParser.ParseString("", normalize(joinType(line)))
	if err != nil {
		return nil, err
	}
	e := &entry{
		name:     parsed.Name,
		typeName: splitType(parsed.Type),
		attr:     parsed.Attr,
	}
	e.kind, e.kindErr = bp.ParseKind(e.typeName)
	if parsed.Steps != nil {
		if e.steps, err = strconv.ParseUint(*parsed.Steps, 10, 64); err != nil {
			return nil, err
		}
	}
	for _, d := range parsed.Dims {
		n, err := strconv.ParseUint(d, 10, 64)
		if err != nil {
			return nil, err
		}
		e.dims = append(e.dims, n)
	}
	if v := parsed.Value; v != nil {
		switch {
		case v.Array != nil:
			e.values = unquoteAll(v.Array)
			if e.attr {
				e.dims = []uint64{uint64(len(e.values))}
			}
		case v.First != nil && v.Max == nil:
			e.values = unquoteAll([]string{*v.First})
		}
	}
	return e, nil
}

// parseDump parses the output of "bpls -d" for a single entry and returns
// its elements in row-major order. attr selects the attribute or the
// variable when both carry name.
func parseDump(path, name string, attr bool, out []byte) ([]string, error) {
	var values []string
	var header *entry
	// other is set while reading an entry of the other sort with the same
	// name, which "bpls -a" prints alongside the attribute.
	other := false
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fail := func(err error) error {
			return parseError("bpls dump", path,
				name+" line "+strconv.Itoa(lineNo)+": "+line, err)
		}
		if strings.HasPrefix(line, "(") {
			if other {
				continue
			}
			row, err := rowParser.ParseString("", normalize(line))
			if err != nil {
				return nil, fail(err)
			}
			values = append(values, unquoteAll(row.Values)...)
			continue
		}
		h, err := parseHeader(line)
		if err != nil {
			return nil, fail(err)
		}
		if other = h.attr != attr; other {
			continue
		}
		if header != nil {
			return nil, fail(bperrors.ErrInvalidInput)
		}
		header = h
	}
	if err := sc.Err(); err != nil {
		return nil, parseError("bpls dump", path, "read output", err)
	}
	if header == nil {
		return nil, parseError("bpls dump", path, name+": no header", bperrors.ErrNotFound)
	}
	if len(values) == 0 {
		return header.values, nil
	}
	return values, nil
}

// negNaN matches the "-nan" spelling glibc prints for negative NaNs.
var negNaN = regexp.MustCompile(`(^|[\s{(,])-nan\b`)

// normalize rewrites value spellings strconv does not accept.
func normalize(line string) string {
	return negNaN.ReplaceAllString(line, "${1}nan")
}

func unquoteAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = unquote(f)
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

func parseError(format, path, message string, err error) error {
	return &bperrors.ParseError{Format: format, Path: path, Message: message, Err: err}
}
