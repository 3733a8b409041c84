package main

import "strings"

// listFlags take one or more names in a single occurrence, as in
// "--ignore-vars time step".
var listFlags = map[string]bool{
	"--ignore-atts": true,
	"--ignore-vars": true,
}

// valueFlags consume the next argument when written without "=".
var valueFlags = map[string]bool{
	"-v":              true,
	"--verbose":       true,
	"-r":              true,
	"--rtol":          true,
	"-a":              true,
	"--atol":          true,
	"--max-report":    true,
	"--engine":        true,
	"--bpls":          true,
	"--adios2-config": true,
	"--profile":       true,
	"--log-level":     true,
	"--log-format":    true,
}

// normalizeArgs rewrites every multi-word list flag into one flag per name so
// the parser sees "--ignore-vars=time --ignore-vars=step". Names taken by a
// list flag are handed back as positional arguments when otherwise fewer than
// two outputs would remain, which lets "--ignore-vars x a.bp b.bp" work.
func normalizeArgs(args []string) []string {
	type group struct {
		flag  string
		words []string
	}
	var (
		items       []any // string or *group
		positionals int
	)
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			for _, rest := range args[i:] {
				items = append(items, rest)
			}
			positionals += len(args) - i - 1
			i = len(args)
		case listFlags[a]:
			g := &group{flag: a}
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				g.words = append(g.words, args[i])
			}
			items = append(items, g)
		case valueFlags[a]:
			items = append(items, a)
			if i+1 < len(args) {
				i++
				items = append(items, args[i])
			}
		default:
			if !strings.HasPrefix(a, "-") {
				positionals++
			}
			items = append(items, a)
		}
	}

	// Return trailing names to the positionals, last group first.
	var tail []string
	for j := len(items) - 1; j >= 0 && positionals+len(tail) < 2; j-- {
		g, ok := items[j].(*group)
		if !ok {
			continue
		}
		for len(g.words) > 1 && positionals+len(tail) < 2 {
			last := len(g.words) - 1
			tail = append([]string{g.words[last]}, tail...)
			g.words = g.words[:last]
		}
	}

	out := make([]string, 0, len(args))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case *group:
			if len(v.words) == 0 {
				out = append(out, v.flag)
			}
			for _, w := range v.words {
				out = append(out, v.flag+"="+w)
			}
		}
	}
	if len(tail) > 0 {
		// Tail names belong before any "--" section and after all flags.
		out = insertBeforeDashDash(out, tail)
	}
	return out
}

func insertBeforeDashDash(args, extra []string) []string {
	for i, a := range args {
		if a == "--" {
			out := append([]string{}, args[:i]...)
			out = append(out, extra...)
			return append(out, args[i:]...)
		}
	}
	return append(args, extra...)
}
