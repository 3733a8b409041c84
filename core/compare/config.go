package compare

import (
	"math"
	"strconv"

	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
)

// Verbosity selects how much detail a comparison records and reports.
type Verbosity int

const (
	// Silent records only whether each entry matched.
	Silent Verbosity = iota
	// ErrorsOnly records mismatch counts, the first differing index and the
	// largest difference.
	ErrorsOnly
	// Full records every differing index with both values.
	Full
)

func (v Verbosity) String() string {
	switch v {
	case Silent:
		return "silent"
	case ErrorsOnly:
		return "errors-only"
	case Full:
		return "full"
	}
	return "Verbosity(" + strconv.Itoa(int(v)) + ")"
}

// ParseVerbosity maps the command line levels 0, 1 and 2.
func ParseVerbosity(level int) (Verbosity, error) {
	switch level {
	case 0:
		return Silent, nil
	case 1:
		return ErrorsOnly, nil
	case 2:
		return Full, nil
	}
	return Silent, bperrors.NewValidation("verbose", strconv.Itoa(level),
		"must be 0 (nothing), 1 (errors only) or 2 (everything)")
}

// Config holds the options of one comparison. It is not modified by Compare.
type Config struct {
	RelTol     float64
	AbsTol     float64
	Verbosity  Verbosity
	IgnoreAtts []string
	IgnoreVars []string
	// EqualNaN treats NaN at the same position in both values as equal.
	EqualNaN bool
	// MaxReported caps the per-index differences kept at Full verbosity;
	// zero keeps all of them.
	MaxReported int
}

// Validate rejects negative or non-finite tolerances and unknown verbosity.
func (c Config) Validate() error {
	if c.RelTol < 0 || math.IsNaN(c.RelTol) || math.IsInf(c.RelTol, 0) {
		return bperrors.NewValidation("rtol", strconv.FormatFloat(c.RelTol, 'g', -1, 64),
			"relative tolerance must be a finite non-negative number")
	}
	if c.AbsTol < 0 || math.IsNaN(c.AbsTol) || math.IsInf(c.AbsTol, 0) {
		return bperrors.NewValidation("atol", strconv.FormatFloat(c.AbsTol, 'g', -1, 64),
			"absolute tolerance must be a finite non-negative number")
	}
	if c.Verbosity < Silent || c.Verbosity > Full {
		return bperrors.NewValidation("verbose", c.Verbosity.String(), "unknown verbosity level")
	}
	if c.MaxReported < 0 {
		return bperrors.NewValidation("max-report", strconv.Itoa(c.MaxReported), "must not be negative")
	}
	return nil
}

// Close reports whether actual and reference are equal under the all-close
// rule |actual - reference| <= atol + rtol*|reference|.
func (c Config) Close(actual, reference float64) bool {
	if math.IsNaN(actual) || math.IsNaN(reference) {
		return c.EqualNaN && math.IsNaN(actual) && math.IsNaN(reference)
	}
	if actual == reference {
		// Covers equal infinities, whose difference is NaN.
		return true
	}
	if math.IsInf(actual, 0) || math.IsInf(reference, 0) {
		// An infinite reference would make the tolerance infinite.
		return false
	}
	return math.Abs(actual-reference) <= c.AbsTol+c.RelTol*math.Abs(reference)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
