package compare

import "github.com/FocuswithJustin/bpcmp/core/bp"

// Status is the outcome of comparing one named entry.
type Status int

const (
	Match Status = iota
	Mismatch
	Skipped
	OnlyInLeft
	OnlyInRight
)

func (s Status) String() string {
	switch s {
	case Match:
		return "MATCH"
	case Mismatch:
		return "MISMATCH"
	case Skipped:
		return "SKIPPED"
	case OnlyInLeft:
		return "ONLY-IN-LEFT"
	case OnlyInRight:
		return "ONLY-IN-RIGHT"
	}
	return "UNKNOWN"
}

// Entry distinguishes variables from attributes.
type Entry int

const (
	Attribute Entry = iota
	Variable
)

func (e Entry) String() string {
	if e == Variable {
		return "variable"
	}
	return "attribute"
}

// Reason classifies a mismatch.
type Reason int

const (
	NoReason Reason = iota
	ShapeDiffers
	TypeDiffers
	ValueDiffers
	ReadFailed
)

func (r Reason) String() string {
	switch r {
	case ShapeDiffers:
		return "shape"
	case TypeDiffers:
		return "type"
	case ValueDiffers:
		return "value"
	case ReadFailed:
		return "read"
	}
	return ""
}

// Difference is one differing element.
type Difference struct {
	Index []uint64
	Left  string
	Right string
}

// Outcome records the comparison of one name.
type Outcome struct {
	Entry  Entry
	Name   string
	Status Status
	Reason Reason

	// Shapes and kinds of both sides, set once both were read.
	LeftShape, RightShape []uint64
	LeftKind, RightKind   bp.Kind

	// Count is the number of differing elements. At Silent verbosity the
	// comparison stops at the first difference, so Count is at most one.
	Count int
	// Total is the number of elements compared.
	Total int
	// First is the index of the first differing element, FirstLeft and
	// FirstRight its rendered values.
	First                 []uint64
	FirstLeft, FirstRight string
	// MaxAbsDiff is the largest |left - right| over numeric elements.
	MaxAbsDiff float64
	// Differences lists differing elements at Full verbosity.
	Differences []Difference
	// Truncated is set when Differences was capped.
	Truncated bool

	// Err is the read failure when Reason is ReadFailed.
	Err error
}

// Result is the outcome of a whole comparison.
type Result struct {
	LeftPath  string
	RightPath string
	// Outcomes lists every compared or presence-mismatched name, attributes
	// first, each group sorted by name. Ignored names never appear here.
	Outcomes []Outcome
	// Skipped lists ignored names that were present in either container.
	Skipped []Outcome
}

// Counts summarises a Result.
type Counts struct {
	Compared   int
	Matched    int
	Mismatched int
	Skipped    int
	OneSided   int
}

// Counts tallies the outcomes.
func (r *Result) Counts() Counts {
	c := Counts{Skipped: len(r.Skipped)}
	for _, o := range r.Outcomes {
		switch o.Status {
		case Match:
			c.Compared++
			c.Matched++
		case Mismatch:
			c.Compared++
			c.Mismatched++
		case OnlyInLeft, OnlyInRight:
			c.OneSided++
		}
	}
	return c
}

// Differences returns the number of non-matching outcomes.
func (r *Result) Differences() int {
	c := r.Counts()
	return c.Mismatched + c.OneSided
}

// Pass reports whether every compared name matched and no non-ignored name
// was present on one side only.
func (r *Result) Pass() bool {
	return r.Differences() == 0
}

// Lookup finds the outcome for a name, including skipped names.
func (r *Result) Lookup(e Entry, name string) (Outcome, bool) {
	for _, list := range [][]Outcome{r.Outcomes, r.Skipped} {
		for _, o := range list {
			if o.Entry == e && o.Name == name {
				return o, true
			}
		}
	}
	return Outcome{}, false
}
