// Package compare decides whether two bp containers hold equivalent data.
//
// Names are matched exactly. Floating point elements are compared with the
// all-close rule |a - b| <= atol + rtol*|b|, where b comes from the second
// (reference) container; integers and strings must be identical. Shape is
// checked before element type, and neither is subject to tolerance.
package compare

import (
	"math"
	"sort"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
	"github.com/FocuswithJustin/bpcmp/internal/logging"
)

// Compare walks the attributes and then the variables of left and right.
//
// Ignored names are recorded in Result.Skipped when present on either side
// and are never read. Read failures on a name both sides list become a
// MISMATCH for that name and the walk continues.
func Compare(left, right bp.Container, cfg Config) *Result {
	res := &Result{LeftPath: left.Path(), RightPath: right.Path()}

	walk(res, Attribute, left.AttributeNames(), right.AttributeNames(), toSet(cfg.IgnoreAtts),
		func(c bp.Container, name string) (bp.Value, error) { return c.ReadAttribute(name) },
		left, right, cfg)
	walk(res, Variable, left.VariableNames(), right.VariableNames(), toSet(cfg.IgnoreVars),
		func(c bp.Container, name string) (bp.Value, error) { return c.ReadVariable(name) },
		left, right, cfg)

	return res
}

type reader func(c bp.Container, name string) (bp.Value, error)

func walk(res *Result, entry Entry, leftNames, rightNames []string, ignore map[string]bool,
	read reader, left, right bp.Container, cfg Config) {

	inLeft := make(map[string]bool, len(leftNames))
	for _, n := range leftNames {
		inLeft[n] = true
	}
	inRight := make(map[string]bool, len(rightNames))
	for _, n := range rightNames {
		inRight[n] = true
	}

	union := make([]string, 0, len(leftNames)+len(rightNames))
	union = append(union, leftNames...)
	for _, n := range rightNames {
		if !inLeft[n] {
			union = append(union, n)
		}
	}
	sort.Strings(union)

	for _, name := range union {
		o := Outcome{Entry: entry, Name: name}
		switch {
		case ignore[name]:
			o.Status = Skipped
			res.Skipped = append(res.Skipped, o)
			continue
		case !inRight[name]:
			o.Status = OnlyInLeft
		case !inLeft[name]:
			o.Status = OnlyInRight
		default:
			compareEntry(&o, read, left, right, cfg)
		}
		res.Outcomes = append(res.Outcomes, o)
	}
}

func compareEntry(o *Outcome, read reader, left, right bp.Container, cfg Config) {
	a, errA := read(left, o.Name)
	b, errB := read(right, o.Name)
	if errA != nil || errB != nil {
		o.Status = Mismatch
		o.Reason = ReadFailed
		o.Err = bperrors.Join(readErr(o, left, errA), readErr(o, right, errB))
		return
	}
	Values(o, a, b, cfg)
}

func readErr(o *Outcome, c bp.Container, err error) error {
	if err == nil {
		return nil
	}
	logging.EntryReadError(o.Entry.String(), o.Name, c.Path(), err)
	var re *bperrors.ReadError
	if bperrors.As(err, &re) {
		return err
	}
	return bperrors.NewRead(o.Entry.String(), o.Name, c.Path(), err)
}

// Values compares actual (left) against reference (right) and fills o.
func Values(o *Outcome, actual, reference bp.Value, cfg Config) {
	*o = Outcome{Entry: o.Entry, Name: o.Name, Status: Match}
	o.LeftShape, o.RightShape = actual.Shape, reference.Shape
	o.LeftKind, o.RightKind = actual.Kind, reference.Kind

	if !actual.SameShape(reference) || actual.Len() != reference.Len() {
		o.Status, o.Reason = Mismatch, ShapeDiffers
		return
	}
	class := actual.Kind.Class()
	if class == bp.ClassInvalid || class != reference.Kind.Class() {
		o.Status, o.Reason = Mismatch, TypeDiffers
		return
	}

	n := actual.Len()
	o.Total = n
	found := false
	for i := 0; i < n; i++ {
		equal, diff := elementEqual(class, actual, reference, i, cfg)
		if diff > o.MaxAbsDiff {
			o.MaxAbsDiff = diff
		}
		if equal {
			continue
		}
		o.Status, o.Reason = Mismatch, ValueDiffers
		o.Count++
		if !found {
			found = true
			o.First = bp.Unravel(i, actual.Shape)
			o.FirstLeft, o.FirstRight = actual.Format(i), reference.Format(i)
		}
		if cfg.Verbosity == Silent {
			return
		}
		if cfg.Verbosity == Full {
			if cfg.MaxReported > 0 && len(o.Differences) >= cfg.MaxReported {
				o.Truncated = true
				continue
			}
			o.Differences = append(o.Differences, Difference{
				Index: bp.Unravel(i, actual.Shape),
				Left:  actual.Format(i),
				Right: reference.Format(i),
			})
		}
	}
}

// elementEqual compares element i and returns |a - b| for numeric classes
// when it is a finite number, otherwise zero.
func elementEqual(class bp.Class, a, b bp.Value, i int, cfg Config) (bool, float64) {
	switch class {
	case bp.ClassFloat:
		x, y := a.Float(i), b.Float(i)
		return cfg.Close(x, y), finiteDiff(x, y)
	case bp.ClassInteger:
		negA, magA := a.Integer(i)
		negB, magB := b.Integer(i)
		equal := magA == magB && (negA == negB || magA == 0)
		return equal, finiteDiff(a.Number(i), b.Number(i))
	case bp.ClassString:
		return a.Str(i) == b.Str(i), 0
	}
	return false, 0
}

func finiteDiff(x, y float64) float64 {
	d := math.Abs(x - y)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}
