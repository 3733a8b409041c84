package bp

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Element is the set of Go types a Value can hold.
type Element interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64 | string
}

// Value is a typed scalar or N-dimensional array read from a container.
//
// The payload is always the slice type matching Kind, stored row-major.
// An empty Shape denotes a scalar holding exactly one element.
type Value struct {
	Kind  Kind
	Shape []uint64
	data  any
}

// New builds a Value from a shape and a row-major payload.
func New[T Element](shape []uint64, data []T) (Value, error) {
	k := kindOf(data)
	if want, ok := elementCount(shape); !ok || uint64(len(data)) != want {
		return Value{}, fmt.Errorf("shape %s does not hold %d elements", FormatShape(shape), len(data))
	}
	return Value{Kind: k, Shape: append([]uint64(nil), shape...), data: data}, nil
}

// MustNew is like New but panics on a shape/length mismatch.
func MustNew[T Element](shape []uint64, data []T) Value {
	v, err := New(shape, data)
	if err != nil {
		panic(err)
	}
	return v
}

// Scalar wraps a single element.
func Scalar[T Element](x T) Value {
	return Value{Kind: kindOf([]T{x}), data: []T{x}}
}

// Array wraps a one dimensional slice.
func Array[T Element](xs ...T) Value {
	return Value{Kind: kindOf(xs), Shape: []uint64{uint64(len(xs))}, data: xs}
}

func kindOf(data any) Kind {
	switch data.(type) {
	case []int8:
		return Int8
	case []int16:
		return Int16
	case []int32:
		return Int32
	case []int64:
		return Int64
	case []uint8:
		return Uint8
	case []uint16:
		return Uint16
	case []uint32:
		return Uint32
	case []uint64:
		return Uint64
	case []float32:
		return Float32
	case []float64:
		return Float64
	case []string:
		return String
	}
	return Invalid
}

// elementCount returns the number of elements shape holds. ok is false when
// the product does not fit in an int.
func elementCount(shape []uint64) (n uint64, ok bool) {
	n = 1
	for _, d := range shape {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 || lo > math.MaxInt {
			return 0, false
		}
		n = lo
	}
	return n, true
}

// IsScalar reports whether v has no dimensions.
func (v Value) IsScalar() bool { return len(v.Shape) == 0 }

// Len returns the number of elements.
func (v Value) Len() int {
	switch d := v.data.(type) {
	case []int8:
		return len(d)
	case []int16:
		return len(d)
	case []int32:
		return len(d)
	case []int64:
		return len(d)
	case []uint8:
		return len(d)
	case []uint16:
		return len(d)
	case []uint32:
		return len(d)
	case []uint64:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	case []string:
		return len(d)
	}
	return 0
}

// SameShape reports whether v and w have identical dimensionality and extents.
func (v Value) SameShape(w Value) bool {
	if len(v.Shape) != len(w.Shape) {
		return false
	}
	for i := range v.Shape {
		if v.Shape[i] != w.Shape[i] {
			return false
		}
	}
	return true
}

// Float returns element i of a float valued Value.
func (v Value) Float(i int) float64 {
	switch d := v.data.(type) {
	case []float32:
		return float64(d[i])
	case []float64:
		return d[i]
	}
	panic(fmt.Sprintf("bp: Float on %s value", v.Kind))
}

// Integer returns element i of an integer valued Value as sign and magnitude,
// so that every signed and unsigned width compares exactly.
func (v Value) Integer(i int) (neg bool, mag uint64) {
	var s int64
	switch d := v.data.(type) {
	case []int8:
		s = int64(d[i])
	case []int16:
		s = int64(d[i])
	case []int32:
		s = int64(d[i])
	case []int64:
		s = d[i]
	case []uint8:
		return false, uint64(d[i])
	case []uint16:
		return false, uint64(d[i])
	case []uint32:
		return false, uint64(d[i])
	case []uint64:
		return false, d[i]
	default:
		panic(fmt.Sprintf("bp: Integer on %s value", v.Kind))
	}
	if s < 0 {
		return true, uint64(-(s + 1)) + 1
	}
	return false, uint64(s)
}

// Str returns element i of a string valued Value.
func (v Value) Str(i int) string {
	if d, ok := v.data.([]string); ok {
		return d[i]
	}
	panic(fmt.Sprintf("bp: Str on %s value", v.Kind))
}

// Number returns element i of a numeric Value as float64.
func (v Value) Number(i int) float64 {
	switch v.Kind.Class() {
	case ClassFloat:
		return v.Float(i)
	case ClassInteger:
		neg, mag := v.Integer(i)
		if neg {
			return -float64(mag)
		}
		return float64(mag)
	}
	return math.NaN()
}

// Format renders element i.
func (v Value) Format(i int) string {
	switch v.Kind.Class() {
	case ClassString:
		return strconv.Quote(v.Str(i))
	case ClassFloat:
		bits := 64
		if v.Kind == Float32 {
			bits = 32
		}
		return strconv.FormatFloat(v.Float(i), 'g', -1, bits)
	case ClassInteger:
		neg, mag := v.Integer(i)
		s := strconv.FormatUint(mag, 10)
		if neg {
			s = "-" + s
		}
		return s
	}
	return "?"
}

// String renders the whole value: scalars bare, arrays bracketed per axis.
func (v Value) String() string {
	if v.IsScalar() {
		if v.Len() == 0 {
			return "<empty>"
		}
		return v.Format(0)
	}
	var sb strings.Builder
	idx := 0
	v.writeAxis(&sb, 0, &idx)
	return sb.String()
}

func (v Value) writeAxis(sb *strings.Builder, axis int, idx *int) {
	sb.WriteByte('[')
	for i := uint64(0); i < v.Shape[axis]; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if axis == len(v.Shape)-1 {
			sb.WriteString(v.Format(*idx))
			*idx++
		} else {
			v.writeAxis(sb, axis+1, idx)
		}
	}
	sb.WriteByte(']')
}

// FormatShape renders a shape as "scalar" or "{d0, d1, ...}" like bpls.
func FormatShape(shape []uint64) string {
	if len(shape) == 0 {
		return "scalar"
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.FormatUint(d, 10)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Unravel converts a flat row-major offset into a per-axis index.
func Unravel(flat int, shape []uint64) []uint64 {
	idx := make([]uint64, len(shape))
	rem := uint64(flat)
	for axis := len(shape) - 1; axis >= 0; axis-- {
		if shape[axis] == 0 {
			continue
		}
		idx[axis] = rem % shape[axis]
		rem /= shape[axis]
	}
	return idx
}

// FormatIndex renders a per-axis index as "(i,j,k)".
func FormatIndex(idx []uint64) string {
	parts := make([]string, len(idx))
	for i, d := range idx {
		parts[i] = strconv.FormatUint(d, 10)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// FromSlice builds a Value from an untyped payload produced by an engine.
// data must be one of the Element slice types.
func FromSlice(shape []uint64, data any) (Value, error) {
	k := kindOf(data)
	if k == Invalid {
		return Value{}, fmt.Errorf("unsupported payload type %T", data)
	}
	v := Value{Kind: k, Shape: append([]uint64(nil), shape...), data: data}
	if want, ok := elementCount(shape); !ok || uint64(v.Len()) != want {
		return Value{}, fmt.Errorf("shape %s does not hold %d elements", FormatShape(shape), v.Len())
	}
	return v, nil
}

// makeSlice allocates a zeroed payload of n elements of kind k.
func makeSlice(k Kind, n int) any {
	switch k {
	case Int8:
		return make([]int8, n)
	case Int16:
		return make([]int16, n)
	case Int32:
		return make([]int32, n)
	case Int64:
		return make([]int64, n)
	case Uint8:
		return make([]uint8, n)
	case Uint16:
		return make([]uint16, n)
	case Uint32:
		return make([]uint32, n)
	case Uint64:
		return make([]uint64, n)
	case Float32:
		return make([]float32, n)
	case Float64:
		return make([]float64, n)
	case String:
		return make([]string, n)
	}
	return nil
}
