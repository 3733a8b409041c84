package bp

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/zeebo/blake3"
)

// Encode returns the canonical little-endian encoding of v's elements.
// Strings are encoded as a uvarint length followed by their bytes.
func Encode(v Value) []byte {
	var buf []byte
	switch d := v.data.(type) {
	case []int8:
		for _, x := range d {
			buf = append(buf, byte(x))
		}
	case []uint8:
		buf = append(buf, d...)
	case []int16:
		for _, x := range d {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(x))
		}
	case []uint16:
		for _, x := range d {
			buf = binary.LittleEndian.AppendUint16(buf, x)
		}
	case []int32:
		for _, x := range d {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(x))
		}
	case []uint32:
		for _, x := range d {
			buf = binary.LittleEndian.AppendUint32(buf, x)
		}
	case []int64:
		for _, x := range d {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(x))
		}
	case []uint64:
		for _, x := range d {
			buf = binary.LittleEndian.AppendUint64(buf, x)
		}
	case []float32:
		for _, x := range d {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
		}
	case []float64:
		for _, x := range d {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
		}
	case []string:
		for _, s := range d {
			buf = binary.AppendUvarint(buf, uint64(len(s)))
			buf = append(buf, s...)
		}
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(k Kind, shape []uint64, b []byte) (Value, error) {
	count, ok := elementCount(shape)
	if !ok {
		return Value{}, fmt.Errorf("shape %s is too large", FormatShape(shape))
	}
	n := int(count)
	width := map[Kind]int{
		Int8: 1, Uint8: 1, Int16: 2, Uint16: 2, Int32: 4, Uint32: 4,
		Int64: 8, Uint64: 8, Float32: 4, Float64: 8,
	}[k]
	switch {
	case k == String:
		// Every string takes at least its one byte length prefix.
		if n > len(b) {
			return Value{}, fmt.Errorf("string payload of %d bytes cannot hold %d elements", len(b), n)
		}
	case width == 0:
		return Value{}, fmt.Errorf("cannot decode %s elements", k)
	case len(b)%width != 0 || len(b)/width != n:
		return Value{}, fmt.Errorf("%s payload of %d bytes does not hold %d elements", k, len(b), n)
	}
	data := makeSlice(k, n)

	le := binary.LittleEndian
	switch d := data.(type) {
	case []int8:
		for i := range d {
			d[i] = int8(b[i])
		}
	case []uint8:
		copy(d, b)
	case []int16:
		for i := range d {
			d[i] = int16(le.Uint16(b[2*i:]))
		}
	case []uint16:
		for i := range d {
			d[i] = le.Uint16(b[2*i:])
		}
	case []int32:
		for i := range d {
			d[i] = int32(le.Uint32(b[4*i:]))
		}
	case []uint32:
		for i := range d {
			d[i] = le.Uint32(b[4*i:])
		}
	case []int64:
		for i := range d {
			d[i] = int64(le.Uint64(b[8*i:]))
		}
	case []uint64:
		for i := range d {
			d[i] = le.Uint64(b[8*i:])
		}
	case []float32:
		for i := range d {
			d[i] = math.Float32frombits(le.Uint32(b[4*i:]))
		}
	case []float64:
		for i := range d {
			d[i] = math.Float64frombits(le.Uint64(b[8*i:]))
		}
	case []string:
		off := 0
		for i := range d {
			l, sz := binary.Uvarint(b[off:])
			if sz <= 0 || uint64(len(b)-off-sz) < l {
				return Value{}, fmt.Errorf("truncated string element %d", i)
			}
			off += sz
			d[i] = string(b[off : off+int(l)])
			off += int(l)
		}
		if off != len(b) {
			return Value{}, fmt.Errorf("%d trailing bytes after string payload", len(b)-off)
		}
	}
	return FromSlice(shape, data)
}

// Digest returns the hex BLAKE3 digest of v's kind, shape and canonical encoding.
func Digest(v Value) string {
	h := blake3.New()
	_, _ = h.Write([]byte(v.Kind.String()))
	_, _ = h.Write([]byte(FormatShape(v.Shape)))
	_, _ = h.Write(Encode(v))
	return hex.EncodeToString(h.Sum(nil))
}

// ParseElements converts textual element values, as printed by ADIOS2 tools,
// into a Value of kind k.
func ParseElements(k Kind, shape []uint64, fields []string) (Value, error) {
	count, ok := elementCount(shape)
	if !ok || uint64(len(fields)) != count {
		return Value{}, fmt.Errorf("shape %s does not hold %d elements", FormatShape(shape), len(fields))
	}
	n := len(fields)
	data := makeSlice(k, n)
	var err error
	switch d := data.(type) {
	case []int8:
		err = parseInts(fields, 8, func(i int, x int64) { d[i] = int8(x) })
	case []int16:
		err = parseInts(fields, 16, func(i int, x int64) { d[i] = int16(x) })
	case []int32:
		err = parseInts(fields, 32, func(i int, x int64) { d[i] = int32(x) })
	case []int64:
		err = parseInts(fields, 64, func(i int, x int64) { d[i] = x })
	case []uint8:
		err = parseUints(fields, 8, func(i int, x uint64) { d[i] = uint8(x) })
	case []uint16:
		err = parseUints(fields, 16, func(i int, x uint64) { d[i] = uint16(x) })
	case []uint32:
		err = parseUints(fields, 32, func(i int, x uint64) { d[i] = uint32(x) })
	case []uint64:
		err = parseUints(fields, 64, func(i int, x uint64) { d[i] = x })
	case []float32:
		for i, f := range fields {
			var x float64
			if x, err = strconv.ParseFloat(f, 32); err != nil {
				break
			}
			d[i] = float32(x)
		}
	case []float64:
		for i, f := range fields {
			if d[i], err = strconv.ParseFloat(f, 64); err != nil {
				break
			}
		}
	case []string:
		copy(d, fields)
	default:
		return Value{}, fmt.Errorf("cannot parse %s elements", k)
	}
	if err != nil {
		return Value{}, err
	}
	return FromSlice(shape, data)
}

func parseInts(fields []string, bits int, set func(int, int64)) error {
	for i, f := range fields {
		x, err := strconv.ParseInt(f, 10, bits)
		if err != nil {
			return err
		}
		set(i, x)
	}
	return nil
}

func parseUints(fields []string, bits int, set func(int, uint64)) error {
	for i, f := range fields {
		x, err := strconv.ParseUint(f, 10, bits)
		if err != nil {
			return err
		}
		set(i, x)
	}
	return nil
}
