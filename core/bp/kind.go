package bp

import (
	"strings"

	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
)

// Kind is the element type of a Value.
type Kind uint8

const (
	Invalid Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	String
)

// Class groups kinds that compare against each other.
type Class uint8

const (
	ClassInvalid Class = iota
	ClassInteger
	ClassFloat
	ClassString
)

// kindNames are the ADIOS2 type spellings, as printed by bpls.
var kindNames = [...]string{
	Invalid: "invalid",
	Int8:    "int8_t",
	Int16:   "int16_t",
	Int32:   "int32_t",
	Int64:   "int64_t",
	Uint8:   "uint8_t",
	Uint16:  "uint16_t",
	Uint32:  "uint32_t",
	Uint64:  "uint64_t",
	Float32: "float",
	Float64: "double",
	String:  "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Class returns the comparison class of k.
func (k Kind) Class() Class {
	switch k {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return ClassInteger
	case Float32, Float64:
		return ClassFloat
	case String:
		return ClassString
	}
	return ClassInvalid
}

// Signed reports whether k is a signed integer kind.
func (k Kind) Signed() bool {
	return k >= Int8 && k <= Int64
}

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassFloat:
		return "float"
	case ClassString:
		return "string"
	}
	return "invalid"
}

// ParseKind maps an ADIOS2 type name to a Kind. Complex and long double
// element types are reported as unsupported.
func ParseKind(name string) (Kind, error) {
	n := strings.TrimSpace(name)
	switch n {
	case "char", "signed char", "int8":
		return Int8, nil
	case "unsigned char", "uint8":
		return Uint8, nil
	case "short", "int16":
		return Int16, nil
	case "unsigned short", "uint16":
		return Uint16, nil
	case "int", "int32":
		return Int32, nil
	case "unsigned int", "uint32":
		return Uint32, nil
	case "long long int", "int64":
		return Int64, nil
	case "unsigned long long int", "uint64":
		return Uint64, nil
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	}
	for k, s := range kindNames {
		if Kind(k) != Invalid && s == n {
			return Kind(k), nil
		}
	}
	return Invalid, bperrors.NewUnsupported("element type", n)
}
