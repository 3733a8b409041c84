//go:build adios2 && cgo

package adios2

/*
#cgo LDFLAGS: -ladios2_c
#include <stdlib.h>
#include <adios2_c.h>

static char *name_at(char **names, size_t i) { return names[i]; }
static char *string_buffer(size_t n) { return calloc(n, adios2_string_array_element_max_size); }
static char *string_at(char *buf, size_t i) { return buf + i * adios2_string_array_element_max_size; }
static void *string_slots(char *buf, size_t n) {
	char **slots = malloc(n * sizeof(char *));
	for (size_t i = 0; i < n; i++) slots[i] = buf + i * adios2_string_array_element_max_size;
	return slots;
}
*/
import "C"

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/bpcmp/core/bp"
	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
)

// EngineName is the name used with --engine.
const EngineName = "adios2"

// Priority prefers the native library over bpls.
const Priority = 50

// Engine is the ADIOS2 storage engine.
type Engine struct{}

func init() {
	bp.Register(Engine{}, Priority)
}

func (Engine) Name() string { return EngineName }

func (Engine) Detect(path string, _ bp.Options) bool {
	return bp.IsBPPath(path)
}

// Open opens path in random access mode so every step is readable.
func (Engine) Open(path string, opts bp.Options) (bp.Container, error) {
	c := &container{path: path}
	if opts.ConfigFile != "" {
		cfg := C.CString(opts.ConfigFile)
		defer C.free(unsafe.Pointer(cfg))
		c.adios = C.adios2_init_config_serial(cfg)
	} else {
		c.adios = C.adios2_init_serial()
	}
	if c.adios == nil {
		return nil, bperrors.NewOpen(path, EngineName, fmt.Errorf("adios2 initialisation failed"))
	}

	// IO names are global to an adios handle; a fresh one per open keeps
	// runtime XML sections from matching by accident.
	c.ioName = "bpcmp-" + uuid.NewString()
	ioName := C.CString(c.ioName)
	defer C.free(unsafe.Pointer(ioName))
	c.io = C.adios2_declare_io(c.adios, ioName)
	if c.io == nil {
		c.release()
		return nil, bperrors.NewOpen(path, EngineName, fmt.Errorf("adios2_declare_io failed"))
	}

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	c.engine = C.adios2_open(c.io, cpath, C.adios2_mode_readRandomAccess)
	if c.engine == nil {
		c.release()
		return nil, bperrors.NewOpen(path, EngineName, fmt.Errorf("adios2_open failed"))
	}

	c.vars = listNames(func(n *C.size_t) **C.char { return C.adios2_available_variables(c.io, n) })
	c.attrs = listNames(func(n *C.size_t) **C.char { return C.adios2_available_attributes(c.io, n) })
	return c, nil
}

type container struct {
	path   string
	ioName string
	adios  *C.adios2_adios
	io     *C.adios2_io
	engine *C.adios2_engine
	vars   []string
	attrs  []string
}

func listNames(list func(*C.size_t) **C.char) []string {
	var n C.size_t
	names := list(&n)
	if names == nil {
		return nil
	}
	defer C.free(unsafe.Pointer(names))
	out := make([]string, 0, int(n))
	for i := C.size_t(0); i < n; i++ {
		p := C.name_at(names, i)
		out = append(out, C.GoString(p))
		C.free(unsafe.Pointer(p))
	}
	sort.Strings(out)
	return out
}

func (c *container) Path() string   { return c.path }
func (c *container) Engine() string { return EngineName }

func (c *container) VariableNames() []string  { return c.vars }
func (c *container) AttributeNames() []string { return c.attrs }

func kindOf(t C.adios2_type) (bp.Kind, error) {
	switch t {
	case C.adios2_type_int8_t:
		return bp.Int8, nil
	case C.adios2_type_int16_t:
		return bp.Int16, nil
	case C.adios2_type_int32_t:
		return bp.Int32, nil
	case C.adios2_type_int64_t:
		return bp.Int64, nil
	case C.adios2_type_uint8_t:
		return bp.Uint8, nil
	case C.adios2_type_uint16_t:
		return bp.Uint16, nil
	case C.adios2_type_uint32_t:
		return bp.Uint32, nil
	case C.adios2_type_uint64_t:
		return bp.Uint64, nil
	case C.adios2_type_float:
		return bp.Float32, nil
	case C.adios2_type_double:
		return bp.Float64, nil
	case C.adios2_type_string:
		return bp.String, nil
	case C.adios2_type_float_complex:
		return bp.Invalid, bperrors.NewUnsupported("element type", "float complex")
	case C.adios2_type_double_complex:
		return bp.Invalid, bperrors.NewUnsupported("element type", "double complex")
	case C.adios2_type_long_double:
		return bp.Invalid, bperrors.NewUnsupported("element type", "long double")
	}
	return bp.Invalid, bperrors.NewUnsupported("element type", fmt.Sprintf("adios2 type %d", int(t)))
}

func check(call string, rc C.adios2_error) error {
	if rc != C.adios2_error_none {
		return fmt.Errorf("%s failed with adios2 error %d", call, int(rc))
	}
	return nil
}

func (c *container) ReadVariable(name string) (bp.Value, error) {
	v, err := c.readVariable(name)
	if err != nil {
		return bp.Value{}, bperrors.NewRead("variable", name, c.path, err)
	}
	return v, nil
}

func (c *container) readVariable(name string) (bp.Value, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	v := C.adios2_inquire_variable(c.io, cname)
	if v == nil {
		return bp.Value{}, bperrors.ErrNotFound
	}

	var typ C.adios2_type
	if err := check("adios2_variable_type", C.adios2_variable_type(&typ, v)); err != nil {
		return bp.Value{}, err
	}
	kind, err := kindOf(typ)
	if err != nil {
		return bp.Value{}, err
	}

	var ndims, steps C.size_t
	if err := check("adios2_variable_ndims", C.adios2_variable_ndims(&ndims, v)); err != nil {
		return bp.Value{}, err
	}
	if err := check("adios2_variable_steps", C.adios2_variable_steps(&steps, v)); err != nil {
		return bp.Value{}, err
	}
	dims := make([]C.size_t, int(ndims))
	if ndims > 0 {
		if err := check("adios2_variable_shape", C.adios2_variable_shape(&dims[0], v)); err != nil {
			return bp.Value{}, err
		}
		start := make([]C.size_t, int(ndims))
		if err := check("adios2_set_selection",
			C.adios2_set_selection(v, ndims, &start[0], &dims[0])); err != nil {
			return bp.Value{}, err
		}
	}

	perStep := 1
	var shape []uint64
	if steps > 1 {
		shape = append(shape, uint64(steps))
	}
	for _, d := range dims {
		perStep *= int(d)
		shape = append(shape, uint64(d))
	}
	nsteps := int(steps)
	if nsteps < 1 {
		nsteps = 1
	}
	total := perStep * nsteps

	if kind == bp.String {
		return c.readStrings(v, shape, nsteps)
	}

	data := makeSlice(kind, total)
	elem := elementSize(kind)
	base := dataPointer(data)
	for s := 0; s < nsteps; s++ {
		if err := check("adios2_set_step_selection",
			C.adios2_set_step_selection(v, C.size_t(s), 1)); err != nil {
			return bp.Value{}, err
		}
		if perStep == 0 {
			continue
		}
		dst := unsafe.Add(base, s*perStep*elem)
		if err := check("adios2_get", C.adios2_get(c.engine, v, dst, C.adios2_mode_sync)); err != nil {
			return bp.Value{}, err
		}
	}
	return bp.FromSlice(shape, data)
}

func (c *container) readStrings(v *C.adios2_variable, shape []uint64, nsteps int) (bp.Value, error) {
	buf := C.string_buffer(1)
	defer C.free(unsafe.Pointer(buf))
	out := make([]string, nsteps)
	for s := 0; s < nsteps; s++ {
		if err := check("adios2_set_step_selection",
			C.adios2_set_step_selection(v, C.size_t(s), 1)); err != nil {
			return bp.Value{}, err
		}
		if err := check("adios2_get",
			C.adios2_get(c.engine, v, unsafe.Pointer(buf), C.adios2_mode_sync)); err != nil {
			return bp.Value{}, err
		}
		out[s] = C.GoString(buf)
	}
	return bp.FromSlice(shape, out)
}

func (c *container) ReadAttribute(name string) (bp.Value, error) {
	v, err := c.readAttribute(name)
	if err != nil {
		return bp.Value{}, bperrors.NewRead("attribute", name, c.path, err)
	}
	return v, nil
}

func (c *container) readAttribute(name string) (bp.Value, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	a := C.adios2_inquire_attribute(c.io, cname)
	if a == nil {
		return bp.Value{}, bperrors.ErrNotFound
	}

	var typ C.adios2_type
	if err := check("adios2_attribute_type", C.adios2_attribute_type(&typ, a)); err != nil {
		return bp.Value{}, err
	}
	kind, err := kindOf(typ)
	if err != nil {
		return bp.Value{}, err
	}
	var isValue C.adios2_bool
	if err := check("adios2_attribute_is_value", C.adios2_attribute_is_value(&isValue, a)); err != nil {
		return bp.Value{}, err
	}
	var size C.size_t
	if err := check("adios2_attribute_size", C.adios2_attribute_size(&size, a)); err != nil {
		return bp.Value{}, err
	}
	var shape []uint64
	if isValue != C.adios2_true {
		shape = []uint64{uint64(size)}
	}
	n := int(size)
	if n == 0 {
		return bp.FromSlice(shape, makeSlice(kind, 0))
	}

	var got C.size_t
	if kind == bp.String {
		buf := C.string_buffer(size)
		defer C.free(unsafe.Pointer(buf))
		target := unsafe.Pointer(buf)
		if isValue != C.adios2_true {
			slots := C.string_slots(buf, size)
			defer C.free(slots)
			target = slots
		}
		if err := check("adios2_attribute_data", C.adios2_attribute_data(target, &got, a)); err != nil {
			return bp.Value{}, err
		}
		out := make([]string, n)
		for i := range out {
			out[i] = C.GoString(C.string_at(buf, C.size_t(i)))
		}
		return bp.FromSlice(shape, out)
	}

	data := makeSlice(kind, n)
	if err := check("adios2_attribute_data",
		C.adios2_attribute_data(dataPointer(data), &got, a)); err != nil {
		return bp.Value{}, err
	}
	return bp.FromSlice(shape, data)
}

// Close closes the engine and releases the adios handle.
func (c *container) Close() error {
	var err error
	if c.engine != nil {
		err = check("adios2_close", C.adios2_close(c.engine))
		c.engine = nil
	}
	c.release()
	return err
}

func (c *container) release() {
	if c.adios != nil {
		C.adios2_finalize(c.adios)
		c.adios = nil
		c.io = nil
	}
}

func makeSlice(k bp.Kind, n int) any {
	switch k {
	case bp.Int8:
		return make([]int8, n)
	case bp.Int16:
		return make([]int16, n)
	case bp.Int32:
		return make([]int32, n)
	case bp.Int64:
		return make([]int64, n)
	case bp.Uint8:
		return make([]uint8, n)
	case bp.Uint16:
		return make([]uint16, n)
	case bp.Uint32:
		return make([]uint32, n)
	case bp.Uint64:
		return make([]uint64, n)
	case bp.Float32:
		return make([]float32, n)
	case bp.Float64:
		return make([]float64, n)
	}
	return make([]string, n)
}

func elementSize(k bp.Kind) int {
	switch k {
	case bp.Int8, bp.Uint8:
		return 1
	case bp.Int16, bp.Uint16:
		return 2
	case bp.Int32, bp.Uint32, bp.Float32:
		return 4
	}
	return 8
}

// dataPointer returns the address of the first element of a numeric slice
// made by makeSlice with at least one element.
func dataPointer(data any) unsafe.Pointer {
	switch d := data.(type) {
	case []int8:
		return unsafe.Pointer(unsafe.SliceData(d))
	case []int16:
		return unsafe.Pointer(unsafe.SliceData(d))
	case []int32:
		return unsafe.Pointer(unsafe.SliceData(d))
	case []int64:
		return unsafe.Pointer(unsafe.SliceData(d))
	case []uint8:
		return unsafe.Pointer(unsafe.SliceData(d))
	case []uint16:
		return unsafe.Pointer(unsafe.SliceData(d))
	case []uint32:
		return unsafe.Pointer(unsafe.SliceData(d))
	case []uint64:
		return unsafe.Pointer(unsafe.SliceData(d))
	case []float32:
		return unsafe.Pointer(unsafe.SliceData(d))
	case []float64:
		return unsafe.Pointer(unsafe.SliceData(d))
	}
	return nil
}
