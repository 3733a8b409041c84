package bp

import (
	"sort"

	bperrors "github.com/FocuswithJustin/bpcmp/core/errors"
)

// Memory is an in-memory Container, used for tests and as the staging area
// when converting between engines.
type Memory struct {
	path       string
	variables  map[string]Value
	attributes map[string]Value
	closed     bool
}

// NewMemory creates an empty in-memory container named path.
func NewMemory(path string) *Memory {
	return &Memory{
		path:       path,
		variables:  make(map[string]Value),
		attributes: make(map[string]Value),
	}
}

// SetVariable stores a variable, replacing any previous value.
func (m *Memory) SetVariable(name string, v Value) *Memory {
	m.variables[name] = v
	return m
}

// SetAttribute stores an attribute, replacing any previous value.
func (m *Memory) SetAttribute(name string, v Value) *Memory {
	m.attributes[name] = v
	return m
}

func (m *Memory) Path() string   { return m.path }
func (m *Memory) Engine() string { return "memory" }

func (m *Memory) VariableNames() []string  { return sortedKeys(m.variables) }
func (m *Memory) AttributeNames() []string { return sortedKeys(m.attributes) }

func (m *Memory) ReadVariable(name string) (Value, error) {
	v, ok := m.variables[name]
	if !ok {
		return Value{}, bperrors.NewRead("variable", name, m.path, bperrors.ErrNotFound)
	}
	return v, nil
}

func (m *Memory) ReadAttribute(name string) (Value, error) {
	v, ok := m.attributes[name]
	if !ok {
		return Value{}, bperrors.NewRead("attribute", name, m.path, bperrors.ErrNotFound)
	}
	return v, nil
}

// Close marks the container closed. It is safe to call more than once.
func (m *Memory) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *Memory) Closed() bool { return m.closed }

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
