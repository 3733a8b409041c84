// Package errors provides the error taxonomy shared by bpcmp and bpdump.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a container or entry was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrOpen indicates a container could not be opened
	ErrOpen = errors.New("cannot open container")
	// ErrRead indicates an entry could not be read from an open container
	ErrRead = errors.New("cannot read entry")
	// ErrUnsupported indicates an unsupported element type, engine or format
	ErrUnsupported = errors.New("unsupported")
	// ErrCorrupt indicates stored data failed its integrity check
	ErrCorrupt = errors.New("corrupt data")
)

// OpenError is fatal: the container at Path could not be opened at all.
type OpenError struct {
	Path   string // Container path
	Engine string // Engine that attempted the open, if one was selected
	Err    error  // Underlying error, if any
}

func (e *OpenError) Error() string {
	msg := fmt.Sprintf("cannot open %s", e.Path)
	if e.Engine != "" {
		msg += " with engine " + e.Engine
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpenError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrOpen, e.Err}
	}
	return []error{ErrOpen}
}

// ReadError reports a failure to read one named entry of an open container.
type ReadError struct {
	Entry string // "variable" or "attribute"
	Name  string // Entry name
	Path  string // Container path
	Err   error  // Underlying error
}

func (e *ReadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("cannot read %s %s from %s: %v", e.Entry, e.Name, e.Path, e.Err)
	}
	return fmt.Sprintf("cannot read %s %s: %v", e.Entry, e.Name, e.Err)
}

func (e *ReadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRead, e.Err}
	}
	return []error{ErrRead}
}

// ValidationError represents an invalid command line or profile setting.
type ValidationError struct {
	Field   string // Option name that failed validation
	Value   string // Offending value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ParseError represents a parsing error of tool output or a profile.
type ParseError struct {
	Format  string // Format being parsed (e.g., "bpls listing", "profile")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported element type, engine or format.
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// NewOpen creates an OpenError
func NewOpen(path, engine string, err error) *OpenError {
	return &OpenError{Path: path, Engine: engine, Err: err}
}

// NewRead creates a ReadError
func NewRead(entry, name, path string, err error) *ReadError {
	return &ReadError{Entry: entry, Name: name, Path: path, Err: err}
}

// NewValidation creates a ValidationError
func NewValidation(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{Format: format, Path: path, Message: message}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Reason: reason}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join wraps errors.Join for convenience
func Join(errs ...error) error {
	return errors.Join(errs...)
}
