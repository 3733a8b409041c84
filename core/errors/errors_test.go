package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestOpenError(t *testing.T) {
	tests := []struct {
		name    string
		err     *OpenError
		wantMsg string
	}{
		{
			name:    "with engine and cause",
			err:     &OpenError{Path: "out.bp", Engine: "bpls", Err: fs.ErrNotExist},
			wantMsg: "cannot open out.bp with engine bpls: file does not exist",
		},
		{
			name:    "path only",
			err:     &OpenError{Path: "out.bp"},
			wantMsg: "cannot open out.bp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrOpen) {
				t.Errorf("errors.Is(%v, ErrOpen) = false", tt.err)
			}
		})
	}

	t.Run("unwraps to cause", func(t *testing.T) {
		err := NewOpen("a.bp", "", fs.ErrNotExist)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Error("OpenError should unwrap to fs.ErrNotExist")
		}
	})
}

func TestReadError(t *testing.T) {
	cause := fmt.Errorf("truncated block")
	err := NewRead("variable", "temp", "a.bp", cause)

	want := "cannot read variable temp from a.bp: truncated block"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrRead) {
		t.Error("ReadError should match ErrRead")
	}
	if !errors.Is(err, cause) {
		t.Error("ReadError should unwrap to its cause")
	}

	noPath := &ReadError{Entry: "attribute", Name: "units", Err: cause}
	if got := noPath.Error(); got != "cannot read attribute units: truncated block" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     NewValidation("rtol", "-1", "must not be negative"),
			wantMsg: `invalid rtol "-1": must not be negative`,
		},
		{
			name:    "without field",
			err:     &ValidationError{Message: "two paths required"},
			wantMsg: "invalid configuration: two paths required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}
		})
	}
}

func TestParseError(t *testing.T) {
	err := NewParse("bpls listing", "out.bp", "unexpected token")
	if got := err.Error(); got != "failed to parse bpls listing at out.bp: unexpected token" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should match ErrInvalidInput")
	}

	inner := fmt.Errorf("bad xml")
	wrapped := &ParseError{Format: "profile", Message: "bad xml", Err: inner}
	if got := wrapped.Error(); got != "failed to parse profile: bad xml" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(wrapped, inner) {
		t.Error("ParseError should unwrap to its cause")
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("element type", "long double")
	if got := err.Error(); got != "unsupported element type: long double" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should match ErrUnsupported")
	}
	if got := (&UnsupportedError{Feature: "engine"}).Error(); got != "unsupported engine" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	base := errors.New("base")
	err := Wrapf(base, "reading %s", "temp")
	if err.Error() != "reading temp: base" {
		t.Errorf("Wrapf() = %q", err.Error())
	}
	if !Is(err, base) {
		t.Error("Is() should find wrapped error")
	}

	var re *ReadError
	joined := Join(base, NewRead("variable", "x", "", base))
	if !As(joined, &re) || re.Name != "x" {
		t.Error("As() should find ReadError inside joined error")
	}
}
