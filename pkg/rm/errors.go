package rm

import (
	"errors"
	"fmt"
)

// Kind identifies the class of an error surfaced by a resource module run.
type Kind string

const (
	// KindInput indicates the caller supplied unusable input.
	KindInput Kind = "input"
	// KindParse indicates device configuration text could not be parsed.
	KindParse Kind = "parse"
	// KindRender indicates a command template failed to render.
	KindRender Kind = "render"
	// KindTransport indicates the device could not be read or written.
	KindTransport Kind = "transport"
)

// Error wraps an underlying error with its Kind and the module it came from.
type Error struct {
	Kind   Kind
	Module string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	prefix := string(e.Kind)
	if e.Module != "" {
		prefix = e.Module + ": " + prefix
	}
	if e.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

// Unwrap gives errors.Is/As access to the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Errorf creates an error of the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func withModule(err error, module string) error {
	var e *Error
	if errors.As(err, &e) && e.Module == "" {
		return &Error{Kind: e.Kind, Module: module, Err: e.Err}
	}
	return err
}
