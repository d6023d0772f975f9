// Package toolerr defines the error kinds a tool call can fail with.
//
// Components return *Error values so the tool boundary can pick a status
// marker and wording without string matching.
package toolerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindMissingArgument Kind = "missing_argument"
	KindInvalidArgument Kind = "invalid_argument"
	KindPathRejected    Kind = "path_rejected"
	KindFilesystem      Kind = "filesystem"
	KindNotFound        Kind = "not_found"
	KindSpawn           Kind = "spawn"
	KindRender          Kind = "render"
	KindUnknownTool     Kind = "unknown_tool"
	KindInternal        Kind = "internal"
)

// Error carries a Kind alongside the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error from a message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Newf builds an *Error from a format string. %w verbs are preserved.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and op to err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Missing reports a required argument that was absent or empty.
func Missing(name string) *Error {
	return Newf(KindMissingArgument, "", "Missing required argument: %s", name)
}
