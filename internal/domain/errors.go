package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrDependency = errors.New("dependency failure")
)

// Error is a classified error naming the entity or field it concerns.
type Error struct {
	Kind   error
	Entity string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Entity != "" && e.Msg != "":
		msg = e.Entity + ": " + e.Msg
	case e.Entity != "":
		msg = e.Entity + ": " + e.Kind.Error()
	default:
		msg = e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validationf(entity, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Entity: entity, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id any) error {
	return &Error{Kind: ErrNotFound, Entity: entity, Msg: fmt.Sprintf("%v not found", id)}
}

func Conflictf(entity, format string, args ...any) error {
	return &Error{Kind: ErrConflict, Entity: entity, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(entity string) error {
	return &Error{Kind: ErrForbidden, Entity: entity, Msg: "caller is not the owner"}
}

// Dependency wraps a collaborator failure (blob store, profile service).
func Dependency(collaborator string, err error) error {
	return &Error{Kind: ErrDependency, Entity: collaborator, Msg: "unavailable", Err: err}
}
