package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
)

// Error is the single error shape core operations fail with.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error   { return newError(KindNotFound, format, args...) }
func BadRequest(format string, args ...any) error { return newError(KindBadRequest, format, args...) }
func Forbidden(format string, args ...any) error  { return newError(KindForbidden, format, args...) }
func Conflict(format string, args ...any) error   { return newError(KindConflict, format, args...) }
func Unauthorized(format string, args ...any) error {
	return newError(KindUnauthorized, format, args...)
}

// KindOf returns the kind of a core error, or "" for anything else.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
