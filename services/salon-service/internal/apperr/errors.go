// Package apperr holds the error classes shared by services, storage and handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid request")
)

// NotFound wraps ErrNotFound with a message safe to show clients.
func NotFound(msg string) error {
	return &Error{kind: ErrNotFound, msg: msg}
}

func Conflict(msg string) error {
	return &Error{kind: ErrConflict, msg: msg}
}

func Forbidden(msg string) error {
	return &Error{kind: ErrForbidden, msg: msg}
}

func Invalid(msg string) error {
	return &Error{kind: ErrInvalid, msg: msg}
}

// Error is a classified error whose message is meant for clients.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Message returns the client-facing text of a classified error, or fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.msg != "" {
		return e.msg
	}
	return fallback
}

// Wrapf annotates err while keeping its class.
func Wrapf(err error, format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, err)...)
}
