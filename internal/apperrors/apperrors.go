// Package apperrors defines the error kinds shared by every bounded context.
//
// Context packages declare their own sentinels wrapping one of these kinds, so
// callers can either match the precise sentinel or just the kind:
//
//	var ErrNotFound = apperrors.New(apperrors.ErrNotFound, "order not found")
//	errors.Is(err, ports.ErrNotFound)      // precise
//	errors.Is(err, apperrors.ErrNotFound)  // kind
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns an error carrying msg that matches kind under errors.Is.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Newf is New with formatting.
func Newf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Validation is shorthand for a validation failure.
func Validation(msg string) error {
	return New(ErrValidation, msg)
}

// Kind reports which of the shared kinds err belongs to, or nil.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrUnauthorized, ErrForbidden, ErrInvalidState, ErrValidation, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
