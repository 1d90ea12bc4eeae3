// Package domainerr classifies domain errors so the HTTP layer can pick a
// status code without knowing every sentinel in every package.
package domainerr

import "errors"

// Error classes. Match with errors.Is.
var (
	ErrInvalid   = errors.New("invalid")
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
)

type classified struct {
	class error
	msg   string
}

func (e *classified) Error() string { return e.msg }

func (e *classified) Is(target error) bool { return target == e.class }

// Invalid returns a sentinel that matches ErrInvalid (HTTP 400).
func Invalid(msg string) error { return &classified{class: ErrInvalid, msg: msg} }

// NotFound returns a sentinel that matches ErrNotFound (HTTP 404).
func NotFound(msg string) error { return &classified{class: ErrNotFound, msg: msg} }

// Conflict returns a sentinel that matches ErrConflict (HTTP 409).
func Conflict(msg string) error { return &classified{class: ErrConflict, msg: msg} }

// Forbidden returns a sentinel that matches ErrForbidden (HTTP 403).
func Forbidden(msg string) error { return &classified{class: ErrForbidden, msg: msg} }

// Class returns the class of err, or nil when err is unclassified.
func Class(err error) error {
	for _, c := range []error{ErrInvalid, ErrNotFound, ErrConflict, ErrForbidden} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
