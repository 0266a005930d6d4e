package unit

import (
	"errors"
	"fmt"
)

// The process distinguishes two failure classes so callers and scripts can
// tell "the tests found a bug" apart from "the runner itself broke".
// TestFailureError maps to exit code 1, RuntimeError to exit code 2.

// TestFailureError reports a session that ran to a verdict and the verdict
// was bad: one or more cases failed, or a fatal sanity check cut the
// session short.
type TestFailureError struct {
	Message string
}

func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

func (e *TestFailureError) Error() string {
	return "test failure: " + e.Message
}

// RuntimeError reports an operational problem that prevented a verdict:
// bad configuration, an unreadable plan file, a panicking executor.
type RuntimeError struct {
	Err error
}

func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsTestFailureError reports whether err is or wraps a TestFailureError.
func IsTestFailureError(err error) bool {
	return errAs[*TestFailureError](err)
}

// IsRuntimeError reports whether err is or wraps a RuntimeError.
func IsRuntimeError(err error) bool {
	return errAs[*RuntimeError](err)
}

func errAs[T error](err error) bool {
	if err == nil {
		return false
	}
	var target T
	return errors.As(err, &target)
}
