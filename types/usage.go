package types

import (
	"errors"
	"fmt"
)

// ErrNotFinished is returned when a finished-scope view is requested from a
// scope that is still running.
var ErrNotFinished = errors.New("scope has not finished")

// UsageErrorKind identifies a misuse of the engine API.
type UsageErrorKind string

const (
	// UsageEarlyRead marks a finished-scope view read before the scope
	// completed.
	UsageEarlyRead UsageErrorKind = "early_read"
	// UsageFileMismatch marks a case declared in a different file than its
	// suite's first observed case.
	UsageFileMismatch UsageErrorKind = "file_mismatch"
	// UsageDuplicateCase marks a case identity already executed within one
	// discovery pass-set.
	UsageDuplicateCase UsageErrorKind = "duplicate_case"
	// UsageAssertOutsideCase marks a failing fatal check raised from suite
	// setup or teardown, where no case is live.
	UsageAssertOutsideCase UsageErrorKind = "assert_outside_case"
	// UsageStaleScope marks a check raised through a handle whose scope
	// already finished.
	UsageStaleScope UsageErrorKind = "stale_scope"
	// UsageDanglingCheck marks a check builder that reached the end of its
	// case without a terminal comparison.
	UsageDanglingCheck UsageErrorKind = "dangling_check"
	// UsageNestedCase marks a case declared inside another case's body.
	UsageNestedCase UsageErrorKind = "nested_case"
	// UsageBadPredicate marks a call-form check whose predicate is not a
	// func returning bool, or whose arguments do not fit its signature.
	UsageBadPredicate UsageErrorKind = "bad_predicate"
)

// UsageError describes a misuse of the engine detected while running. Usage
// errors are pushed to the Reporter and never abort unrelated work.
type UsageError struct {
	Kind   UsageErrorKind `json:"kind"`
	Scope  string         `json:"scope"` // "session", a suite name, or a suite/case path
	Detail string         `json:"detail"`
	File   string         `json:"file,omitempty"`
	Line   int            `json:"line,omitempty"`
}

func (e UsageError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("usage error (%s) at %s:%d in %s: %s", e.Kind, e.File, e.Line, e.Scope, e.Detail)
	}
	return fmt.Sprintf("usage error (%s) in %s: %s", e.Kind, e.Scope, e.Detail)
}
