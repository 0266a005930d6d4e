package types

// FailureKind classifies why a case failed.
type FailureKind string

const (
	FailNone   FailureKind = ""
	FailExpect FailureKind = "expect" // one or more non-fatal checks failed
	FailAssert FailureKind = "assert" // a fatal check unwound the case body
	FailSanity FailureKind = "sanity" // a sanity check unwound the case and its suite
	FailError  FailureKind = "error"  // the body raised an error value; message retained
	FailPanic  FailureKind = "panic"  // the body raised a non-error value
)

// CaseInfo identifies a case before it runs.
type CaseInfo struct {
	Suite string `json:"suite"`
	Name  string `json:"name"`
	File  string `json:"file"`
	Line  int    `json:"line"`
}

// Path returns "suite/case" for display and filtering.
func (c CaseInfo) Path() string { return c.Suite + "/" + c.Name }

// CaseResult is the immutable record of a finished case. Exactly one is
// produced per executed case, once its body has returned or unwound.
type CaseResult struct {
	CaseInfo
	Status       Status      `json:"status"`
	Failure      FailureKind `json:"failure,omitempty"`
	Err          string      `json:"error,omitempty"` // failure detail: error message, panic value, or failed sanity expression
	Checks       int         `json:"checks"`
	ChecksFailed int         `json:"checksFailed"`
}

// Passed reports whether every check passed and the body returned normally.
func (c CaseResult) Passed() bool { return c.Status == StatusPass }
