package types

// CheckKind distinguishes the three check protocols.
type CheckKind string

const (
	// KindExpect flags the case failed on a failing check and continues.
	KindExpect CheckKind = "expect"
	// KindAssert aborts the current case on a failing check.
	KindAssert CheckKind = "assert"
	// KindSanity aborts the enclosing suite, or the whole session when no
	// suite is live, on a failing check. Passing sanity checks are silent.
	KindSanity CheckKind = "sanity"
)

// Aborts reports whether a failing check of this kind unwinds its scope.
func (k CheckKind) Aborts() bool { return k == KindAssert || k == KindSanity }

// Op is the comparison a check applies to its captured value. OpNone
// evaluates the value itself for truth. OpCall marks a predicate invocation;
// the rendered expression carries the call text.
type Op string

const (
	OpNone Op = ""
	OpEq   Op = "=="
	OpNe   Op = "!="
	OpLt   Op = "<"
	OpLe   Op = "<="
	OpGt   Op = ">"
	OpGe   Op = ">="
	OpCall Op = "()"
)

// CheckInfo identifies a check at its call site, before evaluation.
type CheckInfo struct {
	Suite string    `json:"suite"`
	Case  string    `json:"case,omitempty"` // empty for checks raised in suite setup or teardown
	Kind  CheckKind `json:"kind"`
	File  string    `json:"file"`
	Line  int       `json:"line"`
}

// CheckResult records one evaluated check. It is pushed to the Reporter and
// discarded; the engine never retains it past the active case.
type CheckResult struct {
	CheckInfo
	Op     Op     `json:"op,omitempty"`
	Expr   string `json:"expr"`
	Left   string `json:"left"`
	Right  string `json:"right,omitempty"`
	Passed bool   `json:"passed"`
	Diff   string `json:"diff,omitempty"`
}
