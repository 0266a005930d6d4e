// Package registry keeps the process-wide, insertion-ordered record of
// statically declared test units. Declarations run during package
// initialization, which happens-before any run, so the registry needs no
// locking: it is written single-threaded at init time and read-only
// afterwards.
package registry

import (
	"fmt"

	"github.com/unitlab/unit/runner"
)

// Kind distinguishes the two chains a registry keeps.
type Kind int

const (
	// KindCase marks a standalone case, run under the implicit default suite.
	KindCase Kind = iota
	// KindSuite marks a suite declaration.
	KindSuite

	numKinds
)

// Unit is one statically declared case or suite. The declaration site owns
// the allocation; the registry links it into a chain without copying and
// holds non-owning references only.
type Unit struct {
	Kind  Kind
	Name  string
	File  string
	Line  int
	Case  runner.CaseFunc  // set when Kind == KindCase
	Suite runner.SuiteFunc // set when Kind == KindSuite

	next *Unit // intrusive chain link, managed by the registry
}

type chain struct {
	head *Unit
	tail **Unit
	n    int
}

func (c *chain) append(u *Unit) {
	if c.tail == nil {
		c.tail = &c.head
	}
	*c.tail = u
	c.tail = &u.next
	c.n++
}

// Registry holds insertion-ordered chains of declared units, one per kind.
// The first enumeration freezes it; registering afterwards panics.
type Registry struct {
	frozen bool
	chains [numKinds]chain
}

// New creates an empty registry. Most callers want Default; New exists for
// tests that need isolation from the process-wide chains.
func New() *Registry { return &Registry{} }

var defaultRegistry = New()

// Default returns the process-wide registry populated by static declarations.
func Default() *Registry { return defaultRegistry }

// Register links u into its kind's chain, appending at the tail in O(1).
// It panics when called after enumeration has begun, when the kind is
// unknown, or when the unit carries no body for its kind. Registration order
// within one source file follows declaration order; across files it follows
// the compiler's file initialization order.
func (r *Registry) Register(u *Unit) {
	if r.frozen {
		panic(fmt.Sprintf("registry: unit %q registered after enumeration has begun", u.Name))
	}
	switch u.Kind {
	case KindCase:
		if u.Case == nil {
			panic(fmt.Sprintf("registry: case %q has no body", u.Name))
		}
	case KindSuite:
		if u.Suite == nil {
			panic(fmt.Sprintf("registry: suite %q has no body", u.Name))
		}
	default:
		panic(fmt.Sprintf("registry: unit %q has unknown kind %d", u.Name, u.Kind))
	}
	r.chains[u.Kind].append(u)
}

// ForEach visits every registered unit of one kind in registration order,
// stopping early when visit returns false. The first call freezes the
// registry. An empty chain is a no-op.
func (r *Registry) ForEach(kind Kind, visit func(*Unit) bool) {
	r.frozen = true
	for u := r.chains[kind].head; u != nil; u = u.next {
		if !visit(u) {
			return
		}
	}
}

// Len returns the number of registered units of one kind. Like ForEach it
// freezes the registry.
func (r *Registry) Len(kind Kind) int {
	r.frozen = true
	return r.chains[kind].n
}

// Cases implements runner.Source.
func (r *Registry) Cases(visit func(runner.CaseDecl) bool) {
	r.ForEach(KindCase, func(u *Unit) bool {
		return visit(runner.CaseDecl{Name: u.Name, File: u.File, Line: u.Line, Fn: u.Case})
	})
}

// Suites implements runner.Source.
func (r *Registry) Suites(visit func(runner.SuiteDecl) bool) {
	r.ForEach(KindSuite, func(u *Unit) bool {
		return visit(runner.SuiteDecl{Name: u.Name, File: u.File, Line: u.Line, Fn: u.Suite})
	})
}

// Counts implements runner.Source.
func (r *Registry) Counts() (cases, suites int) {
	return r.Len(KindCase), r.Len(KindSuite)
}
