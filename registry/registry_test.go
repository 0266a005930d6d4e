package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitlab/unit/runner"
)

func caseUnit(name string) *Unit {
	return &Unit{Kind: KindCase, Name: name, File: "demo_test.go", Line: 1, Case: func(*runner.T) {}}
}

func suiteUnit(name string) *Unit {
	return &Unit{Kind: KindSuite, Name: name, File: "demo_test.go", Line: 1, Suite: func(*runner.S) {}}
}

func TestRegisterKeepsInsertionOrder(t *testing.T) {
	r := New()
	for _, name := range []string{"alpha", "beta", "gamma"} {
		r.Register(caseUnit(name))
	}
	r.Register(suiteUnit("storage"))
	r.Register(suiteUnit("network"))

	var cases []string
	r.ForEach(KindCase, func(u *Unit) bool {
		cases = append(cases, u.Name)
		return true
	})
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cases)

	var suites []string
	r.ForEach(KindSuite, func(u *Unit) bool {
		suites = append(suites, u.Name)
		return true
	})
	assert.Equal(t, []string{"storage", "network"}, suites)
}

func TestForEachEmptyRegistryIsNoop(t *testing.T) {
	r := New()
	visited := 0
	r.ForEach(KindSuite, func(*Unit) bool {
		visited++
		return true
	})
	assert.Zero(t, visited)
}

func TestForEachStopsEarly(t *testing.T) {
	r := New()
	r.Register(caseUnit("one"))
	r.Register(caseUnit("two"))
	r.Register(caseUnit("three"))

	var seen []string
	r.ForEach(KindCase, func(u *Unit) bool {
		seen = append(seen, u.Name)
		return len(seen) < 2
	})
	assert.Equal(t, []string{"one", "two"}, seen)
}

func TestRegisterAfterEnumerationPanics(t *testing.T) {
	r := New()
	r.Register(caseUnit("early"))
	r.ForEach(KindCase, func(*Unit) bool { return true })

	assert.Panics(t, func() {
		r.Register(caseUnit("late"))
	})
}

func TestRegisterRejectsMissingBody(t *testing.T) {
	tests := []struct {
		name string
		unit *Unit
	}{
		{"case without body", &Unit{Kind: KindCase, Name: "empty"}},
		{"suite without body", &Unit{Kind: KindSuite, Name: "empty"}},
		{"unknown kind", &Unit{Kind: Kind(42), Name: "bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			assert.Panics(t, func() { r.Register(tt.unit) })
		})
	}
}

func TestCounts(t *testing.T) {
	r := New()
	r.Register(caseUnit("a"))
	r.Register(caseUnit("b"))
	r.Register(suiteUnit("s"))

	cases, suites := r.Counts()
	assert.Equal(t, 2, cases)
	assert.Equal(t, 1, suites)
}

func TestSourceAdaptersCarryDeclarationSites(t *testing.T) {
	r := New()
	r.Register(&Unit{Kind: KindCase, Name: "dial", File: "net_test.go", Line: 12, Case: func(*runner.T) {}})
	r.Register(&Unit{Kind: KindSuite, Name: "storage", File: "store_test.go", Line: 30, Suite: func(*runner.S) {}})

	var decl runner.CaseDecl
	r.Cases(func(d runner.CaseDecl) bool {
		decl = d
		return true
	})
	require.NotNil(t, decl.Fn)
	assert.Equal(t, "dial", decl.Name)
	assert.Equal(t, "net_test.go", decl.File)
	assert.Equal(t, 12, decl.Line)

	var sdecl runner.SuiteDecl
	r.Suites(func(d runner.SuiteDecl) bool {
		sdecl = d
		return true
	})
	require.NotNil(t, sdecl.Fn)
	assert.Equal(t, "storage", sdecl.Name)
	assert.Equal(t, 30, sdecl.Line)
}
