// Command selfcheck is a test binary built on the engine itself: it
// registers suites exercising the public helpers and hands control to
// unit.Main. It doubles as a usage example and a packaging smoke test.
//
//	selfcheck                 run everything once
//	selfcheck --list          show what is registered
//	selfcheck --filter 'p*'   run a subset
package main

import (
	"os"
	"path/filepath"

	"github.com/unitlab/unit"
)

var _ = unit.Test("glob filters match case names", func(t *unit.T) {
	f := unit.GlobFilter("charge*")
	t.Expect(f("billing", "charge succeeds")).True()
	t.Expect(f("billing", "refund")).Eq(false)

	scoped := unit.GlobFilter("billing/*")
	t.Expect(scoped("billing", "refund")).True()
	t.Expect(scoped("auth", "refund")).Eq(false)
})

var _ = unit.Test("plan excludes beat includes", func(t *unit.T) {
	plan := &unit.Plan{
		Include: []unit.PlanRule{{Suite: "billing"}},
		Exclude: []unit.PlanRule{{Suite: "billing", Case: "refund"}},
	}
	f := plan.Filter()
	t.Expect(f("billing", "charge")).True()
	t.Expect(f("billing", "refund")).Eq(false)
	t.Expect(f("auth", "login")).Eq(false)
})

var _ = unit.Suite("predicates", func(s *unit.S) {
	s.Case("near tolerates float error", func(t *unit.T) {
		t.AssertCall(unit.IsNear, 0.1+0.2, 0.3, 1e-9)
	})
	s.Case("between is inclusive", func(t *unit.T) {
		t.ExpectCall(unit.IsBetween[int], 10, 10, 20)
		t.ExpectCall(unit.IsBetween[string], "m", "a", "z")
	})
})

var _ = unit.Suite("scratch space", func(s *unit.S) {
	dir, err := os.MkdirTemp("", "selfcheck-*")
	s.Sanity(err == nil).True()
	s.Teardown(func() { os.RemoveAll(dir) })

	s.Case("files write and read back", func(t *unit.T) {
		path := filepath.Join(dir, "note.txt")
		t.Assert(os.WriteFile(path, []byte("hello"), 0o600)).Eq(nil)
		data, err := os.ReadFile(path)
		t.Assert(err).Eq(nil)
		t.Expect(string(data)).Eq("hello")
	})

	s.Case("each case gets its own directory", func(t *unit.T) {
		entries, err := os.ReadDir(dir)
		t.Assert(err).Eq(nil)
		t.Expect(len(entries)).Eq(0)
	})
})

func main() {
	os.Exit(unit.Main(os.Args))
}
