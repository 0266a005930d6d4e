package sample

// Fixture for static case listing. Tests reference these line numbers;
// append new declarations only at the end.

var _ = Suite("billing", func(s S) {
	s.Case("charge", func(t T) {})
	s.Case("refund", func(t T) {
		t.Expect(1).Eq(1)
	})
})

var _ = unit.Suite("auth", func(s S) {
	name := "computed"
	s.Case(name, func(t T) {})
	s.Case("login", func(t T) {})
})

var empty = Suite("empty", func(s S) {})
