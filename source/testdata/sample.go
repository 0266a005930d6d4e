package sample

// Fixture for call site extraction. Tests reference these line numbers;
// append new statements only at the end.

func body(t T, x int, items []string) {
	t.Expect(x).Eq(3)
	t.Assert(len(items)).Gt(0)
	t.Expect(x + 1).
		Eq(4)
	c := t.Expect(x * 2)
	_ = c
	t.Sanity("a" == "b").True()
	t.Expect(a).Eq(1); t.Expect(b).Eq(2)
}
