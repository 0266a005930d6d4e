package types

// Filter selects the cases a run executes. A nil Filter selects everything.
type Filter func(suite, caseName string) bool

// Match applies f, treating nil as match-all.
func (f Filter) Match(suite, caseName string) bool {
	if f == nil {
		return true
	}
	return f(suite, caseName)
}
