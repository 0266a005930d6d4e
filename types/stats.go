package types

// Stats aggregates executed-case counts for one scope.
//
// Counters are mutated only by the session goroutine while the owning scope
// is live. Finished views carry copies and never change afterwards.
type Stats struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Record counts one executed case.
func (s *Stats) Record(passed bool) {
	s.Total++
	if passed {
		s.Passed++
	} else {
		s.Failed++
	}
}

// Merge folds the counts of a nested scope into s.
func (s *Stats) Merge(o Stats) {
	s.Total += o.Total
	s.Passed += o.Passed
	s.Failed += o.Failed
}

// AllPassed reports whether no recorded case failed.
func (s Stats) AllPassed() bool { return s.Failed == 0 }
