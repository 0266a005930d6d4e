package runner

// declareRemoteCase declares a case from this file, so the owning suite
// observes a declaring file different from its first case's.
func declareRemoteCase(s *S, name string, fn CaseFunc) {
	s.Case(name, fn)
}
