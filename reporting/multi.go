package reporting

import "github.com/unitlab/unit/types"

// Multi fans every event out to each reporter in order. Nil entries are
// dropped so callers can pass optional sinks without guarding.
func Multi(reporters ...types.Reporter) types.Reporter {
	kept := make([]types.Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return multiReporter(kept)
}

type multiReporter []types.Reporter

func (m multiReporter) SessionStarted(info types.SessionInfo) {
	for _, r := range m {
		r.SessionStarted(info)
	}
}

func (m multiReporter) SessionFinished(res types.SessionResult) {
	for _, r := range m {
		r.SessionFinished(res)
	}
}

func (m multiReporter) SuiteStarted(info types.SuiteInfo) {
	for _, r := range m {
		r.SuiteStarted(info)
	}
}

func (m multiReporter) SuiteFinished(res types.SuiteResult) {
	for _, r := range m {
		r.SuiteFinished(res)
	}
}

func (m multiReporter) CaseStarted(info types.CaseInfo) {
	for _, r := range m {
		r.CaseStarted(info)
	}
}

func (m multiReporter) CaseFinished(res types.CaseResult) {
	for _, r := range m {
		r.CaseFinished(res)
	}
}

func (m multiReporter) CheckStarted(info types.CheckInfo) {
	for _, r := range m {
		r.CheckStarted(info)
	}
}

func (m multiReporter) CheckFinished(res types.CheckResult) {
	for _, r := range m {
		r.CheckFinished(res)
	}
}

func (m multiReporter) Message(msg string) {
	for _, r := range m {
		r.Message(msg)
	}
}

func (m multiReporter) UsageError(e types.UsageError) {
	for _, r := range m {
		r.UsageError(e)
	}
}
