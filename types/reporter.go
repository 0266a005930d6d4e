package types

// Reporter receives lifecycle events while a session executes. The engine
// calls it on the session goroutine, strictly nested: SessionStarted, then
// per suite SuiteStarted..SuiteFinished, per case CaseStarted..CaseFinished,
// per check CheckStarted..CheckFinished, and finally SessionFinished.
// Passing sanity checks emit no check events.
type Reporter interface {
	SessionStarted(SessionInfo)
	SessionFinished(SessionResult)
	SuiteStarted(SuiteInfo)
	SuiteFinished(SuiteResult)
	CaseStarted(CaseInfo)
	CaseFinished(CaseResult)
	CheckStarted(CheckInfo)
	CheckFinished(CheckResult)
	// Message carries free-form text logged from a running body.
	Message(string)
	// UsageError reports a misuse of the engine API. Usage errors never
	// abort unrelated work.
	UsageError(UsageError)
}

// NopReporter discards every event. Embed it to implement a subset of
// Reporter.
type NopReporter struct{}

func (NopReporter) SessionStarted(SessionInfo)    {}
func (NopReporter) SessionFinished(SessionResult) {}
func (NopReporter) SuiteStarted(SuiteInfo)        {}
func (NopReporter) SuiteFinished(SuiteResult)     {}
func (NopReporter) CaseStarted(CaseInfo)          {}
func (NopReporter) CaseFinished(CaseResult)       {}
func (NopReporter) CheckStarted(CheckInfo)        {}
func (NopReporter) CheckFinished(CheckResult)     {}
func (NopReporter) Message(string)                {}
func (NopReporter) UsageError(UsageError)         {}
