package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitlab/unit/types"
)

type eventLog struct {
	events []string
}

func (l *eventLog) SessionStarted(info types.SessionInfo) { l.events = append(l.events, "session "+info.Name) }
func (l *eventLog) SessionFinished(types.SessionResult)   { l.events = append(l.events, "session done") }
func (l *eventLog) SuiteStarted(info types.SuiteInfo)     { l.events = append(l.events, "suite "+info.Name) }
func (l *eventLog) SuiteFinished(types.SuiteResult)       { l.events = append(l.events, "suite done") }
func (l *eventLog) CaseStarted(info types.CaseInfo)       { l.events = append(l.events, "case "+info.Path()) }
func (l *eventLog) CaseFinished(types.CaseResult)         { l.events = append(l.events, "case done") }
func (l *eventLog) CheckStarted(types.CheckInfo)          { l.events = append(l.events, "check") }
func (l *eventLog) CheckFinished(types.CheckResult)       { l.events = append(l.events, "check done") }
func (l *eventLog) Message(msg string)                    { l.events = append(l.events, "msg "+msg) }
func (l *eventLog) UsageError(types.UsageError)           { l.events = append(l.events, "usage") }

func TestMultiFansOut(t *testing.T) {
	a := &eventLog{}
	b := &eventLog{}
	m := Multi(a, b)

	m.SessionStarted(types.SessionInfo{Name: "s"})
	m.SuiteStarted(types.SuiteInfo{Name: "auth"})
	m.CaseStarted(types.CaseInfo{Suite: "auth", Name: "login"})
	m.CheckStarted(types.CheckInfo{})
	m.CheckFinished(types.CheckResult{})
	m.Message("hi")
	m.CaseFinished(types.CaseResult{})
	m.SuiteFinished(types.SuiteResult{})
	m.UsageError(types.UsageError{})
	m.SessionFinished(types.SessionResult{})

	want := []string{
		"session s", "suite auth", "case auth/login", "check", "check done",
		"msg hi", "case done", "suite done", "usage", "session done",
	}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events, "every reporter sees the same stream")
}

func TestMultiDropsNilReporters(t *testing.T) {
	a := &eventLog{}
	m := Multi(nil, a, nil)

	require.NotPanics(t, func() {
		m.SessionStarted(types.SessionInfo{Name: "s"})
		m.SessionFinished(types.SessionResult{})
	})
	assert.Len(t, a.events, 2)
}

func TestMultiWithNoReportersIsNop(t *testing.T) {
	m := Multi()
	require.NotPanics(t, func() {
		m.Message("into the void")
	})
}
