package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitlab/unit/types"
)

func TestFailedExpectDoesNotStopTheBody(t *testing.T) {
	reached := false
	src := &fakeSource{cases: []CaseDecl{caseDecl("math", func(tt *T) {
		tt.Assert(1 + 1).Eq(2)
		tt.Expect(1 + 1).Eq(3)
		reached = true
	})}}

	res, rec := runSession(t, src)

	assert.True(t, reached)
	assert.False(t, res.Passed())
	require.Len(t, rec.cases, 1)
	assert.Equal(t, types.FailExpect, rec.cases[0].Failure)
	assert.Equal(t, 2, rec.cases[0].Checks)
	assert.Equal(t, 1, rec.cases[0].ChecksFailed)
	require.Len(t, rec.checks, 2)
	assert.True(t, rec.checks[0].Passed)
	assert.False(t, rec.checks[1].Passed)
}

func TestFailedAssertUnwindsTheBody(t *testing.T) {
	reached := false
	src := &fakeSource{cases: []CaseDecl{caseDecl("aborts", func(tt *T) {
		tt.Assert(false).True()
		reached = true
	})}}

	res, rec := runSession(t, src)

	assert.False(t, reached)
	assert.False(t, res.Passed())
	require.Len(t, rec.cases, 1)
	assert.Equal(t, types.FailAssert, rec.cases[0].Failure)
	assert.Equal(t, types.StatusFail, rec.cases[0].Status)
}

func TestAssertUpgradesEarlierExpectFailure(t *testing.T) {
	src := &fakeSource{cases: []CaseDecl{caseDecl("both", func(tt *T) {
		tt.Expect(1).Eq(2)
		tt.Assert(false).True()
	})}}

	_, rec := runSession(t, src)

	require.Len(t, rec.cases, 1)
	assert.Equal(t, types.FailAssert, rec.cases[0].Failure)
	assert.Equal(t, 2, rec.cases[0].ChecksFailed)
}

func TestErrorPanicKeepsMessage(t *testing.T) {
	src := &fakeSource{cases: []CaseDecl{
		caseDecl("errors", func(tt *T) { panic(errors.New("bad thing happened")) }),
		caseDecl("still runs", func(tt *T) {}),
	}}

	res, rec := runSession(t, src)

	assert.False(t, res.Passed())
	require.Len(t, rec.cases, 2)
	assert.Equal(t, types.FailError, rec.cases[0].Failure)
	assert.Equal(t, "bad thing happened", rec.cases[0].Err)
	assert.True(t, rec.cases[1].Passed())
}

func TestPlainPanicIsCaughtAndTagged(t *testing.T) {
	src := &fakeSource{cases: []CaseDecl{
		caseDecl("panics", func(tt *T) { panic("boom") }),
		caseDecl("still runs", func(tt *T) {}),
	}}

	res, rec := runSession(t, src)

	assert.False(t, res.Passed())
	require.Len(t, rec.cases, 2)
	assert.Equal(t, types.FailPanic, rec.cases[0].Failure)
	assert.Equal(t, "boom", rec.cases[0].Err)
	assert.True(t, rec.cases[1].Passed())
}

func TestFailNowUnwindsLikeAssert(t *testing.T) {
	reached := false
	src := &fakeSource{cases: []CaseDecl{caseDecl("failnow", func(tt *T) {
		tt.FailNow()
		reached = true
	})}}

	res, rec := runSession(t, src)

	assert.False(t, reached)
	assert.False(t, res.Passed())
	assert.Equal(t, types.FailAssert, rec.cases[0].Failure)
}

func TestFailedReflectsCheckState(t *testing.T) {
	var before, after bool
	src := &fakeSource{cases: []CaseDecl{caseDecl("state", func(tt *T) {
		before = tt.Failed()
		tt.Expect(1).Eq(2)
		after = tt.Failed()
	})}}

	runSession(t, src)

	assert.False(t, before)
	assert.True(t, after)
}

func TestLogMessagesReachTheReporter(t *testing.T) {
	src := &fakeSource{cases: []CaseDecl{caseDecl("talky", func(tt *T) {
		tt.Log("plain ", 1)
		tt.Logf("formatted %d", 2)
	})}}

	_, rec := runSession(t, src)

	require.Equal(t, []string{"plain 1", "formatted 2"}, rec.msgs)
}

func TestDanglingCheckReported(t *testing.T) {
	src := &fakeSource{cases: []CaseDecl{caseDecl("forgetful", func(tt *T) {
		tt.Expect(1)
	})}}

	res, rec := runSession(t, src)

	assert.True(t, res.Passed()) // misuse is reported, not failed
	assert.Contains(t, rec.usageKinds(), types.UsageDanglingCheck)
	assert.Equal(t, 0, rec.cases[0].Checks)
}

func TestStaleCaseHandleNeverPanics(t *testing.T) {
	var leaked *T
	src := &fakeSource{cases: []CaseDecl{caseDecl("leak", func(tt *T) { leaked = tt })}}

	res, rec := runSession(t, src)
	require.True(t, res.Passed())

	before := len(rec.usage)
	require.NotPanics(t, func() {
		leaked.Expect(1).Eq(1)
		leaked.FailNow()
	})
	require.Len(t, rec.usage, before+2)
	assert.Equal(t, types.UsageStaleScope, rec.usage[before].Kind)
	assert.Equal(t, types.UsageStaleScope, rec.usage[before+1].Kind)

	// the finished record is untouched by stale activity
	final, err := leaked.Result()
	require.NoError(t, err)
	assert.True(t, final.Passed())
	assert.Equal(t, 0, final.Checks)
}

func TestCaseNamesExposed(t *testing.T) {
	var caseName, suiteName string
	src := &fakeSource{suites: []SuiteDecl{suiteDecl("Named", func(s *S) {
		suiteName = s.Name()
		s.Case("the case", func(tt *T) { caseName = tt.Name() })
	})}}

	runSession(t, src)

	assert.Equal(t, "Named", suiteName)
	assert.Equal(t, "the case", caseName)
}
