package runner

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/unitlab/unit/types"
)

// recorder captures every reporter event in arrival order.
type recorder struct {
	order    []string
	sessions []types.SessionResult
	suites   []types.SuiteResult
	cases    []types.CaseResult
	checks   []types.CheckResult
	usage    []types.UsageError
	msgs     []string
}

func (r *recorder) note(ev string) { r.order = append(r.order, ev) }

func (r *recorder) SessionStarted(info types.SessionInfo) {
	r.note("session started " + info.Name)
}

func (r *recorder) SessionFinished(res types.SessionResult) {
	r.note("session finished " + string(res.Status))
	r.sessions = append(r.sessions, res)
}

func (r *recorder) SuiteStarted(info types.SuiteInfo) {
	r.note("suite started " + info.Name)
}

func (r *recorder) SuiteFinished(res types.SuiteResult) {
	r.note("suite finished " + res.Name)
	r.suites = append(r.suites, res)
}

func (r *recorder) CaseStarted(info types.CaseInfo) {
	r.note("case started " + info.Path())
}

func (r *recorder) CaseFinished(res types.CaseResult) {
	r.note("case finished " + res.Path())
	r.cases = append(r.cases, res)
}

func (r *recorder) CheckStarted(info types.CheckInfo) {
	r.note("check started " + string(info.Kind))
}

func (r *recorder) CheckFinished(res types.CheckResult) {
	r.note("check finished " + res.Expr)
	r.checks = append(r.checks, res)
}

func (r *recorder) Message(msg string) {
	r.note("message")
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) UsageError(e types.UsageError) {
	r.note("usage " + string(e.Kind))
	r.usage = append(r.usage, e)
}

func (r *recorder) usageKinds() []types.UsageErrorKind {
	kinds := make([]types.UsageErrorKind, 0, len(r.usage))
	for _, e := range r.usage {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// fakeSource feeds declarations straight from slices, in order.
type fakeSource struct {
	cases  []CaseDecl
	suites []SuiteDecl
}

func (f *fakeSource) Cases(visit func(CaseDecl) bool) {
	for _, d := range f.cases {
		if !visit(d) {
			return
		}
	}
}

func (f *fakeSource) Suites(visit func(SuiteDecl) bool) {
	for _, d := range f.suites {
		if !visit(d) {
			return
		}
	}
}

func (f *fakeSource) Counts() (int, int) { return len(f.cases), len(f.suites) }

func caseDecl(name string, fn CaseFunc) CaseDecl {
	return CaseDecl{Name: name, Fn: fn}
}

func suiteDecl(name string, fn SuiteFunc) SuiteDecl {
	return SuiteDecl{Name: name, Fn: fn}
}

func quietLogger() log.Logger {
	return log.NewLogger(log.DiscardHandler())
}

// runSession builds a runner around src with a recording reporter and runs
// it to completion.
func runSession(t *testing.T, src Source, mut ...func(*Config)) (*types.SessionResult, *recorder) {
	t.Helper()

	rec := &recorder{}
	cfg := Config{
		Source:   src,
		Reporter: rec,
		Log:      quietLogger(),
	}
	for _, m := range mut {
		m(&cfg)
	}

	r, err := NewRunner(cfg)
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	return res, rec
}
