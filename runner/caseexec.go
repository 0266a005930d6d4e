package runner

import (
	"context"
	"fmt"
	"runtime"

	"github.com/unitlab/unit/metrics"
	"github.com/unitlab/unit/types"
)

// abortBody unwinds a case body after a failing fatal check. The case
// executor is the only recover site; the sentinel never crosses it.
type abortBody struct{}

// T is the handle a case body receives. Checks, logging and the final
// result all go through it.
type T struct {
	sess  *session
	suite *S // nil for standalone cases
	info  types.CaseInfo
	live  bool

	failed       bool
	failure      types.FailureKind
	errMsg       string
	checks       int
	checksFailed int
	openChecks   int

	done   bool
	result types.CaseResult
}

// runCase executes one body and produces its immutable record. Every shape
// of failure a body can raise (failed fatal check, sanity failure, error
// panic, plain panic) is converted into a tag on the record here; nothing
// escapes to the caller.
func (sn *session) runCase(ctx context.Context, s *S, info types.CaseInfo, fn CaseFunc) types.CaseResult {
	_, span := sn.runner.tracer.Start(ctx, fmt.Sprintf("case %s", info.Name))
	defer span.End()

	sn.report().CaseStarted(info)
	sn.runner.log.Debug("Case starting", "suite", info.Suite, "case", info.Name)

	t := &T{sess: sn, suite: s, info: info, live: true}
	if s != nil {
		s.curT = t
		defer func() { s.curT = nil }()
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.classify(r)
			}
		}()
		fn(t)
	}()

	t.live = false
	if t.openChecks > 0 {
		sn.usage(types.UsageError{
			Kind:   types.UsageDanglingCheck,
			Scope:  info.Path(),
			Detail: fmt.Sprintf("%d check(s) captured a value but never compared it", t.openChecks),
			File:   info.File,
			Line:   info.Line,
		})
	}

	res := types.CaseResult{
		CaseInfo:     info,
		Status:       types.StatusFromBool(!t.failed),
		Failure:      t.failure,
		Err:          t.errMsg,
		Checks:       t.checks,
		ChecksFailed: t.checksFailed,
	}
	t.result = res
	t.done = true

	sn.report().CaseFinished(res)
	metrics.RecordCase(sn.info.RunID, info.Suite, info.Name, string(res.Status))
	return res
}

// classify converts a panic that escaped the body into the case's failure
// tag. Fatal checks set their tag before unwinding; everything else is an
// uncaught failure.
func (t *T) classify(r any) {
	switch v := r.(type) {
	case abortBody:
		// tag already set by the failing check
	case error:
		t.fail(types.FailError)
		t.errMsg = v.Error()
	default:
		t.fail(types.FailPanic)
		t.errMsg = fmt.Sprintf("%v", v)
	}
}

func (t *T) fail(kind types.FailureKind) {
	t.failed = true
	if t.failure == types.FailNone || t.failure == types.FailExpect {
		t.failure = kind
	}
}

func panicDetail(r any) string {
	if err, ok := r.(error); ok {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", r)
}

// Name returns the case's display name.
func (t *T) Name() string { return t.info.Name }

// Failed reports whether a check has already failed the case.
func (t *T) Failed() bool { return t.failed }

// Log forwards a message to the session logger and the Reporter.
func (t *T) Log(args ...any) { t.message(fmt.Sprint(args...)) }

// Logf forwards a formatted message to the session logger and the Reporter.
func (t *T) Logf(format string, args ...any) { t.message(fmt.Sprintf(format, args...)) }

func (t *T) message(msg string) {
	t.sess.runner.log.Debug("Case message", "suite", t.info.Suite, "case", t.info.Name, "msg", msg)
	t.sess.report().Message(msg)
}

// FailNow marks the case failed and unwinds the rest of the body. The
// owning suite's teardowns still run.
func (t *T) FailNow() {
	if !t.live {
		t.staleUsage("FailNow")
		return
	}
	t.fail(types.FailAssert)
	panic(abortBody{})
}

// Expect starts a non-fatal check: a failing comparison flags the case
// failed and execution continues.
func (t *T) Expect(v any) *Check { return t.newCheck(types.KindExpect, v) }

// Assert starts a fatal check: a failing comparison flags the case failed
// and unwinds the rest of the body.
func (t *T) Assert(v any) *Check { return t.newCheck(types.KindAssert, v) }

// Sanity starts a precondition check: a failure is fatal to the enclosing
// suite, not just this case. Passing sanity checks are not reported.
func (t *T) Sanity(v any) *Check { return t.newCheck(types.KindSanity, v) }

// ExpectCall evaluates pred(args...) as a non-fatal check. pred must be a
// func returning bool; its name renders into the check's expression text.
func (t *T) ExpectCall(pred any, args ...any) bool {
	_, file, line, _ := runtime.Caller(1)
	return t.runCallCheck(types.KindExpect, pred, args, file, line)
}

// AssertCall evaluates pred(args...) as a fatal check.
func (t *T) AssertCall(pred any, args ...any) bool {
	_, file, line, _ := runtime.Caller(1)
	return t.runCallCheck(types.KindAssert, pred, args, file, line)
}

// SanityCall evaluates pred(args...) as a precondition check.
func (t *T) SanityCall(pred any, args ...any) bool {
	_, file, line, _ := runtime.Caller(1)
	return t.runCallCheck(types.KindSanity, pred, args, file, line)
}

func (t *T) newCheck(kind types.CheckKind, v any) *Check {
	_, file, line, _ := runtime.Caller(2)
	c := &Check{t: t, kind: kind, value: v, file: file, line: line}
	if t.live {
		t.openChecks++
	}
	return c
}

func (t *T) runCallCheck(kind types.CheckKind, pred any, args []any, file string, line int) bool {
	c := &Check{t: t, kind: kind, file: file, line: line}
	return c.finishCall(pred, args)
}

func (t *T) staleUsage(op string) {
	t.sess.usage(types.UsageError{
		Kind:   types.UsageStaleScope,
		Scope:  t.info.Path(),
		Detail: op + " called on a finished case",
	})
}

// Result returns the finished case record. Before the executor returns it
// reports a usage error and returns types.ErrNotFinished; afterwards,
// repeated reads return identical values.
func (t *T) Result() (types.CaseResult, error) {
	if !t.done {
		t.sess.usage(types.UsageError{
			Kind:   types.UsageEarlyRead,
			Scope:  t.info.Path(),
			Detail: "case result read before the case finished",
		})
		return types.CaseResult{}, types.ErrNotFinished
	}
	return t.result, nil
}
