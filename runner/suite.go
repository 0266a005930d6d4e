package runner

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/unitlab/unit/types"
)

// abortPass unwinds the remainder of a suite body after a failure that ends
// the whole pass-set. It never crosses the pass boundary.
type abortPass struct{}

// S is the handle a suite body receives. The body runs once per discovery
// pass: code before the case declarations is the per-case setup, Teardown
// registers guaranteed cleanup for the current pass, and Case declares one
// case and, on its turn, executes it in place.
type S struct {
	sess *session
	ctx  context.Context
	info types.SuiteInfo
	live bool

	executed  map[string]bool // case ids (file:line) that already ran, or were filtered out
	flagged   map[string]bool // case ids already reported for declaring-file mismatch
	firstFile string          // declaring file of the first observed case

	// per-pass state, reset by runPass
	encountered map[string]bool
	ranNew      bool
	sawPending  bool
	teardowns   []func()

	pass   int
	stats  types.Stats
	cases  []types.CaseResult
	failed bool   // failure raised outside any case body
	detail string // first such failure, kept for the suite record
	abort  bool   // stop the pass loop

	curT *T // live case handle while one runs, nil otherwise

	done   bool
	result types.SuiteResult
}

// runSuite replays one suite body until discovery completes: each pass
// re-runs the setup, executes at most one not-yet-run case, then unwinds the
// teardowns registered during that pass. A suite with K cases takes exactly
// K passes.
func (sn *session) runSuite(ctx context.Context, decl SuiteDecl) {
	info := types.SuiteInfo{Name: decl.Name, File: decl.File, Line: decl.Line, StartTime: time.Now()}
	ctx, span := sn.runner.tracer.Start(ctx, fmt.Sprintf("suite %s", decl.Name))
	defer span.End()
	sn.report().SuiteStarted(info)

	s := &S{
		sess:     sn,
		ctx:      ctx,
		info:     info,
		live:     true,
		executed: make(map[string]bool),
		flagged:  make(map[string]bool),
	}
	for {
		s.pass++
		s.runPass(decl.Fn)
		if s.abort || sn.fatal != "" {
			break
		}
		if !s.ranNew || !s.sawPending {
			break
		}
	}
	s.live = false

	res := types.SuiteResult{
		SuiteInfo: info,
		Status:    types.StatusFromBool(!s.failed && s.stats.AllPassed()),
		EndTime:   time.Now(),
		Duration:  time.Since(info.StartTime),
		Stats:     s.stats,
		Passes:    s.pass,
		Err:       s.detail,
		Cases:     s.cases,
	}
	s.result = res
	s.done = true
	sn.report().SuiteFinished(res)
	sn.recordSuite(res)
}

// runDefaultSuite executes every standalone case under the implicit suite.
// There is no shared setup to replay, so discovery is a single walk. A
// sanity failure in one standalone case aborts the remaining ones, exactly
// as it would inside a declared suite.
func (sn *session) runDefaultSuite(ctx context.Context, decls []CaseDecl) {
	info := types.SuiteInfo{Name: DefaultSuiteName, Default: true, StartTime: time.Now()}
	ctx, span := sn.runner.tracer.Start(ctx, fmt.Sprintf("suite %s", info.Name))
	defer span.End()
	sn.report().SuiteStarted(info)

	var (
		stats  types.Stats
		cases  []types.CaseResult
		detail string
	)
	for _, d := range decls {
		if sn.fatal != "" {
			break
		}
		if !sn.filter().Match(DefaultSuiteName, d.Name) {
			continue
		}
		res := sn.runCase(ctx, nil, types.CaseInfo{Suite: DefaultSuiteName, Name: d.Name, File: d.File, Line: d.Line}, d.Fn)
		stats.Record(res.Passed())
		cases = append(cases, res)
		if res.Failure == types.FailSanity {
			detail = "sanity failure in case " + strconv.Quote(d.Name) + " aborted the suite"
			break
		}
	}

	res := types.SuiteResult{
		SuiteInfo: info,
		Status:    types.StatusFromBool(stats.AllPassed() && detail == ""),
		EndTime:   time.Now(),
		Duration:  time.Since(info.StartTime),
		Stats:     stats,
		Err:       detail,
		Cases:     cases,
	}
	sn.report().SuiteFinished(res)
	sn.recordSuite(res)
}

// runPass performs one setup/body/teardown replay. Teardowns always run,
// whatever the body did; a panic escaping the body is classified here and
// never propagates further.
func (s *S) runPass(fn SuiteFunc) {
	s.encountered = make(map[string]bool)
	s.ranNew = false
	s.sawPending = false
	s.teardowns = nil

	defer s.runTeardowns()
	defer func() {
		if r := recover(); r != nil {
			s.recoverPass(r)
		}
	}()
	fn(s)
}

func (s *S) recoverPass(r any) {
	if _, ok := r.(abortPass); ok {
		s.abort = true
		return
	}
	// A failure escaping the suite body outside any case fails the suite
	// but not the run; further passes proceed if they still make progress.
	s.noteFailure(panicDetail(r))
}

func (s *S) noteFailure(detail string) {
	s.failed = true
	if s.detail == "" {
		s.detail = detail
	}
}

// runTeardowns unwinds the cleanups registered during the current pass,
// last registered first. Every teardown runs even when an earlier one
// fails; a sanity failure inside a teardown stops further passes but not
// the remaining teardowns of this pass.
func (s *S) runTeardowns() {
	tds := s.teardowns
	s.teardowns = nil
	for i := len(tds) - 1; i >= 0; i-- {
		fn := tds[i]
		func() {
			defer func() {
				if r := recover(); r != nil {
					if _, ok := r.(abortPass); ok {
						s.abort = true
						return
					}
					s.noteFailure("teardown: " + panicDetail(r))
				}
			}()
			fn()
		}()
	}
}

// Name returns the suite's display name.
func (s *S) Name() string { return s.info.Name }

// Case declares one case. Within a pass the first not-yet-run declaration
// executes in place; already-run declarations are skipped and later ones
// wait for the next pass, so every case sees a freshly built setup.
func (s *S) Case(name string, fn CaseFunc) {
	if !s.usable("Case") {
		return
	}
	if s.curT != nil {
		s.sess.usage(types.UsageError{
			Kind:   types.UsageNestedCase,
			Scope:  s.info.Name,
			Detail: fmt.Sprintf("case %q declared while case %q is running", name, s.curT.info.Name),
		})
		return
	}

	_, file, line, _ := runtime.Caller(1)
	id := file + ":" + strconv.Itoa(line)

	if s.firstFile == "" {
		s.firstFile = file
	} else if file != s.firstFile && !s.flagged[id] {
		s.flagged[id] = true
		s.sess.usage(types.UsageError{
			Kind:   types.UsageFileMismatch,
			Scope:  s.info.Name,
			Detail: fmt.Sprintf("case %q declared in %s; this suite's cases started in %s", name, file, s.firstFile),
			File:   file,
			Line:   line,
		})
		// the declaration still takes its turn below
	}

	if s.encountered[id] {
		s.sess.usage(types.UsageError{
			Kind:   types.UsageDuplicateCase,
			Scope:  s.info.Name,
			Detail: fmt.Sprintf("case %q at %s already declared during this pass", name, id),
			File:   file,
			Line:   line,
		})
		return
	}
	s.encountered[id] = true

	if s.executed[id] {
		return // ran during an earlier pass
	}
	if !s.sess.filter().Match(s.info.Name, name) {
		s.executed[id] = true // excluded cases never run and never count
		return
	}
	if s.ranNew {
		s.sawPending = true // its turn comes on a later pass
		return
	}

	s.executed[id] = true
	s.ranNew = true
	res := s.sess.runCase(s.ctx, s, types.CaseInfo{Suite: s.info.Name, Name: name, File: file, Line: line}, fn)
	s.stats.Record(res.Passed())
	s.cases = append(s.cases, res)
	if res.Failure == types.FailSanity {
		s.noteFailure("sanity failure in case " + strconv.Quote(name) + " aborted the suite")
		panic(abortPass{})
	}
}

// Teardown registers fn to run when the current pass ends, after the case
// (if any) has executed. Teardowns run last-in-first-out and are guaranteed
// to run regardless of how the pass ends.
func (s *S) Teardown(fn func()) {
	if !s.usable("Teardown") {
		return
	}
	s.teardowns = append(s.teardowns, fn)
}

// Expect starts a non-fatal check attributed to the suite scope, or to the
// running case when one is live.
func (s *S) Expect(v any) *Check { return s.newCheck(types.KindExpect, v) }

// Assert starts a fatal check. A failing assert outside any case body is a
// usage error that also aborts the suite.
func (s *S) Assert(v any) *Check { return s.newCheck(types.KindAssert, v) }

// Sanity starts a precondition check. A failure aborts the remaining passes
// of this suite; passing sanity checks are not reported.
func (s *S) Sanity(v any) *Check { return s.newCheck(types.KindSanity, v) }

// ExpectCall evaluates pred(args...) as a non-fatal check.
func (s *S) ExpectCall(pred any, args ...any) bool {
	return s.callCheck(types.KindExpect, pred, args)
}

// AssertCall evaluates pred(args...) as a fatal check.
func (s *S) AssertCall(pred any, args ...any) bool {
	return s.callCheck(types.KindAssert, pred, args)
}

// SanityCall evaluates pred(args...) as a precondition check.
func (s *S) SanityCall(pred any, args ...any) bool {
	return s.callCheck(types.KindSanity, pred, args)
}

func (s *S) newCheck(kind types.CheckKind, v any) *Check {
	_, file, line, _ := runtime.Caller(2)
	c := &Check{kind: kind, value: v, file: file, line: line}
	if t := s.curT; t != nil && t.live {
		c.t = t
		t.openChecks++
	} else {
		c.s = s
	}
	return c
}

func (s *S) callCheck(kind types.CheckKind, pred any, args []any) bool {
	_, file, line, _ := runtime.Caller(2)
	if t := s.curT; t != nil && t.live {
		return t.runCallCheck(kind, pred, args, file, line)
	}
	c := &Check{s: s, kind: kind, file: file, line: line}
	return c.finishCall(pred, args)
}

func (s *S) usable(op string) bool {
	if s.live {
		return true
	}
	s.sess.usage(types.UsageError{
		Kind:   types.UsageStaleScope,
		Scope:  s.info.Name,
		Detail: op + " called on a finished suite",
	})
	return false
}

// Result returns the finished suite record. Before the suite completes it
// reports a usage error and returns types.ErrNotFinished; afterwards,
// repeated reads return identical values.
func (s *S) Result() (types.SuiteResult, error) {
	if !s.done {
		s.sess.usage(types.UsageError{
			Kind:   types.UsageEarlyRead,
			Scope:  s.info.Name,
			Detail: "suite result read before the suite finished",
		})
		return types.SuiteResult{}, types.ErrNotFinished
	}
	return s.result, nil
}
