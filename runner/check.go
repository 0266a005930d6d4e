package runner

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/unitlab/unit/metrics"
	"github.com/unitlab/unit/types"
)

// Check is one captured value waiting for its terminal comparison. Exactly
// one terminal method must be called; a builder still open when its case
// ends is reported as a usage error.
type Check struct {
	t     *T // owner when raised inside a case
	s     *S // owner when raised in suite setup or teardown
	kind  types.CheckKind
	value any
	file  string
	line  int
	used  bool
}

// True evaluates the captured value for truth: false, numeric zero, the
// empty string and nil all fail.
func (c *Check) True() bool { return c.finish("True", types.OpNone, nil) }

// Eq compares the captured value against rhs for equality. Numeric values
// compare by value across widths and signedness; everything else compares
// by deep equality.
func (c *Check) Eq(rhs any) bool { return c.finish("Eq", types.OpEq, rhs) }

// Ne is the negation of Eq.
func (c *Check) Ne(rhs any) bool { return c.finish("Ne", types.OpNe, rhs) }

// Lt checks the captured value is ordered strictly before rhs. Numbers and
// strings are ordered; anything else fails the check.
func (c *Check) Lt(rhs any) bool { return c.finish("Lt", types.OpLt, rhs) }

// Le checks the captured value is ordered before or equal to rhs.
func (c *Check) Le(rhs any) bool { return c.finish("Le", types.OpLe, rhs) }

// Gt checks the captured value is ordered strictly after rhs.
func (c *Check) Gt(rhs any) bool { return c.finish("Gt", types.OpGt, rhs) }

// Ge checks the captured value is ordered after or equal to rhs.
func (c *Check) Ge(rhs any) bool { return c.finish("Ge", types.OpGe, rhs) }

func (c *Check) session() *session {
	if c.t != nil {
		return c.t.sess
	}
	return c.s.sess
}

func (c *Check) ownerLive() bool {
	if c.t != nil {
		return c.t.live
	}
	return c.s.live
}

func (c *Check) scopeName() string {
	if c.t != nil {
		return c.t.info.Path()
	}
	return c.s.info.Name
}

func (c *Check) info() types.CheckInfo {
	ci := types.CheckInfo{Kind: c.kind, File: c.file, Line: c.line}
	if c.t != nil {
		ci.Suite = c.t.info.Suite
		ci.Case = c.t.info.Name
	} else {
		ci.Suite = c.s.info.Name
	}
	return ci
}

// finish runs the check protocol: the before event, the comparison, the
// after event, then the kind's control-flow reaction. Sanity checks stay
// silent unless they fail.
func (c *Check) finish(term string, op types.Op, rhs any) bool {
	sn := c.session()

	if c.used {
		sn.usage(types.UsageError{
			Kind:   types.UsageStaleScope,
			Scope:  c.scopeName(),
			Detail: "check already evaluated",
			File:   c.file,
			Line:   c.line,
		})
		passed, _ := compare(c.value, op, rhs)
		return passed
	}
	c.used = true
	if c.t != nil && c.t.live {
		c.t.openChecks--
	}

	if !c.ownerLive() {
		passed, _ := compare(c.value, op, rhs)
		c.staleFinish(passed)
		return passed
	}

	info := c.info()
	silent := c.kind == types.KindSanity
	if !silent {
		sn.report().CheckStarted(info)
	}

	passed, diff := compare(c.value, op, rhs)
	if silent {
		if passed {
			return true
		}
		sn.report().CheckStarted(info)
	}

	res := c.buildResult(info, term, op, rhs, passed, diff)
	c.emit(res)
	c.react(res)
	return passed
}

// finishCall evaluates a predicate-form check. The expression renders as
// name(arg1, ..., argN) from the formatted argument values.
func (c *Check) finishCall(pred any, args []any) bool {
	sn := c.session()
	name, invoke, err := prepPredicate(pred, args)
	expr := renderCall(name, args, sn.runner.cfg.Formatter)

	if err != nil {
		sn.usage(types.UsageError{
			Kind:   types.UsageBadPredicate,
			Scope:  c.scopeName(),
			Detail: err.Error(),
			File:   c.file,
			Line:   c.line,
		})
	}

	if !c.ownerLive() {
		passed := false
		if invoke != nil {
			passed = invokeGuarded(invoke)
		}
		c.staleFinish(passed)
		return passed
	}

	info := c.info()
	silent := c.kind == types.KindSanity
	if !silent {
		sn.report().CheckStarted(info)
	}

	passed := false
	if invoke != nil {
		passed = invoke() // a panicking predicate unwinds like any body failure
	}
	if silent {
		if passed {
			return true
		}
		sn.report().CheckStarted(info)
	}

	res := types.CheckResult{CheckInfo: info, Op: types.OpCall, Expr: expr, Passed: passed}
	c.emit(res)
	c.react(res)
	return passed
}

// staleFinish handles a check evaluated after its scope ended: the misuse
// is reported, and a failing sanity raised while the session is still
// running escalates to a run-level abort.
func (c *Check) staleFinish(passed bool) {
	sn := c.session()
	sn.usage(types.UsageError{
		Kind:   types.UsageStaleScope,
		Scope:  c.scopeName(),
		Detail: string(c.kind) + " check evaluated after its scope finished",
		File:   c.file,
		Line:   c.line,
	})
	if c.kind == types.KindSanity && !passed {
		sn.raiseFatal(fmt.Sprintf("sanity failure raised from finished scope %s at %s:%d", c.scopeName(), c.file, c.line))
	}
}

func (c *Check) buildResult(info types.CheckInfo, term string, op types.Op, rhs any, passed bool, diff string) types.CheckResult {
	format := c.session().runner.cfg.Formatter
	left := format(c.value)
	right := ""
	if op != types.OpNone {
		right = format(rhs)
	}
	return types.CheckResult{
		CheckInfo: info,
		Op:        op,
		Expr:      c.exprText(term, op, left, right),
		Left:      left,
		Right:     right,
		Passed:    passed,
		Diff:      diff,
	}
}

// exprText prefers the literal source text of the call site and degrades to
// the formatted values when the source is unavailable.
func (c *Check) exprText(term string, op types.Op, left, right string) string {
	lhs, rhs := left, right
	if sl, sr, err := c.session().runner.cfg.Reader.CallText(c.file, c.line, checkMethod(c.kind), term); err == nil {
		lhs = sl
		if sr != "" {
			rhs = sr
		}
	}
	if op == types.OpNone {
		return lhs
	}
	return lhs + " " + string(op) + " " + rhs
}

func (c *Check) emit(res types.CheckResult) {
	if c.t != nil {
		c.t.checks++
		if !res.Passed {
			c.t.checksFailed++
		}
	}
	c.session().report().CheckFinished(res)
	metrics.RecordCheck(string(res.Kind), res.Passed)
}

// react applies the kind's control flow once a failed check has been
// reported. Fatal kinds unwind to the boundary that owns them.
func (c *Check) react(res types.CheckResult) {
	if res.Passed {
		return
	}
	if c.t != nil {
		switch c.kind {
		case types.KindExpect:
			c.t.fail(types.FailExpect)
		case types.KindAssert:
			c.t.fail(types.FailAssert)
			panic(abortBody{})
		case types.KindSanity:
			c.t.fail(types.FailSanity)
			if c.t.errMsg == "" {
				c.t.errMsg = "sanity failed: " + res.Expr
			}
			panic(abortBody{})
		}
		return
	}

	s := c.s
	switch c.kind {
	case types.KindExpect:
		s.noteFailure("expect failed in suite body: " + res.Expr)
	case types.KindAssert:
		s.sess.usage(types.UsageError{
			Kind:   types.UsageAssertOutsideCase,
			Scope:  s.info.Name,
			Detail: "assert failed outside any case body: " + res.Expr,
			File:   c.file,
			Line:   c.line,
		})
		s.noteFailure("assert failed in suite body: " + res.Expr)
		panic(abortPass{})
	case types.KindSanity:
		s.noteFailure("sanity failed in suite body: " + res.Expr)
		panic(abortPass{})
	}
}

func checkMethod(kind types.CheckKind) string {
	switch kind {
	case types.KindAssert:
		return "Assert"
	case types.KindSanity:
		return "Sanity"
	default:
		return "Expect"
	}
}

// prepPredicate validates the predicate and coerces the arguments without
// invoking it, so the before event can fire ahead of evaluation.
func prepPredicate(pred any, args []any) (name string, invoke func() bool, err error) {
	v := reflect.ValueOf(pred)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return "", nil, fmt.Errorf("predicate must be a func returning bool, got %T", pred)
	}
	name = predicateName(v)
	ft := v.Type()
	if ft.NumOut() != 1 || ft.Out(0).Kind() != reflect.Bool {
		return name, nil, fmt.Errorf("predicate %s must return a single bool", name)
	}
	in, err := predicateArgs(ft, args)
	if err != nil {
		return name, nil, err
	}
	return name, func() bool { return v.Call(in)[0].Bool() }, nil
}

func predicateArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("predicate wants at least %d argument(s), got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("predicate wants %d argument(s), got %d", fixed, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		target := ft.In(min(i, fixed))
		if ft.IsVariadic() && i >= fixed {
			target = ft.In(ft.NumIn() - 1).Elem()
		}
		val, err := coerceArg(arg, target)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		in[i] = val
	}
	return in, nil
}

func coerceArg(arg any, target reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not a %s", target)
	}
	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(target) {
		return av, nil
	}
	if isNumericKind(av.Kind()) && isNumericKind(target.Kind()) {
		return av.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("%T is not assignable to %s", arg, target)
}

// predicateName derives a display name from the func symbol: package path
// and receiver qualifiers are trimmed, as are the suffixes the runtime
// appends to method values, closures and instantiated generics. A predicate
// declared inline names its enclosing function.
func predicateName(v reflect.Value) string {
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return ""
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.Index(name, "["); i >= 0 {
		name = name[:i]
	}
	segs := strings.Split(name, ".")
	for i := len(segs) - 1; i >= 0; i-- {
		if seg := segs[i]; seg != "" && !anonSegment(seg) {
			return seg
		}
	}
	return ""
}

// anonSegment reports whether a symbol segment is one the compiler invented
// for a closure, like "func1" or a bare ordinal.
func anonSegment(seg string) bool {
	seg = strings.TrimPrefix(seg, "func")
	if seg == "" {
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func renderCall(name string, args []any, format Formatter) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = format(a)
	}
	if name == "" {
		name = "predicate"
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func invokeGuarded(invoke func() bool) (passed bool) {
	defer func() {
		if recover() != nil {
			passed = false
		}
	}()
	return invoke()
}
