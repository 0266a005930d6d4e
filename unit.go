// Package unit is a self-registering test execution engine. Cases and suites
// declare themselves statically during package initialization:
//
//	var _ = unit.Test("rejects an empty order", func(t *unit.T) {
//		t.Assert(checkout(nil)).Eq(ErrEmptyOrder)
//	})
//
//	var _ = unit.Suite("billing", func(s *unit.S) {
//		s.Sanity(db.Ping() == nil).True()
//		s.Case("charge", func(t *unit.T) {
//			t.Expect(charge(42).Status).Eq("ok")
//		})
//	})
//
// A binary built on Main then runs everything registered, once or on an
// interval, and exits 0 when all cases pass, 1 when any fail and 2 when the
// engine itself cannot run.
package unit

import (
	"context"
	"io"
	"runtime"

	"github.com/ethereum/go-ethereum/log"

	"github.com/unitlab/unit/registry"
	"github.com/unitlab/unit/runner"
	"github.com/unitlab/unit/types"
)

// T is the handle a case body receives.
type T = runner.T

// S is the handle a suite body receives.
type S = runner.S

// Check is a captured value awaiting its comparison, started by Expect,
// Assert or Sanity.
type Check = runner.Check

// Test declares a standalone case, run under the implicit Default suite. It
// records the declaration site and returns true so it can sit in a package
// level var statement.
func Test(name string, fn func(*T)) bool {
	file, line := callSite()
	registry.Default().Register(&registry.Unit{
		Kind: registry.KindCase,
		Name: name,
		File: file,
		Line: line,
		Case: fn,
	})
	return true
}

// Suite declares a named group of cases. The body runs once per discovery or
// execution pass; it declares cases with s.Case and may guard them with
// suite-level checks and teardowns.
func Suite(name string, fn func(*S)) bool {
	file, line := callSite()
	registry.Default().Register(&registry.Unit{
		Kind:  registry.KindSuite,
		Name:  name,
		File:  file,
		Line:  line,
		Suite: fn,
	})
	return true
}

// callSite reports the declaration site two frames up.
func callSite() (string, int) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown", 0
	}
	return file, line
}

// Option adjusts the configuration RunWith assembles.
type Option func(*Config)

// WithFilter selects which cases run by suite and case name.
func WithFilter(f types.Filter) Option {
	return func(c *Config) { c.Filter = f }
}

// WithSuiteFilter prunes whole suites before their bodies run.
func WithSuiteFilter(f func(suite string) bool) Option {
	return func(c *Config) { c.SuiteFilter = f }
}

// WithReporter appends a reporter to the session's chain, after the console
// reporter and any file sinks.
func WithReporter(r types.Reporter) Option {
	return func(c *Config) { c.Reporter = r }
}

// WithSessionName labels the session in reports and metrics.
func WithSessionName(name string) Option {
	return func(c *Config) { c.SessionName = name }
}

// WithLogger routes engine logging to l instead of the default logger.
func WithLogger(l log.Logger) Option {
	return func(c *Config) { c.Log = l }
}

// WithFormatter overrides how check operands render in failure messages.
func WithFormatter(f runner.Formatter) Option {
	return func(c *Config) { c.Formatter = f }
}

// WithReportDir writes the summary and event log under dir, one
// subdirectory per run.
func WithReportDir(dir string) Option {
	return func(c *Config) { c.ReportDir = dir }
}

// WithOutput sends console output to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Config) { c.Out = w }
}

// WithRegistry runs the units of reg instead of the process-wide registry.
// Tests use this for isolation.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Config) { c.Registry = reg }
}

// WithSource runs units from an arbitrary source instead of a registry.
func WithSource(src runner.Source) Option {
	return func(c *Config) { c.Source = src }
}

// Run executes every registered unit with default settings and reports
// whether the session passed. It is the programmatic twin of a run-once
// Main invocation:
//
//	func main() {
//		if !unit.Run() {
//			os.Exit(1)
//		}
//	}
func Run() bool { return RunWith() }

// RunWith executes every registered unit after applying opts and reports
// whether the session passed. Configuration problems count as failures.
func RunWith(opts ...Option) bool {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	res, err := RunContext(context.Background(), cfg)
	if err != nil {
		return false
	}
	return res.Passed()
}

// RunContext is the full-control form: it runs one session under ctx and
// returns the complete session record. The error return carries
// configuration problems and external cancellation; failing cases are
// carried by the result's Status, not the error.
func RunContext(ctx context.Context, cfg *Config) (*types.SessionResult, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	// Copy before defaulting so the caller's Config is not written to.
	c := *cfg
	if c.Log == nil {
		c.Log = log.New()
	}

	r, sinks, err := buildRunner(&c)
	if err != nil {
		return nil, err
	}
	res, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	NewDefaultMetricsReporter().ReportResults(res)
	sinks.flush()
	return res, nil
}
