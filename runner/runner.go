package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/unitlab/unit/metrics"
	"github.com/unitlab/unit/source"
	"github.com/unitlab/unit/types"
)

// DefaultSuiteName groups standalone cases.
const DefaultSuiteName = "Default"

// CaseFunc is the body of one case.
type CaseFunc func(*T)

// SuiteFunc is the body of one suite. The runner invokes it once per
// discovery pass, so everything around the case declarations acts as the
// per-case setup.
type SuiteFunc func(*S)

// CaseDecl describes one standalone case to execute.
type CaseDecl struct {
	Name string
	File string
	Line int
	Fn   CaseFunc
}

// SuiteDecl describes one declared suite.
type SuiteDecl struct {
	Name string
	File string
	Line int
	Fn   SuiteFunc
}

// Source enumerates declared work in registration order.
type Source interface {
	// Cases visits standalone cases; visit returning false stops early.
	Cases(visit func(CaseDecl) bool)
	// Suites visits declared suites; visit returning false stops early.
	Suites(visit func(SuiteDecl) bool)
	// Counts reports how many units of each kind are registered.
	Counts() (cases, suites int)
}

// SessionRunner executes registered work and produces one immutable result
// per call.
type SessionRunner interface {
	Run(ctx context.Context) (*types.SessionResult, error)
}

// Config holds configuration for creating a new session runner.
type Config struct {
	Source      Source
	Reporter    types.Reporter    // receives lifecycle events; defaults to a no-op
	Filter      types.Filter      // selects cases; nil selects everything
	SuiteFilter func(string) bool // selects suites by name; nil selects everything
	SessionName string            // display name; derived from the start time when empty
	Log         log.Logger
	Formatter   Formatter     // value stringification for check records
	Reader      source.Reader // literal expression text lookup
}

type sessionRunner struct {
	cfg    Config
	log    log.Logger
	tracer trace.Tracer
}

// NewRunner creates a session runner. The Source is required; every other
// field has a usable default.
func NewRunner(cfg Config) (SessionRunner, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Reporter == nil {
		cfg.Reporter = types.NopReporter{}
	}
	if cfg.Formatter == nil {
		cfg.Formatter = FormatValue
	}
	if cfg.Reader == nil {
		cfg.Reader = source.NewFileReader()
	}
	return &sessionRunner{
		cfg:    cfg,
		log:    cfg.Log,
		tracer: otel.Tracer("session runner"),
	}, nil
}

// Run implements SessionRunner. The default suite of standalone cases runs
// first, then every declared suite in registration order. Failures never
// escape: everything user code raises is converted into a tagged outcome on
// the returned record. The error return is reserved for external
// cancellation via ctx.
func (r *sessionRunner) Run(ctx context.Context) (*types.SessionResult, error) {
	start := time.Now()
	standalone, suites := r.collect()

	name := r.cfg.SessionName
	if name == "" {
		name = "session-" + start.Format("20060102-150405")
	}

	sn := &session{
		runner: r,
		info: types.SessionInfo{
			Name:        name,
			RunID:       uuid.New().String(),
			StartTime:   start,
			SuitesTotal: r.countPlanned(standalone, suites),
		},
	}

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("session %s", name))
	defer span.End()

	r.log.Debug("Session starting", "run_id", sn.info.RunID, "suites", sn.info.SuitesTotal)
	r.cfg.Reporter.SessionStarted(sn.info)

	var ctxErr error
	if len(standalone) > 0 && sn.suiteSelected(DefaultSuiteName) {
		sn.runDefaultSuite(ctx, standalone)
	}
	for _, decl := range suites {
		if sn.fatal != "" {
			break
		}
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		if !sn.suiteSelected(decl.Name) {
			continue
		}
		sn.runSuite(ctx, decl)
	}

	result := sn.finalize(start)
	r.cfg.Reporter.SessionFinished(*result)
	r.log.Info("Session finished", "run_id", result.RunID, "status", result.Status,
		"cases", result.Stats.Total, "failed", result.Stats.Failed, "duration", result.Duration)
	return result, ctxErr
}

// collect materializes the declared work up front so the suite count is
// known before the first suite starts.
func (r *sessionRunner) collect() ([]CaseDecl, []SuiteDecl) {
	var cases []CaseDecl
	r.cfg.Source.Cases(func(d CaseDecl) bool {
		cases = append(cases, d)
		return true
	})
	var suites []SuiteDecl
	r.cfg.Source.Suites(func(d SuiteDecl) bool {
		suites = append(suites, d)
		return true
	})
	return cases, suites
}

func (r *sessionRunner) countPlanned(standalone []CaseDecl, suites []SuiteDecl) int {
	selected := func(name string) bool {
		return r.cfg.SuiteFilter == nil || r.cfg.SuiteFilter(name)
	}
	n := 0
	if len(standalone) > 0 && selected(DefaultSuiteName) {
		n++
	}
	for _, d := range suites {
		if selected(d.Name) {
			n++
		}
	}
	return n
}

// session is the per-run mutable state, confined to the goroutine that
// called Run.
type session struct {
	runner *sessionRunner
	info   types.SessionInfo

	stats        types.Stats
	suites       []types.SuiteResult
	suitesFailed int
	fatal        string // sanity failure raised with no suite live
	finished     bool
}

func (sn *session) report() types.Reporter { return sn.runner.cfg.Reporter }
func (sn *session) filter() types.Filter   { return sn.runner.cfg.Filter }

func (sn *session) suiteSelected(name string) bool {
	return sn.runner.cfg.SuiteFilter == nil || sn.runner.cfg.SuiteFilter(name)
}

// usage reports a misuse of the API. Usage errors never abort unrelated
// work; they surface through the Reporter and the log.
func (sn *session) usage(e types.UsageError) {
	sn.runner.log.Warn("Usage error", "kind", e.Kind, "scope", e.Scope, "detail", e.Detail)
	sn.report().UsageError(e)
	metrics.RecordUsageError(string(e.Kind))
}

// raiseFatal records a sanity failure raised while no suite is live. The
// run stops scheduling further work at the next suite or pass boundary.
func (sn *session) raiseFatal(detail string) {
	if sn.finished || sn.fatal != "" {
		return
	}
	sn.fatal = detail
	sn.runner.log.Error("Sanity failure outside any suite; aborting run", "detail", detail)
}

func (sn *session) recordSuite(res types.SuiteResult) {
	sn.suites = append(sn.suites, res)
	sn.stats.Merge(res.Stats)
	if !res.Passed() {
		sn.suitesFailed++
	}
	metrics.RecordSuite(sn.info.RunID, res.Name, string(res.Status), res.Stats)
}

func (sn *session) finalize(start time.Time) *types.SessionResult {
	sn.finished = true
	passed := sn.suitesFailed == 0 && sn.fatal == ""
	return &types.SessionResult{
		SessionInfo:  sn.info,
		Status:       types.StatusFromBool(passed),
		EndTime:      time.Now(),
		Duration:     time.Since(start),
		Stats:        sn.stats,
		SuitesFailed: sn.suitesFailed,
		Fatal:        sn.fatal,
		Suites:       sn.suites,
	}
}
