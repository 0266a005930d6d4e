package unit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/unitlab/unit/registry"
	"github.com/unitlab/unit/reporting"
	"github.com/unitlab/unit/runner"
	"github.com/unitlab/unit/types"
)

// app is the long-lived test service: it wires the session runner to the
// scheduler, the metrics reporter and the file report sinks, and implements
// the lifecycle Main drives.
type app struct {
	ctx     context.Context
	config  *Config
	version string

	scheduler Scheduler
	executor  SessionExecutor
	metrics   MetricsReporter
	sinks     *reportSinks

	resultMu sync.Mutex
	result   *types.SessionResult

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates the test service around config. The shutdownCallback is
// invoked after a passing run-once session so the caller can unwind.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*app, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Log == nil {
		config.Log = log.New()
	}

	config.Log.Debug("Creating test service with config",
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"reportDir", config.ReportDir,
		"sessionName", config.SessionName)

	r, sinks, err := buildRunner(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session runner: %w", err)
	}
	config.Log.Info("unit.New: created registry source and session runner")

	return &app{
		ctx:              ctx,
		config:           config,
		version:          version,
		scheduler:        NewIntervalScheduler(config.RunInterval, config.RunOnce, config.Log),
		executor:         NewDefaultSessionExecutor(r, config.Log),
		metrics:          NewDefaultMetricsReporter(),
		sinks:            sinks,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the registered units once or periodically at the configured
// interval.
func (a *app) Start(ctx context.Context) (err error) {
	// A panic here is an engine bug, not a test failure; surface it as a
	// runtime error so the process exits with code 2.
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			err = NewRuntimeError(fmt.Errorf("panic: %v", r))
		}
	}()

	a.ctx = ctx

	if a.config.RunOnce {
		a.config.Log.Info("Starting test service in run-once mode")
	} else {
		a.config.Log.Info("Starting test service in continuous mode", "interval", a.config.RunInterval)
	}

	a.scheduler.RegisterCallback(a.runSession)
	if err := a.scheduler.Start(ctx); err != nil {
		a.config.Log.Error("Runtime error running session", "error", err)
		return err
	}

	if a.config.RunOnce {
		a.config.Log.Info("Session completed, exiting (run-once mode)")

		// Check if anything failed and return the matching exit code
		if res := a.Result(); res != nil && !res.Passed() {
			a.config.Log.Warn("Run-once session completed with failures, returning exit code 1")
			return NewTestFailureError(failureSummary(res))
		}

		// Only needed when we're in run-once mode and everything passed
		if a.shutdownCallback != nil {
			go func() {
				a.shutdownCallback(nil)
			}()
		}
		return nil
	}

	a.config.Log.Debug("test service started successfully")
	return nil
}

// runSession runs one session and publishes the outcome.
func (a *app) runSession() error {
	result, err := a.executor.RunSession(a.ctx)
	if err != nil {
		// This is a runtime error (not a test failure)
		return NewRuntimeError(err)
	}
	a.setResult(result)
	a.metrics.ReportResults(result)
	a.sinks.flush()

	if s := a.sinks; s != nil && s.summary != nil {
		a.config.Log.Info("Run reports written", "dir", s.summary.Dir())
	}
	return nil
}

// Stop stops the test service.
func (a *app) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping test service")
	if err := a.scheduler.Stop(); err != nil {
		return err
	}
	a.config.Log.Info("Test service stopped successfully")
	return nil
}

// Stopped returns true if the test service is stopped.
func (a *app) Stopped() bool {
	return a.scheduler.Stopped()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (a *app) WaitForShutdown(ctx context.Context) error {
	return a.scheduler.WaitForShutdown(ctx)
}

// Result returns the most recent session result, or nil before the first
// session completes.
func (a *app) Result() *types.SessionResult {
	a.resultMu.Lock()
	defer a.resultMu.Unlock()
	return a.result
}

func (a *app) setResult(res *types.SessionResult) {
	a.resultMu.Lock()
	defer a.resultMu.Unlock()
	a.result = res
}

// failureSummary renders the one-line failure description carried by the
// process exit error.
func failureSummary(res *types.SessionResult) string {
	if res.Fatal != "" {
		return fmt.Sprintf("run aborted by sanity failure: %s", res.Fatal)
	}
	if res.Stats.Failed == 0 && res.SuitesFailed > 0 {
		return fmt.Sprintf("%d of %d suites failed", res.SuitesFailed, res.SuitesTotal)
	}
	return fmt.Sprintf("%d of %d cases failed", res.Stats.Failed, res.Stats.Total)
}

// reportSinks keeps handles to the file-backed reporters so their sticky
// write errors surface after each session.
type reportSinks struct {
	log     log.Logger
	summary *reporting.SummaryWriter
	events  *reporting.JSONLFileReporter
	html    *reporting.HTMLReporter
}

func (s *reportSinks) flush() {
	if s == nil {
		return
	}
	if s.summary != nil {
		if err := s.summary.Err(); err != nil {
			s.log.Error("Error writing summary report", "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.Err(); err != nil {
			s.log.Error("Error writing event log", "error", err)
		}
	}
	if s.html != nil {
		if err := s.html.Err(); err != nil {
			s.log.Error("Error writing HTML report", "error", err)
		}
	}
}

// buildRunner assembles the session runner and its reporter chain from cfg:
// the console reporter always runs first, the file sinks join when a report
// directory is configured, and any caller-supplied reporter comes last.
func buildRunner(cfg *Config) (runner.SessionRunner, *reportSinks, error) {
	src := cfg.Source
	if src == nil {
		reg := cfg.Registry
		if reg == nil {
			reg = registry.Default()
		}
		src = reg
	}

	sinks := &reportSinks{log: cfg.Log}
	reporters := []types.Reporter{reporting.NewConsoleReporter(cfg.Out, cfg.Verbose)}
	if cfg.ReportDir != "" {
		summary, err := reporting.NewSummaryWriter(cfg.ReportDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create summary writer: %w", err)
		}
		events, err := reporting.NewJSONLFileReporter(cfg.ReportDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create event log: %w", err)
		}
		html, err := reporting.NewHTMLReporter(cfg.ReportDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create report writer: %w", err)
		}
		snap := cfg.Snapshot()
		html.SetConfigSnapshot(&snap)
		sinks.summary = summary
		sinks.events = events
		sinks.html = html
		reporters = append(reporters, summary, events, html)
	}
	if cfg.Reporter != nil {
		reporters = append(reporters, cfg.Reporter)
	}

	r, err := runner.NewRunner(runner.Config{
		Source:      src,
		Reporter:    reporting.Multi(reporters...),
		Filter:      cfg.Filter,
		SuiteFilter: cfg.SuiteFilter,
		SessionName: cfg.SessionName,
		Log:         cfg.Log,
		Formatter:   cfg.Formatter,
	})
	if err != nil {
		return nil, nil, err
	}
	return r, sinks, nil
}
