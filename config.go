package unit

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/unitlab/unit/flags"
	"github.com/unitlab/unit/registry"
	"github.com/unitlab/unit/runner"
	"github.com/unitlab/unit/types"
)

// Config holds the application configuration
type Config struct {
	Filter      types.Filter      // selects cases; nil selects everything
	SuiteFilter func(string) bool // selects suites; nil selects everything
	SessionName string            // display name; derived from the start time when empty
	ReportDir   string            // receives one run directory per session; empty disables file reports
	Verbose     bool              // stream passing cases and log messages, not just failures
	RunInterval time.Duration     // interval between runs
	RunOnce     bool              // exit after one run
	List        bool              // print registered units instead of running

	// Raw selection inputs, kept for the report config snapshot.
	FilterPattern string
	SuitePattern  string
	PlanPath      string

	Registry  *registry.Registry // defaults to the process-wide registry
	Source    runner.Source      // overrides Registry when set
	Reporter  types.Reporter     // extra reporter receiving every event
	Formatter runner.Formatter   // value rendering for check records
	Out       io.Writer          // console destination; defaults to os.Stdout
	Log       log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("conflicting flags: %w", err)
	}

	cfg := &Config{
		SessionName: ctx.String(flags.SessionName.Name),
		Verbose:     ctx.Bool(flags.Verbose.Name),
		List:        ctx.Bool(flags.List.Name),
		Log:         log,
	}

	if pattern := ctx.String(flags.Filter.Name); pattern != "" {
		if err := checkPattern(pattern); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
		}
		cfg.Filter = GlobFilter(pattern)
		cfg.FilterPattern = pattern
	}
	if pattern := ctx.String(flags.Suite.Name); pattern != "" {
		if err := checkPattern(pattern); err != nil {
			return nil, fmt.Errorf("invalid suite pattern %q: %w", pattern, err)
		}
		cfg.SuiteFilter = GlobSuiteFilter(pattern)
		cfg.SuitePattern = pattern
	}
	if planPath := ctx.String(flags.Plan.Name); planPath != "" {
		plan, err := LoadPlan(planPath)
		if err != nil {
			return nil, err
		}
		cfg.Filter = plan.Filter()
		cfg.SuiteFilter = plan.SuiteFilter()
		cfg.PlanPath = planPath
	}

	if reportDir := ctx.String(flags.ReportDir.Name); reportDir != "" {
		absReportDir, err := filepath.Abs(reportDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for report directory '%s': %w", reportDir, err)
		}
		cfg.ReportDir = absReportDir
	}

	cfg.RunInterval = ctx.Duration(flags.RunInterval.Name)
	cfg.RunOnce = cfg.RunInterval == 0

	return cfg, nil
}

// Snapshot captures the effective configuration for inclusion in generated
// reports.
func (c *Config) Snapshot() types.ConfigSnapshot {
	return types.ConfigSnapshot{
		Version:     version(),
		SessionName: c.SessionName,
		Selection: types.SelectionSnapshot{
			Filter: c.FilterPattern,
			Suite:  c.SuitePattern,
			Plan:   c.PlanPath,
		},
		Execution: types.ExecutionSnapshot{
			RunInterval: c.RunInterval,
			RunOnce:     c.RunOnce,
			Verbose:     c.Verbose,
		},
		Reports: types.ReportsSnapshot{
			ReportDir: c.ReportDir,
		},
	}
}

// GlobFilter selects cases whose path matches pattern. A pattern containing
// a slash matches against "suite/case"; one without matches the case name
// alone.
func GlobFilter(pattern string) types.Filter {
	matchPath := strings.Contains(pattern, "/")
	return func(suite, caseName string) bool {
		target := caseName
		if matchPath {
			target = suite + "/" + caseName
		}
		ok, err := path.Match(pattern, target)
		return err == nil && ok
	}
}

// GlobSuiteFilter selects suites whose name matches pattern.
func GlobSuiteFilter(pattern string) func(string) bool {
	return func(suite string) bool {
		ok, err := path.Match(pattern, suite)
		return err == nil && ok
	}
}
