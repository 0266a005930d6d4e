// Package flags defines the CLI surface shared by test binaries built on
// this module.
package flags

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "UNIT"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Filter = &cli.StringFlag{
		Name:    "filter",
		Value:   "",
		EnvVars: prefixEnvVars("FILTER"),
		Usage:   "Run only cases whose suite/case path matches this glob (eg. 'billing/*')",
	}
	Suite = &cli.StringFlag{
		Name:    "suite",
		Value:   "",
		EnvVars: prefixEnvVars("SUITE"),
		Usage:   "Run only suites whose name matches this glob (eg. 'auth*')",
	}
	Plan = &cli.StringFlag{
		Name:    "plan",
		Value:   "",
		EnvVars: prefixEnvVars("PLAN"),
		Usage:   "Path to a YAML run plan with include/exclude patterns (eg. 'plan.yaml')",
	}
	List = &cli.BoolFlag{
		Name:    "list",
		Value:   false,
		EnvVars: prefixEnvVars("LIST"),
		Usage:   "List registered suites and cases without running them",
	}
	ReportDir = &cli.StringFlag{
		Name:    "report-dir",
		Value:   "",
		EnvVars: prefixEnvVars("REPORT_DIR"),
		Usage:   "Directory receiving one report directory per run. Empty disables file reports.",
	}
	SessionName = &cli.StringFlag{
		Name:    "session-name",
		Value:   "",
		EnvVars: prefixEnvVars("SESSION_NAME"),
		Usage:   "Name reported for the session. Defaults to a name derived from the start time.",
	}
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Value:   false,
		EnvVars: prefixEnvVars("VERBOSE"),
		Usage:   "Stream passing cases and log messages to the console, not just failures",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log.level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output (trace, debug, info, warn, error, crit)",
	}
	LogFormat = &cli.StringFlag{
		Name:    "log.format",
		Value:   "terminal",
		EnvVars: prefixEnvVars("LOG_FORMAT"),
		Usage:   "Format the log output. Supported formats: 'terminal', 'logfmt', 'json'",
	}
	MetricsEnabled = &cli.BoolFlag{
		Name:    "metrics.enabled",
		Value:   false,
		EnvVars: prefixEnvVars("METRICS_ENABLED"),
		Usage:   "Enable the prometheus metrics server",
	}
	MetricsPort = &cli.IntFlag{
		Name:    "metrics.port",
		Value:   7300,
		EnvVars: prefixEnvVars("METRICS_PORT"),
		Usage:   "Port for the prometheus metrics server",
	}
	HealthzPort = &cli.IntFlag{
		Name:    "healthz.port",
		Value:   8080,
		EnvVars: prefixEnvVars("HEALTHZ_PORT"),
		Usage:   "Port for the healthz server",
	}
)

var runFlags = []cli.Flag{
	Filter,
	Suite,
	Plan,
	List,
	ReportDir,
	SessionName,
	Verbose,
	RunInterval,
}

var serviceFlags = []cli.Flag{
	LogLevel,
	LogFormat,
	MetricsEnabled,
	MetricsPort,
	HealthzPort,
}

// Flags is the full flag surface of a test binary.
var Flags []cli.Flag

func init() {
	Flags = append(Flags, runFlags...)
	Flags = append(Flags, serviceFlags...)
}

// CheckRequired rejects flag combinations that cannot be satisfied together.
// A plan file owns the selection, so ad-hoc filters cannot be mixed with it.
func CheckRequired(ctx *cli.Context) error {
	if ctx.IsSet(Plan.Name) && ctx.IsSet(Filter.Name) {
		return fmt.Errorf("flag %s cannot be combined with %s", Filter.Name, Plan.Name)
	}
	if ctx.IsSet(Plan.Name) && ctx.IsSet(Suite.Name) {
		return fmt.Errorf("flag %s cannot be combined with %s", Suite.Name, Plan.Name)
	}
	return nil
}

// FlagNameToEnvVarName derives the environment variable carrying a flag,
// eg. "log.level" becomes UNIT_LOG_LEVEL.
func FlagNameToEnvVarName(name string) string {
	s := strings.ToUpper(name)
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return EnvVarPrefix + "_" + s
}
