package unit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/unitlab/unit/exitcodes"
	"github.com/unitlab/unit/flags"
	"github.com/unitlab/unit/registry"
	"github.com/unitlab/unit/runner"
	"github.com/unitlab/unit/service"
	"github.com/unitlab/unit/source"
	"github.com/unitlab/unit/ui"
)

var (
	// Version identifies the engine build. Binaries override these with
	// -ldflags "-X github.com/unitlab/unit.Version=... ".
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

// shutdownTimeout bounds the drain of a continuous-mode service after a
// signal.
const shutdownTimeout = 10 * time.Second

func version() string {
	v := Version
	if GitCommit != "" {
		v += "-" + GitCommit
	}
	if GitDate != "" {
		v += "-" + GitDate
	}
	return v
}

// Main runs a test binary end to end: parse args, execute the registered
// units once or on an interval, and map the outcome onto the process exit
// code. Binaries embed it as
//
//	func main() { os.Exit(unit.Main(os.Args)) }
//
// It returns 0 when every selected case passed, 1 when any failed, and 2
// when the engine itself could not run.
func Main(args []string) int {
	// The built-in version flag's -v shorthand collides with the -v alias
	// on flags.Verbose and panics at parse time; keep --version only.
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
	app := cli.NewApp()
	app.Version = version()
	app.Name = "unit"
	if len(args) > 0 && args[0] != "" {
		app.Name = filepath.Base(args[0])
	}
	app.Usage = "Self-registering test runner"
	app.Description = "Runs the suites and cases registered in this binary, once or on an interval"
	app.Flags = flags.Flags
	app.Action = run
	// Unparsable flags are an operational problem, not a test failure.
	app.OnUsageError = func(_ *cli.Context, err error, _ bool) error {
		return NewRuntimeError(err)
	}
	// The exit code is decided below from the returned error; stop
	// urfave/cli from calling os.Exit on its own.
	app.ExitErrHandler = func(*cli.Context, error) {}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.RunContext(ctx, args)

	var exitErr cli.ExitCoder
	switch {
	case err == nil:
		return exitcodes.Success
	case errors.As(err, &exitErr):
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		return exitErr.ExitCode()
	case IsRuntimeError(err):
		fmt.Fprintln(os.Stderr, err)
		return exitcodes.RuntimeErr
	case IsTestFailureError(err):
		// The console reporter already showed the failures.
		return exitcodes.TestFailure
	default:
		fmt.Fprintln(os.Stderr, err)
		return exitcodes.TestFailure
	}
}

func run(cliCtx *cli.Context) error {
	logger, err := newLogger(cliCtx)
	if err != nil {
		return NewRuntimeError(err)
	}
	log.SetDefault(logger)

	cfg, err := NewConfig(cliCtx, logger)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config",
		"filter", cliCtx.String(flags.Filter.Name),
		"suite", cliCtx.String(flags.Suite.Name),
		"plan", cliCtx.String(flags.Plan.Name),
		"reportDir", cfg.ReportDir,
		"runInterval", cfg.RunInterval,
		"runOnce", cfg.RunOnce)

	if cfg.List {
		return listUnits(cfg, cliCtx.App.Writer)
	}

	// Telemetry ships spans only when an OTLP endpoint is configured;
	// otherwise the tracers stay no-ops.
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
			otelconfig.WithServiceName(cliCtx.App.Name),
			otelconfig.WithServiceVersion(cliCtx.App.Version),
		)
		if err != nil {
			return NewRuntimeError(fmt.Errorf("failed to set up telemetry: %w", err))
		}
		defer otelShutdown()
	}

	svcCfg := service.Config{}
	if cliCtx.Bool(flags.MetricsEnabled.Name) {
		svcCfg.MetricsAddr = net.JoinHostPort(service.MetricsHost, strconv.Itoa(cliCtx.Int(flags.MetricsPort.Name)))
	}
	if !cfg.RunOnce {
		svcCfg.HealthzAddr = net.JoinHostPort(service.HealthzHost, strconv.Itoa(cliCtx.Int(flags.HealthzPort.Name)))
	}
	svc := service.New(svcCfg)
	svc.Start(cliCtx.Context)
	defer svc.Shutdown()

	ctx, cancelApp := context.WithCancelCause(cliCtx.Context)
	defer cancelApp(nil)

	testSvc, err := New(ctx, cfg, cliCtx.App.Version, cancelApp)
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create test service: %w", err))
	}

	if err := testSvc.Start(ctx); err != nil {
		return err
	}
	if cfg.RunOnce {
		return nil
	}

	// Continuous mode: hold until a signal cancels the context, then drain
	// the scheduler.
	<-ctx.Done()
	logger.Info("Shutting down", "cause", context.Cause(ctx))

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := testSvc.Stop(stopCtx); err != nil {
		return NewRuntimeError(fmt.Errorf("failed to stop test service: %w", err))
	}
	if err := testSvc.WaitForShutdown(stopCtx); err != nil {
		return NewRuntimeError(fmt.Errorf("failed to drain test service: %w", err))
	}
	return nil
}

// newLogger builds the process logger from the log.level and log.format
// flags.
func newLogger(ctx *cli.Context) (log.Logger, error) {
	lvl, err := levelFromString(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var handler slog.Handler
	switch format := ctx.String(flags.LogFormat.Name); format {
	case "json":
		handler = log.JSONHandlerWithLevel(os.Stderr, lvl)
	case "logfmt":
		handler = log.LogfmtHandlerWithLevel(os.Stderr, lvl)
	case "terminal":
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor())
	default:
		return nil, fmt.Errorf("unrecognized log format: %s", format)
	}
	return log.NewLogger(handler), nil
}

func levelFromString(lvlString string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(lvlString)) {
	case "trace", "trce":
		return log.LevelTrace, nil
	case "debug", "dbug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error", "eror":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelDebug, fmt.Errorf("unknown level: %v", lvlString)
	}
}

// useColor enables ANSI colors only when stderr is a terminal.
func useColor() bool {
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// listUnits prints the registered units the configured filters select,
// without running anything. Suite cases are read statically from the
// declaring files, so cases with computed names are not shown.
func listUnits(cfg *Config, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}
	src := cfg.Source
	if src == nil {
		if cfg.Registry != nil {
			src = cfg.Registry
		} else {
			src = registry.Default()
		}
	}
	suiteSelected := func(name string) bool {
		return cfg.SuiteFilter == nil || cfg.SuiteFilter(name)
	}

	var standalone []runner.CaseDecl
	if suiteSelected(runner.DefaultSuiteName) {
		src.Cases(func(d runner.CaseDecl) bool {
			if cfg.Filter.Match(runner.DefaultSuiteName, d.Name) {
				standalone = append(standalone, d)
			}
			return true
		})
	}

	type suiteEntry struct {
		decl  runner.SuiteDecl
		cases []string
	}
	reader := source.NewFileReader()
	var suites []suiteEntry
	src.Suites(func(d runner.SuiteDecl) bool {
		if !suiteSelected(d.Name) {
			return true
		}
		e := suiteEntry{decl: d}
		names, err := reader.SuiteCases(d.File, d.Line)
		if err != nil {
			cfg.Log.Debug("Cannot list suite cases statically", "suite", d.Name, "error", err)
		}
		for _, name := range names {
			if cfg.Filter.Match(d.Name, name) {
				e.cases = append(e.cases, name)
			}
		}
		suites = append(suites, e)
		return true
	})

	printCases := func(names []string) {
		for i, name := range names {
			prefix := ui.TreeBranch
			if i == len(names)-1 {
				prefix = ui.TreeLastBranch
			}
			fmt.Fprintf(out, "%s%s\n", prefix, name)
		}
	}

	suitesShown := len(suites)
	casesShown := len(standalone)
	if len(standalone) > 0 {
		suitesShown++
		fmt.Fprintf(out, "%s\n", runner.DefaultSuiteName)
		names := make([]string, len(standalone))
		for i, d := range standalone {
			names[i] = fmt.Sprintf("%s (%s:%d)", d.Name, filepath.Base(d.File), d.Line)
		}
		printCases(names)
	}
	for _, e := range suites {
		fmt.Fprintf(out, "%s (%s:%d)\n", e.decl.Name, filepath.Base(e.decl.File), e.decl.Line)
		printCases(e.cases)
		casesShown += len(e.cases)
	}

	fmt.Fprintf(out, "\n%d suite(s), %d case(s)\n", suitesShown, casesShown)
	return nil
}
