package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/unitlab/unit/types"
)

const (
	// RunDirectoryPrefix is the standardized prefix for run directories.
	RunDirectoryPrefix = "testrun-"
	// SummaryFilename is the plain-text session summary inside a run directory.
	SummaryFilename = "summary.log"
	// EventsFilename is the JSONL event stream inside a run directory.
	EventsFilename = "events.jsonl"
	// FailedDirName holds one log file per failed case.
	FailedDirName = "failed"
)

// RunDirectory returns the directory holding one run's report files.
func RunDirectory(baseDir, runID string) string {
	return filepath.Join(baseDir, RunDirectoryPrefix+runID)
}

// SummaryWriter persists each run to disk: a summary.log with the final
// result table plus failure detail, and one file per failed case under
// failed/. The run directory is created when the session starts, so one
// writer serves successive sessions in interval mode.
//
// Reporter callbacks carry no error returns, so write failures are sticky
// and surface through Err once the session is over.
type SummaryWriter struct {
	mu        sync.Mutex
	baseDir   string
	runDir    string
	failedDir string

	failures []caseLog
	current  *caseLog
	usage    []types.UsageError
	err      error
}

// caseLog accumulates the streamed events of one case. The engine discards
// check records after dispatch, so the sink keeps its own copy.
type caseLog struct {
	info     types.CaseInfo
	result   types.CaseResult
	checks   []string
	messages []string
}

// NewSummaryWriter returns a sink writing one run directory per session
// under baseDir.
func NewSummaryWriter(baseDir string) (*SummaryWriter, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", baseDir, err)
	}
	return &SummaryWriter{baseDir: baseDir}, nil
}

// Dir returns the directory of the current run, or "" before any session
// has started.
func (w *SummaryWriter) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runDir
}

// SummaryFile returns the path of the current run's summary file, or ""
// before any session has started.
func (w *SummaryWriter) SummaryFile() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summaryFileLocked()
}

func (w *SummaryWriter) summaryFileLocked() string {
	if w.runDir == "" {
		return ""
	}
	return filepath.Join(w.runDir, SummaryFilename)
}

// Err returns the first write error encountered, if any.
func (w *SummaryWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *SummaryWriter) SessionStarted(info types.SessionInfo) {
	runDir := RunDirectory(w.baseDir, info.RunID)
	failedDir := filepath.Join(runDir, FailedDirName)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.runDir = runDir
	w.failedDir = failedDir
	w.failures = nil
	w.current = nil
	w.usage = nil

	for _, dir := range []string{runDir, failedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			if w.err == nil {
				w.err = fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
			return
		}
	}
}

func (w *SummaryWriter) SuiteStarted(types.SuiteInfo) {}

func (w *SummaryWriter) CaseStarted(info types.CaseInfo) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = &caseLog{info: info}
}

func (w *SummaryWriter) CheckStarted(types.CheckInfo) {}

func (w *SummaryWriter) CheckFinished(res types.CheckResult) {
	if res.Passed {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil || res.Case != w.current.info.Name {
		return
	}
	line := fmt.Sprintf("%s failed: %s (%s:%d)", res.Kind, res.Expr, res.File, res.Line)
	if res.Diff != "" {
		line += "\n" + res.Diff
	}
	w.current.checks = append(w.current.checks, line)
}

func (w *SummaryWriter) Message(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != nil {
		w.current.messages = append(w.current.messages, msg)
	}
}

func (w *SummaryWriter) CaseFinished(res types.CaseResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cl := w.current
	w.current = nil
	if res.Passed() {
		return
	}
	if cl == nil {
		cl = &caseLog{info: res.CaseInfo}
	}
	cl.result = res
	w.failures = append(w.failures, *cl)

	w.writeCaseFile(*cl)
}

func (w *SummaryWriter) SuiteFinished(types.SuiteResult) {}

func (w *SummaryWriter) UsageError(e types.UsageError) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.usage = append(w.usage, e)
}

func (w *SummaryWriter) SessionFinished(res types.SessionResult) {
	table := buildResultTable(res)
	rendered := stripansi.Strip(table.Render())

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.runDir == "" {
		// SessionFinished without SessionStarted: resolve from the result.
		w.runDir = RunDirectory(w.baseDir, res.RunID)
		w.failedDir = filepath.Join(w.runDir, FailedDirName)
		if err := os.MkdirAll(w.runDir, 0755); err != nil && w.err == nil {
			w.err = fmt.Errorf("failed to create directory %s: %w", w.runDir, err)
		}
	}

	var b strings.Builder
	b.WriteString(rendered)
	b.WriteString("\n")

	if len(w.failures) > 0 {
		b.WriteString("\nFAILURES\n")
		for _, cl := range w.failures {
			fmt.Fprintf(&b, "\n%s (%s)", cl.result.Path(), cl.result.Failure)
			if cl.result.Err != "" {
				fmt.Fprintf(&b, ": %s", cl.result.Err)
			}
			b.WriteString("\n")
			for _, c := range cl.checks {
				fmt.Fprintf(&b, "  %s\n", c)
			}
			for _, m := range cl.messages {
				fmt.Fprintf(&b, "  log: %s\n", m)
			}
		}
	}

	if len(w.usage) > 0 {
		b.WriteString("\nUSAGE ERRORS\n")
		for _, e := range w.usage {
			fmt.Fprintf(&b, "\n  %s\n", e.Error())
		}
	}

	if err := os.WriteFile(w.summaryFileLocked(), []byte(b.String()), 0644); err != nil && w.err == nil {
		w.err = fmt.Errorf("failed to write summary file: %w", err)
	}
}

// writeCaseFile persists one failed case under failed/. Callers hold w.mu.
func (w *SummaryWriter) writeCaseFile(cl caseLog) {
	if w.failedDir == "" {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", cl.result.Path())
	fmt.Fprintf(&b, "declared at %s:%d\n", cl.info.File, cl.info.Line)
	fmt.Fprintf(&b, "failure: %s", cl.result.Failure)
	if cl.result.Err != "" {
		fmt.Fprintf(&b, ": %s", cl.result.Err)
	}
	fmt.Fprintf(&b, "\nchecks: %d run, %d failed\n", cl.result.Checks, cl.result.ChecksFailed)
	for _, c := range cl.checks {
		fmt.Fprintf(&b, "\n%s\n", c)
	}
	for _, m := range cl.messages {
		fmt.Fprintf(&b, "\nlog: %s\n", m)
	}

	path := filepath.Join(w.failedDir, sanitizeFilename(cl.result.Path())+".log")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil && w.err == nil {
		w.err = fmt.Errorf("failed to write case log %s: %w", path, err)
	}
}

// sanitizeFilename keeps case paths usable as file names.
func sanitizeFilename(name string) string {
	r := strings.NewReplacer("/", "_", " ", "_", ":", "_")
	return r.Replace(name)
}
