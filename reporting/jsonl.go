package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/unitlab/unit/types"
)

// Event is one line of the machine-readable run stream. The shape follows
// the `go test -json` event format so existing log tooling can ingest it:
// scope-level events carry "start", "run", "pass" and "fail" actions, and
// narrower fields pin the event to a suite, case or check.
type Event struct {
	Time    time.Time    `json:"Time"`
	Action  string       `json:"Action"`
	RunID   string       `json:"RunID,omitempty"`
	Suite   string       `json:"Suite,omitempty"`
	Case    string       `json:"Case,omitempty"`
	Kind    string       `json:"Kind,omitempty"`
	Expr    string       `json:"Expr,omitempty"`
	Passed  *bool        `json:"Passed,omitempty"`
	Output  string       `json:"Output,omitempty"`
	Detail  string       `json:"Detail,omitempty"`
	Elapsed float64      `json:"Elapsed,omitempty"`
	Stats   *types.Stats `json:"Stats,omitempty"`
}

// JSONLReporter streams one JSON event per line to a writer. Encoding
// errors are sticky and surface through Err.
type JSONLReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewJSONLReporter wraps w. The caller owns the writer and closes it after
// the session has finished.
func NewJSONLReporter(w io.Writer) *JSONLReporter {
	return &JSONLReporter{enc: json.NewEncoder(w)}
}

// Err returns the first encoding error encountered, if any.
func (j *JSONLReporter) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *JSONLReporter) emit(e Event) {
	e.Time = time.Now().UTC()
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(e); err != nil && j.err == nil {
		j.err = err
	}
}

func (j *JSONLReporter) SessionStarted(info types.SessionInfo) {
	j.emit(Event{Action: "start", RunID: info.RunID, Detail: info.Name})
}

func (j *JSONLReporter) SuiteStarted(info types.SuiteInfo) {
	j.emit(Event{Action: "start", Suite: info.Name})
}

func (j *JSONLReporter) CaseStarted(info types.CaseInfo) {
	j.emit(Event{Action: "run", Suite: info.Suite, Case: info.Name})
}

func (j *JSONLReporter) CheckStarted(info types.CheckInfo) {
	j.emit(Event{Action: "check", Suite: info.Suite, Case: info.Case, Kind: string(info.Kind)})
}

func (j *JSONLReporter) CheckFinished(res types.CheckResult) {
	passed := res.Passed
	j.emit(Event{
		Action: "check",
		Suite:  res.Suite,
		Case:   res.Case,
		Kind:   string(res.Kind),
		Expr:   res.Expr,
		Passed: &passed,
		Detail: res.Diff,
	})
}

func (j *JSONLReporter) CaseFinished(res types.CaseResult) {
	e := Event{Action: passFail(res.Passed()), Suite: res.Suite, Case: res.Name}
	if !res.Passed() {
		e.Kind = string(res.Failure)
		e.Detail = res.Err
	}
	j.emit(e)
}

func (j *JSONLReporter) SuiteFinished(res types.SuiteResult) {
	j.emit(Event{
		Action:  passFail(res.Passed()),
		Suite:   res.Name,
		Detail:  res.Err,
		Elapsed: res.Duration.Seconds(),
	})
}

func (j *JSONLReporter) Message(msg string) {
	j.emit(Event{Action: "output", Output: msg})
}

func (j *JSONLReporter) UsageError(e types.UsageError) {
	j.emit(Event{
		Action: "misuse",
		Suite:  e.Scope,
		Kind:   string(e.Kind),
		Detail: e.Detail,
	})
}

func (j *JSONLReporter) SessionFinished(res types.SessionResult) {
	stats := res.Stats
	j.emit(Event{
		Action:  passFail(res.Passed()),
		RunID:   res.RunID,
		Detail:  res.Fatal,
		Elapsed: res.Duration.Seconds(),
		Stats:   &stats,
	})
}

func passFail(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}

// JSONLFileReporter writes the event stream to events.jsonl inside each
// run's directory. The file is created when a session starts and closed
// when it finishes, so one reporter serves successive sessions in interval
// mode.
type JSONLFileReporter struct {
	mu      sync.Mutex
	baseDir string
	file    *os.File
	inner   *JSONLReporter
	err     error
}

// NewJSONLFileReporter returns a reporter writing one events.jsonl per run
// under baseDir.
func NewJSONLFileReporter(baseDir string) (*JSONLFileReporter, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", baseDir, err)
	}
	return &JSONLFileReporter{baseDir: baseDir}, nil
}

// Path returns the event file of the current run, or "" outside a session.
func (f *JSONLFileReporter) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return ""
	}
	return f.file.Name()
}

// Err returns the first write error encountered, if any.
func (f *JSONLFileReporter) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *JSONLFileReporter) SessionStarted(info types.SessionInfo) {
	f.mu.Lock()
	dir := RunDirectory(f.baseDir, info.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		if f.err == nil {
			f.err = fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		f.mu.Unlock()
		return
	}
	file, err := os.Create(filepath.Join(dir, EventsFilename))
	if err != nil {
		if f.err == nil {
			f.err = fmt.Errorf("failed to create event file: %w", err)
		}
		f.mu.Unlock()
		return
	}
	f.file = file
	f.inner = NewJSONLReporter(file)
	f.mu.Unlock()

	f.inner.SessionStarted(info)
}

func (f *JSONLFileReporter) SessionFinished(res types.SessionResult) {
	f.mu.Lock()
	inner, file := f.inner, f.file
	f.inner, f.file = nil, nil
	f.mu.Unlock()

	if inner == nil {
		return
	}
	inner.SessionFinished(res)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := inner.Err(); err != nil && f.err == nil {
		f.err = err
	}
	if err := file.Close(); err != nil && f.err == nil {
		f.err = fmt.Errorf("failed to close event file: %w", err)
	}
}

func (f *JSONLFileReporter) active() *JSONLReporter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inner
}

func (f *JSONLFileReporter) SuiteStarted(info types.SuiteInfo) {
	if r := f.active(); r != nil {
		r.SuiteStarted(info)
	}
}

func (f *JSONLFileReporter) SuiteFinished(res types.SuiteResult) {
	if r := f.active(); r != nil {
		r.SuiteFinished(res)
	}
}

func (f *JSONLFileReporter) CaseStarted(info types.CaseInfo) {
	if r := f.active(); r != nil {
		r.CaseStarted(info)
	}
}

func (f *JSONLFileReporter) CaseFinished(res types.CaseResult) {
	if r := f.active(); r != nil {
		r.CaseFinished(res)
	}
}

func (f *JSONLFileReporter) CheckStarted(info types.CheckInfo) {
	if r := f.active(); r != nil {
		r.CheckStarted(info)
	}
}

func (f *JSONLFileReporter) CheckFinished(res types.CheckResult) {
	if r := f.active(); r != nil {
		r.CheckFinished(res)
	}
}

func (f *JSONLFileReporter) Message(msg string) {
	if r := f.active(); r != nil {
		r.Message(msg)
	}
}

func (f *JSONLFileReporter) UsageError(e types.UsageError) {
	if r := f.active(); r != nil {
		r.UsageError(e)
	}
}
