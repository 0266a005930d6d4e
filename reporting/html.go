package reporting

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/unitlab/unit/types"
)

// ReportFilename is the HTML report inside each run's directory.
const ReportFilename = "report.html"

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// templateFuncs are the helpers the report template renders with.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			if d < time.Second {
				return fmt.Sprintf("%dms", d.Milliseconds())
			}
			return d.Truncate(time.Millisecond).String()
		},
		"statusClass": func(s types.Status) string {
			if s == types.StatusPass {
				return "pass"
			}
			return "fail"
		},
		"passRate": func(stats types.Stats) string {
			if stats.Total == 0 {
				return "100%"
			}
			return fmt.Sprintf("%.0f%%", float64(stats.Passed)/float64(stats.Total)*100)
		},
	}
}

// HTMLReporter writes a self-contained report.html into each run's
// directory once the session finishes. It only acts on SessionFinished, so
// one instance serves successive sessions in interval mode.
type HTMLReporter struct {
	types.NopReporter

	mu       sync.Mutex
	baseDir  string
	tmpl     *template.Template
	snapshot *types.ConfigSnapshot
	err      error
}

// NewHTMLReporter returns a reporter writing one report.html per run under
// baseDir.
func NewHTMLReporter(baseDir string) (*HTMLReporter, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", baseDir, err)
	}
	tmpl, err := template.New("report.html.tmpl").
		Funcs(templateFuncs()).
		ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &HTMLReporter{baseDir: baseDir, tmpl: tmpl}, nil
}

// SetConfigSnapshot attaches the effective run configuration; it renders as
// its own section of the report.
func (h *HTMLReporter) SetConfigSnapshot(snap *types.ConfigSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = snap
}

// Err returns the first write error encountered, if any.
func (h *HTMLReporter) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *HTMLReporter) SessionFinished(res types.SessionResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dir := RunDirectory(h.baseDir, res.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		if h.err == nil {
			h.err = fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		return
	}
	file, err := os.Create(filepath.Join(dir, ReportFilename))
	if err != nil {
		if h.err == nil {
			h.err = fmt.Errorf("failed to create report file: %w", err)
		}
		return
	}
	defer file.Close()

	data := struct {
		Result    types.SessionResult
		Config    *types.ConfigSnapshot
		Generated time.Time
	}{Result: res, Config: h.snapshot, Generated: time.Now()}

	if err := h.tmpl.Execute(file, data); err != nil && h.err == nil {
		h.err = fmt.Errorf("failed to render report: %w", err)
	}
}
