package reporting

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/unitlab/unit/types"
	"github.com/unitlab/unit/ui"
)

// ConsoleReporter streams failures as they happen and renders a summary
// table once the session finishes.
type ConsoleReporter struct {
	out     io.Writer
	verbose bool
}

// NewConsoleReporter writes to out, or stdout when out is nil. With verbose
// set, passing cases and messages print too, not just the failures.
func NewConsoleReporter(out io.Writer, verbose bool) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out, verbose: verbose}
}

func (c *ConsoleReporter) SessionStarted(info types.SessionInfo) {
	fmt.Fprintf(c.out, "Running %s (%d suites)\n", info.Name, info.SuitesTotal)
}

func (c *ConsoleReporter) SuiteStarted(info types.SuiteInfo) {
	if c.verbose {
		fmt.Fprintf(c.out, "=== suite %s\n", info.Name)
	}
}

func (c *ConsoleReporter) CaseStarted(info types.CaseInfo) {
	if c.verbose {
		fmt.Fprintf(c.out, "--- case %s\n", info.Path())
	}
}

func (c *ConsoleReporter) CheckStarted(types.CheckInfo) {}

func (c *ConsoleReporter) CheckFinished(res types.CheckResult) {
	if res.Passed {
		return
	}
	fmt.Fprintf(c.out, "%s %s: %s (%s:%d)\n",
		text.FgRed.Sprint("FAIL"), res.Kind, res.Expr, res.File, res.Line)
	if res.Diff != "" {
		fmt.Fprintln(c.out, res.Diff)
	}
}

func (c *ConsoleReporter) CaseFinished(res types.CaseResult) {
	if !res.Passed() {
		detail := string(res.Failure)
		if res.Err != "" {
			detail += ": " + res.Err
		}
		fmt.Fprintf(c.out, "%s %s (%s)\n", text.FgRed.Sprint("✗"), res.Path(), detail)
		return
	}
	if c.verbose {
		fmt.Fprintf(c.out, "%s %s\n", text.FgGreen.Sprint("✓"), res.Path())
	}
}

func (c *ConsoleReporter) SuiteFinished(types.SuiteResult) {}

func (c *ConsoleReporter) Message(msg string) {
	if c.verbose {
		fmt.Fprintln(c.out, msg)
	}
}

func (c *ConsoleReporter) UsageError(e types.UsageError) {
	fmt.Fprintf(c.out, "%s %s\n", text.FgYellow.Sprint("MISUSE"), e.Error())
}

func (c *ConsoleReporter) SessionFinished(res types.SessionResult) {
	t := buildResultTable(res)
	t.SetOutputMirror(c.out)
	t.Render()
}

// buildResultTable lays the finished session out as one table: a row per
// suite, an indented row per case, and a totals footer.
func buildResultTable(res types.SessionResult) table.Writer {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Test Session Results (%s)", formatDuration(res.Duration)))

	t.AppendHeader(table.Row{
		"Type", "ID", "Duration", "Cases", "Passed", "Failed", "Status", "Error",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Cases", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
	})

	for _, suite := range res.Suites {
		t.AppendRow(table.Row{
			"Suite",
			suite.Name,
			formatDuration(suite.Duration),
			"-", // the suite itself is not a case
			suite.Stats.Passed,
			suite.Stats.Failed,
			statusString(suite.Status),
			suite.Err,
		})

		for i, cs := range suite.Cases {
			prefix := ui.TreeBranch
			if i == len(suite.Cases)-1 {
				prefix = ui.TreeLastBranch
			}

			t.AppendRow(table.Row{
				"",
				prefix + cs.Name,
				"-", // per-case timings are not tracked
				"1",
				boolToInt(cs.Passed()),
				boolToInt(!cs.Passed()),
				statusString(cs.Status),
				cs.Err,
			})
		}

		t.AppendSeparator()
	}

	if res.Passed() {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(res.Duration),
		res.Stats.Total,
		res.Stats.Passed,
		res.Stats.Failed,
		statusString(res.Status),
		res.Fatal,
	})

	return t
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Helper function to convert bool to int
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// statusString returns a colored string representing the result
func statusString(status types.Status) string {
	if status == types.StatusPass {
		return "✓ pass"
	}
	return "✗ fail"
}
