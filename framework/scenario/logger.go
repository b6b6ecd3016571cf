package scenario

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/sak85/API-Automation-POC/framework"
)

var consoleErrorColor = color.New(color.FgYellow)                  //nolint:gochecknoglobals
var consoleFailedColor = color.New(color.FgRed)                    //nolint:gochecknoglobals
var consolePassedColor = color.New(color.FgGreen)                  //nolint:gochecknoglobals
var consoleSkippedColor = color.New(color.Faint, color.FgBlue)     //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)               //nolint:gochecknoglobals
var allScenariosPassedColor = color.New(color.FgGreen, color.Bold) //nolint:gochecknoglobals

// Logger receives status information about each scenario as it runs. Implementations must be
// safe for concurrent use, since scenarios can run in parallel.
type Logger interface {
	ScenarioStarted(id ID)
	ScenarioError(id ID, err error)
	ScenarioFinished(id ID, result Result, debugOutput framework.CapturedOutput)
	ScenarioSkipped(id ID, reason string)
}

// ReportWriter is a Logger that produces a report once the run is over.
type ReportWriter interface {
	Logger
	EndLog(results Results) error
}

type nullLogger struct{}

func (n nullLogger) ScenarioStarted(ID)                                    {}
func (n nullLogger) ScenarioError(ID, error)                               {}
func (n nullLogger) ScenarioFinished(ID, Result, framework.CapturedOutput) {}
func (n nullLogger) ScenarioSkipped(ID, string)                            {}

// ConsoleLogger prints scenario progress to standard output.
type ConsoleLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleLogger) ScenarioStarted(id ID) {
	fmt.Printf("[%s]\n", id)
}

func (c ConsoleLogger) ScenarioError(id ID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = consoleErrorColor.Printf("  %s\n", line)
	}
}

func (c ConsoleLogger) ScenarioFinished(id ID, result Result, debugOutput framework.CapturedOutput) {
	failed := result.Failed()
	if failed {
		_, _ = consoleFailedColor.Printf("  FAILED: %s\n", id)
	} else {
		_, _ = consolePassedColor.Printf("  PASSED: %s (%dms)\n", id, result.Duration.Milliseconds())
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Println(debugOutput.ToString("    DEBUG "))
	}
}

func (c ConsoleLogger) ScenarioSkipped(id ID, reason string) {
	if reason == "" {
		_, _ = consoleSkippedColor.Printf("  SKIPPED: %s\n", id)
	} else {
		_, _ = consoleSkippedColor.Printf("  SKIPPED: %s (%s)\n", id, reason)
	}
}

// MultiLogger fans out every call to several loggers.
type MultiLogger struct {
	Loggers []Logger
}

func (m *MultiLogger) ScenarioStarted(id ID) {
	for _, l := range m.Loggers {
		l.ScenarioStarted(id)
	}
}

func (m *MultiLogger) ScenarioError(id ID, err error) {
	for _, l := range m.Loggers {
		l.ScenarioError(id, err)
	}
}

func (m *MultiLogger) ScenarioFinished(id ID, result Result, debugOutput framework.CapturedOutput) {
	for _, l := range m.Loggers {
		l.ScenarioFinished(id, result, debugOutput)
	}
}

func (m *MultiLogger) ScenarioSkipped(id ID, reason string) {
	for _, l := range m.Loggers {
		l.ScenarioSkipped(id, reason)
	}
}

// EndLog calls EndLog on every logger that is a ReportWriter, returning the first error.
func (m *MultiLogger) EndLog(results Results) error {
	var firstErr error
	for _, l := range m.Loggers {
		if w, ok := l.(ReportWriter); ok {
			if err := w.EndLog(results); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// PrintResults writes the end-of-run summary.
func PrintResults(out io.Writer, results Results) {
	passed, failed, skipped := results.Counts()
	fmt.Fprintf(out, "%d scenarios (%d passed, %d failed, %d skipped)\n",
		len(results.Scenarios), passed, failed, skipped)
	if results.OK() {
		_, _ = allScenariosPassedColor.Fprintln(out, "All scenarios passed")
		return
	}
	_, _ = consoleFailedColor.Fprintf(out, "FAILED SCENARIOS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		_, _ = consoleFailedColor.Fprintf(out, "  * %s\n", f.ID)
	}
}

// PrintResultsToConsole is PrintResults on standard error, where the teardown summary belongs.
func PrintResultsToConsole(results Results) {
	PrintResults(os.Stderr, results)
}
