package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/scenario"
)

const defaultFeaturesPath = "features"

type pathList []string

func (p *pathList) String() string {
	return strings.Join(*p, ",")
}

// Set is called by the command line parser
func (p *pathList) Set(value string) error {
	*p = append(*p, value)
	return nil
}

type commandParams struct {
	features       pathList
	tags           string
	concurrency    int
	mode           string
	format         string
	stopOnFailure  bool
	filters        scenario.RegexFilters
	debug          bool
	debugAll       bool
	jUnitFile      string
	mock           bool
	mockAddr       string
	recordFailures string
	skipFile       string
	dryRun         bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.Var(&c.features, "features", "feature file or directory to run (may be repeated; default \"features\")")
	fs.StringVar(&c.tags, "tags", "", "tag expression selecting scenarios, such as \"@api && not @slow\"")
	fs.IntVar(&c.concurrency, "concurrency", 1, "number of scenarios to run in parallel")
	fs.StringVar(&c.mode, "mode", framework.ModeAuto, "which scenarios to run: api, ui, combined or auto")
	fs.StringVar(&c.format, "format", "pretty", "godog output format for the console")
	fs.BoolVar(&c.stopOnFailure, "stop-on-failure", false, "stop the run at the first failed scenario")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select scenarios to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select scenarios not to run")
	fs.StringVar(&c.skipFile, "skip-from", "", "file containing scenario names to skip, one per line")
	fs.BoolVar(&c.debug, "debug", false, "show debug output for failed scenarios")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging and show debug output for all scenarios")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.BoolVar(&c.mock, "mock", false, "run against the built-in mock API instead of API_BASE_URL")
	fs.StringVar(&c.mockAddr, "mock-addr", "127.0.0.1:0", "listen address for the mock API")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the names of failed scenarios to the specified file")
	fs.BoolVar(&c.dryRun, "dry-run", false, "parse the features and report every scenario as skipped")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	switch strings.ToLower(c.mode) {
	case framework.ModeAPI, framework.ModeUI, framework.ModeCombined, framework.ModeAuto:
		c.mode = strings.ToLower(c.mode)
	default:
		fmt.Fprintf(os.Stderr, "-mode must be api, ui, combined or auto, not %q\n", c.mode)
		fs.Usage()
		return false
	}
	if c.concurrency < 1 {
		fmt.Fprintln(os.Stderr, "-concurrency must be at least 1")
		fs.Usage()
		return false
	}
	if len(c.features) == 0 {
		c.features = pathList{defaultFeaturesPath}
	}
	return true
}
