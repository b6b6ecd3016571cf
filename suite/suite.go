package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/browser"
	"github.com/sak85/API-Automation-POC/data"
	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/scenario"
	"github.com/sak85/API-Automation-POC/report"
	"github.com/sak85/API-Automation-POC/store"
)

const publishTimeout = 30 * time.Second

// LaunchFunc starts the browser that all UI scenarios share.
type LaunchFunc func() (browser.Driver, error)

// Options configures a Suite.
type Options struct {
	// Mode is "api", "ui", "combined" or "auto". See framework.CapabilitiesForMode.
	Mode string
	// RunID identifies the run in the summary and the result store. If empty, a UUID is used.
	RunID string
	// Client is shared by every scenario; each World starts out with it.
	Client *apiclient.Client
	// Launch starts the browser if the mode includes UI. A nil Launch behaves like a machine with
	// no browser installed.
	Launch LaunchFunc
	// Fixtures resolves "I load test data from" steps. It may be nil.
	Fixtures      *data.Loader
	UITimeout     time.Duration
	ReportDir     string
	ScreenshotDir string
	Logger        *framework.LevelLogger
	// ScenarioLogger receives the progress of each scenario. If it is also a
	// scenario.ReportWriter, its EndLog is called when the suite ends.
	ScenarioLogger scenario.Logger
	// Filters skips scenarios by feature and scenario name.
	Filters scenario.RegexFilters
	// Publisher receives the run summary when the suite ends. It may be nil.
	Publisher store.Publisher
	// DryRun skips every scenario without running its steps or starting a browser.
	DryRun bool
	Now    func() time.Time
}

// Suite holds the state of one run that outlives any single scenario. It is safe for the
// concurrent scenario execution godog does with -concurrency.
type Suite struct {
	opts       Options
	caps       framework.Capabilities
	state      atomic.Int32
	driver     browser.Driver
	launchErr  error
	recorder   scenario.Recorder
	startedAt  time.Time
	finishedAt time.Time
	summary    report.Summary
	lock       sync.Mutex
}

// New creates a Suite that has not started yet.
func New(opts Options) *Suite {
	if opts.Logger == nil {
		opts.Logger = framework.NewLevelLogger(io.Discard, framework.LevelError)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Suite{opts: opts, caps: framework.CapabilitiesForMode(opts.Mode)}
}

// State returns the current lifecycle stage.
func (s *Suite) State() State {
	return State(s.state.Load())
}

// RunID returns the identifier of this run.
func (s *Suite) RunID() string {
	return s.opts.RunID
}

// Driver returns the shared browser, or nil if none was started.
func (s *Suite) Driver() browser.Driver {
	return s.driver
}

// Results returns the outcome of every scenario that has finished so far.
func (s *Suite) Results() scenario.Results {
	return s.recorder.Results()
}

// Summary returns the run summary. It is only filled in once the suite is Completed.
func (s *Suite) Summary() report.Summary {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.summary
}

// InitializeTestSuite registers the process-wide hooks. It is a godog TestSuiteInitializer.
func (s *Suite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		if err := s.Setup(); err != nil {
			s.opts.Logger.Errorf("Suite setup failed: %s", err)
		}
	})
	ctx.AfterSuite(func() {
		if err := s.Teardown(); err != nil {
			s.opts.Logger.Errorf("Suite teardown failed: %s", err)
		}
	})
}

// Setup creates the output directories and, if the mode includes UI, launches the browser. A
// browser that cannot be started is not an error here; UI scenarios report it when they run.
func (s *Suite) Setup() error {
	if !s.state.CompareAndSwap(int32(NotStarted), int32(Running)) {
		return fmt.Errorf("cannot start a suite that is %s", s.State())
	}
	s.startedAt = s.opts.Now()
	if err := report.EnsureDirs(s.opts.ReportDir, s.opts.ScreenshotDir); err != nil {
		return err
	}
	if s.caps.Has(framework.CapabilityUI) && !s.opts.DryRun {
		s.launchBrowser()
	}
	return nil
}

func (s *Suite) launchBrowser() {
	if s.opts.Launch == nil {
		s.launchErr = browser.ErrUnavailable
		return
	}
	driver, err := s.opts.Launch()
	if err != nil {
		s.launchErr = err
		s.opts.Logger.Warnf("Browser could not be started: %s", err)
		return
	}
	s.driver = driver
	s.opts.Logger.Infof("Browser started")
}

// Teardown closes the browser and writes the reports: it ends the scenario logger, writes
// summary.json, and publishes the summary to the result store. A browser that fails to close is
// only logged.
func (s *Suite) Teardown() error {
	if !s.state.CompareAndSwap(int32(Running), int32(Completed)) {
		return fmt.Errorf("cannot end a suite that is %s", s.State())
	}
	s.finishedAt = s.opts.Now()

	if s.driver != nil {
		if err := s.driver.Close(); err != nil {
			s.opts.Logger.Warnf("%s", &scenario.TeardownError{Resource: "browser", Err: err})
		}
	}

	results := s.recorder.Results()
	var errs []error
	if w, ok := s.opts.ScenarioLogger.(scenario.ReportWriter); ok {
		if err := w.EndLog(results); err != nil {
			errs = append(errs, fmt.Errorf("error writing log: %w", err))
		}
	}

	summary := report.BuildSummary(s.opts.RunID, s.opts.Mode, s.startedAt, s.finishedAt, results)
	s.lock.Lock()
	s.summary = summary
	s.lock.Unlock()

	if s.opts.ReportDir != "" {
		path, err := summary.WriteFile(s.opts.ReportDir)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.opts.Logger.Infof("Summary written to %s", path)
		}
	}
	if s.opts.Publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.opts.Publisher.Publish(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("publishing results to %s: %w", s.opts.Publisher.DSN(), err))
		} else {
			s.opts.Logger.Infof("Results published to %s", s.opts.Publisher.DSN())
		}
	}
	return errors.Join(errs...)
}
