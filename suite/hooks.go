package suite

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/cucumber/godog"

	"github.com/sak85/API-Automation-POC/data"
	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/scenario"
	"github.com/sak85/API-Automation-POC/steps"
	"github.com/sak85/API-Automation-POC/world"
)

var whitespace = regexp.MustCompile(`\s+`) //nolint:gochecknoglobals

// InitializeScenario registers the steps and the per-scenario hooks. It is a godog
// ScenarioInitializer, which godog calls once for every scenario.
func (s *Suite) InitializeScenario(sc *godog.ScenarioContext) {
	st := &steps.Scenario{
		Logger:        s.opts.Logger,
		Fixtures:      s.opts.Fixtures,
		Generator:     data.NewGenerator(),
		UITimeout:     s.opts.UITimeout,
		ScreenshotDir: s.opts.ScreenshotDir,
	}
	steps.Register(sc, st)

	sc.Before(func(ctx context.Context, gs *godog.Scenario) (context.Context, error) {
		return ctx, s.beforeScenario(st, gs)
	})
	sc.After(func(ctx context.Context, gs *godog.Scenario, err error) (context.Context, error) {
		s.afterScenario(st, gs, err)
		return ctx, nil
	})
}

func (s *Suite) beforeScenario(st *steps.Scenario, gs *godog.Scenario) error {
	w := world.New(s.opts.Client)
	w.ScenarioName = gs.Name
	w.FeatureName = FeatureName(gs.Uri)
	for _, tag := range gs.Tags {
		w.Tags = append(w.Tags, tag.Name)
	}
	w.ClearContext()

	scope := scenario.NewScope(scenario.NewID(w.FeatureName, w.ScenarioName), s.opts.ScenarioLogger)
	st.World, st.Scope = w, scope
	scope.Defer("scenario context", func() error {
		w.ClearContext()
		return nil
	})

	if reason := s.skipReason(w, scope.ID()); reason != "" {
		scope.MarkSkipped(reason)
		return godog.ErrSkip
	}
	if !w.IsUITest() {
		return nil
	}

	session, err := s.openBrowserSession()
	if err != nil {
		return err
	}
	w.AttachBrowser(session)
	scope.Defer("browsing context", session.Context.Close)
	scope.Defer("browser tabs", session.CloseTabs)
	return nil
}

func (s *Suite) skipReason(w *world.World, id scenario.ID) string {
	if s.opts.DryRun {
		return "dry run"
	}
	if s.opts.Filters.IsDefined() && !s.opts.Filters.Match(id) {
		return s.opts.Filters.Describe()
	}
	if !w.IsUITest() {
		if !s.caps.Has(framework.CapabilityAPI) {
			return fmt.Sprintf("API scenarios do not run in %s mode", s.opts.Mode)
		}
		return ""
	}
	if !s.caps.Has(framework.CapabilityUI) {
		return fmt.Sprintf("UI scenarios do not run in %s mode", s.opts.Mode)
	}
	if s.driver == nil && !framework.IsStrictMode(s.opts.Mode) {
		return fmt.Sprintf("no browser: %s", s.launchErr)
	}
	return ""
}

func (s *Suite) openBrowserSession() (*world.BrowserSession, error) {
	if s.driver == nil {
		return nil, fmt.Errorf("cannot run UI scenario: %w", s.launchErr)
	}
	bc, err := s.driver.NewContext()
	if err != nil {
		return nil, fmt.Errorf("could not create browsing context: %w", err)
	}
	page, err := bc.NewPage()
	if err != nil {
		if closeErr := bc.Close(); closeErr != nil {
			s.opts.Logger.Warnf("%s", &scenario.TeardownError{Resource: "browsing context", Err: closeErr})
		}
		return nil, fmt.Errorf("could not open page: %w", err)
	}
	return &world.BrowserSession{Page: page, Context: bc}, nil
}

func (s *Suite) afterScenario(st *steps.Scenario, gs *godog.Scenario, err error) {
	scope := st.Scope
	if scope == nil {
		return
	}
	if errors.Is(err, godog.ErrSkip) {
		err = nil
	}
	if err != nil {
		s.opts.Logger.Errorf("Scenario failed: %s", gs.Name)
		s.opts.Logger.Errorf("Error: %s", err)
		s.opts.Logger.Debugf("Test data: %s", st.World.TestDataSnapshot().JSONString())
		if st.World.IsUITest() {
			s.screenshotOnFailure(st.World, gs.Name)
		}
	}

	result := scope.Finish(err, func(teardownErr error) {
		s.opts.Logger.Warnf("%s", teardownErr)
	})
	st.World.DetachBrowser()
	s.recorder.Add(result)

	status := framework.StepPassed
	switch {
	case result.Failed():
		status = framework.StepFailed
	case result.Skipped:
		status = framework.StepSkipped
	}
	s.opts.Logger.LogScenarioStatus(result.ID.String(), status)
}

func (s *Suite) screenshotOnFailure(w *world.World, name string) {
	page, err := w.Page()
	if err != nil {
		return
	}
	file := steps.ScreenshotPath(s.opts.ScreenshotDir, FailureScreenshotName(name), s.opts.Now())
	if err := page.Screenshot(file); err != nil {
		s.opts.Logger.Warnf("Could not take failure screenshot: %s", err)
		return
	}
	s.opts.Logger.Infof("Failure screenshot saved: %s", file)
}

// FailureScreenshotName is the screenshot name used for a failed scenario, before the timestamp
// is added: "failed-" followed by the scenario name with whitespace replaced by "-".
func FailureScreenshotName(scenarioName string) string {
	return "failed-" + whitespace.ReplaceAllString(strings.TrimSpace(scenarioName), "-")
}

// FeatureName derives a feature's name from its file: "features/user_api.feature" is
// "user_api".
func FeatureName(uri string) string {
	return strings.TrimSuffix(path.Base(uri), path.Ext(uri))
}
