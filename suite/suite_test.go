package suite

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/browser"
	"github.com/sak85/API-Automation-POC/browser/browsertest"
	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/scenario"
	"github.com/sak85/API-Automation-POC/mockapi"
	"github.com/sak85/API-Automation-POC/report"
)

var testSite = browsertest.Site{ //nolint:gochecknoglobals
	"http://app.test/": {
		Title:    "Test App",
		Elements: map[string]*browsertest.Element{"h1": {Text: "Hello"}},
	},
}

const mixedFeature = `
Feature: Mixed
  @api
  Scenario: List users
    Given I have a valid API client
    When I make a GET request to "/users"
    Then the response status should be 200

  @ui
  Scenario: Home page
    Given I navigate to "http://app.test/"
    Then the page title should be "Test App"
`

type fakePublisher struct {
	published []report.Summary
	err       error
}

func (p *fakePublisher) DSN() string { return "fake://" }

func (p *fakePublisher) Publish(_ context.Context, summary report.Summary) error {
	p.published = append(p.published, summary)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type suiteRun struct {
	status int
	output string
	log    string
}

// runSuite runs a feature through s against a fresh mock API. Options that are left empty get
// test defaults: the client, the report directories and a debug logger.
func runSuite(t *testing.T, opts Options, feature string) (*Suite, suiteRun) {
	t.Helper()
	var run suiteRun
	var s *Suite
	api := mockapi.New(nil)
	defer api.Close() //nolint:errcheck
	httphelpers.WithServer(api, func(server *httptest.Server) {
		noSleep := func(context.Context, time.Duration) error { return nil }
		client, err := apiclient.New(server.URL, apiclient.WithSleeper(noSleep))
		require.NoError(t, err)
		var log bytes.Buffer
		if opts.Client == nil {
			opts.Client = client
		}
		if opts.ReportDir == "" {
			opts.ReportDir = t.TempDir()
			opts.ScreenshotDir = filepath.Join(opts.ReportDir, "screenshots")
		}
		if opts.Logger == nil {
			opts.Logger = framework.NewLevelLogger(&log, framework.LevelDebug)
		}
		opts.UITimeout = time.Second
		s = New(opts)

		var out bytes.Buffer
		run.status = godog.TestSuite{
			Name:                 "suite",
			TestSuiteInitializer: s.InitializeTestSuite,
			ScenarioInitializer:  s.InitializeScenario,
			Options: &godog.Options{
				Format:          "progress",
				Output:          &out,
				Strict:          true,
				FeatureContents: []godog.Feature{{Name: "mixed.feature", Contents: []byte(feature)}},
			},
		}.Run()
		run.output = out.String()
		run.log = log.String()
	})
	return s, run
}

func launcher(driver browser.Driver, err error, calls *int) LaunchFunc {
	return func() (browser.Driver, error) {
		*calls++
		return driver, err
	}
}

func scenarioNamed(t *testing.T, results scenario.Results, name string) scenario.Result {
	t.Helper()
	for _, r := range results.Scenarios {
		if r.ID.Name() == name {
			return r
		}
	}
	require.Failf(t, "scenario not found", "no result for %q", name)
	return scenario.Result{}
}

func TestStateTransitions(t *testing.T) {
	s := New(Options{Mode: framework.ModeAPI})
	assert.Equal(t, NotStarted, s.State())
	assert.Error(t, s.Teardown())

	require.NoError(t, s.Setup())
	assert.Equal(t, Running, s.State())
	assert.Error(t, s.Setup())

	require.NoError(t, s.Teardown())
	assert.Equal(t, Completed, s.State())
	assert.Error(t, s.Teardown())
	assert.Equal(t, "completed", s.State().String())
}

func TestNewGeneratesRunID(t *testing.T) {
	assert.NotEmpty(t, New(Options{}).RunID())
	assert.Equal(t, "run-1", New(Options{RunID: "run-1"}).RunID())
}

func TestCombinedModeRunsBothKinds(t *testing.T) {
	driver := &browsertest.FakeDriver{Site: testSite}
	calls := 0
	s, run := runSuite(t, Options{Mode: framework.ModeCombined, Launch: launcher(driver, nil, &calls)}, mixedFeature)
	require.Equal(t, 0, run.status, run.output)

	assert.Equal(t, 1, calls)
	assert.Equal(t, Completed, s.State())
	results := s.Results()
	require.Len(t, results.Scenarios, 2)
	assert.True(t, results.OK())

	contexts := driver.Contexts()
	require.Len(t, contexts, 1)
	assert.True(t, contexts[0].Closed())
	require.Len(t, contexts[0].Pages(), 1)
	assert.True(t, contexts[0].Pages()[0].Closed())
	assert.True(t, driver.Closed())

	assert.Contains(t, run.log, "PASS mixed/List users")
	assert.Contains(t, run.log, "PASS mixed/Home page")
}

func TestEachUIScenarioGetsItsOwnContext(t *testing.T) {
	driver := &browsertest.FakeDriver{Site: testSite}
	calls := 0
	feature := `
Feature: Cookies
  @ui
  Scenario: Set a cookie
    Given I navigate to "http://app.test/"
    When I set cookie "session" to "abc"
    Then I should have cookie "session" with value "abc"

  @ui
  Scenario: Cookie is gone
    Given I navigate to "http://app.test/"
    Then I should have cookie "session" with value "abc"
`
	s, run := runSuite(t, Options{Mode: framework.ModeUI, Launch: launcher(driver, nil, &calls)}, feature)
	assert.NotEqual(t, 0, run.status)
	assert.Len(t, driver.Contexts(), 2)
	assert.False(t, scenarioNamed(t, s.Results(), "Set a cookie").Failed())
	assert.True(t, scenarioNamed(t, s.Results(), "Cookie is gone").Failed())
}

func TestFailedUIScenarioTakesScreenshot(t *testing.T) {
	driver := &browsertest.FakeDriver{Site: testSite}
	calls := 0
	feature := `
Feature: Broken
  @ui
  Scenario: Wrong   title
    Given I set "expectedTitle" to "Something else"
    And I navigate to "http://app.test/"
    Then the page title should be "{expectedTitle}"
`
	s, run := runSuite(t, Options{Mode: framework.ModeUI, Launch: launcher(driver, nil, &calls)}, feature)
	assert.NotEqual(t, 0, run.status)

	page := driver.Contexts()[0].Pages()[0]
	shots := page.Screenshots()
	require.Len(t, shots, 1)
	assert.Regexp(t, `failed-Wrong-title-\d+\.png$`, shots[0])
	_, err := os.Stat(shots[0])
	assert.NoError(t, err)
	assert.True(t, page.Closed())

	results := s.Results()
	require.Len(t, results.Failures, 1)
	assert.Contains(t, run.log, "Scenario failed: Wrong   title")
	assert.Contains(t, run.log, `Test data: {"expectedTitle":"Something else"}`)
	assert.Contains(t, run.log, "FAIL mixed/Wrong   title")
}

func TestScreenshotFailureDoesNotMaskScenarioError(t *testing.T) {
	driver := &screenshotFailingDriver{FakeDriver: browsertest.FakeDriver{Site: testSite}}
	calls := 0
	feature := `
Feature: Broken
  @ui
  Scenario: Wrong title
    Given I navigate to "http://app.test/"
    Then the page title should be "Something else"
`
	s, run := runSuite(t, Options{Mode: framework.ModeUI, Launch: launcher(driver, nil, &calls)}, feature)
	assert.NotEqual(t, 0, run.status)
	failures := s.Results().Failures
	require.Len(t, failures, 1)
	assert.Contains(t, errors.Join(failures[0].Errors...).Error(), `Expected page title to be "Something else"`)
	assert.Contains(t, run.log, "Could not take failure screenshot: disk full")
}

type screenshotFailingDriver struct {
	browsertest.FakeDriver
}

func (d *screenshotFailingDriver) NewContext() (browser.BrowsingContext, error) {
	bc, err := d.FakeDriver.NewContext()
	if err != nil {
		return nil, err
	}
	return screenshotFailingContext{bc}, nil
}

type screenshotFailingContext struct {
	browser.BrowsingContext
}

func (c screenshotFailingContext) NewPage() (browser.Page, error) {
	page, err := c.BrowsingContext.NewPage()
	if err != nil {
		return nil, err
	}
	page.(*browsertest.FakePage).ScreenshotErr = errors.New("disk full")
	return page, nil
}

func TestTabsOpenedInScenarioAreClosed(t *testing.T) {
	driver := &browsertest.FakeDriver{Site: testSite}
	calls := 0
	_, run := runSuite(t, Options{Mode: framework.ModeUI, Launch: launcher(driver, nil, &calls)}, `
Feature: Tabs
  @ui
  Scenario: Two tabs
    Given I navigate to "http://app.test/"
    When I open a new tab
    And I open a new tab
    And I switch to tab 2
    And I close the current tab
`)
	require.Equal(t, 0, run.status, run.output)

	contexts := driver.Contexts()
	require.Len(t, contexts, 1)
	pages := contexts[0].Pages()
	require.Len(t, pages, 3)
	for _, p := range pages {
		assert.True(t, p.Closed())
	}
	assert.True(t, contexts[0].Closed())
}

func TestPageOpenFailureLogsContextCloseError(t *testing.T) {
	driver := &pageFailingDriver{FakeDriver: browsertest.FakeDriver{Site: testSite}}
	calls := 0
	feature := `
Feature: Broken
  @ui
  Scenario: No page
    Given I navigate to "http://app.test/"
`
	s, run := runSuite(t, Options{Mode: framework.ModeUI, Launch: launcher(driver, nil, &calls)}, feature)
	assert.NotEqual(t, 0, run.status)
	failures := s.Results().Failures
	require.Len(t, failures, 1)
	assert.Contains(t, errors.Join(failures[0].Errors...).Error(), "could not open page: tab crashed")
	assert.Contains(t, run.log, "teardown of browsing context failed: target gone")
}

type pageFailingDriver struct {
	browsertest.FakeDriver
}

func (d *pageFailingDriver) NewContext() (browser.BrowsingContext, error) {
	return pageFailingContext{}, nil
}

type pageFailingContext struct{}

func (pageFailingContext) NewPage() (browser.Page, error) { return nil, errors.New("tab crashed") }
func (pageFailingContext) Close() error                    { return errors.New("target gone") }

func TestAutoModeSkipsUIScenariosWithoutBrowser(t *testing.T) {
	calls := 0
	s, run := runSuite(t, Options{
		Mode:   framework.ModeAuto,
		Launch: launcher(nil, errors.New("chrome not found"), &calls),
	}, mixedFeature)
	require.Equal(t, 0, run.status, run.output)
	assert.Equal(t, 1, calls)
	assert.Nil(t, s.Driver())

	ui := scenarioNamed(t, s.Results(), "Home page")
	assert.True(t, ui.Skipped)
	assert.Equal(t, "no browser: chrome not found", ui.SkipReason)
	assert.False(t, scenarioNamed(t, s.Results(), "List users").Skipped)
	assert.Contains(t, run.log, "Browser could not be started: chrome not found")
}

func TestUIModeFailsUIScenariosWithoutBrowser(t *testing.T) {
	calls := 0
	s, run := runSuite(t, Options{
		Mode:   framework.ModeUI,
		Launch: launcher(nil, browser.ErrUnavailable, &calls),
	}, mixedFeature)
	assert.NotEqual(t, 0, run.status)

	ui := scenarioNamed(t, s.Results(), "Home page")
	require.True(t, ui.Failed())
	assert.ErrorIs(t, ui.Errors[0], browser.ErrUnavailable)

	api := scenarioNamed(t, s.Results(), "List users")
	assert.True(t, api.Skipped)
	assert.Equal(t, "API scenarios do not run in ui mode", api.SkipReason)
}

func TestAPIModeDoesNotLaunchBrowser(t *testing.T) {
	calls := 0
	s, run := runSuite(t, Options{Mode: framework.ModeAPI, Launch: launcher(nil, nil, &calls)}, mixedFeature)
	require.Equal(t, 0, run.status, run.output)
	assert.Equal(t, 0, calls)

	ui := scenarioNamed(t, s.Results(), "Home page")
	assert.True(t, ui.Skipped)
	assert.Equal(t, "UI scenarios do not run in api mode", ui.SkipReason)
	assert.Contains(t, run.log, "SKIP mixed/Home page")
}

func TestNameFiltersSkipScenarios(t *testing.T) {
	var filters scenario.RegexFilters
	require.NoError(t, filters.MustMatch.Set("mixed/List"))
	s, run := runSuite(t, Options{Mode: framework.ModeAPI, Filters: filters}, mixedFeature)
	require.Equal(t, 0, run.status, run.output)

	assert.False(t, scenarioNamed(t, s.Results(), "List users").Skipped)
	home := scenarioNamed(t, s.Results(), "Home page")
	assert.True(t, home.Skipped)
	assert.Equal(t, `skip any not matching "mixed/List"`, home.SkipReason)
}

func TestDryRunSkipsEverything(t *testing.T) {
	calls := 0
	s, run := runSuite(t, Options{Mode: framework.ModeCombined, DryRun: true, Launch: launcher(nil, nil, &calls)}, mixedFeature)
	require.Equal(t, 0, run.status, run.output)
	assert.Equal(t, 0, calls)
	for _, r := range s.Results().Scenarios {
		assert.True(t, r.Skipped, r.ID.String())
		assert.Equal(t, "dry run", r.SkipReason)
	}
}

func TestTeardownWritesSummaryAndPublishes(t *testing.T) {
	publisher := &fakePublisher{}
	feature := `
Feature: Users
  Scenario: Missing user
    Given I have a valid API client
    When I make a GET request to "/users/999"
`
	s, run := runSuite(t, Options{Mode: framework.ModeAPI, RunID: "run-7", Publisher: publisher}, feature)
	assert.NotEqual(t, 0, run.status)

	summary := s.Summary()
	assert.Equal(t, "run-7", summary.RunID)
	assert.Equal(t, framework.ModeAPI, summary.Mode)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, summary.RunID, publisher.published[0].RunID)

	data, err := os.ReadFile(filepath.Join(s.opts.ReportDir, report.SummaryFileName))
	require.NoError(t, err)
	parsed, err := report.ParseSummary(data)
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.Failed)
	assert.Contains(t, run.log, "Results published to fake://")
}

func TestTeardownReportsPublishFailure(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("connection refused")}
	s := New(Options{Mode: framework.ModeAPI, Publisher: publisher})
	require.NoError(t, s.Setup())
	err := s.Teardown()
	assert.EqualError(t, err, "publishing results to fake://: connection refused")
	assert.Equal(t, Completed, s.State())
}

func TestBrowserCloseErrorIsOnlyLogged(t *testing.T) {
	var log bytes.Buffer
	driver := &browsertest.FakeDriver{CloseErr: errors.New("already gone")}
	s := New(Options{
		Mode:   framework.ModeUI,
		Launch: func() (browser.Driver, error) { return driver, nil },
		Logger: framework.NewLevelLogger(&log, framework.LevelDebug),
	})
	require.NoError(t, s.Setup())
	assert.Equal(t, driver, s.Driver())
	require.NoError(t, s.Teardown())
	assert.True(t, driver.Closed())
	assert.Contains(t, log.String(), "already gone")
}

func TestEndLogIsCalledOnReportWriter(t *testing.T) {
	junitFile := filepath.Join(t.TempDir(), "junit.xml")
	junit := scenario.NewJUnitLogger(junitFile, nil)
	s, run := runSuite(t, Options{Mode: framework.ModeAPI, ScenarioLogger: junit}, mixedFeature)
	require.Equal(t, 0, run.status, run.output)
	require.Len(t, s.Results().Scenarios, 2)

	data, err := os.ReadFile(junitFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `name="List users"`)
}

func TestFailureScreenshotName(t *testing.T) {
	assert.Equal(t, "failed-Log-in-with-bad-password", FailureScreenshotName("Log in  with\tbad password "))
}

func TestFeatureName(t *testing.T) {
	assert.Equal(t, "user_api", FeatureName("features/user_api.feature"))
	assert.Equal(t, "mixed", FeatureName("mixed.feature"))
}
