package main

import (
	"bufio"
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cucumber/godog"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/browser"
	"github.com/sak85/API-Automation-POC/config"
	"github.com/sak85/API-Automation-POC/data"
	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/scenario"
	"github.com/sak85/API-Automation-POC/mockapi"
	"github.com/sak85/API-Automation-POC/report"
	"github.com/sak85/API-Automation-POC/store"
	"github.com/sak85/API-Automation-POC/suite"
)

const cucumberReportFile = "cucumber-report.json"

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("api-automation-harness v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*scenario.Results, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if params.debugAll {
		level = framework.LevelDebug
	}
	logger := framework.NewLevelLogger(os.Stdout, level)
	for _, w := range cfg.Warnings {
		logger.Warnf("%s", w)
	}

	if params.mock {
		mock, err := mockapi.Start(params.mockAddr, logger.At(framework.LevelDebug))
		if err != nil {
			return nil, err
		}
		defer mock.Close() //nolint:errcheck
		cfg.BaseURL = mock.URL()
		logger.Infof("Using mock API at %s", cfg.BaseURL)
	}
	if err := report.EnsureDirs(cfg.ReportPath, cfg.ScreenshotPath); err != nil {
		return nil, err
	}

	metrics := report.NewMetrics(cfg.ReportPath)
	client, err := apiclient.New(cfg.BaseURL,
		append(cfg.ClientOptions(), apiclient.WithLogger(logger), apiclient.WithObserver(metrics))...)
	if err != nil {
		return nil, err
	}

	publisher, err := store.Open(context.Background(), cfg.ResultStore)
	if err != nil {
		return nil, err
	}
	if publisher != nil {
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warnf("Closing result store: %s", err)
			}
		}()
	}

	loggers := []scenario.Logger{
		scenario.ConsoleLogger{
			DebugOutputOnFailure: params.debug || params.debugAll,
			DebugOutputOnSuccess: params.debugAll,
		},
		metrics,
	}
	if params.jUnitFile != "" {
		loggers = append(loggers, scenario.NewJUnitLogger(params.jUnitFile, map[string]string{
			"baseURL": cfg.BaseURL,
			"mode":    params.mode,
			"version": strings.TrimSpace(versionString),
		}))
	}

	s := suite.New(suite.Options{
		Mode:   params.mode,
		Client: client,
		Launch: func() (browser.Driver, error) {
			driver, err := browser.Launch(cfg.BrowserOptions(logger))
			if err != nil {
				return nil, err
			}
			return driver, nil
		},
		Fixtures:       data.NewLoader(os.DirFS("."), data.NewGenerator()),
		UITimeout:      cfg.UITimeout,
		ReportDir:      cfg.ReportPath,
		ScreenshotDir:  cfg.ScreenshotPath,
		Logger:         logger,
		ScenarioLogger: &scenario.MultiLogger{Loggers: loggers},
		Filters:        params.filters,
		Publisher:      publisher,
		DryRun:         params.dryRun,
	})
	logger.Infof("Run %s: mode %s, base URL %s", s.RunID(), params.mode, cfg.BaseURL)
	if params.filters.IsDefined() {
		logger.Infof("Filters: %s", params.filters.Describe())
	}

	status := godog.TestSuite{
		Name:                 "api-automation",
		TestSuiteInitializer: s.InitializeTestSuite,
		ScenarioInitializer:  s.InitializeScenario,
		Options: &godog.Options{
			Format:        fmt.Sprintf("%s,cucumber:%s", params.format, filepath.Join(cfg.ReportPath, cucumberReportFile)),
			Output:        os.Stdout,
			Paths:         params.features,
			Tags:          params.tags,
			Concurrency:   params.concurrency,
			StopOnFailure: params.stopOnFailure,
			Strict:        true,
		},
	}.Run()

	results := s.Results()
	fmt.Println()
	scenario.PrintResultsToConsole(results)

	if params.recordFailures != "" {
		f, err := os.Create(params.recordFailures)
		if err != nil {
			return nil, fmt.Errorf("cannot create suppression file: %v", err)
		}
		for _, r := range results.Failures {
			fmt.Fprintln(f, r.ID)
		}
		_ = f.Close()
	}

	if status != 0 && results.OK() {
		// godog failed before or outside any scenario, for instance on a feature file syntax error
		return nil, fmt.Errorf("godog exited with status %d", status)
	}
	return &results, nil
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		// Ignore blank lines
		if strings.TrimSpace(line) == "" {
			continue
		}
		escaped := regexp.QuoteMeta(line)
		if err := params.filters.MustNotMatch.Set(escaped); err != nil {
			return fmt.Errorf("cannot parse suppression: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}
