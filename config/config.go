// Package config reads the harness settings from the environment. Values in a .env file are
// used for any variable that is not set in the real environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/browser"
	"github.com/sak85/API-Automation-POC/framework"
)

// Environment variable names.
const (
	EnvBaseURL           = "API_BASE_URL"
	EnvTimeout           = "API_TIMEOUT"
	EnvRetryAttempts     = "API_RETRY_ATTEMPTS"
	EnvRetryClientErrors = "API_RETRY_CLIENT_ERRORS"
	EnvRateLimit         = "API_RATE_LIMIT"
	EnvHeadless          = "HEADLESS"
	EnvBrowserPath       = "BROWSER_PATH"
	EnvViewportWidth     = "VIEWPORT_WIDTH"
	EnvViewportHeight    = "VIEWPORT_HEIGHT"
	EnvUITimeout         = "UI_TIMEOUT"
	EnvReportPath        = "REPORT_PATH"
	EnvScreenshotPath    = "SCREENSHOT_PATH"
	EnvLogLevel          = "LOG_LEVEL"
	EnvResultStore       = "RESULT_STORE"
)

const (
	DefaultBaseURL        = "https://jsonplaceholder.typicode.com"
	DefaultTimeout        = 30 * time.Second
	DefaultUITimeout      = 10 * time.Second
	DefaultReportPath     = "reports"
	DefaultScreenshotPath = "reports/screenshots"
)

// Config is the full set of settings. It is read once at startup and not modified afterward.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RetryAttempts     int
	RetryClientErrors bool
	RateLimit         float64
	Headless          bool
	BrowserPath       string
	Viewport          browser.Viewport
	UITimeout         time.Duration
	ReportPath        string
	ScreenshotPath    string
	LogLevel          framework.Level
	// ResultStore lists the result store locations, such as "redis://localhost:6379".
	ResultStore []string

	// Warnings describes values that could not be parsed and were replaced by defaults.
	Warnings []string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Timeout:           DefaultTimeout,
		RetryAttempts:     apiclient.DefaultAttempts,
		RetryClientErrors: true,
		Viewport:          browser.DefaultViewport,
		UITimeout:         DefaultUITimeout,
		ReportPath:        DefaultReportPath,
		ScreenshotPath:    DefaultScreenshotPath,
		LogLevel:          framework.LevelInfo,
	}
}

// Load reads .env from the working directory, if present, and then the process environment.
func Load() (Config, error) {
	return LoadFrom(".env", osLookup)
}

// LoadFrom reads settings using lookup, falling back to the values in envFile. A missing
// envFile is not an error.
func LoadFrom(envFile string, lookup func(string) (string, bool)) (Config, error) {
	fileValues := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	r := reader{lookup: func(name string) (string, bool) {
		if v, ok := lookup(name); ok {
			return v, true
		}
		v, ok := fileValues[name]
		return v, ok
	}}

	c := Default()
	c.BaseURL = r.str(EnvBaseURL, c.BaseURL)
	c.Timeout = r.millis(EnvTimeout, c.Timeout)
	c.RetryAttempts = r.positiveInt(EnvRetryAttempts, c.RetryAttempts)
	c.RetryClientErrors = r.boolean(EnvRetryClientErrors, c.RetryClientErrors)
	c.RateLimit = r.rate(EnvRateLimit, c.RateLimit)
	c.Headless = r.str(EnvHeadless, "") == "true"
	c.BrowserPath = r.str(EnvBrowserPath, "")
	c.Viewport.Width = r.positiveInt(EnvViewportWidth, c.Viewport.Width)
	c.Viewport.Height = r.positiveInt(EnvViewportHeight, c.Viewport.Height)
	c.UITimeout = r.millis(EnvUITimeout, c.UITimeout)
	c.ReportPath = r.str(EnvReportPath, c.ReportPath)
	c.ScreenshotPath = r.str(EnvScreenshotPath, c.ScreenshotPath)
	c.LogLevel = framework.ParseLevel(r.str(EnvLogLevel, "info"))
	c.ResultStore = splitList(r.str(EnvResultStore, ""))
	c.Warnings = r.warnings
	return c, nil
}

// RetryPolicy is the client retry policy these settings describe.
func (c Config) RetryPolicy() apiclient.RetryPolicy {
	policy := apiclient.DefaultRetryPolicy()
	policy.Attempts = c.RetryAttempts
	if !c.RetryClientErrors {
		policy.Retryable = apiclient.SkipClientErrors
	}
	return policy
}

// ClientOptions returns the apiclient options for these settings.
func (c Config) ClientOptions() []apiclient.Option {
	return []apiclient.Option{
		apiclient.WithTimeout(c.Timeout),
		apiclient.WithRetryPolicy(c.RetryPolicy()),
		apiclient.WithRateLimit(c.RateLimit),
	}
}

// BrowserOptions returns the browser launch options for these settings.
func (c Config) BrowserOptions(logger *framework.LevelLogger) browser.Options {
	return browser.Options{
		Headless:      c.Headless,
		ExecPath:      c.BrowserPath,
		Viewport:      c.Viewport,
		ActionTimeout: c.UITimeout,
		Logger:        logger,
	}
}

type reader struct {
	lookup   func(string) (string, bool)
	warnings []string
}

func (r *reader) str(name, defaultValue string) string {
	if v, ok := r.lookup(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return defaultValue
}

func (r *reader) warn(name, value string, defaultValue interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf("invalid value %q for %s, using default %v", value, name, defaultValue))
}

func (r *reader) positiveInt(name string, defaultValue int) int {
	s := r.str(name, "")
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		r.warn(name, s, defaultValue)
		return defaultValue
	}
	return n
}

func (r *reader) millis(name string, defaultValue time.Duration) time.Duration {
	s := r.str(name, "")
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		r.warn(name, s, defaultValue)
		return defaultValue
	}
	return time.Duration(n) * time.Millisecond
}

func (r *reader) rate(name string, defaultValue float64) float64 {
	s := r.str(name, "")
	if s == "" {
		return defaultValue
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		r.warn(name, s, defaultValue)
		return defaultValue
	}
	return n
}

func (r *reader) boolean(name string, defaultValue bool) bool {
	s := r.str(name, "")
	if s == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		r.warn(name, s, defaultValue)
		return defaultValue
	}
	return b
}

func splitList(s string) []string {
	var ret []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ret = append(ret, part)
		}
	}
	return ret
}
