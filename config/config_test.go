package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/browser"
	"github.com/sak85/API-Automation-POC/framework"
)

func mapLookup(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	c, err := LoadFrom("", mapLookup(nil))
	require.NoError(t, err)
	assert.Equal(t, "https://jsonplaceholder.typicode.com", c.BaseURL)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, 3, c.RetryAttempts)
	assert.True(t, c.RetryClientErrors)
	assert.Equal(t, 0.0, c.RateLimit)
	assert.False(t, c.Headless)
	assert.Equal(t, browser.Viewport{Width: 1280, Height: 720}, c.Viewport)
	assert.Equal(t, 10*time.Second, c.UITimeout)
	assert.Equal(t, "reports", c.ReportPath)
	assert.Equal(t, "reports/screenshots", c.ScreenshotPath)
	assert.Equal(t, framework.LevelInfo, c.LogLevel)
	assert.Nil(t, c.ResultStore)
	assert.Empty(t, c.Warnings)
}

func TestEnvironmentValues(t *testing.T) {
	c, err := LoadFrom("", mapLookup(map[string]string{
		EnvBaseURL:           "http://localhost:8080",
		EnvTimeout:           "1500",
		EnvRetryAttempts:     "5",
		EnvRetryClientErrors: "false",
		EnvRateLimit:         "2.5",
		EnvHeadless:          "true",
		EnvViewportWidth:     "800",
		EnvViewportHeight:    "600",
		EnvLogLevel:          "debug",
		EnvResultStore:       "file://out/results.json, redis://localhost:6379",
	}))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
	assert.Equal(t, 1500*time.Millisecond, c.Timeout)
	assert.Equal(t, 5, c.RetryAttempts)
	assert.False(t, c.RetryClientErrors)
	assert.Equal(t, 2.5, c.RateLimit)
	assert.True(t, c.Headless)
	assert.Equal(t, browser.Viewport{Width: 800, Height: 600}, c.Viewport)
	assert.Equal(t, framework.LevelDebug, c.LogLevel)
	assert.Equal(t, []string{"file://out/results.json", "redis://localhost:6379"}, c.ResultStore)
}

func TestHeadlessOnlyWhenExactlyTrue(t *testing.T) {
	for value, expected := range map[string]bool{"true": true, "TRUE": false, "1": false, "false": false} {
		c, err := LoadFrom("", mapLookup(map[string]string{EnvHeadless: value}))
		require.NoError(t, err)
		assert.Equal(t, expected, c.Headless, "HEADLESS=%s", value)
	}
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	c, err := LoadFrom("", mapLookup(map[string]string{
		EnvTimeout:       "soon",
		EnvRetryAttempts: "0",
		EnvRateLimit:     "-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, 3, c.RetryAttempts)
	assert.Equal(t, 0.0, c.RateLimit)
	assert.Len(t, c.Warnings, 3)
	assert.Contains(t, c.Warnings[0], `invalid value "soon" for API_TIMEOUT`)
}

func TestEnvFileIsOverriddenByEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_BASE_URL=http://from-file\nAPI_RETRY_ATTEMPTS=4\n"), 0600))

	c, err := LoadFrom(path, mapLookup(map[string]string{EnvBaseURL: "http://from-env"}))
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", c.BaseURL)
	assert.Equal(t, 4, c.RetryAttempts)
}

func TestMissingEnvFileIsIgnored(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"), mapLookup(nil))
	assert.NoError(t, err)
}

func TestRetryPolicy(t *testing.T) {
	c := Default()
	c.RetryAttempts = 4
	policy := c.RetryPolicy()
	assert.Equal(t, 4, policy.Attempts)
	assert.True(t, policy.Retryable(&apiclient.RequestFailure{StatusCode: 404}))

	c.RetryClientErrors = false
	assert.False(t, c.RetryPolicy().Retryable(&apiclient.RequestFailure{StatusCode: 404}))
}
