package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/framework/scenario"
)

func TestMetricsObserveAttempts(t *testing.T) {
	metrics := NewMetrics("")
	metrics.ObserveAttempt(apiclient.Attempt{Method: "GET", StatusCode: 200, Elapsed: 20 * time.Millisecond})
	metrics.ObserveAttempt(apiclient.Attempt{Method: "GET", StatusCode: 503, Elapsed: 5 * time.Millisecond,
		Err: &apiclient.RequestFailure{StatusCode: 503}})
	metrics.ObserveAttempt(apiclient.Attempt{Method: "POST", Err: errors.New("connection refused")})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.apiRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.apiRequests.WithLabelValues("GET", "503")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.apiRequests.WithLabelValues("POST", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.apiFailures.WithLabelValues("GET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.apiFailures.WithLabelValues("POST")))

	series, err := testutil.GatherAndCount(metrics.Registry(), metricsNamespace+"_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series)
}

func TestMetricsAsScenarioLogger(t *testing.T) {
	metrics := NewMetrics("")
	var logger scenario.Logger = metrics

	scope := scenario.NewScope(scenario.NewID("Users", "passes"), logger)
	scope.Finish(nil, nil)
	scope = scenario.NewScope(scenario.NewID("Users", "fails"), logger)
	scope.Finish(errors.New("bad"), nil)
	scope = scenario.NewScope(scenario.NewID("Login", "skips"), logger)
	scope.MarkSkipped("no browser")
	scope.Finish(nil, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.scenarios.WithLabelValues(StatusPassed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.scenarios.WithLabelValues(StatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.scenarios.WithLabelValues(StatusSkipped)))
}

func TestMetricsEndLogWritesTextfile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	metrics := NewMetrics(dir)
	metrics.ObserveAttempt(apiclient.Attempt{Method: "DELETE", StatusCode: 200, Elapsed: time.Millisecond})
	require.NoError(t, metrics.EndLog(scenario.Results{}))

	data, err := os.ReadFile(filepath.Join(dir, MetricsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `harness_api_requests_total{method="DELETE",status="200"} 1`)
	assert.Contains(t, string(data), "# TYPE harness_api_request_duration_seconds histogram")
}

func TestMetricsEndLogWithoutDirectory(t *testing.T) {
	assert.NoError(t, NewMetrics("").EndLog(scenario.Results{}))
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, EnsureDirs(filepath.Join(base, "a", "b"), "", filepath.Join(base, "c")))
	for _, p := range []string{"a/b", "c"} {
		info, err := os.Stat(filepath.Join(base, p))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
