package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak85/API-Automation-POC/framework"
)

type recordingLogger struct {
	started  []ID
	errs     []error
	finished []Result
	skipped  []string
	output   framework.CapturedOutput
}

func (r *recordingLogger) ScenarioStarted(id ID)          { r.started = append(r.started, id) }
func (r *recordingLogger) ScenarioError(id ID, err error) { r.errs = append(r.errs, err) }
func (r *recordingLogger) ScenarioFinished(id ID, result Result, output framework.CapturedOutput) {
	r.finished = append(r.finished, result)
	r.output = output
}
func (r *recordingLogger) ScenarioSkipped(id ID, reason string) { r.skipped = append(r.skipped, reason) }

func TestScopeReportsStart(t *testing.T) {
	var logger recordingLogger
	s := NewScope(NewID("users", "fetch all"), &logger)
	assert.Equal(t, []ID{{"users", "fetch all"}}, logger.started)
	assert.Equal(t, "users/fetch all", s.ID().String())
}

func TestScopePassedResult(t *testing.T) {
	var logger recordingLogger
	s := NewScope(NewID("f", "s"), &logger)
	assert.NoError(t, s.Check(func(s *Scope) {
		assert.Equal(s, 1, 1)
	}))
	result := s.Finish(nil, nil)
	assert.False(t, result.Failed())
	assert.False(t, result.Skipped)
	require.Len(t, logger.finished, 1)
	assert.Equal(t, ID{"f", "s"}, logger.finished[0].ID)
}

func TestScopeCheckCollectsAssertionFailures(t *testing.T) {
	s := NewScope(NewID("f", "s"), nil)
	err := s.Check(func(s *Scope) {
		assert.Equal(s, "a", "b")
		assert.Equal(s, 1, 2)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not equal")
	assert.NotContains(t, err.Error(), "Error Trace:")

	result := s.Finish(err, nil)
	assert.Len(t, result.Errors, 2, "the returned error should not be recorded twice")
}

func TestScopeCheckExitsImmediatelyOnFailNow(t *testing.T) {
	executed1, executed2 := false, false
	s := NewScope(NewID("f", "s"), nil)
	err := s.Check(func(s *Scope) {
		executed1 = true
		require.Fail(s, "stop here")
		executed2 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.EqualError(t, err, "stop here")
	assert.True(t, s.Failed())
}

func TestScopeCheckFailNowWithoutMessage(t *testing.T) {
	s := NewScope(NewID("f", "s"), nil)
	err := s.Check(func(s *Scope) { s.FailNow() })
	assert.EqualError(t, err, "step failed with no failure message")
}

func TestScopeCheckRecoversUnexpectedPanic(t *testing.T) {
	s := NewScope(NewID("f", "s"), nil)
	err := s.Check(func(*Scope) { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected panic in step: boom")
}

func TestScopeSkip(t *testing.T) {
	var logger recordingLogger
	s := NewScope(NewID("f", "s"), &logger)
	err := s.Check(func(s *Scope) { s.SkipWithReason("no browser") })
	assert.NoError(t, err)
	assert.True(t, s.Skipped())
	result := s.Finish(nil, nil)
	assert.True(t, result.Skipped)
	assert.Equal(t, []string{"no browser"}, logger.skipped)
	assert.Len(t, logger.finished, 0)
}

func TestScopeFinishRunsCleanupsInReverseOrder(t *testing.T) {
	var order []string
	s := NewScope(NewID("f", "s"), nil)
	s.Defer("first", func() error { order = append(order, "first"); return nil })
	s.Defer("second", func() error { order = append(order, "second"); return nil })
	s.Finish(errors.New("scenario failed"), nil)
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestScopeTeardownFailuresAreIsolated(t *testing.T) {
	var warnings []error
	var ranFirst bool
	s := NewScope(NewID("f", "s"), nil)
	s.Defer("browser context", func() error { ranFirst = true; return nil })
	s.Defer("page", func() error { panic("page already gone") })
	s.Defer("screenshot", func() error { return errors.New("disk full") })

	result := s.Finish(nil, func(err error) { warnings = append(warnings, err) })

	assert.True(t, ranFirst)
	assert.False(t, result.Failed(), "teardown errors never fail the scenario")
	require.Len(t, warnings, 2)
	var te *TeardownError
	require.ErrorAs(t, warnings[0], &te)
	assert.Equal(t, "screenshot", te.Resource)
	assert.EqualError(t, warnings[0], "teardown of screenshot failed: disk full")
	require.ErrorAs(t, warnings[1], &te)
	assert.Equal(t, "page", te.Resource)
}

func TestScopeFinishIsIdempotent(t *testing.T) {
	var logger recordingLogger
	count := 0
	s := NewScope(NewID("f", "s"), &logger)
	s.Defer("x", func() error { count++; return nil })
	s.Finish(nil, nil)
	s.Finish(nil, nil)
	assert.Equal(t, 1, count)
	assert.Len(t, logger.finished, 1)
}

func TestScopeScenarioErrorIsRecorded(t *testing.T) {
	var logger recordingLogger
	s := NewScope(NewID("f", "s"), &logger)
	s.Debug("request sent")
	result := s.Finish(errors.New("status was 500"), nil)
	require.Len(t, result.Errors, 1)
	assert.EqualError(t, result.Errors[0], "status was 500")
	assert.Len(t, logger.errs, 1)
	require.Len(t, logger.output, 1)
	assert.Equal(t, "request sent", logger.output[0].Message)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Add(Result{ID: ID{"a"}})
	r.Add(Result{ID: ID{"b"}, Errors: []error{errors.New("x")}})
	r.Add(Result{ID: ID{"c"}, Skipped: true})
	results := r.Results()
	assert.False(t, results.OK())
	assert.Len(t, results.Scenarios, 3)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, ID{"b"}, results.Failures[0].ID)
	passed, failed, skipped := results.Counts()
	assert.Equal(t, []int{1, 1, 1}, []int{passed, failed, skipped})
}
