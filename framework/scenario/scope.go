package scenario

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sak85/API-Automation-POC/framework"
)

type cleanup struct {
	name string
	fn   func() error
}

// Scope represents one executing scenario. It is very similar to Go's testing.T, and can be
// passed to testify's assert and require functions.
//
// A Scope is created when a scenario starts and ended with Finish. In between, step code either
// returns errors directly (Fail) or runs assertions inside Check, which converts FailNow into an
// ordinary error return.
type Scope struct {
	id          ID
	logger      Logger
	debugLogger framework.CapturingLogger
	started     time.Time
	failed      bool
	skipped     bool
	skipReason  string
	cleanups    []cleanup
	errors      []error
	helperFns   []string
	finished    bool
	lock        sync.Mutex
}

// NewScope starts a scope for a scenario and reports it to the logger, which may be nil.
func NewScope(id ID, logger Logger) *Scope {
	if logger == nil {
		logger = nullLogger{}
	}
	s := &Scope{id: id, logger: logger, started: time.Now()}
	logger.ScenarioStarted(id)
	return s
}

// ID returns the full name of the scenario.
func (s *Scope) ID() ID {
	return s.id
}

// Check runs a piece of step logic that reports failures through Errorf or FailNow, typically by
// way of testify assertions. It returns the failures raised during this call joined into one
// error, or nil. A FailNow stops the action but not the scenario.
func (s *Scope) Check(action func(*Scope)) (err error) {
	s.lock.Lock()
	before := len(s.errors)
	s.lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*Scope); !ok {
				s.addError(fmt.Errorf("unexpected panic in step: %+v\n%s", r, string(debug.Stack())))
			} else if !s.Skipped() {
				s.lock.Lock()
				noNewErrors := len(s.errors) == before
				s.lock.Unlock()
				if noNewErrors {
					s.addError(errors.New("step failed with no failure message"))
				}
			}
		}
		s.lock.Lock()
		raised := append([]error(nil), s.errors[before:]...)
		s.lock.Unlock()
		err = errors.Join(raised...)
	}()

	action(s)
	return nil
}

// Fail records an error returned by a step.
func (s *Scope) Fail(err error) {
	if err != nil {
		s.addError(err)
	}
}

// Errorf reports a failure. It is equivalent to Go's testing.T.Errorf. It does not cause the step
// to terminate, but adds the failure message to the output and marks the scenario as failed.
//
// You will rarely use this method directly; it is part of this type's implementation of the base
// interfaces assert.TestingT and require.TestingT, allowing it to be called from assertion helpers.
func (s *Scope) Errorf(format string, args ...interface{}) {
	err := fmt.Errorf(format, args...)
	s.lock.Lock()
	helperFns := append([]string(nil), s.helperFns...)
	s.lock.Unlock()
	s.addError(transformError(err, getStacktrace(false, helperFns)))
}

// FailNow causes the current Check to immediately terminate, with the scenario marked as failed.
func (s *Scope) FailNow() {
	panic(s)
}

// Skip marks the scenario as skipped and terminates the current Check.
func (s *Scope) Skip() {
	s.lock.Lock()
	s.skipped = true
	s.lock.Unlock()
	panic(s)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (s *Scope) SkipWithReason(reason string) {
	s.lock.Lock()
	s.skipReason = reason
	s.lock.Unlock()
	s.Skip()
}

// MarkSkipped records that the scenario was skipped without panicking, for use outside of Check.
func (s *Scope) MarkSkipped(reason string) {
	s.lock.Lock()
	s.skipped = true
	s.skipReason = reason
	s.lock.Unlock()
}

// Skipped returns true if Skip, SkipWithReason or MarkSkipped was called.
func (s *Scope) Skipped() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.skipped
}

// Failed returns true if any failure has been recorded.
func (s *Scope) Failed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.failed
}

// Debug writes a message to the captured output for this scenario.
func (s *Scope) Debug(message string, args ...interface{}) {
	s.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger instance for writing output for this scenario.
//
// The output that is captured is passed to Logger.ScenarioFinished when the scenario ends. The
// reporter can choose whether to display this or not based on command-line options.
func (s *Scope) DebugLogger() framework.Logger {
	return &s.debugLogger
}

// Defer schedules a cleanup function which is guaranteed to be called when the scenario finishes.
// Cleanups run in reverse order of registration. An error or panic from one cleanup is reported as
// a *TeardownError and does not prevent the others from running.
func (s *Scope) Defer(name string, cleanupFn func() error) {
	s.lock.Lock()
	s.cleanups = append(s.cleanups, cleanup{name: name, fn: cleanupFn})
	s.lock.Unlock()
}

// Helper marks the function that calls it as a test helper that shouldn't appear in stacktraces.
// Equivalent to Go's testing.T.Helper().
func (s *Scope) Helper() {
	pc, _, _, ok := runtime.Caller(1) // 0 is Helper() itself, 1 is who called it
	if !ok {
		return
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return
	}
	s.lock.Lock()
	s.helperFns = append(s.helperFns, f.Name())
	s.lock.Unlock()
}

// Finish ends the scenario: it records scenarioErr if non-nil, runs all cleanups, reports the
// outcome to the logger, and returns the Result. Teardown errors are logged through the scope's
// debug output and the warn function, if any, but never become scenario failures. Calling Finish
// more than once returns the same result without re-running cleanups.
func (s *Scope) Finish(scenarioErr error, warn func(error)) Result {
	if scenarioErr != nil && !s.containsError(scenarioErr) {
		s.addError(scenarioErr)
	}

	s.lock.Lock()
	alreadyFinished := s.finished
	s.finished = true
	cleanups := s.cleanups
	s.cleanups = nil
	s.lock.Unlock()

	if !alreadyFinished {
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := runCleanup(cleanups[i]); err != nil {
				s.debugLogger.Printf("%s", err)
				if warn != nil {
					warn(err)
				}
			}
		}
	}

	s.lock.Lock()
	result := Result{
		ID:         s.id,
		Errors:     append([]error(nil), s.errors...),
		Skipped:    s.skipped && !s.failed,
		SkipReason: s.skipReason,
		Duration:   time.Since(s.started),
	}
	s.lock.Unlock()

	if alreadyFinished {
		return result
	}
	if result.Skipped {
		s.logger.ScenarioSkipped(s.id, result.SkipReason)
	} else {
		s.logger.ScenarioFinished(s.id, result, s.debugLogger.Output())
	}
	return result
}

func runCleanup(c cleanup) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TeardownError{Resource: c.name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if cleanupErr := c.fn(); cleanupErr != nil {
		return &TeardownError{Resource: c.name, Err: cleanupErr}
	}
	return nil
}

func (s *Scope) addError(err error) {
	s.lock.Lock()
	s.failed = true
	s.errors = append(s.errors, err)
	s.lock.Unlock()
	s.logger.ScenarioError(s.id, err)
}

func (s *Scope) containsError(err error) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, e := range s.errors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
