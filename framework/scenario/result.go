package scenario

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ID identifies a scenario by its feature name followed by its scenario name.
type ID []string

// NewID returns the ID for a scenario within a feature.
func NewID(feature, scenario string) ID {
	return ID{feature, scenario}
}

func (id ID) String() string {
	return strings.Join(id, "/")
}

func (id ID) Plus(name string) ID {
	return append(append(ID(nil), id...), name)
}

// Feature returns the first component of the ID, or "" if there is none.
func (id ID) Feature() string {
	if len(id) == 0 {
		return ""
	}
	return id[0]
}

// Name returns the last component of the ID, or "" if there is none.
func (id ID) Name() string {
	if len(id) == 0 {
		return ""
	}
	return id[len(id)-1]
}

type Result struct {
	ID         ID
	Errors     []error
	Skipped    bool
	SkipReason string
	Duration   time.Duration
}

func (r Result) Failed() bool {
	return len(r.Errors) != 0
}

type Results struct {
	Scenarios []Result
	Failures  []Result
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Counts returns the number of passed, failed and skipped scenarios.
func (r Results) Counts() (passed, failed, skipped int) {
	for _, s := range r.Scenarios {
		switch {
		case s.Skipped:
			skipped++
		case s.Failed():
			failed++
		default:
			passed++
		}
	}
	return
}

// Recorder accumulates Results from scenarios that may be running concurrently.
type Recorder struct {
	results Results
	lock    sync.Mutex
}

func (r *Recorder) Add(result Result) {
	r.lock.Lock()
	r.results.Scenarios = append(r.results.Scenarios, result)
	if result.Failed() {
		r.results.Failures = append(r.results.Failures, result)
	}
	r.lock.Unlock()
}

func (r *Recorder) Results() Results {
	r.lock.Lock()
	defer r.lock.Unlock()
	return Results{
		Scenarios: append([]Result(nil), r.results.Scenarios...),
		Failures:  append([]Result(nil), r.results.Failures...),
	}
}

type Failure struct {
	ID  ID
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }
