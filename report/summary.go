package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/sak85/API-Automation-POC/framework/scenario"
)

// SummaryFileName is the name of the summary file within the report directory.
const SummaryFileName = "summary.json"

// Scenario statuses used in summaries.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Summary describes one complete run.
type Summary struct {
	RunID      string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Passed     int
	Failed     int
	Skipped    int
	Scenarios  []ScenarioSummary
}

// ScenarioSummary describes the outcome of one scenario.
type ScenarioSummary struct {
	Feature  string
	Name     string
	Status   string
	Duration time.Duration
	Errors   []string
}

// OK returns true if no scenario failed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// BuildSummary converts the results of a run into a Summary.
func BuildSummary(runID, mode string, startedAt, finishedAt time.Time, results scenario.Results) Summary {
	s := Summary{
		RunID:      runID,
		Mode:       mode,
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt.UTC(),
		Scenarios:  make([]ScenarioSummary, 0, len(results.Scenarios)),
	}
	s.Passed, s.Failed, s.Skipped = results.Counts()
	for _, r := range results.Scenarios {
		ss := ScenarioSummary{
			Feature:  r.ID.Feature(),
			Name:     r.ID.Name(),
			Status:   StatusOf(r),
			Duration: r.Duration,
		}
		for _, err := range r.Errors {
			ss.Errors = append(ss.Errors, err.Error())
		}
		if r.Skipped && r.SkipReason != "" {
			ss.Errors = append(ss.Errors, r.SkipReason)
		}
		s.Scenarios = append(s.Scenarios, ss)
	}
	return s
}

// StatusOf returns the summary status of a scenario result.
func StatusOf(r scenario.Result) string {
	switch {
	case r.Skipped:
		return StatusSkipped
	case r.Failed():
		return StatusFailed
	default:
		return StatusPassed
	}
}

// JSON encodes the summary.
func (s Summary) JSON() []byte {
	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("runId").String(s.RunID)
	obj.Name("mode").String(s.Mode)
	obj.Name("startedAt").String(s.StartedAt.Format(time.RFC3339Nano))
	obj.Name("finishedAt").String(s.FinishedAt.Format(time.RFC3339Nano))
	obj.Name("durationMs").Int(int(s.FinishedAt.Sub(s.StartedAt) / time.Millisecond))
	totals := obj.Name("totals").Object()
	totals.Name("scenarios").Int(len(s.Scenarios))
	totals.Name(StatusPassed).Int(s.Passed)
	totals.Name(StatusFailed).Int(s.Failed)
	totals.Name(StatusSkipped).Int(s.Skipped)
	totals.End()
	arr := obj.Name("scenarios").Array()
	for _, sc := range s.Scenarios {
		scObj := w.Object()
		scObj.Name("feature").String(sc.Feature)
		scObj.Name("name").String(sc.Name)
		scObj.Name("status").String(sc.Status)
		scObj.Name("durationMs").Int(int(sc.Duration / time.Millisecond))
		if len(sc.Errors) > 0 {
			errs := scObj.Name("errors").Array()
			for _, e := range sc.Errors {
				w.String(e)
			}
			errs.End()
		}
		scObj.End()
	}
	arr.End()
	obj.End()
	return w.Bytes()
}

// ParseSummary decodes a summary produced by JSON. Unknown properties are ignored.
func ParseSummary(data []byte) (Summary, error) {
	var s Summary
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "runId":
			s.RunID = r.String()
		case "mode":
			s.Mode = r.String()
		case "startedAt":
			s.StartedAt = parseTime(&r)
		case "finishedAt":
			s.FinishedAt = parseTime(&r)
		case "totals":
			for totals := r.Object(); totals.Next(); {
				switch string(totals.Name()) {
				case StatusPassed:
					s.Passed = r.Int()
				case StatusFailed:
					s.Failed = r.Int()
				case StatusSkipped:
					s.Skipped = r.Int()
				default:
					r.SkipValue()
				}
			}
		case "scenarios":
			for arr := r.Array(); arr.Next(); {
				s.Scenarios = append(s.Scenarios, readScenarioSummary(&r))
			}
		default:
			r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return Summary{}, fmt.Errorf("invalid summary: %w", err)
	}
	return s, nil
}

func readScenarioSummary(r *jreader.Reader) ScenarioSummary {
	var sc ScenarioSummary
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "feature":
			sc.Feature = r.String()
		case "name":
			sc.Name = r.String()
		case "status":
			sc.Status = r.String()
		case "durationMs":
			sc.Duration = time.Duration(r.Int()) * time.Millisecond
		case "errors":
			for arr := r.Array(); arr.Next(); {
				sc.Errors = append(sc.Errors, r.String())
			}
		default:
			r.SkipValue()
		}
	}
	return sc
}

func parseTime(r *jreader.Reader) time.Time {
	s := r.String()
	if r.Error() != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		r.AddError(err)
	}
	return t
}

// WriteFile writes the summary as summary.json within dir.
func (s Summary) WriteFile(dir string) (string, error) {
	if err := EnsureDirs(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, SummaryFileName)
	if err := os.WriteFile(path, s.JSON(), 0o644); err != nil { //nolint:gosec
		return "", fmt.Errorf("could not write summary: %w", err)
	}
	return path, nil
}
