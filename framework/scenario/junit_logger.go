package scenario

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/helpers"
	"github.com/sak85/API-Automation-POC/framework/opt"
)

// JUnitLogger collects scenario outcomes and writes them as JUnit XML at the end of the run,
// with one test suite per feature.
type JUnitLogger struct {
	filePath   string
	properties map[string]string
	ids        []ID // preserves the order that the scenarios were started in
	scenarios  map[string]jUnitScenarioStatus
	lock       sync.Mutex
}

type jUnitScenarioStatus struct {
	failures  []error
	skipped   opt.Maybe[string]
	output    string
	startTime time.Time
	duration  time.Duration
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// NewJUnitLogger creates a JUnitLogger that will write to filePath. The properties describe the
// run, for instance the base URL and tag filter, and are attached to every suite.
func NewJUnitLogger(filePath string, properties map[string]string) *JUnitLogger {
	return &JUnitLogger{
		filePath:   filePath,
		properties: properties,
		scenarios:  make(map[string]jUnitScenarioStatus),
	}
}

func (j *JUnitLogger) ScenarioStarted(id ID) {
	j.lock.Lock()
	defer j.lock.Unlock()
	if _, exists := j.scenarios[id.String()]; !exists {
		j.ids = append(j.ids, id)
	}
	j.scenarios[id.String()] = jUnitScenarioStatus{
		startTime: time.Now(),
	}
}

func (j *JUnitLogger) ScenarioError(id ID, err error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.scenarios[id.String()]
	status.failures = append(status.failures, err)
	j.scenarios[id.String()] = status
}

func (j *JUnitLogger) ScenarioFinished(id ID, result Result, debugOutput framework.CapturedOutput) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.scenarios[id.String()]
	status.output = debugOutput.ToString("")
	status.duration = time.Since(status.startTime)
	j.scenarios[id.String()] = status
}

func (j *JUnitLogger) ScenarioSkipped(id ID, reason string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.scenarios[id.String()]
	status.skipped = opt.Some(reason)
	status.duration = time.Since(status.startTime)
	j.scenarios[id.String()] = status
}

func (j *JUnitLogger) EndLog(results Results) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	fmt.Printf("Writing JUnit data to %s\n", j.filePath)

	var doc jUnitXMLDocument

	propertyNames := make([]string, 0, len(j.properties))
	for name := range j.properties {
		propertyNames = append(propertyNames, name)
	}
	propertyNames = helpers.Sorted(propertyNames)
	properties := make([]jUnitXMLProperty, 0, len(propertyNames))
	for _, name := range propertyNames {
		properties = append(properties, jUnitXMLProperty{Name: name, Value: j.properties[name]})
	}

	for _, feature := range getFeatureNames(j.ids) {
		suite := jUnitXMLTestSuite{
			Name:       feature,
			Properties: properties,
		}
		suiteTotalDuration := time.Duration(0)
		for _, id := range j.ids {
			if id.Feature() != feature {
				continue
			}
			status := j.scenarios[id.String()]

			suite.Tests++
			suiteTotalDuration += status.duration

			testCase := jUnitXMLTestCase{
				Classname: feature,
				Name:      id.Name(),
				Time:      jUnitDurationString(status.duration),
			}
			if status.skipped.IsDefined() {
				suite.Skipped++
				testCase.SkipMessage = &jUnitXMLSkipMessage{Message: status.skipped.Value()}
			} else if len(status.failures) != 0 {
				suite.Failures++
				testCase.Failure = &jUnitXMLFailure{
					Message:  describeFailures(status.failures),
					Type:     failureType(status.failures[0]),
					Contents: status.output,
				}
			}

			suite.TestCases = append(suite.TestCases, testCase)
		}
		suite.Time = jUnitDurationString(suiteTotalDuration)
		doc.Suites = append(doc.Suites, suite)
	}

	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	bytes = append([]byte(xml.Header), bytes...)
	bytes = append(bytes, '\n')

	if dir := filepath.Dir(j.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func describeFailures(failures []error) string {
	messages := make([]string, 0, len(failures))
	for _, e := range failures {
		message := e.Error()
		var es *ErrorWithStacktrace
		if errors.As(e, &es) {
			message += "\n  Stacktrace:"
			for _, s := range es.Stacktrace {
				message += "\n    " + s.String()
			}
		}
		messages = append(messages, message)
	}
	return strings.Join(messages, "\n")
}

// failureType names the concrete error type, such as "*validation.ValidationFailure", so that CI
// dashboards can group failures.
func failureType(err error) string {
	return fmt.Sprintf("%T", err)
}

func getFeatureNames(allIDs []ID) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, id := range allIDs {
		if f := id.Feature(); len(id) != 0 && !seen[f] {
			ret = append(ret, f)
			seen[f] = true
		}
	}
	return ret
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
