package steps

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/browser"
	"github.com/sak85/API-Automation-POC/data"
	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/framework/scenario"
	"github.com/sak85/API-Automation-POC/world"
)

// DefaultUITimeout is used for waits when Scenario.UITimeout is zero.
const DefaultUITimeout = 10 * time.Second

var testDataRefRegex = regexp.MustCompile(`\{(\w+)\}`)

// StepRegistrar is the part of godog.ScenarioContext that registers steps.
type StepRegistrar interface {
	Step(expr interface{}, stepFunc interface{})
}

// Scenario is the state shared by the steps of one executing scenario.
type Scenario struct {
	World     *world.World
	Scope     *scenario.Scope
	Logger    *framework.LevelLogger
	Fixtures  *data.Loader
	Generator *data.Generator
	// UITimeout bounds waits for elements and text.
	UITimeout time.Duration
	// ScreenshotDir is where named screenshots are written.
	ScreenshotDir string

	now func() time.Time
}

// Register adds every step definition, bound to s.
func Register(r StepRegistrar, s *Scenario) {
	s.registerAPISteps(r)
	s.registerDataSteps(r)
	s.registerStreamSteps(r)
	s.registerUISteps(r)
}

func (s *Scenario) logger() *framework.LevelLogger {
	if s.Logger == nil {
		s.Logger = framework.NewLevelLogger(io.Discard, framework.LevelError)
	}
	return s.Logger
}

func (s *Scenario) generator() *data.Generator {
	if s.Generator == nil {
		s.Generator = data.NewGenerator()
	}
	return s.Generator
}

func (s *Scenario) uiTimeout() time.Duration {
	if s.UITimeout <= 0 {
		return DefaultUITimeout
	}
	return s.UITimeout
}

func (s *Scenario) currentTime() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Scenario) client() (*apiclient.Client, error) {
	if s.World == nil || s.World.Client() == nil {
		return nil, fmt.Errorf("no API client is configured for this scenario")
	}
	return s.World.Client(), nil
}

func (s *Scenario) page() (browser.Page, error) {
	if s.World == nil {
		return nil, world.ErrNoBrowserSession
	}
	return s.World.Page()
}

func (s *Scenario) browserSession() (*world.BrowserSession, error) {
	if s.World == nil {
		return nil, world.ErrNoBrowserSession
	}
	return s.World.Browser()
}

func (s *Scenario) lastResponse() (*apiclient.Response, error) {
	if s.World == nil {
		return nil, world.ErrNoResponse
	}
	return s.World.LastResponse()
}

// expand replaces "{key}" with the stored test data value and "<$name>" with a generated
// value. References to unknown keys are left as they are.
func (s *Scenario) expand(text string) string {
	text = string(data.ExpandGenerated([]byte(text), s.generator()))
	if s.World == nil {
		return text
	}
	return testDataRefRegex.ReplaceAllStringFunc(text, func(match string) string {
		key := match[1 : len(match)-1]
		if value, ok := s.World.TestData(key).Get(); ok {
			return textOf(value)
		}
		return match
	})
}

// textOf renders a value the way it would appear in a URL or a page: strings without quotes,
// everything else as JSON.
func textOf(value ldvalue.Value) string {
	if value.IsString() {
		return value.StringValue()
	}
	return value.JSONString()
}

// tableHashes converts a table whose first row is a header into one map per remaining row.
func tableHashes(table *godog.Table) ([]map[string]string, error) {
	if table == nil {
		return hashes(nil)
	}
	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cell.Value)
		}
		rows = append(rows, cells)
	}
	return hashes(rows)
}

func hashes(rows [][]string) ([]map[string]string, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("expected a table with a header row and at least one data row")
	}
	headers := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		headers = append(headers, strings.TrimSpace(h))
	}
	ret := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(headers) {
			return nil, fmt.Errorf("table row has %d cells but the header has %d", len(row), len(headers))
		}
		m := make(map[string]string, len(headers))
		for i, v := range row {
			m[headers[i]] = v
		}
		ret = append(ret, m)
	}
	return ret, nil
}

// firstRowObject converts the first data row of a table into a JSON object of strings, with
// test data references and generated values expanded.
func (s *Scenario) firstRowObject(table *godog.Table) (ldvalue.Value, error) {
	rows, err := tableHashes(table)
	if err != nil {
		return ldvalue.Null(), err
	}
	b := ldvalue.ObjectBuild()
	for k, v := range rows[0] {
		b.Set(k, ldvalue.String(s.expand(v)))
	}
	return b.Build(), nil
}

// parseLiteral interprets text from a feature file as JSON if it is valid JSON, and as a string
// otherwise, so that "1" and "true" compare equal to numbers and booleans.
func parseLiteral(text string) ldvalue.Value {
	if v := ldvalue.Parse([]byte(text)); !v.IsNull() || strings.TrimSpace(text) == "null" {
		return v
	}
	return ldvalue.String(text)
}

// splitList splits a comma-separated list, removing quotes and blanks.
func splitList(list string) []string {
	var ret []string
	for _, item := range strings.Split(list, ",") {
		item = strings.Trim(strings.TrimSpace(item), `"'`)
		if item != "" {
			ret = append(ret, item)
		}
	}
	return ret
}
