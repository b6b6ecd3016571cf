package steps

import (
	"fmt"
	"sort"

	"github.com/cucumber/godog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/validation"
)

func (s *Scenario) registerDataSteps(r StepRegistrar) {
	r.Step(`^I have test data:$`, s.haveTestData)
	r.Step(`^I set "([^"]*)" to "([^"]*)"$`, s.setTestData)
	r.Step(`^I load test data from "([^"]*)"$`, s.loadTestData)
	r.Step(`^I generate (?:an? )?(\w+) as "([^"]*)"$`, s.generateValue)
	r.Step(`^I have generated (user|post) data$`, s.haveGeneratedData)
	r.Step(`^I have generated updated (user|post) data$`, s.haveGeneratedUpdatedData)
	r.Step(`^the test data "([^"]*)" should be "([^"]*)"$`, s.testDataShouldBe)
}

func (s *Scenario) haveTestData(table *godog.Table) error {
	rows, err := tableHashes(table)
	if err != nil {
		return err
	}
	for k, v := range rows[0] {
		s.World.SetTestData(k, ldvalue.String(s.expand(v)))
	}
	return nil
}

func (s *Scenario) setTestData(key, value string) error {
	s.World.SetTestData(key, ldvalue.String(s.expand(value)))
	return nil
}

// loadTestData stores every top-level property of a fixture file as test data. Parameterized
// fixtures expand to several documents and cannot be used here.
func (s *Scenario) loadTestData(path string) error {
	if s.Fixtures == nil {
		return fmt.Errorf("no fixture directory is configured")
	}
	fixtures, err := s.Fixtures.LoadFile(path)
	if err != nil {
		return err
	}
	if len(fixtures) != 1 {
		return fmt.Errorf("fixture %q expands to %d parameter sets; a step can only load one", path, len(fixtures))
	}
	entries, err := fixtures[0].Entries()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(entries))
	for k, v := range entries {
		s.World.SetTestData(k, v)
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.logger().Infof("Loaded test data from %s: %v", path, keys)
	return nil
}

func (s *Scenario) generateValue(name, key string) error {
	value, ok := s.generator().Generate(name)
	if !ok {
		return fmt.Errorf("unknown generator %q", name)
	}
	s.World.SetTestData(key, value)
	s.logger().Debugf("Generated %s for %s: %s", name, key, value.JSONString())
	return nil
}

func (s *Scenario) generatedData(kind string) ldvalue.Value {
	if kind == "post" {
		return s.generator().PostData()
	}
	return s.generator().UserData()
}

func (s *Scenario) haveGeneratedData(kind string) error {
	s.World.SetData(dataKey(kind), s.generatedData(kind))
	return nil
}

func (s *Scenario) haveGeneratedUpdatedData(kind string) error {
	s.World.SetData(updatedDataKey(kind), s.generatedData(kind))
	return nil
}

func (s *Scenario) testDataShouldBe(key, expected string) error {
	actual, ok := s.World.TestData(key).Get()
	if !ok {
		return validation.Assertf(validation.CheckRequired, "No test data stored under %q", key)
	}
	if textOf(actual) != s.expand(expected) {
		return validation.Assertf(validation.CheckEqual, "Expected test data %q to be %q, got %s", key,
			s.expand(expected), actual.JSONString())
	}
	return nil
}
