// Package suite connects godog to the harness. It owns the process-wide resources of a run, such
// as the shared browser, and gives each scenario a fresh World with its own browsing context.
//
// A Suite is used for exactly one godog run:
//
//	s := suite.New(opts)
//	status := godog.TestSuite{
//		TestSuiteInitializer: s.InitializeTestSuite,
//		ScenarioInitializer:  s.InitializeScenario,
//	}.Run()
//	results := s.Results()
package suite
