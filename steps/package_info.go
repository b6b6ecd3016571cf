// Package steps contains the step definitions that feature files are written in: HTTP requests
// and response assertions, test data, event streams and browser actions.
//
// Every step operates on a Scenario, which the lifecycle hooks in the suite package fill in
// before the first step runs.
package steps
