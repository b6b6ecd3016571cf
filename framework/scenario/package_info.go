// Package scenario contains the per-scenario scope used while a Gherkin scenario executes. A Scope
// is similar to Go's testing.T: it accumulates failures, captures debug output, and guarantees that
// cleanups registered with Defer run when the scenario finishes for any reason. The package also
// contains result aggregation and the console and JUnit reporters.
package scenario
