// Package world holds the state of one executing scenario: its identity, the test data written
// by steps, the last API response, and the browser session of a UI scenario. A World is never
// shared between scenarios.
package world
