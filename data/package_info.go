// Package data provides test data for scenarios: fixture files in JSON or YAML, with constant and
// parameter substitutions, and generators for random payloads.
package data
