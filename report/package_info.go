// Package report writes the machine-readable artifacts of a run: the JSON summary and the
// Prometheus metrics textfile. The cucumber JSON and JUnit reports come from godog and the
// scenario package respectively.
package report
