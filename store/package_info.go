// Package store publishes run summaries to durable locations, so that results can be tracked
// across runs. Each location is described by a DSN such as "redis://localhost:6379/0" or
// "sqlite://reports/history.db".
package store
