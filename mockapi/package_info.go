// Package mockapi is an in-process twin of the public JSON placeholder API, used for offline runs
// and for the harness's own integration tests. It serves users, posts and comments with CRUD
// semantics, a server-sent event stream of changes, and a few HTML pages for browser scenarios.
// Every request it receives is recorded.
package mockapi
