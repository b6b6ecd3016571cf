// Package framework contains the low-level infrastructure shared by the rest of the harness:
// the Logger interface and its implementations. Other reusable pieces are in the subpackages
// scenario (per-scenario scope, results and reporting), helpers, matchers and opt.
//
// The general model is:
//
// 1. Scenarios are written as Gherkin feature files and dispatched to Go step functions.
//
// 2. Every executing scenario owns an isolated context (a World) holding its test data, its last
// HTTP response, and for browser scenarios a private browsing session.
//
// 3. Each scenario also owns a scope, similar to Go's testing.T, which collects failures and
// guarantees that deferred cleanups run when the scenario ends for any reason.
package framework
