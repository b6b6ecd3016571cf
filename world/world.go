package world

import (
	"errors"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/browser"
	"github.com/sak85/API-Automation-POC/framework/opt"
)

var (
	// ErrNoResponse is returned by LastResponse before any response was recorded.
	ErrNoResponse = errors.New("no API response has been recorded in this scenario")
	// ErrNoBrowserSession is returned by Page when the scenario has no browser session.
	ErrNoBrowserSession = errors.New("this scenario has no browser session")
)

// BrowserSession is the browsing context owned by one UI scenario and its tabs. Page is the
// current tab.
type BrowserSession struct {
	Page    browser.Page
	Context browser.BrowsingContext

	tabs    []browser.Page
	current int
	tracked bool
}

// World is the state of one scenario. Steps of a scenario run sequentially, so it is not
// synchronized.
type World struct {
	ScenarioName string
	FeatureName  string
	Tags         []string

	client       *apiclient.Client
	testData     map[string]ldvalue.Value
	lastResponse *apiclient.Response
	session      *BrowserSession
	streams      []*apiclient.EventStream
}

// New creates an empty World that sends requests through client.
func New(client *apiclient.Client) *World {
	return &World{client: client, testData: make(map[string]ldvalue.Value)}
}

// Client returns the API client for this scenario.
func (w *World) Client() *apiclient.Client {
	return w.client
}

// SetClient replaces the API client, for instance after a step changes the base URL.
func (w *World) SetClient(client *apiclient.Client) {
	w.client = client
}

// SetTestData stores a value under an ad hoc key. A later write to the same key replaces it.
func (w *World) SetTestData(key string, value ldvalue.Value) {
	if w.testData == nil {
		w.testData = make(map[string]ldvalue.Value)
	}
	w.testData[key] = value
}

// TestData returns the value stored under key, if any.
func (w *World) TestData(key string) opt.Maybe[ldvalue.Value] {
	value, ok := w.testData[key]
	return opt.FromLookup(value, ok)
}

// SetData stores a value under one of the built-in keys.
func (w *World) SetData(key DataKey, value ldvalue.Value) {
	w.SetTestData(key.String(), value)
}

// Data returns the value stored under one of the built-in keys, if any.
func (w *World) Data(key DataKey) opt.Maybe[ldvalue.Value] {
	return w.TestData(key.String())
}

// TestDataSnapshot returns all stored test data as a JSON object.
func (w *World) TestDataSnapshot() ldvalue.Value {
	b := ldvalue.ObjectBuildWithCapacity(len(w.testData))
	for k, v := range w.testData {
		b.Set(k, v)
	}
	return b.Build()
}

// SetLastResponse records the response that later assertions inspect.
func (w *World) SetLastResponse(resp *apiclient.Response) {
	w.lastResponse = resp
}

// LastResponse returns the most recent response, or ErrNoResponse.
func (w *World) LastResponse() (*apiclient.Response, error) {
	if w.lastResponse == nil {
		return nil, ErrNoResponse
	}
	return w.lastResponse, nil
}

// AddStream keeps an open event stream so that ClearContext can close it.
func (w *World) AddStream(s *apiclient.EventStream) {
	w.streams = append(w.streams, s)
}

// LatestStream returns the most recently opened event stream.
func (w *World) LatestStream() (*apiclient.EventStream, bool) {
	if len(w.streams) == 0 {
		return nil, false
	}
	return w.streams[len(w.streams)-1], true
}

// ClearContext forgets test data and the last response and closes open event streams. The
// scenario's identity and browser session are kept. Calling it again has no further effect.
func (w *World) ClearContext() {
	w.testData = make(map[string]ldvalue.Value)
	w.lastResponse = nil
	for _, s := range w.streams {
		s.Close()
	}
	w.streams = nil
}

// Classification classifies the scenario by its tags and name.
func (w *World) Classification() Classification {
	return ClassifyTags(w.ScenarioName, w.Tags)
}

// IsUITest is true if the scenario needs a browser.
func (w *World) IsUITest() bool {
	return w.Classification() == UI
}

// IsAPITest is true if the scenario is not a UI scenario.
func (w *World) IsAPITest() bool {
	return w.Classification() == API
}

// AttachBrowser gives the scenario its browser session.
func (w *World) AttachBrowser(session *BrowserSession) {
	w.session = session
}

// DetachBrowser removes and returns the browser session, if there is one.
func (w *World) DetachBrowser() *BrowserSession {
	s := w.session
	w.session = nil
	return s
}

// Browser returns the scenario's browser session, or ErrNoBrowserSession.
func (w *World) Browser() (*BrowserSession, error) {
	if w.session == nil {
		return nil, ErrNoBrowserSession
	}
	return w.session, nil
}

// Page returns the current tab of the scenario's browser session. It fails with
// ErrNoBrowserSession if there is no session and with ErrNoOpenTab if all tabs were closed.
func (w *World) Page() (browser.Page, error) {
	if w.session == nil {
		return nil, ErrNoBrowserSession
	}
	if w.session.Page == nil {
		return nil, ErrNoOpenTab
	}
	return w.session.Page, nil
}
