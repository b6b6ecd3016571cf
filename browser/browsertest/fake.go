// Package browsertest provides an in-memory implementation of the browser interfaces, for
// testing step definitions and lifecycle hooks without a Chrome binary.
package browsertest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/browser"
)

var (
	_ browser.Driver          = (*FakeDriver)(nil)
	_ browser.BrowsingContext = (*FakeContext)(nil)
	_ browser.Page            = (*FakePage)(nil)
)

// ErrNoElement is returned by element actions when nothing matches the selector.
var ErrNoElement = errors.New("no element matches selector")

// Element is the state of one element of a fake Document, addressed by its selector.
type Element struct {
	Text       string
	Value      string
	Hidden     bool
	Disabled   bool
	Checked    bool
	Attributes map[string]string
	// Count is how many elements the selector matches; zero means one.
	Count int
	// Dialog, if set, is the message of a dialog that clicking the element opens. DialogType is
	// "alert" unless set to "confirm" or "prompt".
	Dialog     string
	DialogType string
	// Files holds the paths set with SetFiles.
	Files []string
}

// Document is what a FakePage shows after navigating to a URL.
type Document struct {
	Title    string
	Elements map[string]*Element
}

// Site maps URLs to documents. A URL with no entry shows an empty document.
type Site map[string]Document

// FakeDriver is a browser.Driver whose contexts and pages live in memory.
type FakeDriver struct {
	Site          Site
	NewContextErr error
	CloseErr      error

	contexts []*FakeContext
	closed   bool
	lock     sync.Mutex
}

// NewContext implements browser.Driver.
func (d *FakeDriver) NewContext() (browser.BrowsingContext, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return nil, errors.New("browser was closed")
	}
	if d.NewContextErr != nil {
		return nil, d.NewContextErr
	}
	c := &FakeContext{site: d.Site}
	d.contexts = append(d.contexts, c)
	return c, nil
}

// Close implements browser.Driver.
func (d *FakeDriver) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.closed = true
	return d.CloseErr
}

// Closed is true once Close has been called.
func (d *FakeDriver) Closed() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.closed
}

// Contexts returns every context created so far.
func (d *FakeDriver) Contexts() []*FakeContext {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]*FakeContext(nil), d.contexts...)
}

// FakeContext is a browser.BrowsingContext. Pages of the same context share cookies.
type FakeContext struct {
	CloseErr error

	site    Site
	pages   []*FakePage
	cookies []browser.Cookie
	closed  bool
	lock    sync.Mutex
}

// NewPage implements browser.BrowsingContext.
func (c *FakeContext) NewPage() (browser.Page, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return nil, errors.New("browsing context was closed")
	}
	p := NewPage(c.site)
	p.owner = c
	c.pages = append(c.pages, p)
	return p, nil
}

// Close implements browser.BrowsingContext.
func (c *FakeContext) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed = true
	return c.CloseErr
}

// Closed is true once Close has been called.
func (c *FakeContext) Closed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}

// Pages returns every page opened in the context.
func (c *FakeContext) Pages() []*FakePage {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]*FakePage(nil), c.pages...)
}

// FakePage is a browser.Page over a Site. Scripts passed to Evaluate are not run; the result is
// looked up in Scripts, and every script is recorded.
type FakePage struct {
	// Scripts maps a script to the value Evaluate returns for it.
	Scripts map[string]ldvalue.Value
	// ScreenshotErr, if set, makes Screenshot fail.
	ScreenshotErr error
	CloseErr      error
	// PendingRequests makes WaitForNetworkIdle fail as if that many requests never finished.
	PendingRequests int

	owner       *FakeContext
	site        Site
	history     []string
	position    int
	doc         Document
	focused     string
	storage     map[browser.StorageKind]map[string]string
	cookies     []browser.Cookie
	routes      []browser.Route
	evaluated   []string
	screenshots []string
	pressed     []string
	policy      browser.DialogPolicy
	dialogs     []browser.Dialog
	drags       [][2]string
	closed      bool
	lock        sync.Mutex
}

// NewPage creates a standalone page, not owned by any context.
func NewPage(site Site) *FakePage {
	return &FakePage{
		site:     site,
		position: -1,
		storage: map[browser.StorageKind]map[string]string{
			browser.LocalStorage:   {},
			browser.SessionStorage: {},
		},
	}
}

func (p *FakePage) load(url string) {
	doc := p.site[url]
	elements := make(map[string]*Element, len(doc.Elements))
	for sel, e := range doc.Elements {
		copied := *e
		copied.Attributes = make(map[string]string, len(e.Attributes))
		for k, v := range e.Attributes {
			copied.Attributes[k] = v
		}
		elements[sel] = &copied
	}
	p.doc = Document{Title: doc.Title, Elements: elements}
	p.focused = ""
}

func (p *FakePage) current() string {
	if p.position < 0 {
		return "about:blank"
	}
	return p.history[p.position]
}

func (p *FakePage) element(selector string) (*Element, error) {
	if p.closed {
		return nil, errors.New("page was closed")
	}
	e, ok := p.doc.Elements[selector]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoElement, selector)
	}
	return e, nil
}

func (p *FakePage) Navigate(url string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, r := range p.routes {
		if r.Block && r.Pattern == url {
			return fmt.Errorf("request to %s was blocked", url)
		}
	}
	p.history = append(p.history[:p.position+1], url)
	p.position++
	p.load(url)
	return nil
}

func (p *FakePage) Reload() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.load(p.current())
	return nil
}

func (p *FakePage) Back() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.position > 0 {
		p.position--
		p.load(p.current())
	}
	return nil
}

func (p *FakePage) Forward() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.position < len(p.history)-1 {
		p.position++
		p.load(p.current())
	}
	return nil
}

func (p *FakePage) Click(selector string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, err := p.element(selector)
	if err != nil {
		return err
	}
	if href, ok := e.Attributes["href"]; ok {
		p.history = append(p.history[:p.position+1], href)
		p.position++
		p.load(href)
		return nil
	}
	if e.Dialog != "" {
		p.openDialog(e)
	}
	p.focused = selector
	return nil
}

func (p *FakePage) openDialog(e *Element) {
	d := browser.Dialog{Type: e.DialogType, Message: e.Dialog, Accepted: p.policy.Accept}
	if d.Type == "" {
		d.Type = "alert"
	}
	if d.Accepted && d.Type == "prompt" {
		d.PromptText = p.policy.PromptText
	}
	p.dialogs = append(p.dialogs, d)
}

func (p *FakePage) DoubleClick(selector string) error { return p.Click(selector) }

func (p *FakePage) Fill(selector, value string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, err := p.element(selector)
	if err != nil {
		return err
	}
	if e.Disabled {
		return fmt.Errorf("element %q is disabled", selector)
	}
	e.Value = value
	p.focused = selector
	return nil
}

func (p *FakePage) Clear(selector string) error { return p.Fill(selector, "") }

func (p *FakePage) SelectOption(selector, value string) error { return p.Fill(selector, value) }

func (p *FakePage) Check(selector string) error { return p.setChecked(selector, true) }

func (p *FakePage) Uncheck(selector string) error { return p.setChecked(selector, false) }

func (p *FakePage) setChecked(selector string, checked bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, err := p.element(selector)
	if err != nil {
		return err
	}
	e.Checked = checked
	return nil
}

func (p *FakePage) Focus(selector string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if _, err := p.element(selector); err != nil {
		return err
	}
	p.focused = selector
	return nil
}

// PressKey appends text keys to the element's value and records every key.
func (p *FakePage) PressKey(selector, key string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if selector == ":focus" {
		selector = p.focused
	}
	e, err := p.element(selector)
	if err != nil {
		return err
	}
	p.pressed = append(p.pressed, key)
	if !isNamedKey(key) {
		e.Value += key
	}
	return nil
}

func isNamedKey(key string) bool {
	switch key {
	case "Enter", "Tab", "Escape", "Backspace", "Delete", "ArrowUp", "ArrowDown", "ArrowLeft",
		"ArrowRight", "Home", "End", "PageUp", "PageDown", "Space":
		return true
	}
	return false
}

func (p *FakePage) Text(selector string) (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, err := p.element(selector)
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

func (p *FakePage) Attribute(selector, name string) (string, bool, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, err := p.element(selector)
	if err != nil {
		return "", false, err
	}
	v, ok := e.Attributes[name]
	return v, ok, nil
}

func (p *FakePage) Value(selector string) (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, err := p.element(selector)
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (p *FakePage) IsVisible(selector string) (bool, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, ok := p.doc.Elements[selector]
	return ok && !e.Hidden, nil
}

func (p *FakePage) IsEnabled(selector string) (bool, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, err := p.element(selector)
	if err != nil {
		return false, err
	}
	return !e.Disabled, nil
}

func (p *FakePage) IsChecked(selector string) (bool, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, err := p.element(selector)
	if err != nil {
		return false, err
	}
	return e.Checked, nil
}

func (p *FakePage) IsFocused(selector string) (bool, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.focused == selector, nil
}

func (p *FakePage) Count(selector string) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, ok := p.doc.Elements[selector]
	if !ok {
		return 0, nil
	}
	if e.Count == 0 {
		return 1, nil
	}
	return e.Count, nil
}

func (p *FakePage) Title() (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.doc.Title, nil
}

func (p *FakePage) URL() (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.current(), nil
}

// WaitVisible returns immediately: the fake document never changes on its own.
func (p *FakePage) WaitVisible(selector string, timeout time.Duration) error {
	if ok, _ := p.IsVisible(selector); !ok {
		return fmt.Errorf("element %q was not visible within %s", selector, timeout)
	}
	return nil
}

func (p *FakePage) WaitForText(text string, timeout time.Duration) error {
	if !p.ContainsText(text) {
		return fmt.Errorf("text %q did not appear within %s", text, timeout)
	}
	return nil
}

// ContainsText is true if the text of any visible element contains text.
func (p *FakePage) ContainsText(text string) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, e := range p.doc.Elements {
		if !e.Hidden && strings.Contains(e.Text, text) {
			return true
		}
	}
	return false
}

// Screenshot writes a placeholder file, so that callers can check that the path exists.
func (p *FakePage) Screenshot(path string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.ScreenshotErr != nil {
		return p.ScreenshotErr
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0644); err != nil { //nolint:gosec
		return err
	}
	p.screenshots = append(p.screenshots, path)
	return nil
}

// Screenshots returns the paths of all screenshots taken.
func (p *FakePage) Screenshots() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.screenshots...)
}

func (p *FakePage) cookieJar() *[]browser.Cookie {
	if p.owner != nil {
		return &p.owner.cookies
	}
	return &p.cookies
}

func (p *FakePage) Cookies() ([]browser.Cookie, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]browser.Cookie(nil), *p.cookieJar()...), nil
}

func (p *FakePage) SetCookie(cookie browser.Cookie) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	jar := p.cookieJar()
	for i, c := range *jar {
		if c.Name == cookie.Name {
			(*jar)[i] = cookie
			return nil
		}
	}
	*jar = append(*jar, cookie)
	return nil
}

func (p *FakePage) ClearCookies() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	*p.cookieJar() = nil
	return nil
}

func (p *FakePage) Storage(kind browser.StorageKind) (map[string]string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	ret := make(map[string]string, len(p.storage[kind]))
	for k, v := range p.storage[kind] {
		ret[k] = v
	}
	return ret, nil
}

func (p *FakePage) SetStorage(kind browser.StorageKind, key, value string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.storage[kind][key] = value
	return nil
}

func (p *FakePage) ClearStorage(kind browser.StorageKind) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.storage[kind] = map[string]string{}
	return nil
}

func (p *FakePage) Evaluate(script string) (ldvalue.Value, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.evaluated = append(p.evaluated, script)
	return p.Scripts[script], nil
}

// Evaluated returns every script passed to Evaluate.
func (p *FakePage) Evaluated() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.evaluated...)
}

func (p *FakePage) Route(route browser.Route) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.routes = append(p.routes, route)
	return nil
}

// Routes returns the installed routes, sorted by pattern.
func (p *FakePage) Routes() []browser.Route {
	p.lock.Lock()
	defer p.lock.Unlock()
	ret := append([]browser.Route(nil), p.routes...)
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Pattern < ret[j].Pattern })
	return ret
}

// Pressed returns every key sent with PressKey.
func (p *FakePage) Pressed() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.pressed...)
}

func (p *FakePage) SetFiles(selector string, paths []string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	e, err := p.element(selector)
	if err != nil {
		return err
	}
	if e.Disabled {
		return fmt.Errorf("element %q is disabled", selector)
	}
	for _, path := range paths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("upload path %q is not absolute", path)
		}
	}
	e.Files = append([]string(nil), paths...)
	return nil
}

// Files returns the paths set on an element with SetFiles.
func (p *FakePage) Files(selector string) []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	if e, ok := p.doc.Elements[selector]; ok {
		return append([]string(nil), e.Files...)
	}
	return nil
}

func (p *FakePage) DragAndDrop(source, target string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, sel := range []string{source, target} {
		e, err := p.element(sel)
		if err != nil {
			return err
		}
		if e.Hidden {
			return fmt.Errorf("element %q is not visible", sel)
		}
	}
	p.drags = append(p.drags, [2]string{source, target})
	return nil
}

// Drags returns the source and target of every DragAndDrop.
func (p *FakePage) Drags() [][2]string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([][2]string(nil), p.drags...)
}

func (p *FakePage) WaitForNetworkIdle(timeout time.Duration) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.PendingRequests > 0 {
		return fmt.Errorf("network was not idle within %s: %d requests pending", timeout, p.PendingRequests)
	}
	return nil
}

func (p *FakePage) HandleDialogs(policy browser.DialogPolicy) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.policy = policy
	return nil
}

func (p *FakePage) Dialogs() []browser.Dialog {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]browser.Dialog(nil), p.dialogs...)
}

func (p *FakePage) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.closed = true
	return p.CloseErr
}

// Closed is true once Close has been called.
func (p *FakePage) Closed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closed
}
