package browser

import (
	"errors"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// ErrUnavailable means no browser could be started, for instance because Chrome is not installed.
var ErrUnavailable = errors.New("browser unavailable")

// Viewport is the page size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// NetworkIdleTime is how long a page must have no requests in flight to count as idle.
const NetworkIdleTime = 500 * time.Millisecond

// DefaultViewport is used when Options.Viewport is zero.
var DefaultViewport = Viewport{Width: 1280, Height: 720} //nolint:gochecknoglobals

// Driver is a running browser process.
type Driver interface {
	// NewContext creates an isolated browsing context that shares nothing with other contexts.
	NewContext() (BrowsingContext, error)
	Close() error
}

// BrowsingContext is an isolated session, like an incognito window.
type BrowsingContext interface {
	NewPage() (Page, error)
	Close() error
}

// StorageKind selects localStorage or sessionStorage.
type StorageKind string

const (
	LocalStorage   StorageKind = "localStorage"
	SessionStorage StorageKind = "sessionStorage"
)

// Cookie is a browser cookie. Domain and Path are optional when setting one; an empty Domain
// means the domain of the current page.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Route intercepts requests whose URL matches Pattern, in which "*" matches any sequence of
// characters and "?" matches one character. A blocking route fails the request; otherwise the
// request is answered with Status, ContentType and Body without reaching the network.
type Route struct {
	Pattern     string
	Block       bool
	Status      int
	ContentType string
	Body        string
}

// DialogPolicy decides how a page answers JavaScript dialogs (alert, confirm, prompt and
// beforeunload). The zero value dismisses them.
type DialogPolicy struct {
	Accept bool
	// PromptText is typed into a prompt before it is accepted.
	PromptText string
}

// Dialog is a JavaScript dialog the page opened, and how it was answered.
type Dialog struct {
	Type       string
	Message    string
	Accepted   bool
	PromptText string
}

// Page is one browser tab. Selectors are CSS selectors. Element actions wait for the element to
// exist up to the page's action timeout; the Is* queries and Count return immediately.
type Page interface {
	Navigate(url string) error
	Reload() error
	Back() error
	Forward() error

	Click(selector string) error
	DoubleClick(selector string) error
	Fill(selector, value string) error
	Clear(selector string) error
	SelectOption(selector, value string) error
	Check(selector string) error
	Uncheck(selector string) error
	Focus(selector string) error
	// PressKey sends a named key such as "Enter" or "Tab" to an element. Other strings are typed
	// as text.
	PressKey(selector, key string) error
	// SetFiles selects files in a file input. Paths must be absolute.
	SetFiles(selector string, paths []string) error
	// DragAndDrop presses the mouse on the centre of source, moves it to the centre of target and
	// releases it there.
	DragAndDrop(source, target string) error

	Text(selector string) (string, error)
	Attribute(selector, name string) (string, bool, error)
	Value(selector string) (string, error)
	IsVisible(selector string) (bool, error)
	IsEnabled(selector string) (bool, error)
	IsChecked(selector string) (bool, error)
	IsFocused(selector string) (bool, error)
	Count(selector string) (int, error)
	Title() (string, error)
	URL() (string, error)

	WaitVisible(selector string, timeout time.Duration) error
	WaitForText(text string, timeout time.Duration) error
	// WaitForNetworkIdle waits until no request has been in flight for NetworkIdleTime.
	WaitForNetworkIdle(timeout time.Duration) error

	// HandleDialogs sets how dialogs opened from now on are answered. Until it is called, dialogs
	// are dismissed.
	HandleDialogs(policy DialogPolicy) error
	// Dialogs returns every dialog opened so far, oldest first.
	Dialogs() []Dialog

	// Screenshot writes a full-page PNG to path, creating its directory.
	Screenshot(path string) error

	Cookies() ([]Cookie, error)
	SetCookie(cookie Cookie) error
	ClearCookies() error
	Storage(kind StorageKind) (map[string]string, error)
	SetStorage(kind StorageKind, key, value string) error
	ClearStorage(kind StorageKind) error

	// Evaluate runs JavaScript in the page and returns its result as JSON. An undefined result
	// is null.
	Evaluate(script string) (ldvalue.Value, error)
	Route(route Route) error
	Close() error
}
