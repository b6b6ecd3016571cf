package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/framework/helpers"
)

const (
	pollInterval = 100 * time.Millisecond
	dragSteps    = 5
)

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc // nil for a context's first tab
	opts    Options
	routes  routeTable
	network networkTracker
	policy  DialogPolicy
	dialogs []Dialog
	lock    sync.Mutex
}

// newChromePage starts listening to the tab's events. The network domain is enabled here
// because WaitForNetworkIdle relies on its request events.
func newChromePage(ctx context.Context, cancel context.CancelFunc, opts Options) (*chromePage, error) {
	p := &chromePage{ctx: ctx, cancel: cancel, opts: opts}
	chromedp.ListenTarget(ctx, p.onTargetEvent)
	if err := p.run(network.Enable()); err != nil {
		return nil, fmt.Errorf("enabling network events: %w", err)
	}
	return p, nil
}

func (p *chromePage) run(actions ...chromedp.Action) error {
	return p.runWithTimeout(p.opts.ActionTimeout, actions...)
}

func (p *chromePage) runWithTimeout(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	return ldvalue.String(s).JSONString()
}

func (p *chromePage) Navigate(url string) error { return p.run(chromedp.Navigate(url)) }
func (p *chromePage) Reload() error            { return p.run(chromedp.Reload()) }
func (p *chromePage) Back() error              { return p.run(chromedp.NavigateBack()) }
func (p *chromePage) Forward() error           { return p.run(chromedp.NavigateForward()) }

func (p *chromePage) Click(selector string) error {
	return p.run(chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (p *chromePage) DoubleClick(selector string) error {
	return p.run(chromedp.DoubleClick(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (p *chromePage) Fill(selector, value string) error {
	return p.run(
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (p *chromePage) Clear(selector string) error {
	return p.run(chromedp.Clear(selector, chromedp.ByQuery))
}

func (p *chromePage) SelectOption(selector, value string) error {
	var ok bool
	script := fmt.Sprintf(`(() => {
		const e = document.querySelector(%s);
		e.value = %s;
		e.dispatchEvent(new Event("input", {bubbles: true}));
		e.dispatchEvent(new Event("change", {bubbles: true}));
		return e.value === %s;
	})()`, jsString(selector), jsString(value), jsString(value))
	if err := p.run(chromedp.WaitReady(selector, chromedp.ByQuery), chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s has no option with value %q", selector, value)
	}
	return nil
}

func (p *chromePage) Check(selector string) error   { return p.setChecked(selector, true) }
func (p *chromePage) Uncheck(selector string) error { return p.setChecked(selector, false) }

func (p *chromePage) setChecked(selector string, checked bool) error {
	current, err := p.IsChecked(selector)
	if err != nil {
		return err
	}
	if current == checked {
		return nil
	}
	return p.Click(selector)
}

func (p *chromePage) Focus(selector string) error {
	return p.run(chromedp.Focus(selector, chromedp.ByQuery))
}

func (p *chromePage) PressKey(selector, key string) error {
	return p.run(chromedp.SendKeys(selector, keySequence(key), chromedp.ByQuery))
}

func (p *chromePage) Text(selector string) (string, error) {
	var text string
	err := p.run(chromedp.Text(selector, &text, chromedp.ByQuery))
	return text, err
}

func (p *chromePage) Attribute(selector, name string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := p.run(chromedp.AttributeValue(selector, name, &value, &found, chromedp.ByQuery))
	return value, found, err
}

func (p *chromePage) Value(selector string) (string, error) {
	var value string
	err := p.run(chromedp.Value(selector, &value, chromedp.ByQuery))
	return value, err
}

func (p *chromePage) queryBool(selector, predicate string) (bool, error) {
	var result bool
	script := fmt.Sprintf(`(() => { const e = document.querySelector(%s); return !!e && (%s); })()`,
		jsString(selector), predicate)
	err := p.run(chromedp.Evaluate(script, &result))
	return result, err
}

func (p *chromePage) IsVisible(selector string) (bool, error) {
	return p.queryBool(selector, `(() => {
		const r = e.getBoundingClientRect();
		const s = getComputedStyle(e);
		return r.width > 0 && r.height > 0 && s.visibility !== "hidden" && s.display !== "none";
	})()`)
}

func (p *chromePage) IsEnabled(selector string) (bool, error) {
	return p.queryBool(selector, `!e.disabled`)
}

func (p *chromePage) IsChecked(selector string) (bool, error) {
	return p.queryBool(selector, `!!e.checked`)
}

func (p *chromePage) IsFocused(selector string) (bool, error) {
	return p.queryBool(selector, `document.activeElement === e`)
}

func (p *chromePage) Count(selector string) (int, error) {
	var n int
	err := p.run(chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector)), &n))
	return n, err
}

func (p *chromePage) Title() (string, error) {
	var title string
	err := p.run(chromedp.Title(&title))
	return title, err
}

func (p *chromePage) URL() (string, error) {
	var url string
	err := p.run(chromedp.Location(&url))
	return url, err
}

func (p *chromePage) WaitVisible(selector string, timeout time.Duration) error {
	return p.runWithTimeout(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *chromePage) WaitForText(text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	script := fmt.Sprintf(`!!document.body && document.body.innerText.includes(%s)`, jsString(text))
	var lastErr error
	err := helpers.PollUntil(ctx, pollInterval, func() bool {
		var found bool
		lastErr = chromedp.Run(ctx, chromedp.Evaluate(script, &found))
		return lastErr == nil && found
	})
	if err != nil {
		if lastErr != nil {
			return fmt.Errorf("text %q did not appear within %s: %w", text, timeout, lastErr)
		}
		return fmt.Errorf("text %q did not appear within %s", text, timeout)
	}
	return nil
}

func (p *chromePage) Screenshot(path string) error {
	var buf []byte
	if err := p.run(chromedp.FullScreenshot(&buf, 100)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644) //nolint:gosec
}

func (p *chromePage) Cookies() ([]Cookie, error) {
	var cookies []*network.Cookie
	err := p.run(chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	ret := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		ret = append(ret, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	return ret, nil
}

func (p *chromePage) SetCookie(cookie Cookie) error {
	return p.run(chromedp.ActionFunc(func(ctx context.Context) error {
		params := network.SetCookie(cookie.Name, cookie.Value)
		if cookie.Domain != "" {
			params = params.WithDomain(cookie.Domain)
		} else {
			var current string
			if err := chromedp.Location(&current).Do(ctx); err != nil {
				return err
			}
			params = params.WithURL(current)
		}
		if cookie.Path != "" {
			params = params.WithPath(cookie.Path)
		}
		return params.Do(ctx)
	}))
}

func (p *chromePage) ClearCookies() error {
	return p.run(chromedp.ActionFunc(func(ctx context.Context) error {
		return network.ClearBrowserCookies().Do(ctx)
	}))
}

func (p *chromePage) Storage(kind StorageKind) (map[string]string, error) {
	var items map[string]string
	err := p.run(chromedp.Evaluate(fmt.Sprintf(`Object.assign({}, window.%s)`, kind), &items))
	return items, err
}

func (p *chromePage) SetStorage(kind StorageKind, key, value string) error {
	var ok bool
	return p.run(chromedp.Evaluate(fmt.Sprintf(`(() => { window.%s.setItem(%s, %s); return true; })()`,
		kind, jsString(key), jsString(value)), &ok))
}

func (p *chromePage) ClearStorage(kind StorageKind) error {
	var ok bool
	return p.run(chromedp.Evaluate(fmt.Sprintf(`(() => { window.%s.clear(); return true; })()`, kind), &ok))
}

func (p *chromePage) Evaluate(script string) (ldvalue.Value, error) {
	var raw []byte
	wrapped := fmt.Sprintf(`(() => { const r = eval(%s); return r === undefined ? null : r; })()`, jsString(script))
	if err := p.run(chromedp.Evaluate(wrapped, &raw)); err != nil {
		return ldvalue.Null(), err
	}
	return ldvalue.Parse(raw), nil
}

func (p *chromePage) SetFiles(selector string, paths []string) error {
	return p.run(chromedp.SetUploadFiles(selector, paths, chromedp.ByQuery))
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragAndDrop moves the mouse with the left button held from the centre of source to the centre
// of target, which triggers both pointer-based and native HTML5 drag handlers.
func (p *chromePage) DragAndDrop(source, target string) error {
	var centres []*point
	script := fmt.Sprintf(`[%s, %s].map(s => {
		const e = document.querySelector(s);
		if (!e) return null;
		e.scrollIntoView({block: "center"});
		const r = e.getBoundingClientRect();
		return {x: r.left + r.width / 2, y: r.top + r.height / 2};
	})`, jsString(source), jsString(target))
	return p.run(
		chromedp.WaitVisible(source, chromedp.ByQuery),
		chromedp.WaitVisible(target, chromedp.ByQuery),
		chromedp.Evaluate(script, &centres),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(centres) != 2 || centres[0] == nil || centres[1] == nil {
				return fmt.Errorf("could not locate %s or %s", source, target)
			}
			return dragMouse(ctx, *centres[0], *centres[1])
		}),
	)
}

func dragMouse(ctx context.Context, from, to point) error {
	if err := input.DispatchMouseEvent(input.MouseMoved, from.X, from.Y).Do(ctx); err != nil {
		return err
	}
	err := input.DispatchMouseEvent(input.MousePressed, from.X, from.Y).
		WithButton(input.Left).WithButtons(1).WithClickCount(1).Do(ctx)
	if err != nil {
		return err
	}
	for i := 1; i <= dragSteps; i++ {
		x := from.X + (to.X-from.X)*float64(i)/dragSteps
		y := from.Y + (to.Y-from.Y)*float64(i)/dragSteps
		if err := input.DispatchMouseEvent(input.MouseMoved, x, y).WithButton(input.Left).WithButtons(1).Do(ctx); err != nil {
			return err
		}
	}
	return input.DispatchMouseEvent(input.MouseReleased, to.X, to.Y).
		WithButton(input.Left).WithClickCount(1).Do(ctx)
}

func (p *chromePage) WaitForNetworkIdle(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	err := helpers.PollUntil(ctx, pollInterval, func() bool {
		pending, idle := p.network.idleFor(time.Now())
		return pending == 0 && idle >= NetworkIdleTime
	})
	if err != nil {
		pending, _ := p.network.idleFor(time.Now())
		return fmt.Errorf("network was not idle within %s: %d requests pending", timeout, pending)
	}
	return nil
}

func (p *chromePage) HandleDialogs(policy DialogPolicy) error {
	p.lock.Lock()
	p.policy = policy
	p.lock.Unlock()
	return nil
}

func (p *chromePage) Dialogs() []Dialog {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]Dialog(nil), p.dialogs...)
}

// Route registers an interception rule. Every call re-enables the fetch domain with the full
// list of patterns.
func (p *chromePage) Route(route Route) error {
	p.routes.add(route)
	var patterns []*fetch.RequestPattern
	for _, pattern := range p.routes.patterns() {
		patterns = append(patterns, &fetch.RequestPattern{URLPattern: pattern})
	}
	return p.run(fetch.Enable().WithPatterns(patterns))
}

// targetContext returns a context that sends commands straight to the tab. Event handlers must not
// block, so replies to events are sent from another goroutine using it.
func (p *chromePage) targetContext() (context.Context, bool) {
	c := chromedp.FromContext(p.ctx)
	if c == nil || c.Target == nil {
		return nil, false
	}
	return cdp.WithExecutor(p.ctx, c.Target), true
}

func (p *chromePage) onTargetEvent(ev interface{}) {
	switch ev := ev.(type) {
	case *fetch.EventRequestPaused:
		go p.answerPaused(ev)
	case *page.EventJavascriptDialogOpening:
		go p.answerDialog(ev)
	case *network.EventRequestWillBeSent:
		p.network.started(ev.RequestID, time.Now())
	case *network.EventLoadingFinished:
		p.network.finished(ev.RequestID, time.Now())
	case *network.EventLoadingFailed:
		p.network.finished(ev.RequestID, time.Now())
	}
}

func (p *chromePage) answerPaused(paused *fetch.EventRequestPaused) {
	ctx, ok := p.targetContext()
	if !ok {
		return
	}
	var err error
	route, matched := p.routes.match(paused.Request.URL)
	switch {
	case !matched:
		err = fetch.ContinueRequest(paused.RequestID).Do(ctx)
	case route.Block:
		err = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(ctx)
	default:
		status := route.Status
		if status == 0 {
			status = 200
		}
		contentType := route.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		err = fetch.FulfillRequest(paused.RequestID, int64(status)).
			WithResponseHeaders([]*fetch.HeaderEntry{{Name: "Content-Type", Value: contentType}}).
			WithBody(base64.StdEncoding.EncodeToString([]byte(route.Body))).
			Do(ctx)
	}
	if err != nil {
		p.opts.Logger.Warnf("Could not handle intercepted request %s: %s", paused.Request.URL, err)
	}
}

// answerDialog replies to an alert, confirm or prompt with the current policy. The page stays
// blocked until it gets an answer.
func (p *chromePage) answerDialog(ev *page.EventJavascriptDialogOpening) {
	p.lock.Lock()
	policy := p.policy
	dialog := Dialog{Type: string(ev.Type), Message: ev.Message, Accepted: policy.Accept}
	if policy.Accept && ev.Type == page.DialogTypePrompt {
		dialog.PromptText = policy.PromptText
	}
	p.dialogs = append(p.dialogs, dialog)
	p.lock.Unlock()

	ctx, ok := p.targetContext()
	if !ok {
		return
	}
	action := page.HandleJavaScriptDialog(policy.Accept)
	if dialog.PromptText != "" {
		action = action.WithPromptText(dialog.PromptText)
	}
	if err := action.Do(ctx); err != nil {
		p.opts.Logger.Warnf("Could not answer %s dialog: %s", ev.Type, err)
	}
}

func (p *chromePage) Close() error {
	if p.cancel == nil {
		return p.run(chromedp.Navigate("about:blank"), chromedp.ActionFunc(func(ctx context.Context) error {
			return page.StopLoading().Do(ctx)
		}))
	}
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return err
}
