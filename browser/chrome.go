package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/sak85/API-Automation-POC/framework"
)

// DefaultActionTimeout bounds each page action when Options.ActionTimeout is zero.
const DefaultActionTimeout = 10 * time.Second

// Options configures Launch.
type Options struct {
	Headless bool
	// ExecPath is the Chrome binary. If empty, FindChrome is used.
	ExecPath      string
	Viewport      Viewport
	ActionTimeout time.Duration
	Logger        *framework.LevelLogger
}

var chromeBinaryNames = []string{ //nolint:gochecknoglobals
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

// FindChrome returns the path of the first Chrome or Chromium binary on the PATH, or "".
func FindChrome() string {
	for _, name := range chromeBinaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// ChromeDriver is a Chrome process controlled through chromedp.
type ChromeDriver struct {
	opts          Options
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closeOnce     sync.Once
	closeErr      error
}

// Launch starts Chrome. If it cannot be started the error wraps ErrUnavailable.
func Launch(opts Options) (*ChromeDriver, error) {
	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = DefaultViewport
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	if opts.Logger == nil {
		opts.Logger = framework.NewLevelLogger(io.Discard, framework.LevelError)
	}
	if opts.ExecPath == "" {
		opts.ExecPath = FindChrome()
	}
	if opts.ExecPath == "" {
		return nil, fmt.Errorf("%w: no Chrome or Chromium binary found", ErrUnavailable)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], //nolint:gocritic
		chromedp.ExecPath(opts.ExecPath),
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(opts.Logger.At(framework.LevelDebug).Printf),
		chromedp.WithErrorf(opts.Logger.At(framework.LevelWarn).Printf),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	opts.Logger.Infof("Launched browser %s (headless=%t)", opts.ExecPath, opts.Headless)
	return &ChromeDriver{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// NewContext creates a new incognito-like browser context with its own tab sized to the
// configured viewport.
func (d *ChromeDriver) NewContext() (BrowsingContext, error) {
	ctx, cancel := chromedp.NewContext(d.browserCtx, chromedp.WithNewBrowserContext())
	viewport := emulation.SetDeviceMetricsOverride(int64(d.opts.Viewport.Width), int64(d.opts.Viewport.Height), 1, false)
	if err := chromedp.Run(ctx, viewport); err != nil {
		cancel()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	return &chromeContext{ctx: ctx, cancel: cancel, opts: d.opts}, nil
}

// Close shuts down the browser. It is safe to call more than once.
func (d *ChromeDriver) Close() error {
	d.closeOnce.Do(func() {
		err := chromedp.Cancel(d.browserCtx)
		d.allocCancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			d.closeErr = err
		}
	})
	return d.closeErr
}

type chromeContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	pages  int
	closed bool
	lock   sync.Mutex
}

// NewPage returns the context's own tab the first time and opens further tabs after that. The
// first tab lives as long as the context, so closing that page only unloads its document.
func (c *chromeContext) NewPage() (Page, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return nil, errors.New("browser context is closed")
	}
	c.pages++
	if c.pages == 1 {
		p, err := newChromePage(c.ctx, nil, c.opts)
		if err != nil {
			c.pages--
			return nil, err
		}
		return p, nil
	}
	tabCtx, tabCancel := chromedp.NewContext(c.ctx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	p, err := newChromePage(tabCtx, tabCancel, c.opts)
	if err != nil {
		tabCancel()
		return nil, err
	}
	return p, nil
}

func (c *chromeContext) Close() error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return nil
	}
	c.closed = true
	c.lock.Unlock()

	err := chromedp.Cancel(c.ctx)
	c.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
