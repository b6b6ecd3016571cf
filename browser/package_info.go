// Package browser is the capability UI scenarios use to drive a web browser. A Driver is
// launched once per run and hands out isolated BrowsingContexts, each with its own cookies and
// storage; a Page is one tab inside a context.
//
// ChromeDriver implements these interfaces with chromedp over the Chrome DevTools Protocol.
package browser
