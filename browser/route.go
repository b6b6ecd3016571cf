package browser

import (
	"regexp"
	"strings"
	"sync"
)

type routeTable struct {
	routes []compiledRoute
	lock   sync.Mutex
}

type compiledRoute struct {
	route   Route
	matcher *regexp.Regexp
}

func (t *routeTable) add(r Route) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.routes = append(t.routes, compiledRoute{route: r, matcher: globToRegexp(r.Pattern)})
}

// match returns the most recently added route that matches url.
func (t *routeTable) match(url string) (Route, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	for i := len(t.routes) - 1; i >= 0; i-- {
		if t.routes[i].matcher.MatchString(url) {
			return t.routes[i].route, true
		}
	}
	return Route{}, false
}

func (t *routeTable) patterns() []string {
	t.lock.Lock()
	defer t.lock.Unlock()
	ret := make([]string, 0, len(t.routes))
	for _, r := range t.routes {
		ret = append(ret, r.route.Pattern)
	}
	return ret
}

func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
