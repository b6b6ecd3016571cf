package browser

import (
	"testing"

	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
)

func TestGlobToRegexp(t *testing.T) {
	for _, p := range []struct {
		pattern string
		url     string
		match   bool
	}{
		{"*", "http://localhost/a", true},
		{"*/api/users*", "http://localhost:3000/api/users?page=2", true},
		{"*/api/users*", "http://localhost:3000/api/posts", false},
		{"*.png", "http://cdn.example.com/img/logo.png", true},
		{"*.png", "http://cdn.example.com/img/logo.png.html", false},
		{"http://a/?", "http://a/b", true},
		{"http://a/?", "http://a/bc", false},
		{"http://a/(x)", "http://a/(x)", true},
	} {
		t.Run(p.pattern+" "+p.url, func(t *testing.T) {
			assert.Equal(t, p.match, globToRegexp(p.pattern).MatchString(p.url))
		})
	}
}

func TestRouteTablePrefersLatestRoute(t *testing.T) {
	var table routeTable
	table.add(Route{Pattern: "*/api/*", Block: true})
	table.add(Route{Pattern: "*/api/users", Status: 200, Body: "[]"})

	r, ok := table.match("http://localhost/api/users")
	assert.True(t, ok)
	assert.False(t, r.Block)
	assert.Equal(t, "[]", r.Body)

	r, ok = table.match("http://localhost/api/posts")
	assert.True(t, ok)
	assert.True(t, r.Block)

	_, ok = table.match("http://localhost/index.html")
	assert.False(t, ok)

	assert.Equal(t, []string{"*/api/*", "*/api/users"}, table.patterns())
}

func TestKeySequence(t *testing.T) {
	assert.Equal(t, kb.Enter, keySequence("Enter"))
	assert.Equal(t, kb.Tab, keySequence("TAB"))
	assert.Equal(t, kb.ArrowDown, keySequence("ArrowDown"))
	assert.Equal(t, "abc", keySequence("abc"))
}
