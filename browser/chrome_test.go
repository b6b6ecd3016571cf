package browser

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formPage = `<!DOCTYPE html>
<html><head><title>Login</title></head><body>
<form id="login">
  <input id="username" name="username" data-test="user">
  <input id="remember" type="checkbox">
  <select id="role"><option value="admin">Admin</option><option value="guest">Guest</option></select>
  <button id="submit" type="button" onclick="document.getElementById('msg').textContent = 'Welcome ' + document.getElementById('username').value">Sign in</button>
  <button id="disabled" disabled>Nope</button>
</form>
<p id="msg"></p>
<ul><li class="item">a</li><li class="item">b</li><li class="item">c</li></ul>
</body></html>`

func launchForTest(t *testing.T) *ChromeDriver {
	t.Helper()
	driver, err := Launch(Options{Headless: true, ExecPath: os.Getenv("BROWSER_PATH"), ActionTimeout: 10 * time.Second})
	if errors.Is(err, ErrUnavailable) {
		t.Skipf("Skipping browser test (environment does not support Chrome): %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	return driver
}

func pageHandler(html string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	})
}

func TestLaunchWithoutBinaryIsUnavailable(t *testing.T) {
	_, err := Launch(Options{ExecPath: filepath.Join(t.TempDir(), "no-such-chrome")})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestChromePageInteractions(t *testing.T) {
	driver := launchForTest(t)
	httphelpers.WithServer(pageHandler(formPage), func(server *httptest.Server) {
		bc, err := driver.NewContext()
		require.NoError(t, err)
		defer func() { assert.NoError(t, bc.Close()) }()
		p, err := bc.NewPage()
		require.NoError(t, err)
		defer func() { _ = p.Close() }()

		require.NoError(t, p.Navigate(server.URL))
		title, err := p.Title()
		require.NoError(t, err)
		assert.Equal(t, "Login", title)

		require.NoError(t, p.Fill("#username", "leanne"))
		value, err := p.Value("#username")
		require.NoError(t, err)
		assert.Equal(t, "leanne", value)

		require.NoError(t, p.Check("#remember"))
		checked, err := p.IsChecked("#remember")
		require.NoError(t, err)
		assert.True(t, checked)
		require.NoError(t, p.Uncheck("#remember"))
		checked, _ = p.IsChecked("#remember")
		assert.False(t, checked)

		require.NoError(t, p.SelectOption("#role", "guest"))
		value, _ = p.Value("#role")
		assert.Equal(t, "guest", value)
		assert.Error(t, p.SelectOption("#role", "superuser"))

		require.NoError(t, p.Click("#submit"))
		require.NoError(t, p.WaitForText("Welcome leanne", 5*time.Second))
		text, err := p.Text("#msg")
		require.NoError(t, err)
		assert.Equal(t, "Welcome leanne", text)

		enabled, _ := p.IsEnabled("#disabled")
		assert.False(t, enabled)
		visible, _ := p.IsVisible("#missing")
		assert.False(t, visible)

		n, err := p.Count("li.item")
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		attr, found, err := p.Attribute("#username", "data-test")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "user", attr)

		result, err := p.Evaluate("1 + 2")
		require.NoError(t, err)
		assert.Equal(t, ldvalue.Int(3), result)

		require.NoError(t, p.SetStorage(LocalStorage, "token", "abc"))
		items, err := p.Storage(LocalStorage)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"token": "abc"}, items)
		require.NoError(t, p.ClearStorage(LocalStorage))

		path := filepath.Join(t.TempDir(), "shots", "page.png")
		require.NoError(t, p.Screenshot(path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	})
}

func TestBrowsingContextsAreIsolated(t *testing.T) {
	driver := launchForTest(t)
	httphelpers.WithServer(pageHandler(formPage), func(server *httptest.Server) {
		first, err := driver.NewContext()
		require.NoError(t, err)
		defer first.Close()
		second, err := driver.NewContext()
		require.NoError(t, err)
		defer second.Close()

		p1, err := first.NewPage()
		require.NoError(t, err)
		p2, err := second.NewPage()
		require.NoError(t, err)

		require.NoError(t, p1.Navigate(server.URL))
		require.NoError(t, p2.Navigate(server.URL))
		require.NoError(t, p1.SetCookie(Cookie{Name: "session", Value: "one"}))

		cookies, err := p1.Cookies()
		require.NoError(t, err)
		require.Len(t, cookies, 1)
		assert.Equal(t, "one", cookies[0].Value)

		cookies, err = p2.Cookies()
		require.NoError(t, err)
		assert.Len(t, cookies, 0)
	})
}

func TestRouteFulfillsAndBlocks(t *testing.T) {
	driver := launchForTest(t)
	page := `<html><body><p id="out">pending</p><script>
fetch("/api/data").then(r => r.json()).then(d => { document.getElementById("out").textContent = d.message; })
  .catch(() => { document.getElementById("out").textContent = "blocked"; });
</script></body></html>`
	httphelpers.WithServer(pageHandler(page), func(server *httptest.Server) {
		bc, err := driver.NewContext()
		require.NoError(t, err)
		defer bc.Close()
		p, err := bc.NewPage()
		require.NoError(t, err)

		require.NoError(t, p.Route(Route{Pattern: "*/api/data", Status: 200, Body: `{"message":"mocked"}`}))
		require.NoError(t, p.Navigate(server.URL))
		require.NoError(t, p.WaitForText("mocked", 5*time.Second))

		require.NoError(t, p.Route(Route{Pattern: "*/api/*", Block: true}))
		require.NoError(t, p.Reload())
		require.NoError(t, p.WaitForText("blocked", 5*time.Second))
	})
}
