package mockapi

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

const pageHeader = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
<nav><a id="home-link" href="/pages/home">Home</a> <a id="login-link" href="/pages/login">Login</a> <a id="users-link" href="/pages/users">Users</a></nav>
`

const pageFooter = `</body>
</html>
`

// Pages are static apart from the users page, which loads its list from /users with fetch so
// that browser scenarios can intercept the request.
var pages = map[string]struct{ title, body string }{ //nolint:gochecknoglobals
	"home": {"API Automation POC", `<h1 id="heading">Welcome</h1>
<p id="intro">A sample application for browser scenarios.</p>
<button id="toggle" onclick="var d=document.getElementById('details'); d.style.display = d.style.display === 'none' ? 'block' : 'none';">Toggle details</button>
<div id="details" style="display:none">Here are the details.</div>
<button id="counter" ondblclick="this.textContent = 'Clicked ' + (++window.clicks) + ' times';">Double-click me</button>
<script>window.clicks = 0;</script>
`},
	"login": {"Login", `<h1 id="heading">Sign in</h1>
<form id="login-form">
<input id="username" name="username" type="text" placeholder="Username">
<input id="password" name="password" type="password" placeholder="Password">
<select id="role" name="role"><option value="user">User</option><option value="admin">Admin</option></select>
<label><input id="remember" name="remember" type="checkbox"> Remember me</label>
<button id="submit" type="submit">Sign in</button>
<button id="disabled-button" type="button" disabled>Unavailable</button>
</form>
<div id="message" style="display:none"></div>
<script>
document.getElementById('login-form').addEventListener('submit', function (e) {
  e.preventDefault();
  var message = document.getElementById('message');
  if (document.getElementById('password').value === 'secret') {
    message.textContent = 'Welcome, ' + document.getElementById('username').value;
    message.className = 'success';
    localStorage.setItem('user', document.getElementById('username').value);
  } else {
    message.textContent = 'Invalid credentials';
    message.className = 'error';
  }
  message.style.display = 'block';
});
</script>
`},
	"users": {"Users", `<h1 id="heading">Users</h1>
<ul id="users"></ul>
<div id="status">Loading</div>
<script>
fetch('/users?_limit=10').then(function (r) { return r.json(); }).then(function (users) {
  var list = document.getElementById('users');
  users.forEach(function (u) {
    var li = document.createElement('li');
    li.className = 'user';
    li.textContent = u.name;
    list.appendChild(li);
  });
  document.getElementById('status').textContent = 'Loaded ' + users.length + ' users';
}).catch(function () {
  document.getElementById('status').textContent = 'Failed to load users';
});
</script>
`},
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	page, ok := pages[mux.Vars(r)["name"]]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeHTML(w, http.StatusOK, fmt.Sprintf(pageHeader, html.EscapeString(page.title))+page.body+pageFooter)
}

// serveUserTable renders the users as an HTML table, for scenarios that check HTML responses.
func (s *Server) serveUserTable(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(pageHeader, "User table"))
	b.WriteString("<table id=\"user-table\">\n<tr><th>ID</th><th>Name</th><th>Email</th></tr>\n")
	for _, u := range s.users.list(nil) {
		fmt.Fprintf(&b, "<tr class=\"user\"><td>%d</td><td>%s</td><td>%s</td></tr>\n",
			u.GetByKey("id").IntValue(),
			html.EscapeString(u.GetByKey("name").StringValue()),
			html.EscapeString(u.GetByKey("email").StringValue()))
	}
	b.WriteString("</table>\n")
	b.WriteString(pageFooter)
	writeHTML(w, http.StatusOK, b.String())
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
