package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><head><title>Users</title></head><body>
<h1> User list </h1>
<ul id="users"><li class="user">Leanne</li><li class="user">Ervin</li></ul>
</body></html>`

func TestCountHTML(t *testing.T) {
	n, err := CountHTML([]byte(samplePage), "li.user")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = CountHTML([]byte(samplePage), "table")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHTMLText(t *testing.T) {
	text, found, err := HTMLText([]byte(samplePage), "h1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "User list", text)

	_, found, err = HTMLText([]byte(samplePage), "h2")
	require.NoError(t, err)
	assert.False(t, found)
}
