package data

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureUser struct {
	Name     string   `json:"name"`
	Active   bool     `json:"active"`
	Websites []string `json:"websites"`
}

func TestParseUserFixtureAsJSONOrYAML(t *testing.T) {
	inputs := map[string]string{
		"JSON": `{"name":"Leanne Graham","active":true,"websites":["hildegard.org","kale.biz"]}`,
		"YAML": "name: Leanne Graham\nactive: true\nwebsites:\n  - hildegard.org\n  - kale.biz\n",
	}
	for desc, input := range inputs {
		t.Run(desc, func(t *testing.T) {
			var user fixtureUser
			require.NoError(t, ParseJSONOrYAML([]byte(input), &user))
			assert.Equal(t, fixtureUser{Name: "Leanne Graham", Active: true,
				Websites: []string{"hildegard.org", "kale.biz"}}, user)
		})
	}
}

func TestFixtureCanExtendAnotherWithYAMLMerge(t *testing.T) {
	input := `
defaults: &defaults
  username: Bret
  company: Romaguera-Crona
users:
  admin:
    <<: *defaults
    role: admin
`
	var fixture struct {
		Users ldvalue.Value `json:"users"`
	}
	require.NoError(t, ParseJSONOrYAML([]byte(input), &fixture))
	m.In(t).Assert(fixture.Users.JSONString(),
		m.JSONStrEqual(`{"admin":{"username":"Bret","company":"Romaguera-Crona","role":"admin"}}`))
}

func TestParseValue(t *testing.T) {
	value, err := ParseValue([]byte("name: Leanne Graham\nid: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, ldvalue.ObjectBuild().SetString("name", "Leanne Graham").SetInt("id", 1).Build(), value)

	_, err = ParseValue([]byte("a: [1, 2"))
	assert.Error(t, err)
}
