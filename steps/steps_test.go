package steps

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/cucumber/godog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/browser/browsertest"
	"github.com/sak85/API-Automation-POC/data"
	"github.com/sak85/API-Automation-POC/framework"
	"github.com/sak85/API-Automation-POC/mockapi"
	"github.com/sak85/API-Automation-POC/world"
)

var testFixtures = fstest.MapFS{ //nolint:gochecknoglobals
	"fixtures/users.yaml": {Data: []byte(`
newUser:
  name: Fixture User
  email: "<$email>"
adminId: 1
`)},
	"fixtures/params.json": {Data: []byte(`{"parameters":[{"X":1},{"X":2}],"value":"<X>"}`)},
}

type featureRun struct {
	status    int
	output    string
	scenarios []*Scenario
}

// runFeature runs a feature against a fresh mock API. Each scenario gets a browsing context over
// site, with one page open, if site is not nil.
func runFeature(t *testing.T, feature string, site browsertest.Site) featureRun {
	t.Helper()
	var run featureRun
	api := mockapi.New(nil)
	defer api.Close() //nolint:errcheck
	httphelpers.WithServer(api, func(server *httptest.Server) {
		noSleep := func(context.Context, time.Duration) error { return nil }
		client, err := apiclient.New(server.URL, apiclient.WithSleeper(noSleep))
		require.NoError(t, err)
		screenshots := t.TempDir()

		var out bytes.Buffer
		suite := godog.TestSuite{
			Name: "steps",
			ScenarioInitializer: func(sc *godog.ScenarioContext) {
				s := &Scenario{
					Fixtures:      data.NewLoader(testFixtures, data.NewSeededGenerator(1, time.Now)),
					Generator:     data.NewSeededGenerator(2, time.Now),
					UITimeout:     time.Second,
					ScreenshotDir: screenshots,
					Logger:        framework.NewLevelLogger(&out, framework.LevelDebug),
				}
				run.scenarios = append(run.scenarios, s)
				sc.Before(func(ctx context.Context, gs *godog.Scenario) (context.Context, error) {
					s.World = world.New(client)
					s.World.ScenarioName = gs.Name
					if site != nil {
						bc, err := (&browsertest.FakeDriver{Site: site}).NewContext()
						if err != nil {
							return ctx, err
						}
						page, err := bc.NewPage()
						if err != nil {
							return ctx, err
						}
						s.World.AttachBrowser(&world.BrowserSession{Page: page, Context: bc})
					}
					return ctx, nil
				})
				Register(sc, s)
			},
			Options: &godog.Options{
				Format:          "progress",
				Output:          &out,
				Strict:          true,
				FeatureContents: []godog.Feature{{Name: "test.feature", Contents: []byte(feature)}},
			},
		}
		run.status = suite.Run()
		run.output = out.String()
	})
	return run
}

func requirePass(t *testing.T, run featureRun) {
	t.Helper()
	require.Equal(t, 0, run.status, "feature failed:\n%s", run.output)
}

func requireFail(t *testing.T, run featureRun, message string) {
	t.Helper()
	require.NotEqual(t, 0, run.status, "feature should have failed:\n%s", run.output)
	assert.Contains(t, run.output, message)
}

func TestUserCRUDSteps(t *testing.T) {
	run := runFeature(t, `
Feature: Users
  Scenario: Read users
    Given I have a valid API client
    When I make a GET request to "/users"
    Then the response status should be 200
    And the response should contain an array of users
    And the response should have 10 items
    And each user should have required fields: "id", "name", "email"

  Scenario: Read one user
    Given I have a user ID "1"
    When I make a GET request to "/users/{userId}"
    Then the response should contain a user object
    And the user should have required fields: "id, name, username"
    And the user ID should be "1"
    And the user name should be "Leanne Graham"
    And the user email should be "Sincere@april.biz"
    And the response field "email" should match "^\S+@\S+\.\w+$"
    And the response field "address.city" should be "Gwenborough"
    And the response field "id" should be of type number
    And the response time should be less than 5000ms
    And the response header "Content-Type" should contain "application/json"

  Scenario: Create and update a user
    Given I have user data:
      | name     | username | email            |
      | John Doe | johndoe  | john@example.com |
    And I have updated user data:
      | name         |
      | Jane Updated |
    When I make a POST request to "/users" with the user data
    Then the response status should be 201
    And the response should contain the created user data
    And I store the response field "id" as "newId"
    When I make a PUT request to "/users/{newId}" with the updated data
    Then the response status should be 200
    And the response should contain the updated user data
    When I make a DELETE request to "/users/{newId}"
    Then the response status should be 200

  Scenario: Missing user
    When I make a GET request to "/users/999" expecting status 404
    Then the response status should be 404
`, nil)
	requirePass(t, run)
}

func TestPostSteps(t *testing.T) {
	run := runFeature(t, `
Feature: Posts
  Scenario: Filter posts
    When I make a GET request to "/posts" with query parameter "userId" equal to "1"
    Then the response should contain an array of posts
    And all posts should have userId equal to "1"
    And the response should satisfy the rules:
      | field   | required | type   | minLength | pattern |
      | 0.title | true     | string | 1         | ^sunt   |
      | 0.id    | true     | number |           |         |

  Scenario: Create a post from a body
    When I make a POST request to "/posts" with body:
      """
      {"title": "Generated", "body": "<$string>", "userId": 1}
      """
    Then the response status should be 201
    And the post title should be "Generated"
    And the response field "userId" should be "1"
    And the response should match the schema:
      """
      {"type": "object", "required": ["id", "title"], "properties": {"id": {"type": "integer"}}}
      """

  Scenario: Patch a post with generated data
    Given I have generated updated post data
    When I make a PATCH request to "/posts/1" with the updated data
    Then the response status should be 200
    And the post ID should be "1"
`, nil)
	requirePass(t, run)
}

func TestHTMLResponseSteps(t *testing.T) {
	run := runFeature(t, `
Feature: HTML
  Scenario: Count rows
    When I make a GET request to "/html/users"
    Then the response should contain 10 elements matching "tr.user"
    And the response element "title" should have text "User table"
    And the response element "tr.user td:nth-child(2)" should have text "Leanne Graham"
`, nil)
	requirePass(t, run)
}

func TestHTMLElementTextFailures(t *testing.T) {
	for _, c := range []struct{ step, message string }{
		{`Then the response element "h1" should have text "Users"`, `No element matches "h1" in the response`},
		{`Then the response element "title" should have text "Users"`, `Expected "title" to have text "Users", got "User table"`},
	} {
		t.Run(c.message, func(t *testing.T) {
			run := runFeature(t, `
Feature: HTML
  Scenario: Text
    When I make a GET request to "/html/users"
    `+c.step+`
`, nil)
			requireFail(t, run, c.message)
		})
	}
}

func TestValidationFailureIsReported(t *testing.T) {
	run := runFeature(t, `
Feature: Failing
  Scenario: Wrong name
    When I make a GET request to "/users/1"
    Then the user name should be "Somebody Else"
`, nil)
	requireFail(t, run, "Field 'name' expected")
}

func TestMatcherFailuresDescribeExpectation(t *testing.T) {
	for _, c := range []struct{ step, message string }{
		{`Then the response should have 3 items`, "length 3 (was 10)"},
		{`Then the response header "Content-Type" should contain "text/html"`, "header Content-Type a string containing"},
		{`Then I store the response field "0.nickname" as "nick"`, "0.nickname not null"},
		{`Then the response field "0.email" should match "^\d+$"`, `0.email a string matching /^\d+$/`},
		{`Then the response field "0.id" should match "1"`, `0.id a string matching /1/`},
	} {
		t.Run(c.message, func(t *testing.T) {
			run := runFeature(t, `
Feature: Failing
  Scenario: Matcher
    When I make a GET request to "/users"
    `+c.step+`
`, nil)
			requireFail(t, run, c.message)
		})
	}
}

func TestRequestFailureFailsStep(t *testing.T) {
	run := runFeature(t, `
Feature: Failing
  Scenario: Missing
    When I make a GET request to "/users/999"
`, nil)
	requireFail(t, run, "failed with status 404")
}

func TestDataSteps(t *testing.T) {
	run := runFeature(t, `
Feature: Data
  Scenario: Test data
    Given I have test data:
      | loginUrl                | username |
      | http://example.com/in   | bob      |
    And I set "greeting" to "hello {username}"
    And I load test data from "fixtures/users.yaml"
    And I generate a uuid as "requestId"
    Then the test data "greeting" should be "hello bob"
    And the test data "adminId" should be "1"
    And the test data "loginUrl" should be "http://example.com/in"
`, nil)
	requirePass(t, run)
	require.Len(t, run.scenarios, 1)
	w := run.scenarios[0].World
	newUser := w.TestData("newUser").Value()
	assert.Equal(t, "Fixture User", newUser.GetByKey("name").StringValue())
	assert.Regexp(t, `^test\.\w{8}@example\.com$`, newUser.GetByKey("email").StringValue())
	assert.Len(t, w.TestData("requestId").Value().StringValue(), 36)
}

func TestParameterizedFixtureIsRejected(t *testing.T) {
	run := runFeature(t, `
Feature: Data
  Scenario: Params
    Given I load test data from "fixtures/params.json"
`, nil)
	requireFail(t, run, "expands to 2 parameter sets")
}

func TestEventStreamSteps(t *testing.T) {
	run := runFeature(t, `
Feature: Events
  Scenario: Change notification
    Given I open an event stream to "/events"
    And I should receive a "connected" event within 5 seconds
    And the event field "counts.users" should be "10"
    When I make a POST request to "/comments" with body:
      """
      {"postId": 1, "body": "hi"}
      """
    Then I should receive a "created" event within 5 seconds
    And the event field "resource" should be "comments"
`, nil)
	requirePass(t, run)
}

func TestUndefinedStepFailsInStrictMode(t *testing.T) {
	run := runFeature(t, `
Feature: Undefined
  Scenario: Typo
    When I make a GTE request to "/users"
`, nil)
	assert.NotEqual(t, 0, run.status)
}

func TestExpand(t *testing.T) {
	s := &Scenario{World: world.New(nil), Generator: data.NewSeededGenerator(1, time.Now)}
	s.World.SetTestData("userId", ldvalue.Int(7))
	s.World.SetTestData("name", ldvalue.String("bob"))
	assert.Equal(t, "/users/7/posts?by=bob", s.expand("/users/{userId}/posts?by={name}"))
	assert.Equal(t, "/users/{unknown}", s.expand("/users/{unknown}"))
	assert.NotContains(t, s.expand("id-<$uuid>"), "<$uuid>")
}

func TestTableHashes(t *testing.T) {
	rows, err := hashes([][]string{{"name", " email "}, {"a", "a@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"name": "a", "email": "a@example.com"}}, rows)

	_, err = hashes([][]string{{"name"}})
	assert.Error(t, err)
	_, err = hashes([][]string{{"name"}, {"a", "b"}})
	assert.Error(t, err)
	_, err = tableHashes(nil)
	assert.Error(t, err)
}

func TestRuleFromRow(t *testing.T) {
	rule, err := ruleFromRow(map[string]string{"field": "email", "required": "true", "type": "string",
		"minLength": "3", "maxLength": "50", "pattern": "@"})
	require.NoError(t, err)
	assert.True(t, rule.Required)
	assert.Equal(t, 3, rule.MinLength.Value())
	assert.Equal(t, 50, rule.MaxLength.Value())
	assert.True(t, rule.Pattern.MatchString("a@b"))

	for _, row := range []map[string]string{
		{"required": "true"},
		{"field": "x", "required": "maybe"},
		{"field": "x", "type": "date"},
		{"field": "x", "minLength": "three"},
		{"field": "x", "pattern": "("},
	} {
		_, err := ruleFromRow(row)
		assert.Error(t, err, "row %v", row)
	}
}

func TestParseLiteralAndSplitList(t *testing.T) {
	assert.Equal(t, ldvalue.Int(1), parseLiteral("1"))
	assert.Equal(t, ldvalue.Bool(true), parseLiteral("true"))
	assert.Equal(t, ldvalue.Null(), parseLiteral("null"))
	assert.Equal(t, ldvalue.String("John"), parseLiteral("John"))
	assert.Equal(t, []string{"id", "name", "email"}, splitList(`"id", "name",  email,`))
}
