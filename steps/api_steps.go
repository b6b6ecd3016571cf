package steps

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/apiclient"
	"github.com/sak85/API-Automation-POC/data"
	"github.com/sak85/API-Automation-POC/framework/helpers"
	"github.com/sak85/API-Automation-POC/framework/matchers"
	"github.com/sak85/API-Automation-POC/framework/opt"
	"github.com/sak85/API-Automation-POC/validation"
	"github.com/sak85/API-Automation-POC/world"
)

func (s *Scenario) registerAPISteps(r StepRegistrar) {
	r.Step(`^I have a valid API client$`, s.haveValidClient)
	r.Step(`^I set the base URL to "([^"]*)"$`, s.setBaseURL)
	r.Step(`^I have a (user|post) ID "([^"]*)"$`, s.haveID)
	r.Step(`^I have (user|post) data:$`, s.haveData)
	r.Step(`^I have updated (user|post) data:$`, s.haveUpdatedData)

	r.Step(`^I make a GET request to "([^"]*)"$`, s.get)
	r.Step(`^I make a GET request to "([^"]*)" with query parameter "([^"]*)" equal to "([^"]*)"$`, s.getWithQuery)
	r.Step(`^I make a POST request to "([^"]*)" with the (user|post) data$`, s.postData)
	r.Step(`^I make a (PUT|PATCH) request to "([^"]*)" with the updated data$`, s.sendUpdatedData)
	r.Step(`^I make a (POST|PUT|PATCH) request to "([^"]*)" with body:$`, s.sendBody)
	r.Step(`^I make a DELETE request to "([^"]*)"$`, s.delete)
	r.Step(`^I make a (GET|DELETE) request to "([^"]*)" expecting status (\d+)$`, s.sendExpectingStatus)

	r.Step(`^the response status should be (\d+)$`, s.statusShouldBe)
	r.Step(`^the response should contain an array of (\w+)$`, s.shouldContainArray)
	r.Step(`^the response should contain an? (\w+) object$`, s.shouldContainObject)
	r.Step(`^the response should contain the created (user|post) data$`, s.shouldContainCreatedData)
	r.Step(`^the response should contain the updated (user|post) data$`, s.shouldContainUpdatedData)
	r.Step(`^the response should have (\d+) items?$`, s.shouldHaveItems)
	r.Step(`^each (\w+) should have required fields: (.+)$`, s.eachShouldHaveFields)
	r.Step(`^the (\w+) should have required fields: (.+)$`, s.shouldHaveFields)
	r.Step(`^the (\w+) ID should be "([^"]*)"$`, s.idShouldBe)
	r.Step(`^all (\w+) should have (\w+) equal to "([^"]*)"$`, s.allShouldHave)
	r.Step(`^the (user|post|comment) (name|username|email|title|body) should be "([^"]*)"$`, s.propertyShouldBe)
	r.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.fieldShouldBe)
	r.Step(`^the response field "([^"]*)" should be of type "?(\w+)"?$`, s.fieldShouldBeOfType)
	r.Step(`^the response field "([^"]*)" should match "([^"]*)"$`, s.fieldShouldMatch)
	r.Step(`^the response should satisfy the rules:$`, s.shouldSatisfyRules)
	r.Step(`^the response should match the schema:$`, s.shouldMatchSchema)
	r.Step(`^the response time should be less than (\d+) ?ms$`, s.responseTimeBelow)
	r.Step(`^the response header "([^"]*)" should contain "([^"]*)"$`, s.headerShouldContain)
	r.Step(`^the response should contain (\d+) elements? matching "([^"]*)"$`, s.htmlElementCount)
	r.Step(`^the response element "([^"]*)" should have text "([^"]*)"$`, s.htmlElementText)
	r.Step(`^I store the response field "([^"]*)" as "([^"]*)"$`, s.storeResponseField)
}

func (s *Scenario) haveValidClient() error {
	if _, err := s.client(); err != nil {
		return err
	}
	s.logger().Infof("API client initialized")
	return nil
}

func (s *Scenario) setBaseURL(baseURL string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	baseURL = s.expand(baseURL)
	if _, err := url.Parse(baseURL); err != nil {
		return fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	s.World.SetClient(client.WithBaseURL(baseURL))
	s.logger().Infof("Base URL set to: %s", baseURL)
	return nil
}

func idKey(kind string) world.DataKey {
	if kind == "post" {
		return world.PostID
	}
	return world.UserID
}

func dataKey(kind string) world.DataKey {
	if kind == "post" {
		return world.PostData
	}
	return world.UserData
}

func updatedDataKey(kind string) world.DataKey {
	if kind == "post" {
		return world.UpdatedPostData
	}
	return world.UpdatedUserData
}

func (s *Scenario) haveID(kind, id string) error {
	s.World.SetData(idKey(kind), ldvalue.String(s.expand(id)))
	return nil
}

func (s *Scenario) haveData(kind string, table *godog.Table) error {
	value, err := s.firstRowObject(table)
	if err != nil {
		return err
	}
	s.World.SetData(dataKey(kind), value)
	return nil
}

func (s *Scenario) haveUpdatedData(kind string, table *godog.Table) error {
	value, err := s.firstRowObject(table)
	if err != nil {
		return err
	}
	s.World.SetData(updatedDataKey(kind), value)
	return nil
}

func (s *Scenario) send(ctx context.Context, spec apiclient.RequestSpec) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	spec.URL = s.expand(spec.URL)
	resp, err := client.Execute(ctx, spec)
	if err != nil {
		s.logger().Errorf("%s request failed: %s", spec.Method, err)
		return err
	}
	s.World.SetLastResponse(resp)
	return nil
}

func (s *Scenario) get(ctx context.Context, endpoint string) error {
	return s.send(ctx, apiclient.RequestSpec{Method: apiclient.MethodGet, URL: endpoint})
}

func (s *Scenario) getWithQuery(ctx context.Context, endpoint, param, value string) error {
	query := url.Values{}
	query.Set(param, s.expand(value))
	return s.send(ctx, apiclient.RequestSpec{Method: apiclient.MethodGet, URL: endpoint, Query: query})
}

func (s *Scenario) postData(ctx context.Context, endpoint, kind string) error {
	body, ok := s.World.Data(dataKey(kind)).Get()
	if !ok {
		return fmt.Errorf("no %s data has been given", kind)
	}
	return s.send(ctx, apiclient.RequestSpec{Method: apiclient.MethodPost, URL: endpoint, Body: body})
}

// sendUpdatedData sends the updated user data if there is any, and otherwise the updated post
// data.
func (s *Scenario) sendUpdatedData(ctx context.Context, method, endpoint string) error {
	body, ok := s.World.Data(world.UpdatedUserData).Get()
	if !ok {
		if body, ok = s.World.Data(world.UpdatedPostData).Get(); !ok {
			return errors.New("no updated data has been given")
		}
	}
	return s.send(ctx, apiclient.RequestSpec{Method: method, URL: endpoint, Body: body})
}

func (s *Scenario) sendBody(ctx context.Context, method, endpoint string, doc *godog.DocString) error {
	body, err := data.ParseValue([]byte(s.expand(doc.Content)))
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return s.send(ctx, apiclient.RequestSpec{Method: method, URL: endpoint, Body: body})
}

func (s *Scenario) delete(ctx context.Context, endpoint string) error {
	return s.send(ctx, apiclient.RequestSpec{Method: apiclient.MethodDelete, URL: endpoint})
}

// sendExpectingStatus records a rejected response instead of failing, so that error statuses
// can be asserted on. A response with the expected status is not retried.
func (s *Scenario) sendExpectingStatus(ctx context.Context, method, endpoint string, status int) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	resp, err := client.ExpectingStatus(status).Execute(ctx, apiclient.RequestSpec{Method: method, URL: s.expand(endpoint)})
	if err != nil {
		var rf *apiclient.RequestFailure
		if !errors.As(err, &rf) || rf.Response() == nil {
			return err
		}
		resp = rf.Response()
	}
	s.World.SetLastResponse(resp)
	return validation.ValidateStatusCode(resp.StatusCode, status)
}

func (s *Scenario) body() (ldvalue.Value, error) {
	resp, err := s.lastResponse()
	if err != nil {
		return ldvalue.Null(), err
	}
	return resp.Data, nil
}

func (s *Scenario) statusShouldBe(status int) error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	if err := validation.ValidateStatusCode(resp.StatusCode, status); err != nil {
		return err
	}
	s.logger().Infof("Response status verified: %d", resp.StatusCode)
	return nil
}

func (s *Scenario) shouldContainArray(what string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	if err := validation.Expect(validation.CheckType, body, matchers.NonEmptyArray()); err != nil {
		return err
	}
	s.logger().Infof("Response contains %d %s", body.Count(), what)
	return nil
}

func (s *Scenario) shouldContainObject(what string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	if err := validation.Expect(validation.CheckType, body, matchers.OfType(ldvalue.ObjectType)); err != nil {
		return err
	}
	s.logger().Infof("Response contains a %s object", what)
	return nil
}

func (s *Scenario) shouldContainStored(key world.DataKey) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	expected, ok := s.World.Data(key).Get()
	if !ok {
		return fmt.Errorf("no %s has been given", key)
	}
	return validation.ValidateSubset(expected, body)
}

func (s *Scenario) shouldContainCreatedData(kind string) error {
	return s.shouldContainStored(dataKey(kind))
}

func (s *Scenario) shouldContainUpdatedData(kind string) error {
	return s.shouldContainStored(updatedDataKey(kind))
}

func (s *Scenario) shouldHaveItems(count int) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	return validation.Expect(validation.CheckType, body,
		matchers.AllOf(matchers.OfType(ldvalue.ArrayType), matchers.Length(count)))
}

func (s *Scenario) eachShouldHaveFields(what, fields string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	required := splitList(fields)
	if err := validation.ValidateEach(body, validation.RequiredFields(required...)); err != nil {
		return err
	}
	s.logger().Infof("Verified required fields for %d %s: %s", body.Count(), what, strings.Join(required, ", "))
	return nil
}

func (s *Scenario) shouldHaveFields(what, fields string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	required := splitList(fields)
	if err := validation.Validate(body, validation.RequiredFields(required...)); err != nil {
		return err
	}
	s.logger().Infof("Verified required fields for %s: %s", what, strings.Join(required, ", "))
	return nil
}

// idShouldBe compares the textual form of the id, so "1" matches both 1 and "1".
func (s *Scenario) idShouldBe(what, expected string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	expected = s.expand(expected)
	actual := body.GetByKey("id")
	if actual.IsNull() || textOf(actual) != expected {
		return validation.Assertf(validation.CheckEqual, "Expected %s ID %s, got %s", what, expected,
			helpers.CanonicalizedJSONString(actual))
	}
	s.logger().Infof("%s ID verified: %s", what, expected)
	return nil
}

func (s *Scenario) allShouldHave(what, field, expected string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	expected = s.expand(expected)
	if err := validation.Expect(validation.CheckType, body, matchers.OfType(ldvalue.ArrayType)); err != nil {
		return err
	}
	var violations []validation.Violation
	for i := 0; i < body.Count(); i++ {
		actual := body.GetByIndex(i).GetByKey(field)
		if textOf(actual) != expected {
			violations = append(violations, validation.Violation{
				Field: fmt.Sprintf("%d.%s", i, field),
				Check: validation.CheckEqual,
				Message: fmt.Sprintf("Item %d has incorrect %s: expected %s, got %s", i+1, field, expected,
					helpers.CanonicalizedJSONString(actual)),
			})
		}
	}
	if len(violations) > 0 {
		return &validation.ValidationFailure{Violations: violations}
	}
	s.logger().Infof("Verified %s for %d %s", field, body.Count(), what)
	return nil
}

func (s *Scenario) propertyShouldBe(what, property, expected string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	if err := validation.ValidateEqual(property, ldvalue.String(s.expand(expected)), body); err != nil {
		return err
	}
	s.logger().Infof("%s %s verified: %s", what, property, expected)
	return nil
}

func (s *Scenario) fieldShouldBe(field, expected string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	return validation.ValidateEqual(field, parseLiteral(s.expand(expected)), body)
}

func (s *Scenario) fieldShouldBeOfType(field, typeName string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	valueType, err := validation.ParseValueType(typeName)
	if err != nil {
		return err
	}
	return validation.Validate(body, []validation.Rule{{Field: field, Required: true, Type: valueType}})
}

func (s *Scenario) fieldShouldMatch(field, pattern string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return validation.Expect(validation.CheckPattern, body, matchers.Field(field).Should(matchers.StringMatching(re)))
}

// shouldSatisfyRules reads one Rule per table row. The "field" column is required; "required",
// "type", "minLength", "maxLength" and "pattern" are optional and may be blank.
func (s *Scenario) shouldSatisfyRules(table *godog.Table) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	rows, err := tableHashes(table)
	if err != nil {
		return err
	}
	rules := make([]validation.Rule, 0, len(rows))
	for _, row := range rows {
		rule, err := ruleFromRow(row)
		if err != nil {
			return err
		}
		rules = append(rules, rule)
	}
	return validation.Validate(body, rules)
}

func ruleFromRow(row map[string]string) (validation.Rule, error) {
	rule := validation.Rule{Field: strings.TrimSpace(row["field"])}
	if rule.Field == "" {
		return rule, errors.New(`each rule needs a "field" column`)
	}
	if required := strings.TrimSpace(row["required"]); required != "" {
		b, err := strconv.ParseBool(required)
		if err != nil {
			return rule, fmt.Errorf("invalid required value %q for %s", required, rule.Field)
		}
		rule.Required = b
	}
	valueType, err := validation.ParseValueType(row["type"])
	if err != nil {
		return rule, err
	}
	rule.Type = valueType
	for _, bound := range []struct {
		column string
		set    func(int)
	}{
		{"minLength", func(n int) { rule.MinLength = opt.Some(n) }},
		{"maxLength", func(n int) { rule.MaxLength = opt.Some(n) }},
	} {
		if text := strings.TrimSpace(row[bound.column]); text != "" {
			n, err := strconv.Atoi(text)
			if err != nil {
				return rule, fmt.Errorf("invalid %s %q for %s", bound.column, text, rule.Field)
			}
			bound.set(n)
		}
	}
	if pattern := strings.TrimSpace(row["pattern"]); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return rule, fmt.Errorf("invalid pattern %q for %s: %w", pattern, rule.Field, err)
		}
		rule.Pattern = re
	}
	return rule, nil
}

func (s *Scenario) shouldMatchSchema(doc *godog.DocString) error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	return validation.ValidateSchema(resp.RawBody, doc.Content)
}

func (s *Scenario) responseTimeBelow(ms int) error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	return validation.ValidateResponseTime(resp.Elapsed, time.Duration(ms)*time.Millisecond)
}

func (s *Scenario) headerShouldContain(name, expected string) error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	header := matchers.Transform("header "+name, nil)
	return validation.Expect(validation.CheckEqual, ldvalue.String(resp.Header(name)),
		header.Should(matchers.StringContaining(s.expand(expected))))
}

func (s *Scenario) htmlElementCount(count int, selector string) error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	actual, err := validation.CountHTML(resp.RawBody, selector)
	if err != nil {
		return err
	}
	if actual != count {
		return validation.Assertf(validation.CheckEqual, "Expected %d elements matching %q, found %d", count, selector, actual)
	}
	return nil
}

// htmlElementText compares the trimmed text of the first element matching selector.
func (s *Scenario) htmlElementText(selector, expected string) error {
	resp, err := s.lastResponse()
	if err != nil {
		return err
	}
	actual, found, err := validation.HTMLText(resp.RawBody, selector)
	if err != nil {
		return err
	}
	if !found {
		return validation.Assertf(validation.CheckRequired, "No element matches %q in the response", selector)
	}
	if expected = s.expand(expected); actual != expected {
		return validation.Assertf(validation.CheckEqual, "Expected %q to have text %q, got %q", selector, expected, actual)
	}
	return nil
}

func (s *Scenario) storeResponseField(field, key string) error {
	body, err := s.body()
	if err != nil {
		return err
	}
	if err := validation.Expect(validation.CheckRequired, body, matchers.Field(field).Should(matchers.NotNull())); err != nil {
		return err
	}
	value, _ := helpers.ValueAtPath(body, field)
	s.World.SetTestData(key, value)
	return nil
}
