package steps

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/sak85/API-Automation-POC/browser"
	"github.com/sak85/API-Automation-POC/framework/helpers"
	"github.com/sak85/API-Automation-POC/validation"
)

// DefaultPageURLPattern is where "I am on the <name> page" goes when there is no "<name>Url"
// test data.
const DefaultPageURLPattern = "https://example.com/%s"

func (s *Scenario) registerUISteps(r StepRegistrar) {
	r.Step(`^I navigate to "([^"]*)"$`, s.navigate)
	r.Step(`^I am on the "([^"]*)" page$`, s.onNamedPage)
	r.Step(`^I reload the page$`, s.withPage(browser.Page.Reload))
	r.Step(`^I go back$`, s.withPage(browser.Page.Back))
	r.Step(`^I go forward$`, s.withPage(browser.Page.Forward))

	r.Step(`^I click on "([^"]*)"$`, s.withSelector("Clicking element", browser.Page.Click))
	r.Step(`^I double click on "([^"]*)"$`, s.withSelector("Double clicking element", browser.Page.DoubleClick))
	r.Step(`^I right click on "([^"]*)"$`, s.dispatchMouseEvent("contextmenu"))
	r.Step(`^I hover over "([^"]*)"$`, s.dispatchMouseEvent("mouseover"))
	r.Step(`^I scroll to "([^"]*)"$`, s.scrollTo)
	r.Step(`^I fill "([^"]*)" with "([^"]*)"$`, s.fill)
	r.Step(`^I clear "([^"]*)"$`, s.withSelector("Clearing input", browser.Page.Clear))
	r.Step(`^I type "([^"]*)"$`, s.typeText)
	r.Step(`^I press "([^"]*)"$`, s.pressKey)
	r.Step(`^I press "([^"]*)" in "([^"]*)"$`, s.pressKeyIn)
	r.Step(`^I select "([^"]*)" from "([^"]*)"$`, s.selectOption)
	r.Step(`^I check "([^"]*)"$`, s.withSelector("Checking checkbox", browser.Page.Check))
	r.Step(`^I uncheck "([^"]*)"$`, s.withSelector("Unchecking checkbox", browser.Page.Uncheck))
	r.Step(`^I focus on "([^"]*)"$`, s.withSelector("Focusing element", browser.Page.Focus))
	r.Step(`^I drag "([^"]*)" to "([^"]*)"$`, s.dragAndDrop)
	r.Step(`^I upload "([^"]*)" to "([^"]*)"$`, s.uploadFile)
	r.Step(`^I upload multiple files to "([^"]*)":$`, s.uploadFiles)

	r.Step(`^I accept the alert$`, s.handleDialogs(browser.DialogPolicy{Accept: true}))
	r.Step(`^I dismiss the alert$`, s.handleDialogs(browser.DialogPolicy{}))
	r.Step(`^I enter "([^"]*)" in the alert$`, s.enterInDialog)
	r.Step(`^the alert text should be "([^"]*)"$`, s.dialogTextShouldBe)

	r.Step(`^I open a new tab$`, s.openTab)
	r.Step(`^I close the current tab$`, s.closeTab)
	r.Step(`^I switch to tab (\d+)$`, s.switchTab)

	r.Step(`^I wait for "([^"]*)" to be visible$`, s.waitVisible)
	r.Step(`^I wait for "?(\d+(?:\.\d+)?)"? seconds?$`, s.waitSeconds)
	r.Step(`^I wait for the page to load$`, s.waitForLoad)
	r.Step(`^I wait for network to be idle$`, s.waitForNetworkIdle)

	r.Step(`^I should see "([^"]*)"$`, s.shouldSee)
	r.Step(`^I should not see "([^"]*)"$`, s.shouldNotSee)
	r.Step(`^I should see "([^"]*)" in "([^"]*)"$`, s.shouldSeeIn)
	r.Step(`^I should not see "([^"]*)" in "([^"]*)"$`, s.shouldNotSeeIn)
	r.Step(`^"([^"]*)" should be visible$`, s.elementState("visible", browser.Page.IsVisible, true))
	r.Step(`^"([^"]*)" should not be visible$`, s.elementState("visible", browser.Page.IsVisible, false))
	r.Step(`^"([^"]*)" should be enabled$`, s.elementState("enabled", browser.Page.IsEnabled, true))
	r.Step(`^"([^"]*)" should be disabled$`, s.elementState("enabled", browser.Page.IsEnabled, false))
	r.Step(`^"([^"]*)" should be checked$`, s.elementState("checked", browser.Page.IsChecked, true))
	r.Step(`^"([^"]*)" should not be checked$`, s.elementState("checked", browser.Page.IsChecked, false))
	r.Step(`^"([^"]*)" should be focused$`, s.elementState("focused", browser.Page.IsFocused, true))
	r.Step(`^"([^"]*)" should contain "([^"]*)"$`, s.elementShouldContain)
	r.Step(`^"([^"]*)" should not contain "([^"]*)"$`, s.elementShouldNotContain)
	r.Step(`^"([^"]*)" should have value "([^"]*)"$`, s.valueShouldBe(true))
	r.Step(`^"([^"]*)" should not have value "([^"]*)"$`, s.valueShouldBe(false))
	r.Step(`^"([^"]*)" should have "([^"]*)" selected$`, s.valueShouldBe(true))
	r.Step(`^"([^"]*)" should not have "([^"]*)" selected$`, s.valueShouldBe(false))
	r.Step(`^"([^"]*)" should have attribute "([^"]*)" with value "([^"]*)"$`, s.attributeShouldBe)
	r.Step(`^"([^"]*)" should not have attribute "([^"]*)"$`, s.attributeShouldBeAbsent)

	r.Step(`^the page title should be "([^"]*)"$`, s.pageProperty("page title", browser.Page.Title, textEquals))
	r.Step(`^the page title should contain "([^"]*)"$`, s.pageProperty("page title", browser.Page.Title, textContains))
	r.Step(`^the URL should be "([^"]*)"$`, s.pageProperty("URL", browser.Page.URL, textEquals))
	r.Step(`^the URL should contain "([^"]*)"$`, s.pageProperty("URL", browser.Page.URL, textContains))
	r.Step(`^the URL should match "([^"]*)"$`, s.pageProperty("URL", browser.Page.URL, textMatches))

	r.Step(`^I should see (\d+) "([^"]*)"$`, s.countShouldBe("exactly", func(actual, n int) bool { return actual == n }))
	r.Step(`^I should see at least (\d+) "([^"]*)"$`, s.countShouldBe("at least", func(actual, n int) bool { return actual >= n }))
	r.Step(`^I should see at most (\d+) "([^"]*)"$`, s.countShouldBe("at most", func(actual, n int) bool { return actual <= n }))

	r.Step(`^I take a screenshot named "([^"]*)"$`, s.takeScreenshot)

	r.Step(`^I set cookie "([^"]*)" to "([^"]*)"$`, s.setCookie)
	r.Step(`^I clear all cookies$`, s.withPage(browser.Page.ClearCookies))
	r.Step(`^I should have cookie "([^"]*)" with value "([^"]*)"$`, s.cookieShouldBe)
	r.Step(`^I set (local|session) storage "([^"]*)" to "([^"]*)"$`, s.setStorage)
	r.Step(`^I clear (local|session) storage$`, s.clearStorage)
	r.Step(`^I should have (local|session) storage "([^"]*)" with value "([^"]*)"$`, s.storageShouldBe)

	r.Step(`^I execute JavaScript "([^"]*)"$`, s.executeScript)
	r.Step(`^I add script "([^"]*)"$`, s.addScript)
	r.Step(`^I add style "([^"]*)"$`, s.addStyle)
	r.Step(`^I mock response for "([^"]*)" with:$`, s.mockResponse)
	r.Step(`^I block requests to "([^"]*)"$`, s.blockRequests)
}

func (s *Scenario) withPage(action func(browser.Page) error) func() error {
	return func() error {
		page, err := s.page()
		if err != nil {
			return err
		}
		return action(page)
	}
}

func (s *Scenario) withSelector(description string, action func(browser.Page, string) error) func(string) error {
	return func(selector string) error {
		page, err := s.page()
		if err != nil {
			return err
		}
		s.logger().Infof("%s: %s", description, selector)
		return action(page, selector)
	}
}

func (s *Scenario) navigate(url string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	url = s.resolveURL(s.expand(url))
	s.logger().Infof("Navigating to: %s", url)
	return page.Navigate(url)
}

// resolveURL makes a path such as "/pages/login" absolute using the API base URL, so that
// browser scenarios can run against the same server as API scenarios.
func (s *Scenario) resolveURL(url string) string {
	if !strings.HasPrefix(url, "/") || s.World == nil || s.World.Client() == nil {
		return url
	}
	return strings.TrimSuffix(s.World.Client().BaseURL(), "/") + url
}

func (s *Scenario) onNamedPage(name string) error {
	url := fmt.Sprintf(DefaultPageURLPattern, strings.ToLower(name))
	if value, ok := s.World.TestData(name + "Url").Get(); ok {
		url = textOf(value)
	}
	return s.navigate(url)
}

func (s *Scenario) evaluateOn(selector, script string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	result, err := page.Evaluate(fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return false; %s; return true; })()`,
		jsLiteral(selector), script))
	if err != nil {
		return err
	}
	if !result.BoolValue() {
		return validation.Assertf(validation.CheckUI, "No element matches %q", selector)
	}
	return nil
}

func (s *Scenario) dispatchMouseEvent(eventType string) func(string) error {
	return func(selector string) error {
		return s.evaluateOn(selector, fmt.Sprintf(`el.dispatchEvent(new MouseEvent(%s, {bubbles: true}))`, jsLiteral(eventType)))
	}
}

func (s *Scenario) scrollTo(selector string) error {
	return s.evaluateOn(selector, `el.scrollIntoView()`)
}

func (s *Scenario) fill(selector, value string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	value = s.expand(value)
	s.logger().Infof("Filling %s with: %s", selector, value)
	return page.Fill(selector, value)
}

func (s *Scenario) typeText(text string) error {
	return s.pressKeyIn(s.expand(text), ":focus")
}

func (s *Scenario) pressKey(key string) error {
	return s.pressKeyIn(key, ":focus")
}

func (s *Scenario) pressKeyIn(key, selector string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	s.logger().Infof("Pressing key: %s", key)
	return page.PressKey(selector, key)
}

func (s *Scenario) selectOption(value, selector string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	s.logger().Infof("Selecting option %s from %s", value, selector)
	return page.SelectOption(selector, s.expand(value))
}

func (s *Scenario) waitVisible(selector string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	return page.WaitVisible(selector, s.uiTimeout())
}

// waitSeconds ends early with the context's error if the step is cancelled.
func (s *Scenario) waitSeconds(ctx context.Context, seconds string) error {
	n, err := strconv.ParseFloat(seconds, 64)
	if err != nil {
		return err
	}
	timer := time.NewTimer(time.Duration(n * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scenario) waitForLoad() error {
	page, err := s.page()
	if err != nil {
		return err
	}
	return page.WaitVisible("body", s.uiTimeout())
}

func (s *Scenario) shouldSee(text string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	text = s.expand(text)
	if err := page.WaitForText(text, s.uiTimeout()); err != nil {
		return validation.Assertf(validation.CheckUI, "Expected to see %q: %s", text, err)
	}
	return nil
}

func (s *Scenario) shouldNotSee(text string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	text = s.expand(text)
	found, err := page.Evaluate(fmt.Sprintf(`!!document.body && document.body.innerText.includes(%s)`, jsLiteral(text)))
	if err != nil {
		return err
	}
	if found.BoolValue() {
		return validation.Assertf(validation.CheckUI, "Expected not to see %q", text)
	}
	return nil
}

func (s *Scenario) textOf(selector string) (string, error) {
	page, err := s.page()
	if err != nil {
		return "", err
	}
	return page.Text(selector)
}

func (s *Scenario) shouldSeeIn(text, selector string) error {
	actual, err := s.textOf(selector)
	if err != nil {
		return err
	}
	if text = s.expand(text); !strings.Contains(actual, text) {
		return validation.Assertf(validation.CheckUI, "Expected %q to contain %q, but its text was %q", selector, text, actual)
	}
	return nil
}

func (s *Scenario) shouldNotSeeIn(text, selector string) error {
	actual, err := s.textOf(selector)
	if err != nil {
		return err
	}
	if text = s.expand(text); strings.Contains(actual, text) {
		return validation.Assertf(validation.CheckUI, "Expected %q not to contain %q, but its text was %q", selector, text, actual)
	}
	return nil
}

func (s *Scenario) elementShouldContain(selector, text string) error {
	return s.shouldSeeIn(text, selector)
}

func (s *Scenario) elementShouldNotContain(selector, text string) error {
	return s.shouldNotSeeIn(text, selector)
}

func (s *Scenario) elementState(
	state string,
	query func(browser.Page, string) (bool, error),
	expected bool,
) func(string) error {
	return func(selector string) error {
		page, err := s.page()
		if err != nil {
			return err
		}
		actual, err := query(page, selector)
		if err != nil {
			return err
		}
		if actual != expected {
			return validation.Assertf(validation.CheckUI, "Expected %q %sto be %s",
				selector, helpers.IfElse(expected, "", "not "), state)
		}
		return nil
	}
}

func (s *Scenario) valueShouldBe(expected bool) func(string, string) error {
	return func(selector, value string) error {
		page, err := s.page()
		if err != nil {
			return err
		}
		actual, err := page.Value(selector)
		if err != nil {
			return err
		}
		value = s.expand(value)
		if (actual == value) != expected {
			if expected {
				return validation.Assertf(validation.CheckUI, "Expected %q to have value %q, got %q", selector, value, actual)
			}
			return validation.Assertf(validation.CheckUI, "Expected %q not to have value %q", selector, value)
		}
		return nil
	}
}

func (s *Scenario) attributeShouldBe(selector, name, value string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	actual, ok, err := page.Attribute(selector, name)
	if err != nil {
		return err
	}
	if value = s.expand(value); !ok || actual != value {
		return validation.Assertf(validation.CheckUI, "Expected %q to have attribute %s=%q, got %q", selector, name, value, actual)
	}
	return nil
}

func (s *Scenario) attributeShouldBeAbsent(selector, name string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	actual, ok, err := page.Attribute(selector, name)
	if err != nil {
		return err
	}
	if ok {
		return validation.Assertf(validation.CheckUI, "Expected %q not to have attribute %s, but it was %q", selector, name, actual)
	}
	return nil
}

type textComparison struct {
	verb    string
	compare func(actual, expected string) (bool, error)
}

var (
	textEquals   = textComparison{verb: "to be", compare: equalText}         //nolint:gochecknoglobals
	textContains = textComparison{verb: "to contain", compare: containsText} //nolint:gochecknoglobals
	textMatches  = textComparison{verb: "to match", compare: matchesText}    //nolint:gochecknoglobals
)

func equalText(actual, expected string) (bool, error) { return actual == expected, nil }

func containsText(actual, expected string) (bool, error) {
	return strings.Contains(actual, expected), nil
}

func matchesText(actual, pattern string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re.MatchString(actual), nil
}

func (s *Scenario) pageProperty(
	name string,
	get func(browser.Page) (string, error),
	cmp textComparison,
) func(string) error {
	return func(expected string) error {
		page, err := s.page()
		if err != nil {
			return err
		}
		actual, err := get(page)
		if err != nil {
			return err
		}
		expected = s.expand(expected)
		ok, err := cmp.compare(actual, expected)
		if err != nil {
			return err
		}
		if !ok {
			return validation.Assertf(validation.CheckUI, "Expected %s %s %q, got %q", name, cmp.verb, expected, actual)
		}
		return nil
	}
}

func (s *Scenario) countShouldBe(description string, ok func(actual, n int) bool) func(int, string) error {
	return func(n int, selector string) error {
		page, err := s.page()
		if err != nil {
			return err
		}
		actual, err := page.Count(selector)
		if err != nil {
			return err
		}
		if !ok(actual, n) {
			return validation.Assertf(validation.CheckUI, "Expected %s %d elements matching %q, found %d", description, n, selector, actual)
		}
		return nil
	}
}

// ScreenshotPath is where a named screenshot is written: "<dir>/<name>-<unix ms>.png".
func ScreenshotPath(dir, name string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d.png", name, at.UnixMilli()))
}

func (s *Scenario) takeScreenshot(name string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	path := ScreenshotPath(s.ScreenshotDir, s.expand(name), s.currentTime())
	if err := page.Screenshot(path); err != nil {
		return err
	}
	s.logger().Infof("Screenshot saved: %s", path)
	return nil
}

func (s *Scenario) setCookie(name, value string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	return page.SetCookie(browser.Cookie{Name: name, Value: s.expand(value)})
}

func (s *Scenario) cookieShouldBe(name, value string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	cookies, err := page.Cookies()
	if err != nil {
		return err
	}
	value = s.expand(value)
	for _, c := range cookies {
		if c.Name == name {
			if c.Value != value {
				return validation.Assertf(validation.CheckUI, "Expected cookie %s to be %q, got %q", name, value, c.Value)
			}
			return nil
		}
	}
	return validation.Assertf(validation.CheckUI, "Cookie %s is not set", name)
}

func storageKind(which string) browser.StorageKind {
	if which == "session" {
		return browser.SessionStorage
	}
	return browser.LocalStorage
}

func (s *Scenario) setStorage(which, key, value string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	return page.SetStorage(storageKind(which), key, s.expand(value))
}

func (s *Scenario) clearStorage(which string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	return page.ClearStorage(storageKind(which))
}

func (s *Scenario) storageShouldBe(which, key, value string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	items, err := page.Storage(storageKind(which))
	if err != nil {
		return err
	}
	actual, ok := items[key]
	if value = s.expand(value); !ok || actual != value {
		return validation.Assertf(validation.CheckUI, "Expected %s storage %s to be %q, got %q", which, key, value, actual)
	}
	return nil
}

func (s *Scenario) executeScript(script string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	result, err := page.Evaluate(script)
	if err != nil {
		return err
	}
	s.logger().Debugf("Script result: %s", result.JSONString())
	return nil
}

func (s *Scenario) addScript(script string) error {
	return s.executeScript(fmt.Sprintf(
		`(() => { const el = document.createElement("script"); el.textContent = %s; document.head.appendChild(el); })()`,
		jsLiteral(script)))
}

func (s *Scenario) addStyle(style string) error {
	return s.executeScript(fmt.Sprintf(
		`(() => { const el = document.createElement("style"); el.textContent = %s; document.head.appendChild(el); })()`,
		jsLiteral(style)))
}

// mockResponse reads "status", "contentType" and "body" columns from the first table row.
func (s *Scenario) mockResponse(pattern string, table *godog.Table) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	rows, err := tableHashes(table)
	if err != nil {
		return err
	}
	route := browser.Route{Pattern: s.expand(pattern), Status: 200, ContentType: rows[0]["contentType"], Body: s.expand(rows[0]["body"])}
	if status := strings.TrimSpace(rows[0]["status"]); status != "" {
		if route.Status, err = strconv.Atoi(status); err != nil {
			return fmt.Errorf("invalid status %q", status)
		}
	}
	return page.Route(route)
}

func (s *Scenario) blockRequests(pattern string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	return page.Route(browser.Route{Pattern: s.expand(pattern), Block: true})
}

func jsLiteral(s string) string {
	return ldvalue.String(s).JSONString()
}
