package steps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/sak85/API-Automation-POC/browser"
	"github.com/sak85/API-Automation-POC/validation"
)

func (s *Scenario) dragAndDrop(source, target string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	s.logger().Infof("Dragging %s to %s", source, target)
	return page.DragAndDrop(source, target)
}

// uploadPaths makes each path absolute, relative to the working directory, and checks that it
// exists.
func (s *Scenario) uploadPaths(paths []string) ([]string, error) {
	ret := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(s.expand(p))
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("file to upload not found: %s", abs)
		}
		ret = append(ret, abs)
	}
	return ret, nil
}

func (s *Scenario) setFiles(selector string, paths []string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	files, err := s.uploadPaths(paths)
	if err != nil {
		return err
	}
	s.logger().Infof("Uploading %s to %s", strings.Join(files, ", "), selector)
	return page.SetFiles(selector, files)
}

func (s *Scenario) uploadFile(path, selector string) error {
	return s.setFiles(selector, []string{path})
}

// uploadFiles takes every non-empty cell of the table as a path.
func (s *Scenario) uploadFiles(selector string, table *godog.Table) error {
	var paths []string
	if table != nil {
		for _, row := range table.Rows {
			for _, cell := range row.Cells {
				if v := strings.TrimSpace(cell.Value); v != "" {
					paths = append(paths, v)
				}
			}
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files listed for %s", selector)
	}
	return s.setFiles(selector, paths)
}

func (s *Scenario) waitForNetworkIdle() error {
	page, err := s.page()
	if err != nil {
		return err
	}
	return page.WaitForNetworkIdle(s.uiTimeout())
}

// handleDialogs applies to dialogs opened after the step, so it comes before the action that
// opens one.
func (s *Scenario) handleDialogs(policy browser.DialogPolicy) func() error {
	return func() error {
		page, err := s.page()
		if err != nil {
			return err
		}
		return page.HandleDialogs(policy)
	}
}

func (s *Scenario) enterInDialog(text string) error {
	return s.handleDialogs(browser.DialogPolicy{Accept: true, PromptText: s.expand(text)})()
}

func (s *Scenario) dialogTextShouldBe(expected string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	dialogs := page.Dialogs()
	if len(dialogs) == 0 {
		return validation.Assertf(validation.CheckUI, "No alert was shown")
	}
	last := dialogs[len(dialogs)-1]
	if expected = s.expand(expected); last.Message != expected {
		return validation.Assertf(validation.CheckUI, "Expected alert text %q, got %q", expected, last.Message)
	}
	return nil
}

// openTab opens a tab in the scenario's browsing context. The current tab does not change.
func (s *Scenario) openTab() error {
	session, err := s.browserSession()
	if err != nil {
		return err
	}
	index, err := session.OpenTab()
	if err != nil {
		return err
	}
	s.logger().Infof("Opened tab %d", index)
	return nil
}

func (s *Scenario) closeTab() error {
	session, err := s.browserSession()
	if err != nil {
		return err
	}
	return session.CloseTab()
}

// switchTab takes a 0-based index in the order the tabs were opened.
func (s *Scenario) switchTab(index int) error {
	session, err := s.browserSession()
	if err != nil {
		return err
	}
	return session.SwitchTab(index)
}
