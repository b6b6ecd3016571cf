package world

import (
	"errors"
	"fmt"

	"github.com/sak85/API-Automation-POC/browser"
)

// ErrNoOpenTab is returned by Page after every tab of the session was closed.
var ErrNoOpenTab = errors.New("every browser tab of this scenario was closed")

// track starts the tab list with the session's first page.
func (s *BrowserSession) track() {
	if s.tracked {
		return
	}
	s.tracked = true
	if s.Page != nil {
		s.tabs = []browser.Page{s.Page}
		s.current = 0
	}
}

// TabCount returns the number of open tabs.
func (s *BrowserSession) TabCount() int {
	s.track()
	return len(s.tabs)
}

// CurrentTab returns the 0-based index of the tab Page refers to, or -1 if no tab is open.
func (s *BrowserSession) CurrentTab() int {
	s.track()
	if len(s.tabs) == 0 {
		return -1
	}
	return s.current
}

// OpenTab opens a tab in the session's browsing context and returns its index. Page keeps
// referring to the current tab.
func (s *BrowserSession) OpenTab() (int, error) {
	s.track()
	if s.Context == nil {
		return 0, errors.New("this browser session cannot open tabs")
	}
	p, err := s.Context.NewPage()
	if err != nil {
		return 0, fmt.Errorf("could not open tab: %w", err)
	}
	s.tabs = append(s.tabs, p)
	if s.Page == nil {
		s.current, s.Page = len(s.tabs)-1, p
	}
	return len(s.tabs) - 1, nil
}

// SwitchTab makes the tab at the 0-based index current.
func (s *BrowserSession) SwitchTab(index int) error {
	s.track()
	if index < 0 || index >= len(s.tabs) {
		return fmt.Errorf("there is no tab %d; open tabs: %d", index, len(s.tabs))
	}
	s.current, s.Page = index, s.tabs[index]
	return nil
}

// CloseTab closes the current tab and makes the one before it current.
func (s *BrowserSession) CloseTab() error {
	s.track()
	if len(s.tabs) == 0 {
		return ErrNoOpenTab
	}
	closing := s.tabs[s.current]
	s.tabs = append(s.tabs[:s.current], s.tabs[s.current+1:]...)
	if s.current > 0 {
		s.current--
	}
	s.Page = nil
	if len(s.tabs) > 0 {
		s.Page = s.tabs[s.current]
	}
	return closing.Close()
}

// CloseTabs closes every open tab, returning all the errors.
func (s *BrowserSession) CloseTabs() error {
	s.track()
	var errs []error
	for _, p := range s.tabs {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.tabs, s.Page = nil, nil
	return errors.Join(errs...)
}
