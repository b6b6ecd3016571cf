package browser

import (
	"strings"

	"github.com/chromedp/chromedp/kb"
)

var namedKeys = map[string]string{ //nolint:gochecknoglobals
	"enter":      kb.Enter,
	"tab":        kb.Tab,
	"escape":     kb.Escape,
	"esc":        kb.Escape,
	"backspace":  kb.Backspace,
	"delete":     kb.Delete,
	"arrowup":    kb.ArrowUp,
	"arrowdown":  kb.ArrowDown,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"home":       kb.Home,
	"end":        kb.End,
	"pageup":     kb.PageUp,
	"pagedown":   kb.PageDown,
	"space":      " ",
}

// keySequence maps a key name to the characters chromedp sends for it.
func keySequence(key string) string {
	if seq, ok := namedKeys[strings.ToLower(key)]; ok {
		return seq
	}
	return key
}
