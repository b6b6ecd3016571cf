package validation

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CountHTML returns the number of elements in an HTML document that match a CSS selector.
func CountHTML(body []byte, selector string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}

// HTMLText returns the trimmed text of the first element that matches a CSS selector, and
// false if there is none.
func HTMLText(body []byte, selector string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false, nil
	}
	return strings.TrimSpace(sel.Text()), true, nil
}
