// Package textclean normalizes free-text fields coming from article stores.
package textclean

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var stripped = strings.NewReplacer(`"`, "", `'`, "", `\`, "")

// Clean removes markup, control characters, quotes and backslashes, and
// collapses runs of whitespace.
func Clean(value string) string {
	if value == "" {
		return ""
	}
	if strings.ContainsAny(value, "<&") {
		value = StripMarkup(value)
	}
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, value)
	value = stripped.Replace(value)
	return strings.Join(strings.Fields(value), " ")
}

// StripMarkup returns the text content of an HTML fragment. Entities are
// decoded. Unparseable input is returned unchanged.
func StripMarkup(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}
