package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const blockElements = "p, br, div, li, h1, h2, h3, h4, h5, h6, blockquote, figcaption, tr"

// ugc drops script, style and embedded frames with their content.
var ugc = bluemonday.UGCPolicy()

// PlainText reduces an HTML fragment to whitespace-normalized text.
func PlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return collapseSpaces(markup)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ugc.Sanitize(markup)))
	if err != nil {
		return collapseSpaces(bluemonday.StrictPolicy().Sanitize(markup))
	}
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})
	return collapseSpaces(doc.Text())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
