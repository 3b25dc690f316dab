package news

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reURL        = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)
	reEmail      = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	reWhitespace = regexp.MustCompile(`\s+`)
	reMarkup     = regexp.MustCompile(`<[a-zA-Z/][^>]*>|&[a-zA-Z#0-9]+;`)
)

// CleanContent turns a raw title or snippet into plain text: markup is
// reduced to its text, embedded URLs and e-mail addresses are removed and
// whitespace is collapsed. It makes no judgment about quality.
func CleanContent(s string) string {
	if s == "" {
		return ""
	}
	if reMarkup.MatchString(s) {
		s = textOf(s)
	}
	s = reURL.ReplaceAllString(s, " ")
	s = reEmail.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// textOf extracts the text content of an HTML fragment. On a parse error the
// input is returned unchanged.
func textOf(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	// Block-level breaks would otherwise glue words together.
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, div, li").AppendHtml(" ")
	return doc.Text()
}
