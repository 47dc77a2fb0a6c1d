package gmail

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlToText strips an HTML email body down to readable text. Style
// and script blocks are removed before extraction, and whitespace runs
// are collapsed.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}

	doc.Find("script, style, head").Remove()

	var b strings.Builder
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
	})

	text := b.String()
	if text == "" {
		text = doc.Text()
	}

	return collapseWhitespace(text)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
