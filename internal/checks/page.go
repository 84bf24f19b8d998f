// Package checks evaluates fetched page markup against the SEO rule catalogue.
// Every check is a pure function of the parsed page; checks never share state.
package checks

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is the parsed form of one fetched document.
type Page struct {
	URL *url.URL
	Doc *goquery.Document
}

// Parse builds a Page from raw markup and the URL it was fetched from.
func Parse(html, pageURL string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Page{URL: u, Doc: doc}, nil
}

// metaContent returns the content attribute of the first <meta> whose name
// matches (case-insensitively) and whether such an element exists.
func (p *Page) metaContent(name string) (string, bool) {
	var (
		content string
		found   bool
	)
	p.Doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), name) {
			return true
		}
		content = strings.TrimSpace(s.AttrOr("content", ""))
		found = true
		return false
	})
	return content, found
}
