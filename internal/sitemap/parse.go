package sitemap

import (
	"bufio"
	"encoding/xml"
	"net/url"
	"strings"
)

// loc is a <loc> child of <url> or <sitemap>.
type loc struct {
	Loc string `xml:"loc"`
}

// document covers both <urlset> and <sitemapindex> roots.
type document struct {
	XMLName  xml.Name
	URLs     []loc `xml:"url"`
	Sitemaps []loc `xml:"sitemap"`
}

// parseDocument decodes sitemap XML into page URLs and nested sitemap URLs.
func parseDocument(sourceURL string, body string) (pages []string, nested []string, err error) {
	var doc document
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, nil, &ParseError{URL: sourceURL, Cause: err}
	}

	for _, u := range doc.URLs {
		if l := strings.TrimSpace(u.Loc); l != "" {
			pages = append(pages, l)
		}
	}
	for _, s := range doc.Sitemaps {
		if l := strings.TrimSpace(s.Loc); l != "" {
			nested = append(nested, l)
		}
	}
	return pages, nested, nil
}

// parseRobots returns every Sitemap directive in a robots.txt body, resolved
// against base. The directive name is matched case-insensitively.
func parseRobots(body string, base *url.URL) []string {
	var sitemaps []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "sitemap") {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		ref, err := url.Parse(value)
		if err != nil {
			continue
		}
		sitemaps = append(sitemaps, base.ResolveReference(ref).String())
	}
	return sitemaps
}
