// Package sitemap discovers the full URL set of a site from robots.txt and
// conventional sitemap locations, flattening nested sitemap indexes.
package sitemap

import (
	"errors"
	"fmt"
)

// ErrNoSitemap is returned when every sitemap source yielded zero URLs.
var ErrNoSitemap = errors.New("no sitemap discovered")

// ParseError represents malformed sitemap XML.
type ParseError struct {
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sitemap parse error for %s: %v", e.URL, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
