package checks

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/jonathan/seo-auditor/internal/types"
)

const minInternalLinks = 3

// LinkCounts is the internal/external split of a page's anchors.
type LinkCounts struct {
	Internal int
	External int
}

// CountLinks classifies every navigable anchor on the page. Fragment,
// javascript: and mailto: targets are ignored.
func CountLinks(p *Page) LinkCounts {
	var counts LinkCounts
	p.Doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(lower, "#") ||
			strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
			return
		}
		link, err := url.Parse(href)
		if err != nil {
			return
		}
		if isInternal(p.URL, link) {
			counts.Internal++
		} else {
			counts.External++
		}
	})
	return counts
}

// isInternal reports whether link points at the same site as page: a
// relative link, the same host, a host-substring match, or the same
// registrable domain.
func isInternal(page, link *url.URL) bool {
	host := strings.ToLower(link.Hostname())
	if host == "" {
		return true
	}
	pageHost := strings.ToLower(page.Hostname())
	if pageHost == "" {
		return false
	}
	if host == pageHost || strings.Contains(host, strings.TrimPrefix(pageHost, "www.")) {
		return true
	}
	linkDomain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	pageDomain, err := publicsuffix.EffectiveTLDPlusOne(pageHost)
	return err == nil && linkDomain == pageDomain
}

func checkLinks(p *Page) []types.Issue {
	counts := CountLinks(p)

	internal := types.NewIssue(InternalLinks, types.StatusOptimal,
		fmt.Sprintf("Page has %d internal links", counts.Internal), strconv.Itoa(counts.Internal))
	if counts.Internal < minInternalLinks {
		internal = types.NewIssue(InternalLinks, types.StatusWarning,
			fmt.Sprintf("Page has only %d internal links (minimum %d)", counts.Internal, minInternalLinks), strconv.Itoa(counts.Internal))
	}

	external := types.NewIssue(ExternalLinks, types.StatusOptimal,
		fmt.Sprintf("Page has %d external links", counts.External), strconv.Itoa(counts.External))
	if counts.External == 0 {
		external = types.NewIssue(ExternalLinks, types.StatusWarning, "Page has no external links", "0")
	}

	return []types.Issue{internal, external}
}
