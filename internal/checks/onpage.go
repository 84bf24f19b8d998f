package checks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/seo-auditor/internal/types"
)

const (
	titleMinLength       = 30
	titleMaxLength       = 60
	descriptionMinLength = 70
	descriptionMaxLength = 160
)

var (
	yearSegment  = regexp.MustCompile(`^\d{4}$`)
	monthSegment = regexp.MustCompile(`^\d{2}$`)
)

// archiveSegments are path segments that mark listing pages, which carry
// no single H1 of their own.
var archiveSegments = map[string]bool{
	"category": true,
	"tag":      true,
	"author":   true,
	"page":     true,
}

func checkTitle(p *Page) []types.Issue {
	title := strings.TrimSpace(p.Doc.Find("title").First().Text())
	if title == "" {
		return []types.Issue{types.NewIssue(TitlePresence, types.StatusCritical, "Page is missing a title tag", "")}
	}
	return []types.Issue{lengthIssue(TitleLength, "Title", title, titleMinLength, titleMaxLength)}
}

func checkMetaDescription(p *Page) []types.Issue {
	desc, _ := p.metaContent("description")
	if desc == "" {
		return []types.Issue{types.NewIssue(MetaDescriptionPresence, types.StatusCritical, "Page is missing a meta description", "")}
	}
	return []types.Issue{lengthIssue(MetaDescriptionLength, "Meta description", desc, descriptionMinLength, descriptionMaxLength)}
}

// lengthIssue grades text whose length must fall within [lo, hi] inclusive.
func lengthIssue(checkName, label, text string, lo, hi int) types.Issue {
	n := utf8.RuneCountInString(text)
	value := strconv.Itoa(n)
	switch {
	case n < lo:
		return types.NewIssue(checkName, types.StatusWarning, fmt.Sprintf("%s is too short (%d characters, minimum %d)", label, n, lo), value)
	case n > hi:
		return types.NewIssue(checkName, types.StatusWarning, fmt.Sprintf("%s is too long (%d characters, maximum %d)", label, n, hi), value)
	default:
		return types.NewIssue(checkName, types.StatusOptimal, fmt.Sprintf("%s length is optimal (%d characters)", label, n), value)
	}
}

func checkH1(p *Page) []types.Issue {
	if IsArchivePath(p.URL.Path) {
		return nil
	}
	count := p.Doc.Find("h1").Length()
	switch {
	case count == 0:
		return []types.Issue{types.NewIssue(H1Presence, types.StatusCritical, "Page has no H1 heading", "0")}
	case count > 1:
		return []types.Issue{types.NewIssue(MultipleH1s, types.StatusWarning, fmt.Sprintf("Page has %d H1 headings", count), strconv.Itoa(count))}
	default:
		return []types.Issue{types.NewIssue(H1Presence, types.StatusOptimal, "Page has exactly one H1 heading", "1")}
	}
}

// IsArchivePath reports whether a URL path is a category, tag, author,
// pagination or date archive listing.
func IsArchivePath(path string) bool {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return false
	}
	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		if archiveSegments[strings.ToLower(seg)] {
			return true
		}
	}
	switch len(segments) {
	case 1:
		return yearSegment.MatchString(segments[0])
	case 2:
		return yearSegment.MatchString(segments[0]) && monthSegment.MatchString(segments[1])
	}
	return false
}

func checkHeadingHierarchy(p *Page) []types.Issue {
	prev := 0
	var jump string
	p.Doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		level := int(goquery.NodeName(s)[1] - '0')
		if prev > 0 && level > prev+1 {
			jump = fmt.Sprintf("h%d>h%d", prev, level)
			return false
		}
		prev = level
		return true
	})

	if jump != "" {
		return []types.Issue{types.NewIssue(HeadingHierarchy, types.StatusWarning, "Heading levels skip a level ("+jump+")", jump)}
	}
	return []types.Issue{types.NewIssue(HeadingHierarchy, types.StatusOptimal, "Heading hierarchy is sequential", "")}
}
