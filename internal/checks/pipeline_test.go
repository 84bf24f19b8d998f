package checks

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/seo-auditor/internal/types"
)

const pageURL = "https://example.com/blog/hello-world/"

// optimalPage is a document that passes every check.
func optimalPage(title string) string {
	if title == "" {
		title = "A Perfectly Sized Page Title For Tests"
	}
	return fmt.Sprintf(`<!doctype html>
<html><head>
<title>%s</title>
<meta content="%s" name="description">
<meta name='robots' content='index, follow'>
<script type="application/ld+json">{"@type":"Article"}</script>
</head><body>
<h1>Hello</h1><h2>Section</h2><h3>Sub</h3><h2>Other</h2>
<img src="a.png" alt="A chart">
<a href="/one">1</a><a href="https://example.com/two">2</a><a href="three">3</a>
<a href="https://golang.org/">go</a>
</body></html>`, title, strings.Repeat("d", 100))
}

func findIssue(t *testing.T, issues map[types.Category][]types.Issue, category types.Category, name string) types.Issue {
	t.Helper()
	for _, issue := range issues[category] {
		if issue.CheckName == name {
			return issue
		}
	}
	require.Failf(t, "issue not found", "%s/%s in %+v", category, name, issues[category])
	return types.Issue{}
}

func TestRun_OptimalPage(t *testing.T) {
	issues := Default().Run(optimalPage(""), pageURL)

	require.Len(t, issues, 4)
	for category, list := range issues {
		for _, issue := range list {
			assert.Equal(t, types.StatusOptimal, issue.Status, "%s/%s: %s", category, issue.CheckName, issue.Message)
		}
	}
	assert.Len(t, issues[types.CategoryOnPage], 4)
	assert.Len(t, issues[types.CategoryLinks], 2)
	assert.Len(t, issues[types.CategoryTechnical], 2)
}

func TestRun_EveryCategoryPresentForEmptyDocument(t *testing.T) {
	issues := Default().Run("", pageURL)

	for _, category := range types.Categories() {
		assert.Contains(t, issues, category)
	}
	assert.Equal(t, types.StatusCritical, findIssue(t, issues, types.CategoryOnPage, TitlePresence).Status)
	assert.Equal(t, types.StatusCritical, findIssue(t, issues, types.CategoryOnPage, H1Presence).Status)
}

func TestRun_InvalidURLYieldsNoIssues(t *testing.T) {
	issues := Default().Run(optimalPage(""), "http://[::1")
	for _, list := range issues {
		assert.Empty(t, list)
	}
}

func TestTitleLengthBoundaries(t *testing.T) {
	tests := []struct {
		length   int
		expected types.Status
	}{
		{29, types.StatusWarning},
		{30, types.StatusOptimal},
		{60, types.StatusOptimal},
		{61, types.StatusWarning},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("len_%d", tt.length), func(t *testing.T) {
			issues := Default().Run(optimalPage(strings.Repeat("t", tt.length)), pageURL)
			issue := findIssue(t, issues, types.CategoryOnPage, TitleLength)
			assert.Equal(t, tt.expected, issue.Status)
			assert.Equal(t, fmt.Sprint(tt.length), issue.Value)
		})
	}
}

func TestTitleLength_CountsCharactersNotBytes(t *testing.T) {
	issues := Default().Run(optimalPage(strings.Repeat("é", 30)), pageURL)
	assert.Equal(t, types.StatusOptimal, findIssue(t, issues, types.CategoryOnPage, TitleLength).Status)
}

func TestMetaDescription(t *testing.T) {
	tests := []struct {
		name     string
		meta     string
		check    string
		expected types.Status
	}{
		{"absent", "", MetaDescriptionPresence, types.StatusCritical},
		{"empty content", `<meta name="description" content="  ">`, MetaDescriptionPresence, types.StatusCritical},
		{"name first double quotes", `<meta name="description" content="` + strings.Repeat("x", 70) + `">`, MetaDescriptionLength, types.StatusOptimal},
		{"content first single quotes", `<meta content='` + strings.Repeat("x", 160) + `' name='Description'>`, MetaDescriptionLength, types.StatusOptimal},
		{"too short", `<meta name="description" content="` + strings.Repeat("x", 69) + `">`, MetaDescriptionLength, types.StatusWarning},
		{"too long", `<meta name="description" content="` + strings.Repeat("x", 161) + `">`, MetaDescriptionLength, types.StatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := "<html><head>" + tt.meta + "</head><body></body></html>"
			issue := findIssue(t, Default().Run(html, pageURL), types.CategoryOnPage, tt.check)
			assert.Equal(t, tt.expected, issue.Status)
		})
	}
}

func TestH1(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		check    string
		expected types.Status
		value    string
	}{
		{"none", "<p>text</p>", H1Presence, types.StatusCritical, "0"},
		{"one", "<h1>a</h1>", H1Presence, types.StatusOptimal, "1"},
		{"three", "<h1>a</h1><h1>b</h1><h1>c</h1>", MultipleH1s, types.StatusWarning, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := findIssue(t, Default().Run("<body>"+tt.body+"</body>", pageURL), types.CategoryOnPage, tt.check)
			assert.Equal(t, tt.expected, issue.Status)
			assert.Equal(t, tt.value, issue.Value)
		})
	}
}

func TestH1_SkippedOnArchivePaths(t *testing.T) {
	for _, path := range []string{"/category/news/", "/tag/go", "/author/jane/", "/blog/page/2/", "/2024/", "/2024/05/"} {
		t.Run(path, func(t *testing.T) {
			issues := Default().Run("<body><p>listing</p></body>", "https://example.com"+path)
			for _, issue := range issues[types.CategoryOnPage] {
				assert.NotEqual(t, H1Presence, issue.CheckName)
				assert.NotEqual(t, MultipleH1s, issue.CheckName)
			}
		})
	}
}

func TestIsArchivePath(t *testing.T) {
	assert.False(t, IsArchivePath("/"))
	assert.False(t, IsArchivePath("/2024/05/launch-post/"))
	assert.False(t, IsArchivePath("/categories-explained/"))
	assert.True(t, IsArchivePath("/Category/news"))
}

func TestHeadingHierarchy(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected types.Status
		value    string
	}{
		{"no headings", "<p>x</p>", types.StatusOptimal, ""},
		{"sequential", "<h1>a</h1><h2>b</h2><h3>c</h3><h2>d</h2><h3>e</h3>", types.StatusOptimal, ""},
		{"step back up is fine", "<h1>a</h1><h2>b</h2><h3>c</h3><h1>d</h1>", types.StatusOptimal, ""},
		{"skip", "<h1>a</h1><h3>b</h3>", types.StatusWarning, "h1>h3"},
		{"baseline is first heading", "<h3>a</h3><h4>b</h4>", types.StatusOptimal, ""},
		{"nested skip", "<div><h2>a</h2><section><h5>b</h5></section></div>", types.StatusWarning, "h2>h5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := findIssue(t, Default().Run("<body>"+tt.body+"</body>", pageURL), types.CategoryOnPage, HeadingHierarchy)
			assert.Equal(t, tt.expected, issue.Status)
			assert.Equal(t, tt.value, issue.Value)
		})
	}
}

func TestImages(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected types.Status
		value    string
	}{
		{"no images", "<p>x</p>", types.StatusInfo, "0"},
		{"all have alt", `<img src="a" alt="a"><img src="b" alt="b">`, types.StatusOptimal, "0"},
		{"missing and blank alt", `<img src="a"><img src="b" alt=" "><img src="c" alt="c">`, types.StatusWarning, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := findIssue(t, Default().Run("<body>"+tt.body+"</body>", pageURL), types.CategoryImages, ImageAltText)
			assert.Equal(t, tt.expected, issue.Status)
			assert.Equal(t, tt.value, issue.Value)
		})
	}
}

func TestCountLinks(t *testing.T) {
	body := `<body>
<a href="#top">skip</a>
<a href="javascript:void(0)">skip</a>
<a href="MAILTO:me@example.com">skip</a>
<a href="">skip</a>
<a href="/relative">in</a>
<a href="https://example.com/abs">in</a>
<a href="https://shop.example.com/">in</a>
<a href="https://www.example.com/">in</a>
<a href="https://other.org/">out</a>
</body>`
	page, err := Parse(body, pageURL)
	require.NoError(t, err)

	assert.Equal(t, LinkCounts{Internal: 4, External: 1}, CountLinks(page))
}

func TestCountLinks_RegistrableDomainMatch(t *testing.T) {
	page, err := Parse(`<a href="https://example.co.uk/about">x</a>`, "https://www.example.co.uk/")
	require.NoError(t, err)
	assert.Equal(t, 1, CountLinks(page).Internal)

	page, err = Parse(`<a href="https://other.co.uk/about">x</a>`, "https://www.example.co.uk/")
	require.NoError(t, err)
	assert.Equal(t, 1, CountLinks(page).External)
}

func TestLinks_Warnings(t *testing.T) {
	issues := Default().Run(`<body><a href="/a">a</a><a href="/b">b</a></body>`, pageURL)

	internal := findIssue(t, issues, types.CategoryLinks, InternalLinks)
	assert.Equal(t, types.StatusWarning, internal.Status)
	assert.Equal(t, "2", internal.Value)
	assert.Equal(t, types.StatusWarning, findIssue(t, issues, types.CategoryLinks, ExternalLinks).Status)
}

func TestNoindex(t *testing.T) {
	issues := Default().Run(`<head><meta name="ROBOTS" content="NoIndex, follow"></head>`, pageURL)
	issue := findIssue(t, issues, types.CategoryTechnical, Noindex)
	assert.Equal(t, types.StatusCritical, issue.Status)
	assert.Equal(t, "high", issue.Severity)

	issues = Default().Run(`<head></head>`, pageURL)
	assert.Equal(t, types.StatusOptimal, findIssue(t, issues, types.CategoryTechnical, Noindex).Status)
}

func TestSchema(t *testing.T) {
	issues := Default().Run(`<body><div itemscope itemtype="https://schema.org/Product"></div></body>`, pageURL)
	assert.Equal(t, types.StatusOptimal, findIssue(t, issues, types.CategoryTechnical, SchemaMarkup).Status)

	issues = Default().Run(`<body><script type="text/javascript">var x;</script></body>`, pageURL)
	assert.Equal(t, types.StatusWarning, findIssue(t, issues, types.CategoryTechnical, SchemaMarkup).Status)
}

func TestNewPipeline_CustomChecksOnly(t *testing.T) {
	p := NewPipeline(Check{Name: Noindex, Category: types.CategoryTechnical, Run: checkNoindex})
	issues := p.Run(optimalPage(""), pageURL)

	assert.Empty(t, issues[types.CategoryOnPage])
	assert.Len(t, issues[types.CategoryTechnical], 1)
}
