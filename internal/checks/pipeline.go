package checks

import (
	"github.com/jonathan/seo-auditor/internal/types"
)

// Check names. These are the join keys for the scoring weight table and the
// fix dispatch table.
const (
	TitlePresence           = "title_presence"
	TitleLength             = "title_length"
	MetaDescriptionPresence = "meta_description_presence"
	MetaDescriptionLength   = "meta_description_length"
	H1Presence              = "h1_presence"
	MultipleH1s             = "multiple_h1s"
	HeadingHierarchy        = "heading_hierarchy"
	ImageAltText            = "image_alt_text"
	InternalLinks           = "internal_links"
	ExternalLinks           = "external_links"
	Noindex                 = "noindex"
	SchemaMarkup            = "schema_markup"
)

// Check is one rule evaluated against a parsed page.
type Check struct {
	Name     string
	Category types.Category
	Run      func(*Page) []types.Issue
}

// Pipeline runs an ordered set of checks.
type Pipeline struct {
	checks []Check
}

// NewPipeline creates a pipeline over the given checks, run in order.
func NewPipeline(checks ...Check) *Pipeline {
	return &Pipeline{checks: checks}
}

// DefaultChecks returns the full rule catalogue in reporting order.
func DefaultChecks() []Check {
	return []Check{
		{Name: "title", Category: types.CategoryOnPage, Run: checkTitle},
		{Name: "meta_description", Category: types.CategoryOnPage, Run: checkMetaDescription},
		{Name: "h1", Category: types.CategoryOnPage, Run: checkH1},
		{Name: HeadingHierarchy, Category: types.CategoryOnPage, Run: checkHeadingHierarchy},
		{Name: ImageAltText, Category: types.CategoryImages, Run: checkImages},
		{Name: "links", Category: types.CategoryLinks, Run: checkLinks},
		{Name: Noindex, Category: types.CategoryTechnical, Run: checkNoindex},
		{Name: SchemaMarkup, Category: types.CategoryTechnical, Run: checkSchema},
	}
}

// Default returns a pipeline running DefaultChecks.
func Default() *Pipeline {
	return NewPipeline(DefaultChecks()...)
}

// Run evaluates every check against html fetched from pageURL and groups
// the resulting issues by category. Every category is present in the result.
// Markup that cannot be parsed yields no issues.
func (p *Pipeline) Run(html, pageURL string) map[types.Category][]types.Issue {
	issues := make(map[types.Category][]types.Issue, len(types.Categories()))
	for _, category := range types.Categories() {
		issues[category] = []types.Issue{}
	}

	page, err := Parse(html, pageURL)
	if err != nil {
		return issues
	}

	for _, check := range p.checks {
		issues[check.Category] = append(issues[check.Category], check.Run(page)...)
	}
	return issues
}
