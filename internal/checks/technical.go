package checks

import (
	"strings"

	"github.com/jonathan/seo-auditor/internal/types"
)

func checkNoindex(p *Page) []types.Issue {
	robots, _ := p.metaContent("robots")
	if strings.Contains(strings.ToLower(robots), "noindex") {
		return []types.Issue{types.NewIssue(Noindex, types.StatusCritical, "Page is blocked from indexing by robots meta tag", robots)}
	}
	return []types.Issue{types.NewIssue(Noindex, types.StatusOptimal, "Page is indexable", robots)}
}

func checkSchema(p *Page) []types.Issue {
	blocks := p.Doc.Find(`script[type="application/ld+json"]`).Length() + p.Doc.Find("[itemscope][itemtype]").Length()
	if blocks > 0 {
		return []types.Issue{types.NewIssue(SchemaMarkup, types.StatusOptimal, "Structured data found", "")}
	}
	return []types.Issue{types.NewIssue(SchemaMarkup, types.StatusWarning, "No structured data found", "")}
}
