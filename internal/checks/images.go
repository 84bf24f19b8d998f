package checks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/seo-auditor/internal/types"
)

func checkImages(p *Page) []types.Issue {
	images := p.Doc.Find("img")
	total := images.Length()
	if total == 0 {
		return []types.Issue{types.NewIssue(ImageAltText, types.StatusInfo, "No images found", "0")}
	}

	missing := images.FilterFunction(func(_ int, s *goquery.Selection) bool {
		alt, ok := s.Attr("alt")
		return !ok || strings.TrimSpace(alt) == ""
	}).Length()

	if missing > 0 {
		return []types.Issue{types.NewIssue(ImageAltText, types.StatusWarning,
			fmt.Sprintf("%d of %d images are missing alt text", missing, total), strconv.Itoa(missing))}
	}
	return []types.Issue{types.NewIssue(ImageAltText, types.StatusOptimal,
		fmt.Sprintf("All %d images have alt text", total), "0")}
}
