package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/seo-auditor/internal/fetch"
	"github.com/jonathan/seo-auditor/internal/llm"
	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/prompts"
	"github.com/jonathan/seo-auditor/internal/remediation"
	"github.com/jonathan/seo-auditor/internal/schemas"
)

// maxPromptText caps how much page text is sent to the model.
const maxPromptText = 4000

// PageFetcher retrieves the live page a remediation is generated for.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

type suggestion struct {
	Value     string `json:"value"`
	Reasoning string `json:"reasoning"`
}

// GeminiRemediator generates titles and meta descriptions locally with a
// language model. It only handles metadata issue types.
type GeminiRemediator struct {
	client  llm.Client
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewGeminiRemediator creates a GeminiRemediator.
func NewGeminiRemediator(client llm.Client, fetcher PageFetcher, logger *slog.Logger) *GeminiRemediator {
	if logger == nil {
		logger = logging.New("gemini")
	}
	return &GeminiRemediator{client: client, fetcher: fetcher, logger: logger}
}

// Remediate fetches the page, renders the prompt for the issue and returns the
// generated value. Link and content issue types are refused with an error.
func (g *GeminiRemediator) Remediate(ctx context.Context, req remediation.AIRequest) (*remediation.AIResult, error) {
	key, ok := promptKey(req.IssueType)
	if !ok {
		return nil, &Error{URL: req.URL, Model: g.client.Model(), Message: fmt.Sprintf("issue type %q requires the remote bridge", req.IssueType)}
	}

	res, err := g.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, &Error{URL: req.URL, Model: g.client.Model(), Message: "failed to fetch page", Cause: err}
	}
	title, text := pageContext(res.HTML)

	prompt, err := prompts.Render(prompts.RemediationFile, key, map[string]string{
		"CurrentTitle": title,
		"SiteName":     siteName(req),
		"URL":          req.URL,
		"IssueType":    req.IssueType,
		"PageText":     text,
	})
	if err != nil {
		return nil, &Error{URL: req.URL, Model: g.client.Model(), Message: "failed to render prompt", Cause: err}
	}

	raw, err := g.client.GenerateJSON(ctx, prompt)
	if err != nil {
		g.logger.Warn("generation failed", "url", req.URL, "issue_type", req.IssueType, "error", err)
		return nil, &Error{URL: req.URL, Model: g.client.Model(), Message: "generation failed", Cause: err}
	}
	if err := schemas.Validate(schemas.RemediationSuggestion, []byte(raw)); err != nil {
		return nil, &Error{URL: req.URL, Model: g.client.Model(), Message: "malformed generation", Cause: err}
	}

	var s suggestion
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, &Error{URL: req.URL, Model: g.client.Model(), Message: "malformed generation", Cause: err}
	}

	return &remediation.AIResult{
		Success:   true,
		Value:     fetch.CollapseWhitespace(s.Value),
		Message:   "Generated by " + g.client.Model(),
		Reasoning: s.Reasoning,
	}, nil
}

func promptKey(issueType string) (string, bool) {
	switch {
	case strings.HasPrefix(issueType, "title_"):
		return "title", true
	case strings.HasPrefix(issueType, "meta_description_"):
		return "description", true
	default:
		return "", false
	}
}

// pageContext returns the document title and truncated visible body text.
func pageContext(html string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}
	title := fetch.CollapseWhitespace(doc.Find("title").First().Text())

	body := doc.Find("body")
	body.Find("script, style, noscript, nav, footer").Remove()
	text := fetch.CollapseWhitespace(body.Text())
	if r := []rune(text); len(r) > maxPromptText {
		text = string(r[:maxPromptText])
	}
	return title, text
}

func siteName(req remediation.AIRequest) string {
	if req.Site != nil && req.Site.Name != "" {
		return req.Site.Name
	}
	if u, err := url.Parse(req.URL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return req.URL
}
