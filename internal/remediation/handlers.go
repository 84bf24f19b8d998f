package remediation

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/fetch"
	"github.com/jonathan/seo-auditor/internal/types"
)

// handlerFunc applies a rule-based fix and returns the written value and a
// human-readable message.
type handlerFunc func(ctx context.Context, target types.RemediationTarget) (value, message string, err error)

// Handlers implements the rule-based fix strategies.
type Handlers struct {
	store   ContentStore
	adapter *MetadataAdapter
	sites   *config.SiteRegistry
}

// NewHandlers creates the rule-based handlers.
func NewHandlers(store ContentStore, adapter *MetadataAdapter, sites *config.SiteRegistry) *Handlers {
	return &Handlers{store: store, adapter: adapter, sites: sites}
}

// FixTitle writes a title derived from the entity's own title or term name.
func (h *Handlers) FixTitle(ctx context.Context, target types.RemediationTarget) (string, string, error) {
	source, err := h.sourceTitle(ctx, target, "title")
	if err != nil {
		return "", "", err
	}
	value := ManualTitle(source, h.siteName(target.URL))
	if err := h.adapter.WriteTitle(ctx, target, value); err != nil {
		return "", "", err
	}
	return value, "Title updated", nil
}

// FixDescription writes a description from the excerpt, or the stripped body
// when no excerpt exists. Terms use their own description.
func (h *Handlers) FixDescription(ctx context.Context, target types.RemediationTarget) (string, string, error) {
	if err := h.requireLocal(target, "description"); err != nil {
		return "", "", err
	}

	var source string
	if target.IsTerm() {
		term, err := h.term(ctx, target, "description")
		if err != nil {
			return "", "", err
		}
		source = term.Description
	} else {
		item, err := h.content(ctx, target, "description")
		if err != nil {
			return "", "", err
		}
		source = item.Excerpt
		if strings.TrimSpace(source) == "" {
			source = item.Body
		}
	}

	text, err := fetch.StripMarkup(source)
	if err != nil {
		return "", "", &HandlerError{IssueType: "description", Message: "failed to strip markup", Cause: err}
	}
	value := ManualDescription(text)
	if value == "" {
		return "", "", &HandlerError{IssueType: "description", Message: "no source text for description"}
	}
	if err := h.adapter.WriteDescription(ctx, target, value); err != nil {
		return "", "", err
	}
	return value, "Meta description updated", nil
}

// FixH1 prepends an H1 built from the title. It does nothing when the body
// already has an H1.
func (h *Handlers) FixH1(ctx context.Context, target types.RemediationTarget) (string, string, error) {
	item, err := h.bodyTarget(ctx, target, "h1")
	if err != nil {
		return "", "", err
	}
	if CountH1(item.Body) > 0 {
		return "", "H1 already exists", nil
	}
	if strings.TrimSpace(item.Title) == "" {
		return "", "", &HandlerError{IssueType: "h1", Message: "content has no title to build an H1 from"}
	}

	if err := h.store.UpdateContentBody(ctx, item.ID, CanonicalH1(item.Title)+item.Body); err != nil {
		return "", "", &HandlerError{IssueType: "h1", Message: "failed to update body", Cause: err}
	}
	return strings.TrimSpace(item.Title), "H1 added", nil
}

// FixMultipleH1s downgrades every H1 to H2 and prepends one canonical H1.
func (h *Handlers) FixMultipleH1s(ctx context.Context, target types.RemediationTarget) (string, string, error) {
	item, err := h.bodyTarget(ctx, target, "multiple_h1s")
	if err != nil {
		return "", "", err
	}
	if CountH1(item.Body) <= 1 {
		return "", "Content has at most one H1", nil
	}
	if strings.TrimSpace(item.Title) == "" {
		return "", "", &HandlerError{IssueType: "multiple_h1s", Message: "content has no title to build an H1 from"}
	}

	body, downgraded, err := DowngradeH1s(item.Body)
	if err != nil {
		return "", "", &HandlerError{IssueType: "multiple_h1s", Message: "failed to rewrite headings", Cause: err}
	}
	if err := h.store.UpdateContentBody(ctx, item.ID, CanonicalH1(item.Title)+body); err != nil {
		return "", "", &HandlerError{IssueType: "multiple_h1s", Message: "failed to update body", Cause: err}
	}
	return strings.TrimSpace(item.Title), fmt.Sprintf("Downgraded %d H1 headings and added a canonical H1", downgraded), nil
}

func (h *Handlers) sourceTitle(ctx context.Context, target types.RemediationTarget, issue string) (string, error) {
	if err := h.requireLocal(target, issue); err != nil {
		return "", err
	}
	var source string
	if target.IsTerm() {
		term, err := h.term(ctx, target, issue)
		if err != nil {
			return "", err
		}
		source = term.Name
	} else {
		item, err := h.content(ctx, target, issue)
		if err != nil {
			return "", err
		}
		source = item.Title
	}
	if strings.TrimSpace(source) == "" {
		return "", &HandlerError{IssueType: issue, Message: "no source text for title"}
	}
	return source, nil
}

func (h *Handlers) bodyTarget(ctx context.Context, target types.RemediationTarget, issue string) (*types.ContentItem, error) {
	if err := h.requireLocal(target, issue); err != nil {
		return nil, err
	}
	if target.IsTerm() {
		return nil, &HandlerError{IssueType: issue, Message: "taxonomy terms have no body"}
	}
	return h.content(ctx, target, issue)
}

func (h *Handlers) requireLocal(target types.RemediationTarget, issue string) error {
	if target.Remote || h.store == nil {
		return &HandlerError{IssueType: issue, Message: "rule-based fixes require a local content store"}
	}
	return nil
}

func (h *Handlers) content(ctx context.Context, target types.RemediationTarget, issue string) (*types.ContentItem, error) {
	item, err := h.store.Content(ctx, target.ID)
	if err != nil {
		return nil, &HandlerError{IssueType: issue, Message: "failed to load content", Cause: err}
	}
	if item == nil {
		return nil, fmt.Errorf("%w: content %d", ErrTargetNotFound, target.ID)
	}
	return item, nil
}

func (h *Handlers) term(ctx context.Context, target types.RemediationTarget, issue string) (*types.Term, error) {
	term, err := h.store.Term(ctx, target.ID)
	if err != nil {
		return nil, &HandlerError{IssueType: issue, Message: "failed to load term", Cause: err}
	}
	if term == nil {
		return nil, fmt.Errorf("%w: term %d", ErrTargetNotFound, target.ID)
	}
	return term, nil
}

// siteName is the registered site name, or the URL host when unregistered.
func (h *Handlers) siteName(rawURL string) string {
	if site, ok := h.sites.Lookup(rawURL); ok {
		return site.Name
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
