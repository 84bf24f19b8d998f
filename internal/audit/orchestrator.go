// Package audit composes sitemap resolution, page fetching, rule checks and
// scoring into a single sequential site audit.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonathan/seo-auditor/internal/checks"
	"github.com/jonathan/seo-auditor/internal/fetch"
	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/scoring"
	"github.com/jonathan/seo-auditor/internal/types"
)

// DefaultDelay is the pause between consecutive page fetches.
const DefaultDelay = 500 * time.Millisecond

// URLResolver discovers the URL set of a site.
type URLResolver interface {
	Resolve(ctx context.Context, siteURL string) ([]string, error)
}

// PageFetcher retrieves a single page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// ProgressCallback is invoked after every crawled URL.
type ProgressCallback func(types.Progress)

// Options holds per-run parameters.
type Options struct {
	// MaxURLs truncates the resolved URL list to a prefix; zero means no limit.
	MaxURLs int
	// OnResolved is invoked once with the number of URLs about to be crawled.
	OnResolved func(total int)
	OnProgress ProgressCallback
}

// Orchestrator runs site audits. Exactly one URL is in flight at a time.
type Orchestrator struct {
	resolver URLResolver
	fetcher  PageFetcher
	pipeline *checks.Pipeline
	scorer   *scoring.Engine
	delay    time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelay sets the pause between page fetches.
func WithDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.delay = d }
}

// WithPipeline replaces the default check pipeline.
func WithPipeline(p *checks.Pipeline) Option {
	return func(o *Orchestrator) { o.pipeline = p }
}

// WithScorer replaces the default scoring engine.
func WithScorer(s *scoring.Engine) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides the time source used for audit dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(resolver URLResolver, fetcher PageFetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		fetcher:  fetcher,
		pipeline: checks.Default(),
		scorer:   scoring.NewEngine(nil),
		delay:    DefaultDelay,
		logger:   logging.New("audit"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AuditSite resolves, crawls, checks and scores a site. A resolution failure
// returns an *Error before any page is crawled; page-level failures are
// recorded on the page and never abort the loop.
func (o *Orchestrator) AuditSite(ctx context.Context, siteURL string, opts *Options) (*types.AuditResult, error) {
	if opts == nil {
		opts = &Options{}
	}

	urls, err := o.resolver.Resolve(ctx, siteURL)
	if err != nil {
		return nil, &Error{SiteURL: siteURL, Message: "no URLs discovered", Cause: err}
	}
	if len(urls) == 0 {
		return nil, &Error{SiteURL: siteURL, Message: "no URLs discovered"}
	}
	if opts.MaxURLs > 0 && len(urls) > opts.MaxURLs {
		urls = urls[:opts.MaxURLs]
	}

	total := len(urls)
	if opts.OnResolved != nil {
		opts.OnResolved(total)
	}
	o.logger.Info("starting crawl", "site", siteURL, "urls", total)

	pages := make([]types.PageResult, 0, total)
	for i, u := range urls {
		pages = append(pages, o.crawlPage(ctx, u))

		if opts.OnProgress != nil {
			opts.OnProgress(types.Progress{
				Current: i + 1,
				Total:   total,
				URL:     u,
				Percent: (i + 1) * 100 / total,
			})
		}

		if i < total-1 {
			if err := sleep(ctx, o.delay); err != nil {
				return nil, &Error{SiteURL: siteURL, Message: "crawl interrupted", Cause: err}
			}
		}
	}

	summary := o.scorer.Summarize(pages)
	o.logger.Info("crawl complete", "site", siteURL, "urls", total,
		"critical", summary.CriticalCount, "warnings", summary.WarningCount, "health_score", summary.HealthScore)

	return &types.AuditResult{
		SiteURL:          siteURL,
		AuditDate:        o.now().UTC(),
		TotalURLsChecked: total,
		Summary:          summary,
		Pages:            pages,
	}, nil
}

// crawlPage fetches one URL once and runs the check pipeline on success.
func (o *Orchestrator) crawlPage(ctx context.Context, pageURL string) types.PageResult {
	page := types.PageResult{URL: pageURL}

	res, err := o.fetcher.Fetch(ctx, pageURL)
	if res != nil {
		page.StatusCode = res.StatusCode
		page.FetchTime = res.Duration
	}
	if err != nil {
		o.logger.Warn("page fetch failed", "url", pageURL, "status", page.StatusCode, "error", err)
		page.Error = err.Error()
		page.Issues = emptyIssues()
		return page
	}

	page.Issues = o.pipeline.Run(res.HTML, pageURL)
	return page
}

func emptyIssues() map[types.Category][]types.Issue {
	issues := make(map[types.Category][]types.Issue, len(types.Categories()))
	for _, category := range types.Categories() {
		issues[category] = []types.Issue{}
	}
	return issues
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
