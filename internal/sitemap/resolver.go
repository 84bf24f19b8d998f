package sitemap

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jonathan/seo-auditor/internal/fetch"
	"github.com/jonathan/seo-auditor/internal/logging"
)

// DefaultCandidates are the conventional sitemap paths probed, in order, when
// robots.txt does not name a usable sitemap.
var DefaultCandidates = []string{
	"/wp-sitemap.xml",
	"/sitemap_index.xml",
	"/page-sitemap.xml",
	"/post-sitemap.xml",
	"/sitemap.xml",
	"/sitemap-index.xml",
}

const (
	// DefaultThreshold stops probing further candidates once more URLs than this are known.
	DefaultThreshold = 5
	// DefaultMaxDepth bounds nested sitemap index recursion.
	DefaultMaxDepth = 5
)

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// Resolver discovers the URL set of a site.
type Resolver struct {
	fetcher    Fetcher
	logger     *slog.Logger
	candidates []string
	threshold  int
	maxDepth   int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCandidates overrides the fallback sitemap paths.
func WithCandidates(paths []string) Option {
	return func(r *Resolver) { r.candidates = paths }
}

// WithThreshold overrides the early-stop threshold.
func WithThreshold(n int) Option {
	return func(r *Resolver) { r.threshold = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver.
func NewResolver(f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:    f,
		logger:     logging.New("sitemap"),
		candidates: DefaultCandidates,
		threshold:  DefaultThreshold,
		maxDepth:   DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// orderedSet is an insertion-ordered string set.
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(items ...string) {
	for _, item := range items {
		if !s.seen[item] {
			s.seen[item] = true
			s.items = append(s.items, item)
		}
	}
}

// Resolve returns the deduplicated URL set of a site in sitemap order.
// Individual source failures are non-fatal; ErrNoSitemap is returned only
// when every source yielded nothing.
func (r *Resolver) Resolve(ctx context.Context, siteURL string) ([]string, error) {
	base, err := url.Parse(strings.TrimRight(siteURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", siteURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid site URL %q: scheme and host are required", siteURL)
	}

	// robots.txt sitemaps are used exclusively when they yield URLs.
	result := newOrderedSet()
	for _, sm := range r.robotsSitemaps(ctx, base) {
		result.add(r.collect(ctx, sm, 0, map[string]bool{})...)
	}
	if len(result.items) > 0 {
		r.logger.Info("resolved sitemap from robots.txt", "site", siteURL, "urls", len(result.items))
		return result.items, nil
	}

	visited := map[string]bool{}
	for _, path := range r.candidates {
		result.add(r.collect(ctx, base.String()+path, 0, visited)...)
		if len(result.items) > r.threshold {
			break
		}
	}

	if len(result.items) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoSitemap, siteURL)
	}
	r.logger.Info("resolved sitemap from candidate paths", "site", siteURL, "urls", len(result.items))
	return result.items, nil
}

// robotsSitemaps fetches robots.txt and returns its Sitemap directives.
func (r *Resolver) robotsSitemaps(ctx context.Context, base *url.URL) []string {
	robotsURL := base.String() + "/robots.txt"
	res, err := r.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		r.logger.Debug("robots.txt unavailable", "url", robotsURL, "error", err)
		return nil
	}
	return parseRobots(res.HTML, base)
}

// collect fetches one sitemap and recursively flattens nested indexes.
// Failures yield zero URLs.
func (r *Resolver) collect(ctx context.Context, sitemapURL string, depth int, visited map[string]bool) []string {
	if depth > r.maxDepth || visited[sitemapURL] {
		return nil
	}
	visited[sitemapURL] = true

	res, err := r.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		r.logger.Debug("sitemap source unavailable", "url", sitemapURL, "error", err)
		return nil
	}

	pages, nested, err := parseDocument(sitemapURL, res.HTML)
	if err != nil {
		r.logger.Debug("sitemap source unparseable", "url", sitemapURL, "error", err)
		return nil
	}

	out := pages
	for _, child := range nested {
		out = append(out, r.collect(ctx, child, depth+1, visited)...)
	}
	return out
}
