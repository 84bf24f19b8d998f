package remediation

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/types"
)

// TargetResolver maps a URL to the content item or term it addresses.
// Targets are resolved fresh on every call.
type TargetResolver struct {
	store     TargetStore
	directory RemoteDirectory
	sites     *config.SiteRegistry
	logger    *slog.Logger
}

// NewTargetResolver creates a resolver. store may be nil for remote-only
// deployments and directory may be nil when no site is remote.
func NewTargetResolver(store TargetStore, directory RemoteDirectory, sites *config.SiteRegistry) *TargetResolver {
	return &TargetResolver{
		store:     store,
		directory: directory,
		sites:     sites,
		logger:    logging.New("remediation"),
	}
}

// Resolve applies the lookup precedence: category archive segment, tag
// archive segment, content item by URL, then slug against category then tag.
// URLs of remote sites are resolved through the remote directory only.
func (r *TargetResolver) Resolve(ctx context.Context, rawURL string) (*types.RemediationTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	segments := pathSegments(u.Path)
	slug := ""
	if len(segments) > 0 {
		slug = segments[len(segments)-1]
	}

	// Remote sites have no rows in the local store; their ids belong to the
	// remote platform, so only the directory may resolve them.
	if site, ok := r.sites.Lookup(rawURL); ok && site.Remote {
		if r.directory != nil && slug != "" {
			id, err := r.directory.LookupSlug(ctx, site, slug)
			if err != nil {
				return nil, fmt.Errorf("remote lookup failed: %w", err)
			}
			if id != 0 {
				return &types.RemediationTarget{Kind: types.EntityContent, ID: id, URL: rawURL, Remote: true}, nil
			}
		}
		r.logger.Debug("no remote target for URL", "url", rawURL)
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, rawURL)
	}

	if r.store != nil {
		if termSlug, ok := archiveSlug(segments, "category"); ok {
			if target, err := r.term(ctx, rawURL, termSlug, types.TaxonomyCategory); target != nil || err != nil {
				return target, err
			}
		}
		if termSlug, ok := archiveSlug(segments, "tag"); ok {
			if target, err := r.term(ctx, rawURL, termSlug, types.TaxonomyTag); target != nil || err != nil {
				return target, err
			}
		}

		id, err := r.store.ContentIDByURL(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("failed to look up content by URL: %w", err)
		}
		if id != 0 {
			return &types.RemediationTarget{Kind: types.EntityContent, ID: id, URL: rawURL}, nil
		}

		if slug != "" {
			for _, taxonomy := range []string{types.TaxonomyCategory, types.TaxonomyTag} {
				if target, err := r.term(ctx, rawURL, slug, taxonomy); target != nil || err != nil {
					return target, err
				}
			}
		}
	}

	r.logger.Debug("no target for URL", "url", rawURL)
	return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, rawURL)
}

func (r *TargetResolver) term(ctx context.Context, rawURL, slug, taxonomy string) (*types.RemediationTarget, error) {
	id, err := r.store.TermIDBySlug(ctx, slug, taxonomy)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s term %q: %w", taxonomy, slug, err)
	}
	if id == 0 {
		return nil, nil
	}
	return &types.RemediationTarget{Kind: types.EntityTerm, ID: id, Taxonomy: taxonomy, URL: rawURL}, nil
}

// archiveSlug returns the last segment after an archive marker segment, so
// nested categories resolve to the leaf term. A trailing page/N pagination
// suffix is ignored.
func archiveSlug(segments []string, marker string) (string, bool) {
	end := len(segments)
	if end >= 2 && strings.EqualFold(segments[end-2], "page") && isNumber(segments[end-1]) {
		end -= 2
	}
	for i, seg := range segments[:end] {
		if strings.EqualFold(seg, marker) && i < end-1 {
			return segments[end-1], true
		}
	}
	return "", false
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pathSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
