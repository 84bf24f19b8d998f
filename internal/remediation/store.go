package remediation

import (
	"context"

	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/types"
)

// TargetStore finds content items and terms. Lookups return a zero id with a
// nil error when nothing matches.
type TargetStore interface {
	ContentIDByURL(ctx context.Context, url string) (int64, error)
	TermIDBySlug(ctx context.Context, slug, taxonomy string) (int64, error)
}

// RemoteDirectory looks up content on a remote site by slug.
type RemoteDirectory interface {
	LookupSlug(ctx context.Context, site *config.SiteConfig, slug string) (int64, error)
}

// ContentStore reads entities and rewrites content bodies.
type ContentStore interface {
	Content(ctx context.Context, id int64) (*types.ContentItem, error)
	Term(ctx context.Context, id int64) (*types.Term, error)
	UpdateContentBody(ctx context.Context, id int64, body string) error
}

// MetaStore persists metadata values for a target.
type MetaStore interface {
	// SetMeta upserts a convention-specific meta key on a content item or term.
	SetMeta(ctx context.Context, target types.RemediationTarget, key, value string) error
	// SetNativeField writes the store's own SEO field for the target.
	SetNativeField(ctx context.Context, target types.RemediationTarget, field Field, value string) error
}

// PluginSource lists the active platform plugins.
type PluginSource interface {
	ActivePlugins(ctx context.Context) ([]string, error)
}

// Store is the full local store used by the remediation path.
type Store interface {
	TargetStore
	ContentStore
	MetaStore
}
