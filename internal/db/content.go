package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/seo-auditor/internal/remediation"
	"github.com/jonathan/seo-auditor/internal/types"
)

// nativeColumns maps metadata fields to the store's own columns per entity kind.
// Terms have no native title.
var nativeColumns = map[types.EntityKind]map[remediation.Field]string{
	types.EntityContent: {
		remediation.FieldTitle:       "seo_title",
		remediation.FieldDescription: "seo_description",
	},
	types.EntityTerm: {
		remediation.FieldDescription: "description",
	},
}

// activePluginsOption is the options row listing active plugins.
const activePluginsOption = "active_plugins"

// ContentIDByURL returns the content item with the given URL, or 0.
func (db *DB) ContentIDByURL(ctx context.Context, url string) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx, `SELECT id FROM content_items WHERE url = $1`, url).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get content by URL: %w", err)
	}
	return id, nil
}

// TermIDBySlug returns the term with the given slug in a taxonomy, or 0.
func (db *DB) TermIDBySlug(ctx context.Context, slug, taxonomy string) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`SELECT id FROM terms WHERE slug = $1 AND taxonomy = $2`,
		slug, taxonomy,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get term by slug: %w", err)
	}
	return id, nil
}

// Content retrieves a content item by ID
func (db *DB) Content(ctx context.Context, id int64) (*types.ContentItem, error) {
	var item types.ContentItem
	err := db.pool.QueryRow(ctx,
		`SELECT id, url, slug, title, excerpt, body, seo_title, seo_description
		 FROM content_items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.URL, &item.Slug, &item.Title, &item.Excerpt, &item.Body, &item.SEOTitle, &item.SEODescription)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return &item, nil
}

// Term retrieves a taxonomy term by ID
func (db *DB) Term(ctx context.Context, id int64) (*types.Term, error) {
	var term types.Term
	err := db.pool.QueryRow(ctx,
		`SELECT id, taxonomy, slug, name, description FROM terms WHERE id = $1`,
		id,
	).Scan(&term.ID, &term.Taxonomy, &term.Slug, &term.Name, &term.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get term: %w", err)
	}
	return &term, nil
}

// UpdateContentBody replaces the body of a content item
func (db *DB) UpdateContentBody(ctx context.Context, id int64, body string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE content_items SET body = $1, updated_at = NOW() WHERE id = $2`,
		body, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update content body: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content %d not found", id)
	}
	return nil
}

// SetMeta upserts a meta key on a content item or term
func (db *DB) SetMeta(ctx context.Context, target types.RemediationTarget, key, value string) error {
	query := `INSERT INTO content_meta (content_id, meta_key, meta_value) VALUES ($1, $2, $3)
		 ON CONFLICT (content_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`
	if target.IsTerm() {
		query = `INSERT INTO term_meta (term_id, meta_key, meta_value) VALUES ($1, $2, $3)
		 ON CONFLICT (term_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`
	}

	if _, err := db.pool.Exec(ctx, query, target.ID, key, value); err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

// GetMeta reads a meta key, returning "" when unset
func (db *DB) GetMeta(ctx context.Context, target types.RemediationTarget, key string) (string, error) {
	query := `SELECT meta_value FROM content_meta WHERE content_id = $1 AND meta_key = $2`
	if target.IsTerm() {
		query = `SELECT meta_value FROM term_meta WHERE term_id = $1 AND meta_key = $2`
	}

	var value string
	err := db.pool.QueryRow(ctx, query, target.ID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return value, nil
}

// SetNativeField writes the store's own SEO column for the target.
func (db *DB) SetNativeField(ctx context.Context, target types.RemediationTarget, field remediation.Field, value string) error {
	column, ok := NativeColumn(target.Kind, field)
	if !ok {
		return remediation.ErrNotApplicable
	}

	// column comes from a fixed table, never from input
	query := fmt.Sprintf(`UPDATE content_items SET %s = $1, updated_at = NOW() WHERE id = $2`, column)
	if target.IsTerm() {
		query = fmt.Sprintf(`UPDATE terms SET %s = $1 WHERE id = $2`, column)
	}

	tag, err := db.pool.Exec(ctx, query, value, target.ID)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d not found", target.Kind, target.ID)
	}
	return nil
}

// NativeColumn returns the column backing a field for an entity kind.
func NativeColumn(kind types.EntityKind, field remediation.Field) (string, bool) {
	column, ok := nativeColumns[kind][field]
	return column, ok
}

// ActivePlugins reads the active_plugins option, a JSON array of plugin files.
func (db *DB) ActivePlugins(ctx context.Context) ([]string, error) {
	var raw []byte
	err := db.pool.QueryRow(ctx, `SELECT value FROM options WHERE name = $1`, activePluginsOption).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active plugins: %w", err)
	}

	var plugins []string
	if err := json.Unmarshal(raw, &plugins); err != nil {
		return nil, fmt.Errorf("failed to parse active plugins: %w", err)
	}
	return plugins, nil
}

// SetActivePlugins replaces the active_plugins option
func (db *DB) SetActivePlugins(ctx context.Context, plugins []string) error {
	raw, err := json.Marshal(plugins)
	if err != nil {
		return fmt.Errorf("failed to marshal plugins: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO options (name, value) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`,
		activePluginsOption, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to set active plugins: %w", err)
	}
	return nil
}

// UpsertContent inserts or updates a content item keyed by URL and returns its ID
func (db *DB) UpsertContent(ctx context.Context, item *types.ContentItem) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO content_items (url, slug, title, excerpt, body)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (url) DO UPDATE SET slug = $2, title = $3, excerpt = $4, body = $5, updated_at = NOW()
		 RETURNING id`,
		item.URL, item.Slug, item.Title, item.Excerpt, item.Body,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert content: %w", err)
	}
	return id, nil
}

// UpsertTerm inserts or updates a term keyed by taxonomy and slug and returns its ID
func (db *DB) UpsertTerm(ctx context.Context, term *types.Term) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO terms (taxonomy, slug, name, description)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (taxonomy, slug) DO UPDATE SET name = $3, description = $4
		 RETURNING id`,
		term.Taxonomy, term.Slug, term.Name, term.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert term: %w", err)
	}
	return id, nil
}
