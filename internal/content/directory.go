// Package content looks up content items on remote sites through their REST API.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/logging"
)

// DefaultTimeout bounds each directory request.
const DefaultTimeout = 15 * time.Second

// collections are searched in order; the first match wins.
var collections = []string{"posts", "pages"}

// Error represents a failed remote directory request.
type Error struct {
	Site       string
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("content directory %s: %s: %s: %v", e.Site, e.URL, msg, e.Cause)
	}
	return fmt.Sprintf("content directory %s: %s: %s", e.Site, e.URL, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type entry struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

// Directory resolves slugs to entity IDs on remote sites.
type Directory struct {
	client  *http.Client
	secrets config.Secrets
	logger  *slog.Logger
}

// NewDirectory creates a Directory. A nil secrets collaborator treats stored
// passwords as plaintext.
func NewDirectory(client *http.Client, secrets config.Secrets) *Directory {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if secrets == nil {
		secrets = config.PlainSecrets{}
	}
	return &Directory{client: client, secrets: secrets, logger: logging.New("content")}
}

// LookupSlug queries posts then pages filtered by slug and returns the first
// matching ID, or zero when neither collection has the slug.
func (d *Directory) LookupSlug(ctx context.Context, site *config.SiteConfig, slug string) (int64, error) {
	if site == nil || site.APIBase == "" {
		return 0, &Error{Message: "site has no API base"}
	}
	user, pass, err := site.Credentials(d.secrets)
	if err != nil {
		return 0, &Error{Site: site.Name, Message: "failed to load credentials", Cause: err}
	}

	base := strings.TrimRight(site.APIBase, "/")
	for _, collection := range collections {
		endpoint := fmt.Sprintf("%s/wp/v2/%s?slug=%s&_fields=id,slug", base, collection, url.QueryEscape(slug))
		entries, err := d.list(ctx, site.Name, endpoint, user, pass)
		if err != nil {
			return 0, err
		}
		for _, e := range entries {
			if e.ID != 0 && (e.Slug == "" || e.Slug == slug) {
				d.logger.Debug("remote slug resolved", "site", site.Name, "collection", collection, "slug", slug, "id", e.ID)
				return e.ID, nil
			}
		}
	}
	return 0, nil
}

func (d *Directory) list(ctx context.Context, siteName, endpoint, user, pass string) ([]entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Site: siteName, URL: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if user != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &Error{Site: siteName, URL: endpoint, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Site: siteName, URL: endpoint, StatusCode: resp.StatusCode, Message: "unexpected status"}
	}

	var entries []entry
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&entries); err != nil {
		return nil, &Error{Site: siteName, URL: endpoint, Message: "malformed response", Cause: err}
	}
	return entries, nil
}
