package remediation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/types"
)

func handlersFixture(t *testing.T) (*memStore, *Handlers) {
	t.Helper()
	store := newMemStore()
	sites, err := config.NewSiteRegistry([]config.SiteConfig{{Name: "Example", URL: "https://example.com"}})
	require.NoError(t, err)
	adapter := NewMetadataAdapter(store, []Convention{ConventionYoast})
	return store, NewHandlers(store, adapter, sites)
}

func TestFixTitle_ContentShortTitle(t *testing.T) {
	store, h := handlersFixture(t)
	store.addContent(types.ContentItem{ID: 1, Title: "Pricing"})

	value, _, err := h.FixTitle(context.Background(), contentTarget)
	require.NoError(t, err)
	assert.Equal(t, "Pricing | Example", value)
	assert.Equal(t, value, store.native["content/1/title"])
	assert.Equal(t, value, store.meta["content/1/_yoast_wpseo_title"])
}

func TestFixTitle_TermUsesName(t *testing.T) {
	store, h := handlersFixture(t)
	store.addTerm(types.Term{ID: 2, Taxonomy: types.TaxonomyCategory, Name: "Recipes"})

	value, _, err := h.FixTitle(context.Background(), termTarget)
	require.NoError(t, err)
	assert.Equal(t, "Recipes | Example", value)
	assert.Equal(t, value, store.meta["term/2/_yoast_wpseo_title"])
}

func TestFixTitle_Errors(t *testing.T) {
	store, h := handlersFixture(t)
	store.addContent(types.ContentItem{ID: 1, Title: "  "})

	_, _, err := h.FixTitle(context.Background(), contentTarget)
	var handlerErr *HandlerError
	assert.ErrorAs(t, err, &handlerErr)

	_, _, err = h.FixTitle(context.Background(), types.RemediationTarget{Kind: types.EntityContent, ID: 404})
	assert.ErrorIs(t, err, ErrTargetNotFound)

	_, _, err = h.FixTitle(context.Background(), types.RemediationTarget{Kind: types.EntityContent, ID: 1, Remote: true})
	assert.ErrorAs(t, err, &handlerErr)
}

func TestFixDescription(t *testing.T) {
	tests := []struct {
		name     string
		item     types.ContentItem
		expected string
	}{
		{"prefers excerpt", types.ContentItem{ID: 1, Excerpt: "A short <em>excerpt</em>.", Body: "<p>Body text</p>"}, "A short excerpt."},
		{"falls back to stripped body", types.ContentItem{ID: 1, Body: "<p>Body\n\n<b>text</b></p><script>x()</script>"}, "Body text"},
		{"truncates long body", types.ContentItem{ID: 1, Body: "<p>" + strings.Repeat("w", 200) + "</p>"}, strings.Repeat("w", 152) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, h := handlersFixture(t)
			store.addContent(tt.item)

			value, _, err := h.FixDescription(context.Background(), contentTarget)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
			assert.Equal(t, tt.expected, store.meta["content/1/_yoast_wpseo_metadesc"])
		})
	}
}

func TestFixDescription_EmptySource(t *testing.T) {
	store, h := handlersFixture(t)
	store.addContent(types.ContentItem{ID: 1, Body: "<div> </div>"})

	_, _, err := h.FixDescription(context.Background(), contentTarget)
	assert.Error(t, err)
	assert.Empty(t, store.meta)
}

func TestFixH1_Idempotent(t *testing.T) {
	store, h := handlersFixture(t)
	store.addContent(types.ContentItem{ID: 1, Title: "Guide to Go", Body: "<p>Intro</p>"})

	value, msg, err := h.FixH1(context.Background(), contentTarget)
	require.NoError(t, err)
	assert.Equal(t, "Guide to Go", value)
	assert.Equal(t, "H1 added", msg)
	afterFirst := store.contents[1].Body
	assert.Equal(t, "<h1>Guide to Go</h1>\n<p>Intro</p>", afterFirst)

	_, msg, err = h.FixH1(context.Background(), contentTarget)
	require.NoError(t, err)
	assert.Equal(t, "H1 already exists", msg)
	assert.Equal(t, afterFirst, store.contents[1].Body)
}

func TestFixH1_TermRejected(t *testing.T) {
	_, h := handlersFixture(t)
	_, _, err := h.FixH1(context.Background(), termTarget)
	var handlerErr *HandlerError
	assert.ErrorAs(t, err, &handlerErr)
}

func TestFixMultipleH1s(t *testing.T) {
	store, h := handlersFixture(t)
	store.addContent(types.ContentItem{ID: 1, Title: "Canonical", Body: "<h1>First</h1><p>x</p><h1>Second</h1>"})

	_, msg, err := h.FixMultipleH1s(context.Background(), contentTarget)
	require.NoError(t, err)
	assert.Contains(t, msg, "2")
	assert.Equal(t, "<h1>Canonical</h1>\n<h2>First</h2><p>x</p><h2>Second</h2>", store.contents[1].Body)
	assert.Equal(t, 1, CountH1(store.contents[1].Body))

	before := store.contents[1].Body
	_, msg, err = h.FixMultipleH1s(context.Background(), contentTarget)
	require.NoError(t, err)
	assert.Equal(t, "Content has at most one H1", msg)
	assert.Equal(t, before, store.contents[1].Body)
}
