package remediation

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/types"
)

// memStore is an in-memory Store used across the package tests.
type memStore struct {
	mu       sync.Mutex
	contents map[int64]*types.ContentItem
	terms    map[int64]*types.Term
	meta     map[string]string
	native   map[string]string
	plugins  []string
	failMeta bool
	failAll  bool
}

func newMemStore() *memStore {
	return &memStore{
		contents: map[int64]*types.ContentItem{},
		terms:    map[int64]*types.Term{},
		meta:     map[string]string{},
		native:   map[string]string{},
	}
}

func (s *memStore) addContent(item types.ContentItem) {
	s.contents[item.ID] = &item
}

func (s *memStore) addTerm(term types.Term) {
	s.terms[term.ID] = &term
}

func (s *memStore) ContentIDByURL(_ context.Context, url string) (int64, error) {
	if s.failAll {
		return 0, fmt.Errorf("connection refused")
	}
	for id, c := range s.contents {
		if c.URL == url {
			return id, nil
		}
	}
	return 0, nil
}

func (s *memStore) TermIDBySlug(_ context.Context, slug, taxonomy string) (int64, error) {
	if s.failAll {
		return 0, fmt.Errorf("connection refused")
	}
	for id, t := range s.terms {
		if t.Slug == slug && t.Taxonomy == taxonomy {
			return id, nil
		}
	}
	return 0, nil
}

func (s *memStore) Content(_ context.Context, id int64) (*types.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) Term(_ context.Context, id int64) (*types.Term, error) {
	t, ok := s.terms[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) UpdateContentBody(_ context.Context, id int64, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[id]
	if !ok {
		return fmt.Errorf("content %d not found", id)
	}
	c.Body = body
	return nil
}

func metaKeyFor(target types.RemediationTarget, key string) string {
	return fmt.Sprintf("%s/%d/%s", target.Kind, target.ID, key)
}

func (s *memStore) SetMeta(_ context.Context, target types.RemediationTarget, key, value string) error {
	if s.failMeta || s.failAll {
		return fmt.Errorf("meta table locked")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[metaKeyFor(target, key)] = value
	return nil
}

func (s *memStore) SetNativeField(_ context.Context, target types.RemediationTarget, field Field, value string) error {
	if s.failAll {
		return fmt.Errorf("connection refused")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.native[metaKeyFor(target, string(field))] = value
	return nil
}

func (s *memStore) ActivePlugins(_ context.Context) ([]string, error) {
	if s.failAll {
		return nil, fmt.Errorf("connection refused")
	}
	return s.plugins, nil
}

type stubDirectory struct {
	ids   map[string]int64
	calls int
}

func (d *stubDirectory) LookupSlug(_ context.Context, _ *config.SiteConfig, slug string) (int64, error) {
	d.calls++
	return d.ids[slug], nil
}
