package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

// SiteConfig holds per-site settings and credentials. AppPassword is stored
// encrypted with Secrets.
type SiteConfig struct {
	Name          string `yaml:"name" json:"name" validate:"required"`
	URL           string `yaml:"url" json:"url" validate:"required,url"`
	Remote        bool   `yaml:"remote" json:"remote"`
	APIBase       string `yaml:"api_base" json:"api_base,omitempty" validate:"required_if=Remote true,omitempty,url"`
	Username      string `yaml:"username" json:"username,omitempty"`
	AppPassword   string `yaml:"app_password" json:"-"`
	BridgeEnabled bool   `yaml:"bridge_enabled" json:"bridge_enabled"`
	BridgeURL     string `yaml:"bridge_url" json:"bridge_url,omitempty" validate:"omitempty,url"`
}

// SiteRegistry maps site URLs to their configuration. It is built once and
// passed to the components that need per-site settings.
type SiteRegistry struct {
	sites    []SiteConfig
	byHost   map[string]int
	byDomain map[string]int
}

type sitesFile struct {
	Sites []SiteConfig `yaml:"sites"`
}

// NewSiteRegistry validates sites and indexes them by host and registrable domain.
func NewSiteRegistry(sites []SiteConfig) (*SiteRegistry, error) {
	validate := validator.New()
	r := &SiteRegistry{
		sites:    make([]SiteConfig, 0, len(sites)),
		byHost:   make(map[string]int),
		byDomain: make(map[string]int),
	}

	for _, site := range sites {
		if err := validate.Struct(site); err != nil {
			return nil, fmt.Errorf("invalid site %q: %w", site.Name, err)
		}
		host := hostOf(site.URL)
		if _, dup := r.byHost[host]; dup {
			return nil, fmt.Errorf("duplicate site host %q", host)
		}

		idx := len(r.sites)
		r.sites = append(r.sites, site)
		r.byHost[host] = idx
		if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
			if _, taken := r.byDomain[domain]; !taken {
				r.byDomain[domain] = idx
			}
		}
	}
	return r, nil
}

// LoadSiteRegistry reads a YAML sites file of the form `sites: [...]`.
func LoadSiteRegistry(path string) (*SiteRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file %s: %w", path, err)
	}
	var file sitesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sites YAML: %w", err)
	}
	return NewSiteRegistry(file.Sites)
}

// Lookup finds the site a URL belongs to: exact host first, then registrable domain.
func (r *SiteRegistry) Lookup(rawURL string) (*SiteConfig, bool) {
	if r == nil {
		return nil, false
	}
	host := hostOf(rawURL)
	if host == "" {
		return nil, false
	}
	if idx, ok := r.byHost[host]; ok {
		site := r.sites[idx]
		return &site, true
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return nil, false
	}
	if idx, ok := r.byDomain[domain]; ok {
		site := r.sites[idx]
		return &site, true
	}
	return nil, false
}

// Sites returns a copy of every registered site.
func (r *SiteRegistry) Sites() []SiteConfig {
	if r == nil {
		return nil
	}
	out := make([]SiteConfig, len(r.sites))
	copy(out, r.sites)
	return out
}

// Credentials decrypts the site's application password.
func (s *SiteConfig) Credentials(secrets Secrets) (username, password string, err error) {
	if s.AppPassword == "" {
		return s.Username, "", nil
	}
	password, err = secrets.Decrypt(s.AppPassword)
	if err != nil {
		return "", "", fmt.Errorf("failed to decrypt credentials for %s: %w", s.Name, err)
	}
	return s.Username, password, nil
}

func hostOf(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
