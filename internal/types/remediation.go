package types

// EntityKind distinguishes content items from taxonomy terms.
type EntityKind string

// EntityKind constants
const (
	EntityContent EntityKind = "content"
	EntityTerm    EntityKind = "term"
)

// Taxonomy names understood by the target resolver.
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "post_tag"
)

// RemediationTarget is the addressable entity a URL maps to.
// Targets are resolved fresh for every fix request and never cached.
type RemediationTarget struct {
	Kind     EntityKind `json:"entity_kind"`
	ID       int64      `json:"entity_id"`
	Taxonomy string     `json:"taxonomy,omitempty"`
	URL      string     `json:"url"`
	Remote   bool       `json:"remote,omitempty"`
}

// IsTerm reports whether the target is a taxonomy term.
func (t RemediationTarget) IsTerm() bool {
	return t.Kind == EntityTerm
}

// FixSource identifies which strategy produced a FixResult.
type FixSource string

// FixSource constants
const (
	SourceNative   FixSource = "native"
	SourceAIBridge FixSource = "ai_bridge"
)

// FixResult is the immutable outcome of one remediation attempt.
type FixResult struct {
	IssueType string             `json:"issue_type"`
	URL       string             `json:"url"`
	Target    *RemediationTarget `json:"target,omitempty"`
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Value     string             `json:"value,omitempty"`
	Source    FixSource          `json:"source"`
}
