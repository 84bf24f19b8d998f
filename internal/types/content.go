package types

// ContentItem is a post or page in the content store.
type ContentItem struct {
	ID             int64  `json:"id"`
	URL            string `json:"url"`
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	Excerpt        string `json:"excerpt,omitempty"`
	Body           string `json:"body"`
	SEOTitle       string `json:"seo_title,omitempty"`
	SEODescription string `json:"seo_description,omitempty"`
}

// Term is a taxonomy term (category or tag).
type Term struct {
	ID          int64  `json:"id"`
	Taxonomy    string `json:"taxonomy"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
