// Package types provides type definitions for structured data used throughout the seo-auditor system.
package types

import "time"

// Status is the outcome of a single check against a single page.
type Status string

// Status constants
const (
	StatusCritical Status = "critical"
	StatusWarning  Status = "warning"
	StatusOptimal  Status = "optimal"
	StatusInfo     Status = "info"
)

// Severity returns the severity label reported alongside a status.
func (s Status) Severity() string {
	switch s {
	case StatusCritical:
		return "high"
	case StatusWarning:
		return "medium"
	case StatusInfo:
		return "low"
	default:
		return "none"
	}
}

// Category groups issues in a PageResult.
type Category string

// Category constants
const (
	CategoryOnPage    Category = "onpage"
	CategoryImages    Category = "images"
	CategoryLinks     Category = "links"
	CategoryTechnical Category = "technical"
)

// Categories lists every category in reporting order.
func Categories() []Category {
	return []Category{CategoryOnPage, CategoryImages, CategoryLinks, CategoryTechnical}
}

// Issue is one finding from a single check against a single page.
// CheckName is the join key for both the scoring weight table and the fix dispatch table.
type Issue struct {
	CheckName  string  `json:"check_name"`
	Status     Status  `json:"status"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
	Value      string  `json:"value,omitempty"`
	Confidence float64 `json:"confidence"`
}

// NewIssue builds an Issue with severity derived from status and full confidence.
func NewIssue(checkName string, status Status, message, value string) Issue {
	return Issue{
		CheckName:  checkName,
		Status:     status,
		Severity:   status.Severity(),
		Message:    message,
		Value:      value,
		Confidence: 1.0,
	}
}

// PageResult holds the outcome of crawling and checking a single URL.
type PageResult struct {
	URL        string               `json:"url"`
	StatusCode int                  `json:"status_code"`
	FetchTime  time.Duration        `json:"fetch_time"`
	Error      string               `json:"error,omitempty"`
	Issues     map[Category][]Issue `json:"issues"`
}

// AllIssues returns every issue on the page in category reporting order.
func (p *PageResult) AllIssues() []Issue {
	var all []Issue
	for _, category := range Categories() {
		all = append(all, p.Issues[category]...)
	}
	return all
}

// AuditSummary aggregates all issues in an audit.
type AuditSummary struct {
	CriticalCount   int     `json:"critical_count"`
	WarningCount    int     `json:"warning_count"`
	PassedCount     int     `json:"passed_count"`
	WeightedPenalty float64 `json:"weighted_penalty"`
	MaxWeight       float64 `json:"max_weight"`
	HealthScore     int     `json:"health_score"`
}

// AuditResult is the full audit-result surface handed to persistence.
type AuditResult struct {
	JobID            string       `json:"job_id,omitempty"`
	SiteURL          string       `json:"site_url"`
	AuditDate        time.Time    `json:"audit_date"`
	TotalURLsChecked int          `json:"total_urls_checked"`
	Summary          AuditSummary `json:"summary"`
	Pages            []PageResult `json:"pages"`
}

// JobStatus is the lifecycle state of an audit job.
type JobStatus string

// JobStatus constants
const (
	JobIdle     JobStatus = "idle"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobError    JobStatus = "error"
)

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobComplete || s == JobError
}

// SiteAuditJob is the job-status record for one audit run.
// It has a single writer (the orchestrator) and may be read concurrently.
type SiteAuditJob struct {
	ID              string     `json:"id"`
	SiteURL         string     `json:"site_url"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Status          JobStatus  `json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	CurrentURL      string     `json:"current_url"`
	TotalURLs       int        `json:"total_urls"`
	Error           string     `json:"error,omitempty"`
}

// Progress is reported to the progress callback after every crawled URL.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	URL     string `json:"url"`
	Percent int    `json:"percent"`
}
