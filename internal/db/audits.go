package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/seo-auditor/internal/types"
)

// AuditResultSummary is a lightweight listing row for stored audit results.
type AuditResultSummary struct {
	JobID            uuid.UUID `json:"job_id"`
	SiteURL          string    `json:"site_url"`
	AuditDate        time.Time `json:"audit_date"`
	TotalURLsChecked int       `json:"total_urls_checked"`
	HealthScore      int       `json:"health_score"`
	CriticalCount    int       `json:"critical_count"`
	WarningCount     int       `json:"warning_count"`
}

// SaveJob upserts the job-status record. Each save replaces every field.
func (db *DB) SaveJob(ctx context.Context, job *types.SiteAuditJob) error {
	id, err := uuid.Parse(job.ID)
	if err != nil {
		return fmt.Errorf("invalid job ID %q: %w", job.ID, err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO audit_jobs (id, site_url, status, progress_percent, current_url, total_urls, error_message, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		     status = EXCLUDED.status,
		     progress_percent = EXCLUDED.progress_percent,
		     current_url = EXCLUDED.current_url,
		     total_urls = EXCLUDED.total_urls,
		     error_message = EXCLUDED.error_message,
		     finished_at = EXCLUDED.finished_at`,
		id, job.SiteURL, string(job.Status), job.ProgressPercent, job.CurrentURL, job.TotalURLs, job.Error, job.StartedAt, job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// GetJob retrieves a job-status record by ID
func (db *DB) GetJob(ctx context.Context, jobID string) (*types.SiteAuditJob, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return nil, nil
	}

	var job types.SiteAuditJob
	var status string
	err = db.pool.QueryRow(ctx,
		`SELECT id, site_url, status, progress_percent, current_url, total_urls, error_message, started_at, finished_at
		 FROM audit_jobs WHERE id = $1`,
		id,
	).Scan(&id, &job.SiteURL, &status, &job.ProgressPercent, &job.CurrentURL, &job.TotalURLs, &job.Error, &job.StartedAt, &job.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	job.ID = id.String()
	job.Status = types.JobStatus(status)
	return &job, nil
}

// SaveAuditResult stores a complete audit result keyed by its job ID
func (db *DB) SaveAuditResult(ctx context.Context, result *types.AuditResult) error {
	id, err := uuid.Parse(result.JobID)
	if err != nil {
		return fmt.Errorf("invalid job ID %q: %w", result.JobID, err)
	}
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal audit result: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO audit_results (job_id, site_url, audit_date, total_urls_checked, health_score, critical_count, warning_count, result)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (job_id) DO UPDATE SET result = EXCLUDED.result`,
		id, result.SiteURL, result.AuditDate, result.TotalURLsChecked,
		result.Summary.HealthScore, result.Summary.CriticalCount, result.Summary.WarningCount, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit result: %w", err)
	}
	return nil
}

// GetAuditResult retrieves a stored audit result by job ID
func (db *DB) GetAuditResult(ctx context.Context, jobID string) (*types.AuditResult, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return nil, nil
	}

	var content []byte
	err = db.pool.QueryRow(ctx, `SELECT result FROM audit_results WHERE job_id = $1`, id).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get audit result: %w", err)
	}

	var result types.AuditResult
	if err := json.Unmarshal(content, &result); err != nil {
		return nil, fmt.Errorf("failed to parse audit result: %w", err)
	}
	return &result, nil
}

// ListAuditResults retrieves recent audit summaries for a site
func (db *DB) ListAuditResults(ctx context.Context, siteURL string, limit int) ([]AuditResultSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT job_id, site_url, audit_date, total_urls_checked, health_score, critical_count, warning_count
		 FROM audit_results WHERE site_url = $1 ORDER BY audit_date DESC LIMIT $2`,
		siteURL, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit results: %w", err)
	}
	defer rows.Close()

	var summaries []AuditResultSummary
	for rows.Next() {
		var s AuditResultSummary
		if err := rows.Scan(&s.JobID, &s.SiteURL, &s.AuditDate, &s.TotalURLsChecked, &s.HealthScore, &s.CriticalCount, &s.WarningCount); err != nil {
			return nil, fmt.Errorf("failed to scan audit result: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit results: %w", err)
	}
	return summaries, nil
}
