package jobs

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/seo-auditor/internal/types"
)

// DefaultJobTTL is how long a job-status hash lives in Redis after its last write.
const DefaultJobTTL = 24 * time.Hour

const jobKeyPrefix = "seo:audit:job:"

// RedisStore keeps job-status records as Redis hashes. Every save is a single
// HSET, so concurrent readers observe field replacements, never torn values.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A non-positive ttl uses DefaultJobTTL.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

// SaveJob writes all job fields and refreshes the key expiry.
func (s *RedisStore) SaveJob(ctx context.Context, job *types.SiteAuditJob) error {
	key := jobKey(job.ID)
	finished := ""
	if job.FinishedAt != nil {
		finished = job.FinishedAt.UTC().Format(time.RFC3339Nano)
	}

	err := s.client.HSet(ctx, key,
		"id", job.ID,
		"site_url", job.SiteURL,
		"started_at", job.StartedAt.UTC().Format(time.RFC3339Nano),
		"finished_at", finished,
		"status", string(job.Status),
		"progress_percent", job.ProgressPercent,
		"current_url", job.CurrentURL,
		"total_urls", job.TotalURLs,
		"error", job.Error,
	).Err()
	if err != nil {
		return &StoreError{Op: "save", JobID: job.ID, Message: "redis HSET failed", Cause: err}
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return &StoreError{Op: "save", JobID: job.ID, Message: "redis EXPIRE failed", Cause: err}
	}
	return nil
}

// GetJob reads a job record, returning nil if the hash does not exist.
func (s *RedisStore) GetJob(ctx context.Context, jobID string) (*types.SiteAuditJob, error) {
	values, err := s.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, &StoreError{Op: "get", JobID: jobID, Message: "redis HGETALL failed", Cause: err}
	}
	if len(values) == 0 {
		return nil, nil
	}
	return decodeJob(jobID, values)
}

func decodeJob(jobID string, values map[string]string) (*types.SiteAuditJob, error) {
	job := &types.SiteAuditJob{
		ID:         values["id"],
		SiteURL:    values["site_url"],
		Status:     types.JobStatus(values["status"]),
		CurrentURL: values["current_url"],
		Error:      values["error"],
	}
	if job.ID == "" {
		job.ID = jobID
	}

	var err error
	if job.ProgressPercent, err = atoiField(values, "progress_percent"); err != nil {
		return nil, &StoreError{Op: "get", JobID: jobID, Message: "invalid progress_percent", Cause: err}
	}
	if job.TotalURLs, err = atoiField(values, "total_urls"); err != nil {
		return nil, &StoreError{Op: "get", JobID: jobID, Message: "invalid total_urls", Cause: err}
	}
	if v := values["started_at"]; v != "" {
		if job.StartedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, &StoreError{Op: "get", JobID: jobID, Message: "invalid started_at", Cause: err}
		}
	}
	if v := values["finished_at"]; v != "" {
		finished, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, &StoreError{Op: "get", JobID: jobID, Message: "invalid finished_at", Cause: err}
		}
		job.FinishedAt = &finished
	}
	return job, nil
}

func atoiField(values map[string]string, field string) (int, error) {
	v := values[field]
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
