package jobs

import (
	"context"
	"sync"

	"github.com/jonathan/seo-auditor/internal/types"
)

// StatusStore persists the job-status surface. Each save replaces the whole
// record; readers may observe any previously saved version.
type StatusStore interface {
	SaveJob(ctx context.Context, job *types.SiteAuditJob) error
	GetJob(ctx context.Context, jobID string) (*types.SiteAuditJob, error)
}

// ResultSink receives finished audit results.
type ResultSink interface {
	SaveAuditResult(ctx context.Context, result *types.AuditResult) error
}

// ResultStore is a ResultSink that can also read results back.
type ResultStore interface {
	ResultSink
	GetAuditResult(ctx context.Context, jobID string) (*types.AuditResult, error)
}

// MemoryStore keeps job records and results in process memory.
// It implements StatusStore and ResultStore.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[string]types.SiteAuditJob
	results map[string]*types.AuditResult
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]types.SiteAuditJob),
		results: make(map[string]*types.AuditResult),
	}
}

// SaveJob stores a copy of the job record.
func (s *MemoryStore) SaveJob(_ context.Context, job *types.SiteAuditJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

// GetJob returns a copy of the job record, or nil if unknown.
func (s *MemoryStore) GetJob(_ context.Context, jobID string) (*types.SiteAuditJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

// SaveAuditResult stores the result keyed by its job ID.
func (s *MemoryStore) SaveAuditResult(_ context.Context, result *types.AuditResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.JobID] = result
	return nil
}

// GetAuditResult returns the stored result, or nil if unknown.
func (s *MemoryStore) GetAuditResult(_ context.Context, jobID string) (*types.AuditResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[jobID], nil
}

// NoopSink discards results.
type NoopSink struct{}

// SaveAuditResult does nothing.
func (NoopSink) SaveAuditResult(context.Context, *types.AuditResult) error { return nil }

// MultiSink fans a result out to several sinks in order, stopping at the first failure.
type MultiSink []ResultSink

// SaveAuditResult saves to every sink.
func (m MultiSink) SaveAuditResult(ctx context.Context, result *types.AuditResult) error {
	for _, sink := range m {
		if err := sink.SaveAuditResult(ctx, result); err != nil {
			return err
		}
	}
	return nil
}
