// Package jobs runs site audits in the background and publishes their
// job-status records to a StatusStore and their results to a ResultSink.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/seo-auditor/internal/audit"
	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/types"
)

// Auditor runs one site audit.
type Auditor interface {
	AuditSite(ctx context.Context, siteURL string, opts *audit.Options) (*types.AuditResult, error)
}

// Manager starts audits, tracks their status and fans status updates out to subscribers.
type Manager struct {
	auditor Auditor
	store   StatusStore
	sink    ResultSink
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	mu          sync.Mutex
	running     map[string]string
	subscribers map[string]map[chan types.SiteAuditJob]struct{}
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source for job timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides job ID allocation.
func WithIDGenerator(gen func() string) ManagerOption {
	return func(m *Manager) { m.newID = gen }
}

// NewManager creates a Manager. A nil sink discards results.
func NewManager(auditor Auditor, store StatusStore, sink ResultSink, opts ...ManagerOption) *Manager {
	if sink == nil {
		sink = NoopSink{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		auditor:     auditor,
		store:       store,
		sink:        sink,
		logger:      logging.New("jobs"),
		now:         time.Now,
		newID:       uuid.NewString,
		running:     make(map[string]string),
		subscribers: make(map[string]map[chan types.SiteAuditJob]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start allocates a job and runs the audit in a background goroutine.
// The returned record is the initial running state.
func (m *Manager) Start(ctx context.Context, siteURL string, maxURLs int) (*types.SiteAuditJob, error) {
	job, err := m.begin(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	initial := *job

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_, _ = m.execute(m.ctx, job, maxURLs)
	}()

	return &initial, nil
}

// Run audits a site synchronously under a new job and returns the result.
func (m *Manager) Run(ctx context.Context, siteURL string, maxURLs int) (*types.AuditResult, error) {
	job, err := m.begin(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	return m.execute(ctx, job, maxURLs)
}

// Status returns the job-status record for an ID.
func (m *Manager) Status(ctx context.Context, jobID string) (*types.SiteAuditJob, error) {
	job, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Subscribe returns a channel receiving every subsequent status update for a
// job. The channel is closed after the terminal update or when cancel is called.
// Slow subscribers miss intermediate updates rather than blocking the crawl.
func (m *Manager) Subscribe(jobID string) (<-chan types.SiteAuditJob, func()) {
	ch := make(chan types.SiteAuditJob, 16)

	m.mu.Lock()
	if m.subscribers[jobID] == nil {
		m.subscribers[jobID] = make(map[chan types.SiteAuditJob]struct{})
	}
	m.subscribers[jobID][ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if subs, ok := m.subscribers[jobID]; ok {
				if _, ok := subs[ch]; ok {
					delete(subs, ch)
					close(ch)
				}
				if len(subs) == 0 {
					delete(m.subscribers, jobID)
				}
			}
		})
	}
	return ch, cancel
}

// Shutdown cancels running background audits and waits for them to record
// their final status, or until ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) begin(ctx context.Context, siteURL string) (*types.SiteAuditJob, error) {
	key := siteKey(siteURL)

	m.mu.Lock()
	if existing, ok := m.running[key]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s (job %s)", ErrAuditInProgress, siteURL, existing)
	}
	job := &types.SiteAuditJob{
		ID:        m.newID(),
		SiteURL:   siteURL,
		StartedAt: m.now().UTC(),
		Status:    types.JobRunning,
	}
	m.running[key] = job.ID
	m.mu.Unlock()

	if err := m.store.SaveJob(ctx, job); err != nil {
		m.release(key)
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	m.logger.Info("audit started", "job_id", job.ID, "site", siteURL)
	return job, nil
}

func (m *Manager) execute(ctx context.Context, job *types.SiteAuditJob, maxURLs int) (*types.AuditResult, error) {
	opts := &audit.Options{
		MaxURLs: maxURLs,
		OnResolved: func(total int) {
			job.TotalURLs = total
			m.publish(ctx, job)
		},
		OnProgress: func(p types.Progress) {
			job.ProgressPercent = p.Percent
			job.CurrentURL = p.URL
			m.publish(ctx, job)
		},
	}

	result, err := m.auditor.AuditSite(ctx, job.SiteURL, opts)
	if err == nil {
		result.JobID = job.ID
		if sinkErr := m.sink.SaveAuditResult(context.WithoutCancel(ctx), result); sinkErr != nil {
			err = fmt.Errorf("failed to store audit result: %w", sinkErr)
			result = nil
		}
	}

	finished := m.now().UTC()
	job.FinishedAt = &finished
	if err != nil {
		job.Status = types.JobError
		job.Error = err.Error()
		m.logger.Warn("audit failed", "job_id", job.ID, "site", job.SiteURL, "error", err)
	} else {
		job.Status = types.JobComplete
		job.ProgressPercent = 100
		m.logger.Info("audit complete", "job_id", job.ID, "site", job.SiteURL,
			"health_score", result.Summary.HealthScore)
	}
	m.publish(context.WithoutCancel(ctx), job)
	m.release(siteKey(job.SiteURL))

	return result, err
}

// publish saves the record and notifies subscribers. Store failures are
// logged and never interrupt the crawl.
func (m *Manager) publish(ctx context.Context, job *types.SiteAuditJob) {
	if err := m.store.SaveJob(ctx, job); err != nil {
		m.logger.Warn("failed to save job status", "job_id", job.ID, "error", err)
	}

	snapshot := *job
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subscribers[job.ID] {
		select {
		case ch <- snapshot:
		default:
		}
		if snapshot.Status.Terminal() {
			close(ch)
		}
	}
	if snapshot.Status.Terminal() {
		delete(m.subscribers, job.ID)
	}
}

func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.running, key)
}

// siteKey normalizes a site URL to its lowercase host so that one site cannot
// run concurrently under different spellings.
func siteKey(siteURL string) string {
	u, err := url.Parse(strings.TrimSpace(siteURL))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(siteURL))
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}
