package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/redis/go-redis/v9"

	"github.com/jonathan/seo-auditor/internal/audit"
	"github.com/jonathan/seo-auditor/internal/bridge"
	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/content"
	"github.com/jonathan/seo-auditor/internal/db"
	"github.com/jonathan/seo-auditor/internal/fetch"
	"github.com/jonathan/seo-auditor/internal/jobs"
	"github.com/jonathan/seo-auditor/internal/llm"
	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/queue"
	"github.com/jonathan/seo-auditor/internal/remediation"
	"github.com/jonathan/seo-auditor/internal/sitemap"
	"github.com/jonathan/seo-auditor/internal/storage"
)

// app holds the collaborators built from configuration. Connections are
// opened lazily and released by Close.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	fetcher  *fetch.Fetcher
	database *db.DB
	redis    *redis.Client
	aws      *aws.Config
	closers  []func()
}

func newApp(cfg *config.Config) *app {
	return &app{
		cfg:    cfg,
		logger: logging.New("seo_agent"),
		fetcher: fetch.New(&fetch.Options{
			Timeout:            cfg.FetchTimeout(),
			UserAgent:          cfg.UserAgent,
			InsecureSkipVerify: true,
		}),
	}
}

// Close releases every opened connection in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) db(ctx context.Context) (*db.DB, error) {
	if a.database != nil {
		return a.database, nil
	}
	if a.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url (DATABASE_URL) is required")
	}
	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.database = database
	a.closers = append(a.closers, database.Close)
	return database, nil
}

func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.RedisAddr, err)
	}
	a.redis = client
	a.closers = append(a.closers, func() { _ = client.Close() })
	return client, nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	if a.aws != nil {
		return *a.aws, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	a.aws = &cfg
	return cfg, nil
}

// stores builds the job-status store and the result sink. Several sinks are
// combined into a MultiSink. The returned ResultStore serves
// GET /audits/{id}/result from the first configured sink and is nil when
// results are not kept anywhere readable.
func (a *app) stores(ctx context.Context) (jobs.StatusStore, jobs.ResultSink, jobs.ResultStore, error) {
	var status jobs.StatusStore
	var memory *jobs.MemoryStore

	switch a.cfg.StatusStore {
	case config.StoreRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		status = jobs.NewRedisStore(client, jobs.DefaultJobTTL)
	case config.StorePostgres:
		database, err := a.db(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		status = database
	default:
		memory = jobs.NewMemoryStore()
		status = memory
	}

	var sinks jobs.MultiSink
	var results jobs.ResultStore
	for _, name := range a.cfg.ResultSinks() {
		switch name {
		case config.SinkPostgres:
			database, err := a.db(ctx)
			if err != nil {
				return nil, nil, nil, err
			}
			sinks = append(sinks, database)
			if results == nil {
				results = database
			}
		case config.SinkS3:
			awsCfg, err := a.awsConfig(ctx)
			if err != nil {
				return nil, nil, nil, err
			}
			archive := storage.NewArchive(storage.NewS3Client(awsCfg), a.cfg.S3Bucket, storage.DefaultPrefix)
			sinks = append(sinks, archive)
			if results == nil {
				results = archive
			}
		}
	}

	switch {
	case len(sinks) == 1:
		return status, sinks[0], results, nil
	case len(sinks) > 1:
		return status, sinks, results, nil
	case memory != nil:
		return status, memory, memory, nil
	default:
		return status, jobs.NoopSink{}, nil, nil
	}
}

// orchestrator builds the crawl pipeline.
func (a *app) orchestrator() *audit.Orchestrator {
	resolver := sitemap.NewResolver(a.fetcher, sitemap.WithLogger(logging.New("sitemap")))
	return audit.NewOrchestrator(resolver, a.fetcher, audit.WithDelay(a.cfg.CrawlDelay()))
}

// manager builds the job manager over the configured stores.
func (a *app) manager(ctx context.Context) (*jobs.Manager, jobs.ResultStore, error) {
	status, sink, results, err := a.stores(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jobs.NewManager(a.orchestrator(), status, sink), results, nil
}

func (a *app) sites() (*config.SiteRegistry, error) {
	if a.cfg.SitesFile == "" {
		return config.NewSiteRegistry(nil)
	}
	sites, err := config.LoadSiteRegistry(a.cfg.SitesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load sites: %w", err)
	}
	return sites, nil
}

// aiRemediator selects the remote bridge when configured, otherwise a local
// Gemini remediator when an API key is present. It returns nil when neither is.
func (a *app) aiRemediator(ctx context.Context) (remediation.AIRemediator, error) {
	if a.cfg.BridgeURL != "" {
		return bridge.NewClient(a.cfg.BridgeURL, a.cfg.BridgeSecret, bridge.WithTimeout(a.cfg.BridgeTimeout())), nil
	}
	if a.cfg.GeminiAPIKey == "" {
		return nil, nil
	}
	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig().WithModel(a.cfg.GeminiModel), a.cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	return bridge.NewGeminiRemediator(client, a.fetcher, nil), nil
}

// dispatcher builds the remediation path over the Postgres content store.
func (a *app) dispatcher(ctx context.Context) (*remediation.Dispatcher, error) {
	database, err := a.db(ctx)
	if err != nil {
		return nil, err
	}
	sites, err := a.sites()
	if err != nil {
		return nil, err
	}
	secrets, err := config.NewSecrets(a.cfg.SecretsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets: %w", err)
	}

	conventions, err := remediation.DetectConventions(ctx, database)
	if err != nil {
		return nil, err
	}
	a.logger.Info("metadata conventions detected", "conventions", conventions)

	adapter := remediation.NewMetadataAdapter(database, conventions)
	directory := content.NewDirectory(&http.Client{Timeout: a.cfg.FetchTimeout()}, secrets)
	resolver := remediation.NewTargetResolver(database, directory, sites)
	handlers := remediation.NewHandlers(database, adapter, sites)

	opts := []remediation.DispatcherOption{remediation.WithSecrets(secrets)}
	ai, err := a.aiRemediator(ctx)
	if err != nil {
		return nil, err
	}
	if ai != nil {
		opts = append(opts, remediation.WithAI(ai))
	}
	return remediation.NewDispatcher(resolver, handlers, adapter, sites, opts...), nil
}

// consumer builds the SQS consumer, or returns nil when no queue is configured.
func (a *app) consumer(ctx context.Context, runner queue.AuditRunner) (*queue.Consumer, error) {
	if a.cfg.SQSQueueURL == "" {
		return nil, nil
	}
	awsCfg, err := a.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return queue.NewConsumer(queue.NewSQSClient(awsCfg), a.cfg.SQSQueueURL, runner), nil
}
