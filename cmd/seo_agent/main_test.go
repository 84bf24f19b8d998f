package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/db"
	"github.com/jonathan/seo-auditor/internal/jobs"
	"github.com/jonathan/seo-auditor/internal/remediation"
	"github.com/jonathan/seo-auditor/internal/server"
	"github.com/jonathan/seo-auditor/internal/storage"
)

// clearEnv blanks every variable ApplyEnv reads so a local .env cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DATABASE_URL", "REDIS_ADDR", "STATUS_STORE", "RESULT_SINK", "S3_BUCKET",
		"SQS_QUEUE_URL", "JWT_SECRET", "BRIDGE_URL", "BRIDGE_SECRET", "GEMINI_API_KEY",
		"SITES_FILE", "SECRETS_KEY", "LOG_LEVEL", "LOG_FORMAT", "PORT", "CRAWL_DELAY_MS", "MAX_URLS",
	} {
		t.Setenv(name, "")
	}
}

func withConfigPath(t *testing.T, path string) {
	t.Helper()
	prev := configPath
	configPath = path
	t.Cleanup(func() { configPath = prev })
}

func TestLoadConfig_FileEnvAndDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\nmax_urls: 25\ncrawl_delay_ms: 100\n"), 0o600))
	withConfigPath(t, path)
	t.Setenv("PORT", "9090")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port, "environment overrides the file")
	assert.Equal(t, 25, cfg.MaxURLs)
	assert.Equal(t, 100*time.Millisecond, cfg.CrawlDelay())
	assert.Equal(t, config.StoreMemory, cfg.StatusStore, "defaults fill unset fields")
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout())
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	withConfigPath(t, "")
	t.Setenv("STATUS_STORE", "redis")

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis_addr")
}

func TestApp_MemoryStoresServeResults(t *testing.T) {
	cfg := config.Defaults()
	a := newApp(&cfg)
	defer a.Close()

	status, sink, results, err := a.stores(context.Background())
	require.NoError(t, err)

	memory, ok := status.(*jobs.MemoryStore)
	require.True(t, ok)
	assert.Same(t, memory, sink)
	assert.Same(t, memory, results)
}

func TestApp_SeveralSinksFanOut(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := config.Defaults()
	cfg.ResultSink = "postgres,s3"
	cfg.S3Bucket = "audits"
	a := newApp(&cfg)
	database := &db.DB{}
	a.database = database

	_, sink, results, err := a.stores(context.Background())
	require.NoError(t, err)

	multi, ok := sink.(jobs.MultiSink)
	require.True(t, ok, "expected MultiSink, got %T", sink)
	require.Len(t, multi, 2)
	assert.Same(t, database, multi[0])
	_, isArchive := multi[1].(*storage.Archive)
	assert.True(t, isArchive)
	assert.Same(t, database, results, "results are read from the first sink")
}

func TestApp_DispatcherRequiresDatabase(t *testing.T) {
	cfg := config.Defaults()
	a := newApp(&cfg)
	defer a.Close()

	_, err := a.dispatcher(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestApp_NoAIWithoutBridgeOrKey(t *testing.T) {
	cfg := config.Defaults()
	a := newApp(&cfg)

	ai, err := a.aiRemediator(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ai)
}

func TestApp_NoConsumerWithoutQueue(t *testing.T) {
	cfg := config.Defaults()
	a := newApp(&cfg)

	consumer, err := a.consumer(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, consumer)
}

func TestResolveURLs(t *testing.T) {
	tests := []struct {
		name    string
		site    string
		args    []string
		want    []string
		wantErr string
	}{
		{
			name: "absolute urls pass through",
			args: []string{"https://example.com/a/", " https://example.com/b/ "},
			want: []string{"https://example.com/a/", "https://example.com/b/"},
		},
		{
			name: "relative paths join the site",
			site: "https://example.com/",
			args: []string{"/about/", "category/news/"},
			want: []string{"https://example.com/about/", "https://example.com/category/news/"},
		},
		{
			name:    "relative path without site",
			args:    []string{"/about/"},
			wantErr: "requires --site",
		},
		{
			name:    "invalid site",
			site:    "example.com",
			args:    []string{"/about/"},
			wantErr: "invalid --site",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveURLs(tt.site, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenCommand(t *testing.T) {
	clearEnv(t)
	withConfigPath(t, "")
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--subject", "ops", "--ttl", "1h"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	subject, err := server.NewJWTService("cli-secret", time.Hour).ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops", subject)
}

func TestFixCmd_IssueExampleIsDispatchable(t *testing.T) {
	usage := fixCmd.Flag("issue").Usage
	_, rest, ok := strings.Cut(usage, "e.g. ")
	require.True(t, ok, usage)
	example := strings.Fields(rest)[0]

	d := remediation.NewDispatcher(nil, remediation.NewHandlers(nil, nil, nil), nil, nil)
	assert.True(t, d.Supports(example), "issue example %q has no fix strategy", example)
}
