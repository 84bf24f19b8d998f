package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"database_url": "postgres://localhost/seo",
		"status_store": "postgres",
		"port": 9090,
		"crawl_delay_ms": 250,
		"max_urls": 40
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://localhost/seo", cfg.DatabaseURL)
	assert.Equal(t, StorePostgres, cfg.StatusStore)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.CrawlDelay())
	assert.Equal(t, 40, cfg.MaxURLs)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "redis_addr: localhost:6379\nstatus_store: redis\nbridge_timeout_seconds: 10\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, StoreRedis, cfg.StatusStore)
	assert.Equal(t, 10*time.Second, cfg.BridgeTimeout())
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "port: [unterminated")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/seo")
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := &Config{DatabaseURL: "postgres://file/seo", Port: 8080}
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "postgres://env/seo", cfg.DatabaseURL)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestApplyEnv_InvalidInt(t *testing.T) {
	t.Setenv("MAX_URLS", "lots")

	cfg := &Config{}
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_URLS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", Defaults(), ""},
		{"negative delay", Config{CrawlDelayMS: -1}, "crawl_delay_ms"},
		{"negative max urls", Config{MaxURLs: -5}, "max_urls"},
		{"bad port", Config{Port: 70000}, "port"},
		{"redis without addr", Config{StatusStore: StoreRedis}, "redis_addr"},
		{"postgres store without url", Config{StatusStore: StorePostgres}, "database_url"},
		{"unknown store", Config{StatusStore: "etcd"}, "unknown status_store"},
		{"s3 sink without bucket", Config{ResultSink: SinkS3}, "s3_bucket"},
		{"unknown sink", Config{ResultSink: "kafka"}, "unknown result_sink"},
		{"sink list checks every entry", Config{ResultSink: "postgres,s3", DatabaseURL: "postgres://x"}, "s3_bucket"},
		{"sink list", Config{ResultSink: "postgres, s3", DatabaseURL: "postgres://x", S3Bucket: "audits"}, ""},
		{"bridge without secret", Config{BridgeURL: "https://bridge.example.com"}, "bridge_secret"},
		{"missing sites file", Config{SitesFile: "/nonexistent/sites.yaml"}, "sites file not found"},
		{"redis with addr", Config{StatusStore: StoreRedis, RedisAddr: "localhost:6379"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResultSinks(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"none", []string{"none"}},
		{"postgres", []string{"postgres"}},
		{" Postgres , s3 ,postgres", []string{"postgres", "s3"}},
		{"none,s3", []string{"s3"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := Config{ResultSink: tt.in}
			assert.Equal(t, tt.want, cfg.ResultSinks())
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{Port: 9000, LogLevel: "debug"}

	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, "debug", merged.LogLevel)
	assert.Equal(t, 500*time.Millisecond, merged.CrawlDelay())
	assert.Equal(t, 30*time.Second, merged.FetchTimeout())
	assert.Equal(t, StoreMemory, merged.StatusStore)
	assert.Equal(t, SinkNone, merged.ResultSink)
	// original untouched
	assert.Empty(t, cfg.StatusStore)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := &Config{RedisAddr: "localhost:6379"}
	merged := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, *cfg, merged)
}
