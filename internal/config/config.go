// Package config provides configuration loading and validation for the auditor.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Status store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Result sink backends.
const (
	SinkNone     = "none"
	SinkPostgres = "postgres"
	SinkS3       = "s3"
)

// Config represents the service configuration loaded from a JSON or YAML file
// and overridden by environment variables. All fields are optional.
type Config struct {
	// Storage. StatusStore is memory, redis or postgres. ResultSink is none, or a
	// comma-separated list of postgres and s3.
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	RedisAddr   string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	StatusStore string `json:"status_store,omitempty" yaml:"status_store,omitempty"`
	ResultSink  string `json:"result_sink,omitempty" yaml:"result_sink,omitempty"`
	S3Bucket    string `json:"s3_bucket,omitempty" yaml:"s3_bucket,omitempty"`
	SQSQueueURL string `json:"sqs_queue_url,omitempty" yaml:"sqs_queue_url,omitempty"`

	// Server. API auth is enabled when JWTSecret is set.
	Port      int    `json:"port,omitempty" yaml:"port,omitempty"`
	JWTSecret string `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`

	// Crawl. MaxURLs of 0 means no limit.
	CrawlDelayMS        int    `json:"crawl_delay_ms,omitempty" yaml:"crawl_delay_ms,omitempty"`
	FetchTimeoutSeconds int    `json:"fetch_timeout_seconds,omitempty" yaml:"fetch_timeout_seconds,omitempty"`
	UserAgent           string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	MaxURLs             int    `json:"max_urls,omitempty" yaml:"max_urls,omitempty"`

	// Remediation. SecretsKey is the passphrase for stored site credentials.
	BridgeURL            string `json:"bridge_url,omitempty" yaml:"bridge_url,omitempty"`
	BridgeSecret         string `json:"bridge_secret,omitempty" yaml:"bridge_secret,omitempty"`
	BridgeTimeoutSeconds int    `json:"bridge_timeout_seconds,omitempty" yaml:"bridge_timeout_seconds,omitempty"`
	GeminiAPIKey         string `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty"`
	GeminiModel          string `json:"gemini_model,omitempty" yaml:"gemini_model,omitempty"`
	SitesFile            string `json:"sites_file,omitempty" yaml:"sites_file,omitempty"`
	SecretsKey           string `json:"secrets_key,omitempty" yaml:"secrets_key,omitempty"`

	// Logging
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		StatusStore:          StoreMemory,
		ResultSink:           SinkNone,
		Port:                 8080,
		CrawlDelayMS:         500,
		FetchTimeoutSeconds:  30,
		BridgeTimeoutSeconds: 45,
		GeminiModel:          "gemini-1.5-flash",
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables when they are set.
func (c *Config) ApplyEnv() error {
	strVars := map[string]*string{
		"DATABASE_URL":   &c.DatabaseURL,
		"REDIS_ADDR":     &c.RedisAddr,
		"STATUS_STORE":   &c.StatusStore,
		"RESULT_SINK":    &c.ResultSink,
		"S3_BUCKET":      &c.S3Bucket,
		"SQS_QUEUE_URL":  &c.SQSQueueURL,
		"JWT_SECRET":     &c.JWTSecret,
		"BRIDGE_URL":     &c.BridgeURL,
		"BRIDGE_SECRET":  &c.BridgeSecret,
		"GEMINI_API_KEY": &c.GeminiAPIKey,
		"SITES_FILE":     &c.SitesFile,
		"SECRETS_KEY":    &c.SecretsKey,
		"LOG_LEVEL":      &c.LogLevel,
		"LOG_FORMAT":     &c.LogFormat,
	}
	for name, field := range strVars {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	intVars := map[string]*int{
		"PORT":           &c.Port,
		"CRAWL_DELAY_MS": &c.CrawlDelayMS,
		"MAX_URLS":       &c.MaxURLs,
	}
	for name, field := range intVars {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", name, err)
		}
		*field = n
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	// Validate numeric ranges
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.CrawlDelayMS < 0 {
		return fmt.Errorf("config error: 'crawl_delay_ms' must be non-negative")
	}
	if c.FetchTimeoutSeconds < 0 || c.BridgeTimeoutSeconds < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}
	if c.MaxURLs < 0 {
		return fmt.Errorf("config error: 'max_urls' must be non-negative")
	}

	// Validate backend selection against the settings each backend needs
	switch c.StatusStore {
	case "", StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("config error: status_store 'redis' requires 'redis_addr'")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: status_store 'postgres' requires 'database_url'")
		}
	default:
		return fmt.Errorf("config error: unknown status_store %q", c.StatusStore)
	}

	for _, sink := range c.ResultSinks() {
		switch sink {
		case SinkNone:
		case SinkPostgres:
			if c.DatabaseURL == "" {
				return fmt.Errorf("config error: result_sink 'postgres' requires 'database_url'")
			}
		case SinkS3:
			if c.S3Bucket == "" {
				return fmt.Errorf("config error: result_sink 's3' requires 's3_bucket'")
			}
		default:
			return fmt.Errorf("config error: unknown result_sink %q", sink)
		}
	}

	if c.BridgeURL != "" && c.BridgeSecret == "" {
		return fmt.Errorf("config error: 'bridge_url' requires 'bridge_secret'")
	}

	if c.SitesFile != "" {
		if _, err := os.Stat(c.SitesFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: sites file not found: %s", c.SitesFile)
		}
	}

	return nil
}

// ResultSinks splits ResultSink into its backends, dropping blanks and
// duplicates. "none" alongside other backends is ignored.
func (c *Config) ResultSinks() []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(c.ResultSink, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) > 1 {
		filtered := out[:0]
		for _, name := range out {
			if name != SinkNone {
				filtered = append(filtered, name)
			}
		}
		out = filtered
	}
	return out
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.RedisAddr, defaults.RedisAddr)
	mergeString(&result.StatusStore, defaults.StatusStore)
	mergeString(&result.ResultSink, defaults.ResultSink)
	mergeString(&result.S3Bucket, defaults.S3Bucket)
	mergeString(&result.SQSQueueURL, defaults.SQSQueueURL)
	mergeString(&result.JWTSecret, defaults.JWTSecret)
	mergeString(&result.UserAgent, defaults.UserAgent)
	mergeString(&result.BridgeURL, defaults.BridgeURL)
	mergeString(&result.BridgeSecret, defaults.BridgeSecret)
	mergeString(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	mergeString(&result.GeminiModel, defaults.GeminiModel)
	mergeString(&result.SitesFile, defaults.SitesFile)
	mergeString(&result.SecretsKey, defaults.SecretsKey)
	mergeString(&result.LogLevel, defaults.LogLevel)
	mergeString(&result.LogFormat, defaults.LogFormat)

	// Int fields: use default if zero
	mergeInt(&result.Port, defaults.Port)
	mergeInt(&result.CrawlDelayMS, defaults.CrawlDelayMS)
	mergeInt(&result.FetchTimeoutSeconds, defaults.FetchTimeoutSeconds)
	mergeInt(&result.BridgeTimeoutSeconds, defaults.BridgeTimeoutSeconds)
	mergeInt(&result.MaxURLs, defaults.MaxURLs)

	return result
}

// CrawlDelay is the pause between page fetches.
func (c *Config) CrawlDelay() time.Duration {
	return time.Duration(c.CrawlDelayMS) * time.Millisecond
}

// FetchTimeout is the per-page HTTP timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// BridgeTimeout is the AI bridge request timeout.
func (c *Config) BridgeTimeout() time.Duration {
	return time.Duration(c.BridgeTimeoutSeconds) * time.Second
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}
