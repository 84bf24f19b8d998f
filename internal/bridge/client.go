// Package bridge implements AI remediators: an HTTP client for the external
// AI bridge and a local Gemini-backed generator with the same interface.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/remediation"
	"github.com/jonathan/seo-auditor/internal/schemas"
	"github.com/jonathan/seo-auditor/internal/types"
)

// DefaultTimeout bounds a single bridge call.
const DefaultTimeout = 45 * time.Second

// TokenTTL is the lifetime of the bearer token sent with each request.
const TokenTTL = 5 * time.Minute

const maxResponseBytes = 1 << 20

// Claims are the JWT claims sent to the bridge. Subject is the site URL.
type Claims struct {
	IssueType string `json:"issue_type"`
	jwt.RegisteredClaims
}

// Request is the JSON body posted to the bridge.
type Request struct {
	Targets     []types.RemediationTarget `json:"targets"`
	Action      string                    `json:"action"`
	URL         string                    `json:"url"`
	IssueType   string                    `json:"issue_type"`
	Credentials *Credentials              `json:"credentials,omitempty"`
}

// Credentials are the site credentials forwarded to the bridge.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Response is the bridge response body.
type Response struct {
	Results []Result `json:"results"`
}

// Result is one entry of a bridge response.
type Result struct {
	Success   bool   `json:"success"`
	Value     string `json:"value"`
	Message   string `json:"message"`
	Reasoning string `json:"reasoning"`
}

// Client calls the external AI bridge.
type Client struct {
	endpoint   string
	secret     []byte
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout is used as is.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithClock overrides the token issue time source.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

// NewClient creates a bridge client. endpoint may be empty when every site
// in the registry carries its own bridge URL.
func NewClient(endpoint, secret string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		secret:     []byte(secret),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.New("bridge"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Remediate posts one fix request to the bridge and returns its first result.
func (c *Client) Remediate(ctx context.Context, req remediation.AIRequest) (*remediation.AIResult, error) {
	endpoint := c.endpoint
	if req.Site != nil && req.Site.BridgeURL != "" {
		endpoint = req.Site.BridgeURL
	}
	if endpoint == "" {
		return nil, &Error{Message: "no bridge URL configured"}
	}

	body := Request{
		Targets:   []types.RemediationTarget{req.Target},
		Action:    "update",
		URL:       req.URL,
		IssueType: req.IssueType,
	}
	if req.Username != "" || req.Password != "" {
		body.Credentials = &Credentials{Username: req.Username, Password: req.Password}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to encode request", Cause: err}
	}

	token, err := c.token(siteURL(req), req.IssueType)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to sign request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	start := c.now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("bridge unreachable", "url", endpoint, "issue_type", req.IssueType, "error", err)
		return nil, &Error{URL: endpoint, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{URL: endpoint, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("bridge returned error status", "url", endpoint, "status", resp.StatusCode)
		return nil, &Error{URL: endpoint, StatusCode: resp.StatusCode, Message: "non-success response"}
	}

	if err := schemas.Validate(schemas.BridgeResponse, data); err != nil {
		c.logger.Warn("bridge returned malformed body", "url", endpoint, "error", err)
		return nil, &Error{URL: endpoint, StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}

	var parsed Response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &Error{URL: endpoint, StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}

	first := parsed.Results[0]
	c.logger.Debug("bridge call complete", "url", endpoint, "issue_type", req.IssueType,
		"success", first.Success, "duration", c.now().Sub(start))

	return &remediation.AIResult{
		Success:   first.Success,
		Value:     first.Value,
		Message:   first.Message,
		Reasoning: first.Reasoning,
	}, nil
}

func (c *Client) token(subject, issueType string) (string, error) {
	now := c.now()
	claims := &Claims{
		IssueType: issueType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// siteURL is the configured site URL, or the origin of the page URL for
// unregistered sites.
func siteURL(req remediation.AIRequest) string {
	if req.Site != nil && req.Site.URL != "" {
		return req.Site.URL
	}
	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" {
		return req.URL
	}
	return u.Scheme + "://" + u.Host
}
