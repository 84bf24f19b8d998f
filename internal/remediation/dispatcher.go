package remediation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/types"
)

// AIRequest is what the dispatcher sends to an AI remediator.
type AIRequest struct {
	Target    types.RemediationTarget
	IssueType string
	URL       string
	Site      *config.SiteConfig
	Username  string
	Password  string
}

// AIResult is the first result returned by an AI remediator.
type AIResult struct {
	Success   bool
	Value     string
	Message   string
	Reasoning string
}

// AIRemediator generates remediation values. Implementations convert every
// transport or protocol failure into an error.
type AIRemediator interface {
	Remediate(ctx context.Context, req AIRequest) (*AIResult, error)
}

// route is one entry of the fixed dispatch table.
type route struct {
	// useAI tries the AI remediator first.
	useAI bool
	// persist is the metadata field an AI value is written to locally; empty
	// means the remote result is reported as is.
	persist Field
	// manual is the rule-based fallback, nil for AI-only issue types.
	manual handlerFunc
}

// Dispatcher routes issue types to fix strategies.
type Dispatcher struct {
	routes   map[string]route
	resolver *TargetResolver
	adapter  *MetadataAdapter
	ai       AIRemediator
	sites    *config.SiteRegistry
	secrets  config.Secrets
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithAI enables the AI-first path.
func WithAI(ai AIRemediator) DispatcherOption {
	return func(d *Dispatcher) { d.ai = ai }
}

// WithSecrets sets the collaborator used to decrypt site credentials.
func WithSecrets(s config.Secrets) DispatcherOption {
	return func(d *Dispatcher) { d.secrets = s }
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher builds the dispatch table over the given handlers.
func NewDispatcher(resolver *TargetResolver, handlers *Handlers, adapter *MetadataAdapter, sites *config.SiteRegistry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		resolver: resolver,
		adapter:  adapter,
		sites:    sites,
		secrets:  config.PlainSecrets{},
		logger:   logging.New("remediation"),
	}
	d.routes = map[string]route{
		"title_presence":            {useAI: true, persist: FieldTitle, manual: handlers.FixTitle},
		"title_length":              {useAI: true, persist: FieldTitle, manual: handlers.FixTitle},
		"meta_description_presence": {useAI: true, persist: FieldDescription, manual: handlers.FixDescription},
		"meta_description_length":   {useAI: true, persist: FieldDescription, manual: handlers.FixDescription},
		"h1_presence":               {manual: handlers.FixH1},
		"multiple_h1s":              {manual: handlers.FixMultipleH1s},
		"internal_links":            {useAI: true},
		"content_length":            {useAI: true},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Supports reports whether an issue type has a registered strategy.
func (d *Dispatcher) Supports(issueType string) bool {
	_, ok := d.routes[issueType]
	return ok
}

// Dispatch applies the fix for issueType to target.
func (d *Dispatcher) Dispatch(ctx context.Context, issueType string, target types.RemediationTarget) types.FixResult {
	result := types.FixResult{IssueType: issueType, URL: target.URL, Target: &target, Source: types.SourceNative}

	r, ok := d.routes[issueType]
	if !ok {
		result.Message = ErrUnsupported.Error()
		return result
	}

	var aiFailure string
	if r.useAI {
		if d.aiEnabled(target.URL) {
			ai, err := d.dispatchAI(ctx, issueType, target, r)
			if err == nil {
				d.logger.Info("fix applied", "issue_type", issueType, "url", target.URL, "source", types.SourceAIBridge)
				return ai
			}
			d.logger.Warn("AI remediation failed", "issue_type", issueType, "url", target.URL, "error", err)
			aiFailure = err.Error()
			if r.manual == nil {
				result.Source = types.SourceAIBridge
				result.Message = aiFailure
				return result
			}
		} else if r.manual == nil {
			result.Source = types.SourceAIBridge
			result.Message = "AI bridge is not enabled for this site"
			return result
		}
	}

	value, message, err := r.manual(ctx, target)
	if err != nil {
		result.Message = err.Error()
		if aiFailure != "" {
			result.Message = fmt.Sprintf("AI bridge failed (%s); fallback failed: %v", aiFailure, err)
		}
		d.logger.Warn("fix failed", "issue_type", issueType, "url", target.URL, "error", err)
		return result
	}

	result.Success = true
	result.Value = value
	result.Message = message
	if aiFailure != "" {
		result.Message = fmt.Sprintf("%s (AI bridge unavailable: %s)", message, aiFailure)
	}
	d.logger.Info("fix applied", "issue_type", issueType, "url", target.URL, "source", types.SourceNative)
	return result
}

// dispatchAI calls the remediator and persists returned metadata locally
// for local targets.
// Any failure, including an unsuccessful remote result, is returned as an error
// carrying the remote reasoning.
func (d *Dispatcher) dispatchAI(ctx context.Context, issueType string, target types.RemediationTarget, r route) (types.FixResult, error) {
	site, _ := d.sites.Lookup(target.URL)
	req := AIRequest{Target: target, IssueType: issueType, URL: target.URL, Site: site}
	if site != nil {
		user, pass, err := site.Credentials(d.secrets)
		if err != nil {
			return types.FixResult{}, err
		}
		req.Username, req.Password = user, pass
	}

	res, err := d.ai.Remediate(ctx, req)
	if err != nil {
		return types.FixResult{}, err
	}
	if !res.Success {
		reason := res.Reasoning
		if reason == "" {
			reason = res.Message
		}
		if reason == "" {
			reason = "remote remediation unsuccessful"
		}
		return types.FixResult{}, errors.New(reason)
	}

	if r.persist != "" {
		if res.Value == "" {
			return types.FixResult{}, errors.New("AI bridge returned an empty value")
		}
	}
	// Remote target ids address the remote platform, which stored the value
	// itself; the local store has no row for them.
	if r.persist != "" && !target.Remote {
		if err := d.adapter.Write(ctx, target, r.persist, res.Value); err != nil {
			return types.FixResult{}, fmt.Errorf("failed to persist AI value: %w", err)
		}
	}

	message := res.Message
	if message == "" {
		message = "Fix applied by AI bridge"
	}
	return types.FixResult{
		IssueType: issueType,
		URL:       target.URL,
		Target:    &target,
		Success:   true,
		Message:   message,
		Value:     res.Value,
		Source:    types.SourceAIBridge,
	}, nil
}

func (d *Dispatcher) aiEnabled(rawURL string) bool {
	if d.ai == nil {
		return false
	}
	if site, ok := d.sites.Lookup(rawURL); ok {
		return site.BridgeEnabled
	}
	return true
}

// FixBatch resolves and fixes each URL independently. It returns exactly one
// result per input URL, in input order.
func (d *Dispatcher) FixBatch(ctx context.Context, issueType string, urls []string) []types.FixResult {
	results := make([]types.FixResult, 0, len(urls))
	supported := d.Supports(issueType)

	for _, u := range urls {
		if !supported {
			results = append(results, types.FixResult{IssueType: issueType, URL: u, Message: ErrUnsupported.Error(), Source: types.SourceNative})
			continue
		}

		target, err := d.resolver.Resolve(ctx, u)
		if err != nil {
			d.logger.Info("target not resolved", "url", u, "error", err)
			results = append(results, types.FixResult{IssueType: issueType, URL: u, Message: err.Error(), Source: types.SourceNative})
			continue
		}

		res := d.Dispatch(ctx, issueType, *target)
		res.URL = u
		results = append(results, res)
	}
	return results
}
