package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/seo-auditor/internal/config"
	"github.com/jonathan/seo-auditor/internal/fetch"
	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/remediation"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeLLM) Model() string { return "gemini-test" }
func (f *fakeLLM) Close() error  { return nil }

type fakeFetcher struct {
	html string
	err  error
}

func (f fakeFetcher) Fetch(_ context.Context, u string) (*fetch.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fetch.Result{URL: u, HTML: f.html, StatusCode: 200}, nil
}

const samplePage = `<html><head><title>Sourdough</title></head>
<body><nav>Home Shop</nav><h1>Sourdough</h1><p>Feed your starter   twice a day.</p><script>track()</script></body></html>`

func TestGeminiRemediate_Title(t *testing.T) {
	model := &fakeLLM{response: `{"value":"  Sourdough Starter Care Guide | Bakery ","reasoning":"adds topic"}`}
	g := NewGeminiRemediator(model, fakeFetcher{html: samplePage}, logging.Discard())

	req := remediation.AIRequest{
		IssueType: "title_length",
		URL:       "https://bakery.test/sourdough/",
		Site:      &config.SiteConfig{Name: "Bakery"},
	}
	res, err := g.Remediate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Sourdough Starter Care Guide | Bakery", res.Value)
	assert.Equal(t, "adds topic", res.Reasoning)

	require.Len(t, model.prompts, 1)
	prompt := model.prompts[0]
	assert.Contains(t, prompt, "Current title: Sourdough")
	assert.Contains(t, prompt, "Feed your starter twice a day.")
	assert.Contains(t, prompt, "| Bakery")
	assert.NotContains(t, prompt, "track()")
	assert.NotContains(t, prompt, "Home Shop")
}

func TestGeminiRemediate_DescriptionUsesHostWithoutSite(t *testing.T) {
	model := &fakeLLM{response: `{"value":"Learn to keep a sourdough starter healthy with a simple twice-daily feeding routine."}`}
	g := NewGeminiRemediator(model, fakeFetcher{html: samplePage}, logging.Discard())

	res, err := g.Remediate(context.Background(), remediation.AIRequest{IssueType: "meta_description_presence", URL: "https://www.bakery.test/sourdough/"})
	require.NoError(t, err)
	assert.Contains(t, res.Value, "sourdough starter")
	assert.Equal(t, "Generated by gemini-test", res.Message)
}

func TestGeminiRemediate_RefusesContentIssues(t *testing.T) {
	g := NewGeminiRemediator(&fakeLLM{}, fakeFetcher{}, logging.Discard())

	for _, issue := range []string{"internal_links", "content_length"} {
		_, err := g.Remediate(context.Background(), remediation.AIRequest{IssueType: issue, URL: "https://a.test/"})
		var bErr *Error
		require.ErrorAs(t, err, &bErr, issue)
		assert.Contains(t, err.Error(), "requires the remote bridge")
		assert.Equal(t, "https://a.test/", bErr.URL)
		assert.Equal(t, "gemini-test", bErr.Model)
		assert.Contains(t, err.Error(), "AI model gemini-test for https://a.test/")
	}
}

func TestGeminiRemediate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		model   *fakeLLM
		fetcher fakeFetcher
		wantMsg string
	}{
		{"fetch failure", &fakeLLM{}, fakeFetcher{err: errors.New("timeout")}, "failed to fetch page"},
		{"generation failure", &fakeLLM{err: errors.New("quota")}, fakeFetcher{html: samplePage}, "generation failed"},
		{"empty value", &fakeLLM{response: `{"value":""}`}, fakeFetcher{html: samplePage}, "malformed generation"},
		{"not json", &fakeLLM{response: `Sure! Here is a title.`}, fakeFetcher{html: samplePage}, "malformed generation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGeminiRemediator(tt.model, tt.fetcher, logging.Discard())
			_, err := g.Remediate(context.Background(), remediation.AIRequest{IssueType: "title_presence", URL: "https://a.test/"})
			var bErr *Error
			require.ErrorAs(t, err, &bErr)
			assert.Equal(t, tt.wantMsg, bErr.Message)
			assert.Equal(t, "https://a.test/", bErr.URL)
			assert.Equal(t, "gemini-test", bErr.Model)
		})
	}
}

func TestPageContextTruncates(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("word ", 2000) + "</p></body></html>"
	_, text := pageContext(long)
	assert.Equal(t, maxPromptText, len([]rune(text)))
}
