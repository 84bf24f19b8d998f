package remediation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualTitle(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		site     string
		expected string
	}{
		{"short gains suffix", "About Us", "Example Shop", "About Us | Example Shop"},
		{"short suffix would overflow", strings.Repeat("a", 29), strings.Repeat("s", 29), strings.Repeat("a", 29)},
		{"short suffix exactly fits", strings.Repeat("a", 27), strings.Repeat("s", 30), strings.Repeat("a", 27) + " | " + strings.Repeat("s", 30)},
		{"short without site name", "About", "", "About"},
		{"mid length unchanged", strings.Repeat("m", 45), "Site", strings.Repeat("m", 45)},
		{"boundary 30 unchanged", strings.Repeat("m", 30), "Site", strings.Repeat("m", 30)},
		{"long truncated", strings.Repeat("l", 46), "Site", strings.Repeat("l", 42) + "..."},
		{"trims whitespace", "  Padded Title  ", "", "Padded Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ManualTitle(tt.source, tt.site))
		})
	}
}

func TestManualTitle_TruncatesByCharacter(t *testing.T) {
	got := ManualTitle(strings.Repeat("ü", 50), "")
	assert.Equal(t, 45, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestManualDescription(t *testing.T) {
	assert.Equal(t, "one two three", ManualDescription("  one\n\ttwo   three "))

	exact := strings.Repeat("d", 155)
	assert.Equal(t, exact, ManualDescription(exact))

	long := ManualDescription(strings.Repeat("d", 156))
	assert.Equal(t, strings.Repeat("d", 152)+"...", long)
}

func TestCountH1(t *testing.T) {
	assert.Equal(t, 0, CountH1("<p>no heading</p>"))
	assert.Equal(t, 1, CountH1(`<H1 class="x">Title</H1>`))
	assert.Equal(t, 2, CountH1("<h1>a</h1><div><h1>b</h1></div><h2>c</h2>"))
	assert.Equal(t, 0, CountH1(`<script>var s = "<h1>";</script>`))
}

func TestDowngradeH1s(t *testing.T) {
	body := `<p>intro &amp; more</p><h1 class="big">One</h1><h2>Sub</h2><H1>Two</H1>`

	out, n, err := DowngradeH1s(body)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, `<p>intro &amp; more</p><h2 class="big">One</h2><h2>Sub</h2><h2>Two</h2>`, out)
	assert.Equal(t, 0, CountH1(out))
}

func TestDowngradeH1s_NoH1(t *testing.T) {
	body := "<p>plain <b>text</b></p>"
	out, n, err := DowngradeH1s(body)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, body, out)
}

func TestCanonicalH1(t *testing.T) {
	assert.Equal(t, "<h1>Fish &amp; Chips</h1>\n", CanonicalH1(" Fish & Chips "))
}
