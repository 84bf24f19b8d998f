package remediation

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	titleShort        = 30
	titleMax          = 60
	titleTruncateOver = 45
	titleTruncateTo   = 42

	descriptionTruncateOver = 155
	descriptionTruncateTo   = 152

	ellipsis = "..."
)

// ManualTitle derives a title without generative help. Short titles gain a
// " | siteName" suffix when the result still fits in 60 characters; long
// titles are cut to 42 characters plus an ellipsis.
func ManualTitle(source, siteName string) string {
	source = strings.TrimSpace(source)
	n := utf8.RuneCountInString(source)
	switch {
	case n < titleShort:
		if siteName == "" {
			return source
		}
		candidate := source + " | " + siteName
		if utf8.RuneCountInString(candidate) <= titleMax {
			return candidate
		}
		return source
	case n > titleTruncateOver:
		return truncateRunes(source, titleTruncateTo) + ellipsis
	default:
		return source
	}
}

// ManualDescription normalizes text for use as a meta description.
func ManualDescription(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > descriptionTruncateOver {
		return truncateRunes(text, descriptionTruncateTo) + ellipsis
	}
	return text
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// CountH1 counts H1 start tags in a markup fragment.
func CountH1(body string) int {
	z := html.NewTokenizer(strings.NewReader(body))
	count := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return count
		case html.StartTagToken, html.SelfClosingTagToken:
			if z.Token().DataAtom == atom.H1 {
				count++
			}
		}
	}
}

// DowngradeH1s rewrites every H1 element in body to H2, leaving all other
// markup byte-for-byte unchanged. It returns the number of H1s rewritten.
func DowngradeH1s(body string) (string, int, error) {
	z := html.NewTokenizer(strings.NewReader(body))
	var sb strings.Builder
	sb.Grow(len(body))
	count := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", 0, err
			}
			return sb.String(), count, nil
		case html.StartTagToken, html.EndTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			if tok.DataAtom != atom.H1 {
				sb.WriteString(raw)
				continue
			}
			if tt == html.StartTagToken {
				count++
			}
			tok.DataAtom = atom.H2
			tok.Data = "h2"
			sb.WriteString(tok.String())
		default:
			sb.Write(z.Raw())
		}
	}
}

// CanonicalH1 renders an H1 element for a title.
func CanonicalH1(title string) string {
	return "<h1>" + html.EscapeString(strings.TrimSpace(title)) + "</h1>\n"
}
