package bridge

import "fmt"

// Error reports that the AI bridge could not produce a usable result:
// the host was unreachable, answered with a non-2xx status, or returned a
// body that failed schema validation. Errors from a local model carry the
// model name and the page URL instead of an endpoint.
type Error struct {
	URL        string
	Model      string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	source := "AI bridge " + e.URL
	if e.Model != "" {
		source = fmt.Sprintf("AI model %s for %s", e.Model, e.URL)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", source, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", source, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
