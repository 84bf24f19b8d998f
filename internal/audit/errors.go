package audit

import "fmt"

// Error is a job-level fatal error: no PageResult is produced.
type Error struct {
	SiteURL string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("audit of %s failed: %s: %v", e.SiteURL, e.Message, e.Cause)
	}
	return fmt.Sprintf("audit of %s failed: %s", e.SiteURL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
