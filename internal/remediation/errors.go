// Package remediation maps audited URLs to content entities and applies fixes
// for detected issues, writing metadata through every active convention and
// falling back between AI-assisted and rule-based strategies.
package remediation

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetNotFound is returned when a URL maps to no content item or term.
	ErrTargetNotFound = errors.New("target not found")
	// ErrUnsupported is returned for issue types with no registered handler.
	ErrUnsupported = errors.New("no automated fix available")
	// ErrNotApplicable is returned by a Writer that has no field for the target.
	ErrNotApplicable = errors.New("field not applicable to target")
)

// WriteError reports a metadata write that no writer completed.
type WriteError struct {
	Field   Field
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("metadata write error (%s): %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("metadata write error (%s): %s", e.Field, e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// HandlerError represents a failure inside a fix handler.
type HandlerError struct {
	IssueType string
	Message   string
	Cause     error
}

func (e *HandlerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s fix failed: %s: %v", e.IssueType, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s fix failed: %s", e.IssueType, e.Message)
}

func (e *HandlerError) Unwrap() error {
	return e.Cause
}
