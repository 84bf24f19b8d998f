package jobs

import (
	"errors"
	"fmt"
)

// ErrAuditInProgress is returned by Start when the site already has a running audit.
var ErrAuditInProgress = errors.New("audit already in progress for site")

// ErrJobNotFound is returned when no job-status record exists for an ID.
var ErrJobNotFound = errors.New("job not found")

// StoreError represents a failure in a status store or result sink.
type StoreError struct {
	Op      string
	JobID   string
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.JobID, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.JobID, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
