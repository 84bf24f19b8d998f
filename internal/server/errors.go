package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/seo-auditor/internal/jobs"
	"github.com/jonathan/seo-auditor/internal/remediation"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	var notFoundErr *ErrNotFound

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.Is(err, jobs.ErrJobNotFound), errors.Is(err, remediation.ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, jobs.ErrAuditInProgress):
		return http.StatusConflict
	case errors.Is(err, remediation.ErrUnsupported):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
