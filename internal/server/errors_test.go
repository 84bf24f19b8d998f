package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/seo-auditor/internal/jobs"
	"github.com/jonathan/seo-auditor/internal/remediation"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Field: "site_url", Message: "required"}, http.StatusBadRequest},
		{"not found", &ErrNotFound{Resource: "job", ID: "x"}, http.StatusNotFound},
		{"unknown job", jobs.ErrJobNotFound, http.StatusNotFound},
		{"unknown target", fmt.Errorf("resolve: %w", remediation.ErrTargetNotFound), http.StatusNotFound},
		{"busy site", fmt.Errorf("start: %w", jobs.ErrAuditInProgress), http.StatusConflict},
		{"unsupported", remediation.ErrUnsupported, http.StatusUnprocessableEntity},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: urls - failed \"min\" rule",
		(&ErrValidation{Field: "urls", Message: `failed "min" rule`}).Error())
	assert.Equal(t, "audit result not found: abc", (&ErrNotFound{Resource: "audit result", ID: "abc"}).Error())
}
