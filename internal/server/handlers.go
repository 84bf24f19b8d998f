package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jonathan/seo-auditor/internal/remediation"
	"github.com/jonathan/seo-auditor/internal/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// AuditRequest starts an audit.
type AuditRequest struct {
	SiteURL string `json:"site_url" validate:"required,url"`
	MaxURLs int    `json:"max_urls" validate:"gte=0,lte=100000"`
}

// FixRequest applies one fix type to a batch of URLs.
type FixRequest struct {
	IssueType string   `json:"issue_type" validate:"required"`
	URLs      []string `json:"urls" validate:"required,min=1,max=500,dive,required,url"`
}

// FixResponse reports a fix batch in input order.
type FixResponse struct {
	IssueType string            `json:"issue_type"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []types.FixResult `json:"results"`
}

// decode reads and validates a JSON request body.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("failed %q rule", fe.Tag())}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

func (s *Server) handleStartAudit(w http.ResponseWriter, r *http.Request) {
	var req AuditRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorFrom(w, err)
		return
	}
	if req.MaxURLs == 0 {
		req.MaxURLs = s.cfg.MaxURLs
	}

	job, err := s.deps.Jobs.Start(r.Context(), req.SiteURL, req.MaxURLs)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	w.Header().Set("Location", "/audits/"+job.ID)
	s.jsonResponse(w, http.StatusAccepted, job)
}

func (s *Server) handleAuditStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Jobs.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleAuditEvents streams "progress" events until the job reaches a
// terminal state, then sends a final "complete" event with the job record.
func (s *Server) handleAuditEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	updates, cancel := s.deps.Jobs.Subscribe(jobID)
	defer cancel()

	job, err := s.deps.Jobs.Status(r.Context(), jobID)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if job.Status.Terminal() {
		sse.WriteEvent("complete", job) //nolint:errcheck
		return
	}
	if err := sse.WriteEvent("progress", job); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case update, ok := <-updates:
			if !ok {
				final, err := s.deps.Jobs.Status(r.Context(), jobID)
				if err != nil {
					sse.WriteError(err.Error())
					return
				}
				sse.WriteEvent("complete", final) //nolint:errcheck
				return
			}
			if update.Status.Terminal() {
				continue
			}
			if err := sse.WriteEvent("progress", update); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleAuditResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if s.deps.Results == nil {
		s.errorFrom(w, &ErrNotFound{Resource: "audit result", ID: jobID})
		return
	}

	result, err := s.deps.Results.GetAuditResult(r.Context(), jobID)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	if result == nil {
		s.errorFrom(w, &ErrNotFound{Resource: "audit result", ID: jobID})
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleFixes(w http.ResponseWriter, r *http.Request) {
	if s.deps.Fixes == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "remediation is not configured")
		return
	}

	var req FixRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorFrom(w, err)
		return
	}
	if !s.deps.Fixes.Supports(req.IssueType) {
		s.errorFrom(w, fmt.Errorf("%w: %s", remediation.ErrUnsupported, req.IssueType))
		return
	}

	results := s.deps.Fixes.FixBatch(r.Context(), req.IssueType, req.URLs)
	resp := FixResponse{IssueType: req.IssueType, Results: results}
	for _, res := range results {
		if res.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
