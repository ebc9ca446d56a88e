package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/formworks/formworks-server/internal/engine"
	"github.com/formworks/formworks-server/internal/models"
	"github.com/formworks/formworks-server/internal/obs"
	"github.com/formworks/formworks-server/internal/storage"
)

// HandleCreateSubmission accepts a submission for a published form.
// Authentication is optional here: anonymous submitters identify
// themselves by email and name in the body.
func (s *RESTServer) HandleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	formID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid form id")
		return
	}

	var req struct {
		SubmittedByEmail string `json:"submitted_by_email"`
		SubmittedByName  string `json:"submitted_by_name"`
		Responses        []struct {
			FieldID string      `json:"field_id" validate:"required"`
			Value   interface{} `json:"value"`
		} `json:"responses"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	form, err := s.store.GetForm(ctx, formID)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	schema, err := engine.NewSchema(form)
	if err != nil {
		log.Error().Err(err).Str("form_id", formID.String()).Msg("Stored form has invalid schema")
		s.respondError(w, http.StatusInternalServerError, "form schema is invalid")
		return
	}

	payload := make(engine.Payload, 0, len(req.Responses))
	for _, resp := range req.Responses {
		fieldID, err := uuid.Parse(resp.FieldID)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid field id")
			return
		}
		payload = append(payload, engine.Answer{
			FieldID: fieldID,
			Value:   engine.FromJSON(resp.Value),
		})
	}

	submitter := engine.Submitter{
		Email: req.SubmittedByEmail,
		Name:  req.SubmittedByName,
	}
	if claims := claimsFrom(ctx); claims != nil {
		submitter.UserID = &claims.UserID
		submitter.Email = claims.Email
	}

	metadata := models.Variables{
		"ip":        r.RemoteAddr,
		"userAgent": r.UserAgent(),
	}

	submission, err := s.workflow.CreateSubmission(ctx, schema, payload, submitter, metadata)
	if err != nil {
		if status, kind, ok := engineErrorStatus(err); ok {
			obs.SubmissionRejected(kind)
			s.respondError(w, status, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Signature files are already on disk; if the insert does not
	// commit they must not be left orphaned
	discardAttachments := func() {
		for _, attachment := range submission.Attachments {
			if err := s.files.Remove(attachment.StoredFilename); err != nil {
				log.Warn().Err(err).Str("file", attachment.StoredFilename).Msg("Failed to remove orphaned signature file")
			}
		}
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		discardAttachments()
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The workflow's duplicate pre-check ran on the bare pool; repeat it
	// under the form row lock so concurrent submitters serialize here
	if !form.AllowMultipleSubmissions && submission.SubmittedBy != nil {
		if err := tx.LockForm(ctx, form.ID); err != nil {
			tx.Rollback()
			discardAttachments()
			s.respondStorageError(w, err)
			return
		}
		exists, err := tx.HasSubmission(ctx, form.ID, *submission.SubmittedBy)
		if err != nil {
			tx.Rollback()
			discardAttachments()
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if exists {
			tx.Rollback()
			discardAttachments()
			obs.SubmissionRejected("duplicate_submission")
			s.respondError(w, http.StatusConflict, "form already submitted")
			return
		}
	}

	if err := tx.CreateSubmission(ctx, submission); err != nil {
		tx.Rollback()
		discardAttachments()
		if err == storage.ErrDuplicateKey {
			obs.SubmissionRejected("duplicate_submission")
			s.respondError(w, http.StatusConflict, "form already submitted")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		discardAttachments()
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	obs.SubmissionCreated(string(submission.Status))
	s.events.SubmissionCreated(submission)

	s.respondJSON(w, http.StatusCreated, submission)
}

// HandleListSubmissions lists the tenant's submissions with optional
// form, status, submitter and time filters
func (s *RESTServer) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantScope(claimsFrom(ctx))
	if !ok {
		s.respondError(w, http.StatusForbidden, "tenant access required")
		return
	}

	filters, err := parseSubmissionFilters(r, tenantID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.listSubmissions(w, r, filters)
}

// HandleListFormSubmissions lists submissions for one form
func (s *RESTServer) HandleListFormSubmissions(w http.ResponseWriter, r *http.Request) {
	form, err := s.tenantForm(r)
	if err != nil {
		s.respondFormError(w, err)
		return
	}

	filters, err := parseSubmissionFilters(r, form.TenantID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filters.FormID = &form.ID

	s.listSubmissions(w, r, filters)
}

func (s *RESTServer) listSubmissions(w http.ResponseWriter, r *http.Request, filters storage.SubmissionFilters) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	submissions, total, err := s.store.ListSubmissions(r.Context(), filters, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": submissions,
		"total":       total,
	})
}

func parseSubmissionFilters(r *http.Request, tenantID uuid.UUID) (storage.SubmissionFilters, error) {
	filters := storage.SubmissionFilters{TenantID: tenantID}
	q := r.URL.Query()

	if raw := q.Get("form_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, errInvalidFilter("form_id")
		}
		filters.FormID = &id
	}
	if raw := q.Get("status"); raw != "" {
		status := models.SubmissionStatus(raw)
		if !status.Valid() {
			return filters, errInvalidFilter("status")
		}
		filters.Status = &status
	}
	if raw := q.Get("submitted_by"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, errInvalidFilter("submitted_by")
		}
		filters.SubmittedBy = &id
	}
	if raw := q.Get("start_time"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, errInvalidFilter("start_time")
		}
		filters.StartTime = &t
	}
	if raw := q.Get("end_time"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, errInvalidFilter("end_time")
		}
		filters.EndTime = &t
	}

	return filters, nil
}

type errInvalidFilter string

func (e errInvalidFilter) Error() string { return "invalid " + string(e) + " filter" }

// HandleGetSubmission gets a submission with its responses
func (s *RESTServer) HandleGetSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantScope(claimsFrom(ctx))
	if !ok {
		s.respondError(w, http.StatusForbidden, "tenant access required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	submission, err := s.store.GetSubmission(ctx, id, tenantID)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, submission)
}

// HandleReviewSubmission approves or rejects a pending submission
func (s *RESTServer) HandleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := claimsFrom(ctx)
	tenantID, ok := tenantScope(claims)
	if !ok {
		s.respondError(w, http.StatusForbidden, "tenant access required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	var req struct {
		Status   string `json:"status" validate:"required,oneof=approved rejected"`
		Comments string `json:"comments"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	submission, err := s.store.GetSubmission(ctx, id, tenantID)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	newStatus := models.SubmissionStatus(req.Status)
	if err := s.workflow.UpdateStatus(submission, newStatus, &claims.UserID, req.Comments); err != nil {
		if status, _, ok := engineErrorStatus(err); ok {
			s.respondError(w, status, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.store.UpdateSubmissionStatus(ctx, submission); err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.events.SubmissionDecided(submission)

	s.respondJSON(w, http.StatusOK, submission)
}

// HandleDeleteSubmission deletes a submission and its responses
func (s *RESTServer) HandleDeleteSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantScope(claimsFrom(ctx))
	if !ok {
		s.respondError(w, http.StatusForbidden, "tenant access required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	if err := s.store.DeleteSubmission(ctx, id, tenantID); err != nil {
		s.respondStorageError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDownloadFile serves a stored attachment, tenant-scoped
func (s *RESTServer) HandleDownloadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	attachment, err := s.store.GetFileAttachment(ctx, id)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	claims := claimsFrom(ctx)
	if claims == nil || (!claims.IsAdmin && (claims.TenantID == nil || *claims.TenantID != attachment.TenantID)) {
		s.respondError(w, http.StatusForbidden, "access denied")
		return
	}

	f, err := s.files.Open(attachment.StoredFilename)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", attachment.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+attachment.OriginalFilename+`"`)
	if _, err := io.Copy(w, f); err != nil {
		log.Error().Err(err).Str("file_id", id.String()).Msg("Failed to stream attachment")
	}
}
