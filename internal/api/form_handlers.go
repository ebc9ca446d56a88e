package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/auth"
	"github.com/formworks/formworks-server/internal/engine"
	"github.com/formworks/formworks-server/internal/models"
	"github.com/formworks/formworks-server/internal/storage"
)

// fieldRequest is the wire shape of a form field in create/update requests
type fieldRequest struct {
	ID          string           `json:"id"`
	FieldType   string           `json:"field_type" validate:"required"`
	Label       string           `json:"label" validate:"required,max=200"`
	Key         string           `json:"key" validate:"max=64"`
	Placeholder string           `json:"placeholder"`
	HelpText    string           `json:"help_text"`
	Required    bool             `json:"required"`
	Options     []string         `json:"options"`
	Order       int              `json:"order"`
	VisibleIf   string           `json:"visible_if"`
	Config      models.Variables `json:"config"`
}

// buildFields converts field requests into model fields, assigning ids
// where the client did not supply one
func buildFields(formID uuid.UUID, reqs []fieldRequest) ([]*models.FormField, error) {
	fields := make([]*models.FormField, 0, len(reqs))
	for i, fr := range reqs {
		id := uuid.New()
		if fr.ID != "" {
			parsed, err := uuid.Parse(fr.ID)
			if err != nil {
				return nil, err
			}
			id = parsed
		}
		order := fr.Order
		if order == 0 {
			order = i
		}
		fields = append(fields, &models.FormField{
			ID:          id,
			FormID:      formID,
			FieldType:   models.FieldType(fr.FieldType),
			Label:       fr.Label,
			Key:         fr.Key,
			Placeholder: fr.Placeholder,
			HelpText:    fr.HelpText,
			Required:    fr.Required,
			Options:     fr.Options,
			Order:       order,
			VisibleIf:   fr.VisibleIf,
			Config:      fr.Config,
		})
	}
	return fields, nil
}

// saveForm runs a form mutation inside one transaction, so a form row
// never commits without its fields
func (s *RESTServer) saveForm(ctx context.Context, fn func(storage.Store) error) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// tenantScope resolves the tenant a form operation applies to
func tenantScope(claims *auth.Claims) (uuid.UUID, bool) {
	if claims == nil || claims.TenantID == nil {
		return uuid.Nil, false
	}
	return *claims.TenantID, true
}

// HandleListForms lists the tenant's forms
func (s *RESTServer) HandleListForms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantScope(claimsFrom(ctx))
	if !ok {
		s.respondError(w, http.StatusForbidden, "tenant access required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	forms, total, err := s.store.ListForms(ctx, tenantID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"forms": forms,
		"total": total,
	})
}

// HandleCreateForm creates a form after checking the schema is coherent
// and the tenant has form quota left
func (s *RESTServer) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := claimsFrom(ctx)
	tenantID, ok := tenantScope(claims)
	if !ok {
		s.respondError(w, http.StatusForbidden, "tenant access required")
		return
	}

	var req struct {
		Title                    string           `json:"title" validate:"required,min=1,max=200"`
		Description              string           `json:"description"`
		Header                   models.Variables `json:"header"`
		AllowMultipleSubmissions bool             `json:"allow_multiple_submissions"`
		RequiresApproval         bool             `json:"requires_approval"`
		Fields                   []fieldRequest   `json:"fields"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	count, err := s.store.CountActiveForms(ctx, tenantID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := engine.CheckFormLimit(tenant, count); err != nil {
		status, _, _ := engineErrorStatus(err)
		s.respondError(w, status, err.Error())
		return
	}

	form := &models.Form{
		ID:                       uuid.New(),
		TenantID:                 tenantID,
		CreatedBy:                &claims.UserID,
		Title:                    req.Title,
		Description:              req.Description,
		Header:                   req.Header,
		Version:                  1,
		AllowMultipleSubmissions: req.AllowMultipleSubmissions,
		RequiresApproval:         req.RequiresApproval,
		IsActive:                 true,
	}

	form.Fields, err = buildFields(form.ID, req.Fields)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid field id")
		return
	}

	if _, err := engine.NewSchema(form); err != nil {
		if status, _, ok := engineErrorStatus(err); ok {
			s.respondError(w, status, err.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.saveForm(ctx, func(tx storage.Store) error {
		return tx.CreateForm(ctx, form)
	})
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, form)
}

// HandleGetForm gets a form with its fields
func (s *RESTServer) HandleGetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.tenantForm(r)
	if err != nil {
		s.respondFormError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, form)
}

// HandleUpdateForm replaces a form's metadata and fields, bumping its version
func (s *RESTServer) HandleUpdateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := s.tenantForm(r)
	if err != nil {
		s.respondFormError(w, err)
		return
	}

	var req struct {
		Title                    string           `json:"title" validate:"required,min=1,max=200"`
		Description              string           `json:"description"`
		Header                   models.Variables `json:"header"`
		AllowMultipleSubmissions bool             `json:"allow_multiple_submissions"`
		RequiresApproval         bool             `json:"requires_approval"`
		Fields                   []fieldRequest   `json:"fields"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	form.Title = req.Title
	form.Description = req.Description
	form.Header = req.Header
	form.AllowMultipleSubmissions = req.AllowMultipleSubmissions
	form.RequiresApproval = req.RequiresApproval

	form.Fields, err = buildFields(form.ID, req.Fields)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid field id")
		return
	}

	if _, err := engine.NewSchema(form); err != nil {
		if status, _, ok := engineErrorStatus(err); ok {
			s.respondError(w, status, err.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.saveForm(ctx, func(tx storage.Store) error {
		return tx.UpdateForm(ctx, form)
	})
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, form)
}

// HandleDeleteForm deactivates a form; submissions are kept
func (s *RESTServer) HandleDeleteForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.tenantForm(r)
	if err != nil {
		s.respondFormError(w, err)
		return
	}

	if err := s.store.DeleteForm(r.Context(), form.ID); err != nil {
		s.respondStorageError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandlePublishForm opens a form for submissions
func (s *RESTServer) HandlePublishForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := s.tenantForm(r)
	if err != nil {
		s.respondFormError(w, err)
		return
	}

	if !form.IsPublished {
		now := time.Now().UTC()
		form.IsPublished = true
		form.PublishedAt = &now
		err = s.saveForm(ctx, func(tx storage.Store) error {
			return tx.UpdateForm(ctx, form)
		})
		if err != nil {
			s.respondStorageError(w, err)
			return
		}
	}

	s.respondJSON(w, http.StatusOK, form)
}

// HandleUnpublishForm closes a form to new submissions
func (s *RESTServer) HandleUnpublishForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := s.tenantForm(r)
	if err != nil {
		s.respondFormError(w, err)
		return
	}

	if form.IsPublished {
		form.IsPublished = false
		form.PublishedAt = nil
		err = s.saveForm(ctx, func(tx storage.Store) error {
			return tx.UpdateForm(ctx, form)
		})
		if err != nil {
			s.respondStorageError(w, err)
			return
		}
	}

	s.respondJSON(w, http.StatusOK, form)
}

// tenantForm loads the form from the route and checks it belongs to the
// caller's tenant
func (s *RESTServer) tenantForm(r *http.Request) (*models.Form, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, errInvalidFormID
	}

	form, err := s.store.GetForm(r.Context(), id)
	if err != nil {
		return nil, err
	}

	claims := claimsFrom(r.Context())
	if claims == nil {
		return nil, errForbiddenForm
	}
	if !claims.IsAdmin && (claims.TenantID == nil || *claims.TenantID != form.TenantID) {
		return nil, errForbiddenForm
	}
	return form, nil
}

var (
	errInvalidFormID = authError("invalid form id")
	errForbiddenForm = authError("access denied")
)

// respondFormError translates tenantForm failures
func (s *RESTServer) respondFormError(w http.ResponseWriter, err error) {
	switch err {
	case errInvalidFormID:
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errForbiddenForm:
		s.respondError(w, http.StatusForbidden, err.Error())
	default:
		s.respondStorageError(w, err)
	}
}
