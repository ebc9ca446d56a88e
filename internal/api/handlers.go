package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/formworks/formworks-server/internal/auth"
	"github.com/formworks/formworks-server/internal/engine"
	"github.com/formworks/formworks-server/internal/models"
	"github.com/formworks/formworks-server/pkg/crypto"
)

// ========== Health ==========

// HandleHealth reports service liveness
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// ========== Auth handlers ==========

// HandleLogin handles user login
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !user.IsActive {
		s.respondError(w, http.StatusForbidden, "account is disabled")
		return
	}

	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to record login time")
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleRefresh handles token refresh
func (s *RESTServer) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := s.auth.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil || !user.IsActive {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleGetCurrentUser gets the authenticated user
func (s *RESTServer) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

// ========== Tenant handlers ==========

// HandleListTenants lists tenants
func (s *RESTServer) HandleListTenants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := claimsFrom(ctx)
	if claims == nil || !claims.IsAdmin {
		s.respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tenants, total, err := s.store.ListTenants(ctx, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tenants": tenants,
		"total":   total,
	})
}

// HandleCreateTenant creates a tenant
func (s *RESTServer) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil || !claims.IsAdmin {
		s.respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	var req struct {
		Name         string `json:"name" validate:"required,min=3,max=100"`
		Subdomain    string `json:"subdomain" validate:"required,min=3,max=63"`
		Plan         string `json:"plan" validate:"oneof=free pro advanced enterprise"`
		BillingEmail string `json:"billing_email"`
		ContactEmail string `json:"contact_email"`
		ContactPhone string `json:"contact_phone"`
		Address      string `json:"address"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Plan == "" {
		req.Plan = string(models.PlanFree)
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan := models.PlanTier(req.Plan)
	limits := engine.LimitsFor(plan)

	tenant := &models.Tenant{
		Name:         req.Name,
		Subdomain:    req.Subdomain,
		Plan:         plan,
		BillingEmail: req.BillingEmail,
		MaxUserCount: limits.MaxUsers,
		MaxFormCount: limits.MaxForms,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
		IsActive:     true,
	}

	if err := s.store.CreateTenant(r.Context(), tenant); err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, tenant)
}

// HandleGetTenant gets a tenant
func (s *RESTServer) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	claims := claimsFrom(ctx)
	if claims == nil || (!claims.IsAdmin && (claims.TenantID == nil || *claims.TenantID != id)) {
		s.respondError(w, http.StatusForbidden, "access denied")
		return
	}

	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, tenant)
}

// HandleUpdateTenant updates a tenant
func (s *RESTServer) HandleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := claimsFrom(ctx)
	if claims == nil || !claims.IsAdmin {
		s.respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	var req struct {
		Name         string `json:"name" validate:"required,min=3,max=100"`
		Plan         string `json:"plan" validate:"oneof=free pro advanced enterprise"`
		BillingEmail string `json:"billing_email"`
		ContactEmail string `json:"contact_email"`
		ContactPhone string `json:"contact_phone"`
		Address      string `json:"address"`
		IsActive     *bool  `json:"is_active"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	if req.Plan == "" {
		req.Plan = string(tenant.Plan)
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant.Name = req.Name
	tenant.BillingEmail = req.BillingEmail
	tenant.ContactEmail = req.ContactEmail
	tenant.ContactPhone = req.ContactPhone
	tenant.Address = req.Address

	if plan := models.PlanTier(req.Plan); plan != tenant.Plan {
		limits := engine.LimitsFor(plan)
		tenant.Plan = plan
		tenant.MaxUserCount = limits.MaxUsers
		tenant.MaxFormCount = limits.MaxForms
	}

	if req.IsActive != nil {
		tenant.IsActive = *req.IsActive
		if tenant.IsActive {
			tenant.SuspendedAt = nil
		} else if tenant.SuspendedAt == nil {
			now := time.Now().UTC()
			tenant.SuspendedAt = &now
		}
	}

	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, tenant)
}

// HandleDeleteTenant deletes a tenant
func (s *RESTServer) HandleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil || !claims.IsAdmin {
		s.respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	if err := s.store.DeleteTenant(r.Context(), id); err != nil {
		s.respondStorageError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ========== User handlers ==========

// HandleListUsers lists users, scoped to the caller's tenant unless admin
func (s *RESTServer) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := claimsFrom(ctx)
	if claims == nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tenantID := claims.TenantID
	if claims.IsAdmin {
		if raw := r.URL.Query().Get("tenant_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				s.respondError(w, http.StatusBadRequest, "invalid tenant id")
				return
			}
			tenantID = &id
		} else {
			tenantID = nil
		}
	}

	users, total, err := s.store.ListUsers(ctx, tenantID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
	})
}

// HandleCreateUser creates a user within the tenant's plan limits
func (s *RESTServer) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := claimsFrom(ctx)
	if claims == nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required,min=8"`
		FirstName string `json:"first_name" validate:"max=100"`
		LastName  string `json:"last_name" validate:"max=100"`
		TenantID  string `json:"tenant_id"`
		IsAdmin   bool   `json:"is_admin"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenantID := claims.TenantID
	if claims.IsAdmin && req.TenantID != "" {
		id, err := uuid.Parse(req.TenantID)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid tenant id")
			return
		}
		tenantID = &id
	}
	if req.IsAdmin && !claims.IsAdmin {
		s.respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	if tenantID != nil {
		tenant, err := s.store.GetTenant(ctx, *tenantID)
		if err != nil {
			s.respondStorageError(w, err)
			return
		}

		count, err := s.store.CountActiveUsers(ctx, tenant.ID)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := engine.CheckUserLimit(tenant, count); err != nil {
			status, _, _ := engineErrorStatus(err)
			s.respondError(w, status, err.Error())
			return
		}
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := &models.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
		IsActive:     true,
		TenantID:     tenantID,
		Settings:     models.Variables{},
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, user)
}

// HandleGetUser gets a user
func (s *RESTServer) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	if !s.canAccessUser(claimsFrom(ctx), user) {
		s.respondError(w, http.StatusForbidden, "access denied")
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

// HandleUpdateUser updates a user
func (s *RESTServer) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		FirstName string           `json:"first_name" validate:"max=100"`
		LastName  string           `json:"last_name" validate:"max=100"`
		Password  string           `json:"password"`
		IsActive  *bool            `json:"is_active"`
		Settings  models.Variables `json:"settings"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	if !s.canAccessUser(claimsFrom(ctx), user) {
		s.respondError(w, http.StatusForbidden, "access denied")
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	if req.Password != "" {
		if len(req.Password) < 8 {
			s.respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hash, err := crypto.HashPassword(req.Password)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		user.PasswordHash = hash
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Settings != nil {
		user.Settings = req.Settings
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.respondStorageError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

// HandleDeleteUser deletes a user
func (s *RESTServer) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}

	claims := claimsFrom(ctx)
	if claims == nil || !claims.IsAdmin && !(claims.TenantID != nil && user.TenantID != nil && *claims.TenantID == *user.TenantID) {
		s.respondError(w, http.StatusForbidden, "access denied")
		return
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		s.respondStorageError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// canAccessUser reports whether the caller may read or modify the user
func (s *RESTServer) canAccessUser(claims *auth.Claims, user *models.User) bool {
	if claims == nil {
		return false
	}
	if claims.IsAdmin || claims.UserID == user.ID {
		return true
	}
	return claims.TenantID != nil && user.TenantID != nil && *claims.TenantID == *user.TenantID
}
