package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/formworks/formworks-server/internal/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidData  = errors.New("invalid data")
)

// Store defines the storage interface
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, tenantID *uuid.UUID, limit, offset int) ([]*models.User, int64, error)
	CountActiveUsers(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Tenant methods
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error
	DeleteTenant(ctx context.Context, id uuid.UUID) error
	ListTenants(ctx context.Context, limit, offset int) ([]*models.Tenant, int64, error)

	// Form methods
	CreateForm(ctx context.Context, form *models.Form) error
	GetForm(ctx context.Context, id uuid.UUID) (*models.Form, error)
	UpdateForm(ctx context.Context, form *models.Form) error
	LockForm(ctx context.Context, id uuid.UUID) error
	DeleteForm(ctx context.Context, id uuid.UUID) error
	ListForms(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Form, int64, error)
	CountActiveForms(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Submission methods
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	GetSubmission(ctx context.Context, id, tenantID uuid.UUID) (*models.Submission, error)
	HasSubmission(ctx context.Context, formID, userID uuid.UUID) (bool, error)
	UpdateSubmissionStatus(ctx context.Context, submission *models.Submission) error
	DeleteSubmission(ctx context.Context, id, tenantID uuid.UUID) error
	ListSubmissions(ctx context.Context, filters SubmissionFilters, limit, offset int) ([]*models.Submission, int64, error)

	// File attachment methods
	CreateFileAttachment(ctx context.Context, attachment *models.FileAttachment) error
	GetFileAttachment(ctx context.Context, id uuid.UUID) (*models.FileAttachment, error)

	// Close the store
	Close() error
}

// SubmissionFilters represents filters for submission listings
type SubmissionFilters struct {
	TenantID    uuid.UUID
	FormID      *uuid.UUID
	Status      *models.SubmissionStatus
	SubmittedBy *uuid.UUID
	StartTime   *time.Time
	EndTime     *time.Time
}
