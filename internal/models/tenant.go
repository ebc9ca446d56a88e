package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanTier represents a tenant subscription plan
type PlanTier string

// Plan tiers
const (
	PlanFree       PlanTier = "free"
	PlanPro        PlanTier = "pro"
	PlanAdvanced   PlanTier = "advanced"
	PlanEnterprise PlanTier = "enterprise"
)

// Valid reports whether the plan tier is a known value
func (p PlanTier) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanAdvanced, PlanEnterprise:
		return true
	}
	return false
}

// Tenant represents a tenant/organization
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name      string `json:"name" db:"name"`
	Subdomain string `json:"subdomain" db:"subdomain"`

	// Billing
	Plan         PlanTier `json:"plan" db:"plan"`
	BillingEmail string   `json:"billingEmail,omitempty" db:"billing_email"`

	// Limits derived from plan at creation, kept for display
	MaxUserCount int `json:"maxUserCount" db:"max_user_count"`
	MaxFormCount int `json:"maxFormCount" db:"max_form_count"`

	// Contact
	ContactEmail string `json:"contactEmail,omitempty" db:"contact_email"`
	ContactPhone string `json:"contactPhone,omitempty" db:"contact_phone"`
	Address      string `json:"address,omitempty" db:"address"`

	// Status
	IsActive    bool       `json:"isActive" db:"is_active"`
	SuspendedAt *time.Time `json:"suspendedAt,omitempty" db:"suspended_at"`
}
