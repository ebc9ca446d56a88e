package models

import (
	"time"

	"github.com/google/uuid"
)

// FieldType represents the type of a form field
type FieldType string

// Supported field types
const (
	FieldTypeText      FieldType = "text"
	FieldTypeTextarea  FieldType = "textarea"
	FieldTypeNumber    FieldType = "number"
	FieldTypeEmail     FieldType = "email"
	FieldTypeURL       FieldType = "url"
	FieldTypePhone     FieldType = "phone"
	FieldTypeSelect    FieldType = "select"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeFile      FieldType = "file"
	FieldTypeDate      FieldType = "date"
	FieldTypeTime      FieldType = "time"
	FieldTypeTable     FieldType = "table"
	FieldTypeSignature FieldType = "signature"
	FieldTypeSection   FieldType = "section"
)

// Form represents a form definition
type Form struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	TenantID  uuid.UUID  `json:"tenantId" db:"tenant_id"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`

	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	Header      Variables `json:"header,omitempty" db:"header"`

	Version int `json:"version" db:"version"`

	// Settings
	AllowMultipleSubmissions bool `json:"allowMultipleSubmissions" db:"allow_multiple_submissions"`
	RequiresApproval         bool `json:"requiresApproval" db:"requires_approval"`

	// Status
	IsActive    bool       `json:"isActive" db:"is_active"`
	IsPublished bool       `json:"isPublished" db:"is_published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" db:"published_at"`

	// Owned fields, loaded in display order
	Fields []*FormField `json:"fields,omitempty" db:"-"`
}

// FormField represents a single field within a form
type FormField struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	FormID uuid.UUID `json:"formId" db:"form_id"`

	FieldType FieldType `json:"fieldType" db:"field_type"`
	Label     string    `json:"label" db:"label"`

	// Key is a short machine name, referenced by visibility rules
	Key string `json:"key,omitempty" db:"key"`

	Placeholder string `json:"placeholder,omitempty" db:"placeholder"`
	HelpText    string `json:"helpText,omitempty" db:"help_text"`

	Required bool `json:"required" db:"required"`

	// Options for select/radio/checkbox fields
	Options StringSlice `json:"options,omitempty" db:"options"`

	// Display order in form
	Order int `json:"order" db:"field_order"`

	// VisibleIf is an optional expression over sibling answers; a field
	// whose expression evaluates to false is hidden and exempt from the
	// required check
	VisibleIf string `json:"visibleIf,omitempty" db:"visible_if"`

	// Config holds variant-specific configuration for table, signature
	// and section fields; the engine converts it into a typed value
	Config Variables `json:"config,omitempty" db:"config"`
}
