package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus represents the lifecycle state of a submission
type SubmissionStatus string

// Submission statuses
const (
	SubmissionDraft     SubmissionStatus = "draft"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionApproved  SubmissionStatus = "approved"
	SubmissionRejected  SubmissionStatus = "rejected"
)

// Valid reports whether the status is a known value
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionDraft, SubmissionSubmitted, SubmissionPending,
		SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// Submission represents one respondent's complete answer set for a form
type Submission struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	FormID   uuid.UUID `json:"formId" db:"form_id"`
	TenantID uuid.UUID `json:"tenantId" db:"tenant_id"`

	// Submitter; nil user means anonymous
	SubmittedBy      *uuid.UUID `json:"submittedBy,omitempty" db:"submitted_by"`
	SubmittedByEmail string     `json:"submittedByEmail,omitempty" db:"submitted_by_email"`
	SubmittedByName  string     `json:"submittedByName,omitempty" db:"submitted_by_name"`

	Status SubmissionStatus `json:"status" db:"status"`

	// Review decision
	ReviewedBy     *uuid.UUID `json:"reviewedBy,omitempty" db:"reviewed_by"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty" db:"reviewed_at"`
	ReviewComments string     `json:"reviewComments,omitempty" db:"review_comments"`

	// Client IP, user agent and similar request context
	Metadata Variables `json:"metadata,omitempty" db:"metadata"`

	SubmittedAt *time.Time `json:"submittedAt,omitempty" db:"submitted_at"`

	// Owned responses
	Responses []*SubmissionResponse `json:"responses,omitempty" db:"-"`

	// Attachments created alongside the responses, persisted atomically
	// with them
	Attachments []*FileAttachment `json:"-" db:"-"`
}

// SubmissionResponse represents the answer to a single form field.
// Exactly one value slot is populated, matching the field's value shape.
type SubmissionResponse struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	SubmissionID uuid.UUID `json:"submissionId" db:"submission_id"`
	FieldID      uuid.UUID `json:"fieldId" db:"field_id"`

	ValueText   *string         `json:"valueText,omitempty" db:"value_text"`
	ValueNumber *float64        `json:"valueNumber,omitempty" db:"value_number"`
	ValueBool   *bool           `json:"valueBool,omitempty" db:"value_bool"`
	ValueDate   *time.Time      `json:"valueDate,omitempty" db:"value_date"`
	ValueJSON   json.RawMessage `json:"valueJson,omitempty" db:"value_json"`

	// Opaque locator of a stored file; signature responses always use
	// this slot, never the raw payload
	FileRef *string `json:"fileRef,omitempty" db:"file_ref"`

	FileAttachmentID *uuid.UUID `json:"fileAttachmentId,omitempty" db:"file_attachment_id"`
}

// FileAttachment represents a stored file referenced by a response
type FileAttachment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	TenantID   uuid.UUID  `json:"tenantId" db:"tenant_id"`
	UploadedBy *uuid.UUID `json:"uploadedBy,omitempty" db:"uploaded_by"`

	OriginalFilename string `json:"originalFilename" db:"original_filename"`
	StoredFilename   string `json:"storedFilename" db:"stored_filename"`
	FilePath         string `json:"filePath" db:"file_path"`
	FileSize         int64  `json:"fileSize" db:"file_size"`
	MimeType         string `json:"mimeType" db:"mime_type"`
}
